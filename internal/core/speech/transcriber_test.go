// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package speech_test contains unit tests for the batch transcription
// client: group sizing, input-order restoration, the wait bound, and
// workspace cleanup on both success and failure.
package speech_test

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/speech"
)

const (
	testBucket       = "test-workspace"
	testAudioPrefix  = "audio"
	testOutputPrefix = "transcripts"
)

// fakeObjectStore is an in-memory ObjectStore recording every operation.
type fakeObjectStore struct {
	mu          sync.Mutex
	objects     map[string]string // object name -> content
	uploads     []string
	deletes     []string
	uploadErr   error
	downloadErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string]string{}}
}

func (f *fakeObjectStore) Upload(_ context.Context, _ string, object string, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[object] = "audio-bytes:" + localPath
	f.uploads = append(f.uploads, object)
	return nil
}

func (f *fakeObjectStore) DownloadText(_ context.Context, _ string, object string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	content, ok := f.objects[object]
	if !ok {
		return "", fmt.Errorf("no such object %s", object)
	}
	return content, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, _ string, object string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, object)
	f.deletes = append(f.deletes, object)
	return nil
}

// fakeRecognizer simulates the batch API: each submitted input produces
// an output object in the store, and the response maps input URI to
// output URI through an unordered map.
type fakeRecognizer struct {
	store     *fakeObjectStore
	calls     [][]string // input URIs per Recognize call
	returnErr error
	block     bool // when set, Recognize blocks until the context expires
}

func (f *fakeRecognizer) Recognize(ctx context.Context, req *speechpb.BatchRecognizeRequest) (*speechpb.BatchRecognizeResponse, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.returnErr != nil {
		return nil, f.returnErr
	}

	inputs := make([]string, 0, len(req.Files))
	results := make(map[string]*speechpb.BatchRecognizeFileResult)
	for _, file := range req.Files {
		inputURI := file.GetUri()
		inputs = append(inputs, inputURI)

		outputObject := path.Join(testOutputPrefix, path.Base(inputURI)+".json")
		f.store.mu.Lock()
		f.store.objects[outputObject] = "payload-for:" + path.Base(inputURI)
		f.store.mu.Unlock()

		results[inputURI] = &speechpb.BatchRecognizeFileResult{
			Result: &speechpb.BatchRecognizeFileResult_CloudStorageResult{
				CloudStorageResult: &speechpb.CloudStorageResult{
					Uri: fmt.Sprintf("gs://%s/%s", testBucket, outputObject),
				},
			},
		}
	}
	f.calls = append(f.calls, inputs)
	return &speechpb.BatchRecognizeResponse{Results: results}, nil
}

func localPaths(n int) []string {
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		paths = append(paths, fmt.Sprintf("/tmp/audio-%02d.webm", i))
	}
	return paths
}

// TestTranscribeSixteenFilesUsesTwoBatches verifies the group sizing: 16
// inputs mean exactly two batch calls, the first at the 15-file limit,
// and the returned payloads follow global input order.
func TestTranscribeSixteenFilesUsesTwoBatches(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	paths := localPaths(16)
	payloads, err := transcriber.Transcribe(context.Background(), paths, testBucket, testAudioPrefix, testOutputPrefix)
	require.NoError(t, err)

	require.Len(t, recognizer.calls, 2)
	assert.Len(t, recognizer.calls[0], speech.MaxFilesPerOperation)
	assert.Len(t, recognizer.calls[1], 1)

	require.Len(t, payloads, 16)
	for i, payload := range payloads {
		assert.Equal(t, "payload-for:"+path.Base(paths[i]), payload)
	}
}

// TestTranscribeUnderLimitUsesOneBatch verifies that a group at or below
// the limit submits a single job.
func TestTranscribeUnderLimitUsesOneBatch(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	_, err := transcriber.Transcribe(context.Background(), localPaths(3), testBucket, testAudioPrefix, testOutputPrefix)
	require.NoError(t, err)
	assert.Len(t, recognizer.calls, 1)
}

// TestTranscribeRemovesWorkspaceObjects verifies that both the uploaded
// inputs and the downloaded outputs are deleted after a successful run.
func TestTranscribeRemovesWorkspaceObjects(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	_, err := transcriber.Transcribe(context.Background(), localPaths(2), testBucket, testAudioPrefix, testOutputPrefix)
	require.NoError(t, err)

	assert.Empty(t, store.objects)
	// Two inputs and two outputs deleted.
	assert.Len(t, store.deletes, 4)
}

// TestTranscribeTimeoutIsDistinctError verifies that a job exceeding the
// wait bound surfaces as ErrBatchTimeout, the retryable error kind.
func TestTranscribeTimeoutIsDistinctError(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store, block: true}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 20*time.Millisecond)

	_, err := transcriber.Transcribe(context.Background(), localPaths(1), testBucket, testAudioPrefix, testOutputPrefix)
	require.Error(t, err)
	assert.True(t, errors.Is(err, speech.ErrBatchTimeout))
}

// TestTranscribeJobFailureCleansUpInputs verifies that a failed job
// removes the uploaded inputs best-effort while the job error stays
// authoritative.
func TestTranscribeJobFailureCleansUpInputs(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store, returnErr: errors.New("backend exploded")}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	_, err := transcriber.Transcribe(context.Background(), localPaths(2), testBucket, testAudioPrefix, testOutputPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")

	// Every uploaded input was deleted again.
	for _, object := range store.uploads {
		assert.Contains(t, store.deletes, object)
	}
	assert.Empty(t, store.objects)
}

// TestTranscribeCallerDeadlineIsNotBatchTimeout verifies that a deadline
// inherited from the caller's own context is a plain recognition error:
// only the configured wait bound earns the retryable timeout kind.
func TestTranscribeCallerDeadlineIsNotBatchTimeout(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store, block: true}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := transcriber.Transcribe(ctx, localPaths(1), testBucket, testAudioPrefix, testOutputPrefix)
	require.Error(t, err)
	assert.False(t, errors.Is(err, speech.ErrBatchTimeout))
}

// TestTranscribeResultDownloadFailureCleansUpInputs verifies that a
// failure while retrieving an output object still removes the group's
// uploaded inputs, matching the job-failure path.
func TestTranscribeResultDownloadFailureCleansUpInputs(t *testing.T) {
	store := newFakeObjectStore()
	store.downloadErr = errors.New("object store unavailable")
	recognizer := &fakeRecognizer{store: store}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	_, err := transcriber.Transcribe(context.Background(), localPaths(2), testBucket, testAudioPrefix, testOutputPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object store unavailable")

	// Every uploaded input was deleted again.
	for _, object := range store.uploads {
		assert.Contains(t, store.deletes, object)
	}
}

// TestTranscribeUploadFailureAborts verifies that a failed upload stops
// the group before any job is submitted.
func TestTranscribeUploadFailureAborts(t *testing.T) {
	store := newFakeObjectStore()
	store.uploadErr = errors.New("no space left")
	recognizer := &fakeRecognizer{store: store}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	_, err := transcriber.Transcribe(context.Background(), localPaths(2), testBucket, testAudioPrefix, testOutputPrefix)
	require.Error(t, err)
	assert.Empty(t, recognizer.calls)
}

// TestTranscribeUploadNamesKeepBaseName verifies that objects land under
// the upload prefix with their local base name.
func TestTranscribeUploadNamesKeepBaseName(t *testing.T) {
	store := newFakeObjectStore()
	recognizer := &fakeRecognizer{store: store}
	transcriber := speech.NewTranscriber(store, recognizer, "test-project", "global", 0)

	_, err := transcriber.Transcribe(context.Background(), []string{"/tmp/work/clip.webm"}, testBucket, testAudioPrefix, testOutputPrefix)
	require.NoError(t, err)

	require.Len(t, store.uploads, 1)
	assert.Equal(t, testAudioPrefix+"/clip.webm", store.uploads[0])
	assert.True(t, strings.HasPrefix(recognizer.calls[0][0], "gs://"+testBucket+"/"+testAudioPrefix+"/"))
}
