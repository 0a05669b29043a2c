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

// Package speech implements the audio transcription client: the fallback
// path for videos that carry no caption track. It drives the asynchronous
// batch recognition collaborator through object storage.
//
// Logic Flow:
//  1. The input audio files are split into consecutive groups of at most
//     MaxFilesPerOperation files. The limit is a hard constraint of the
//     batch API and is never exceeded per call.
//  2. Per group, each local file is uploaded to the workspace bucket under
//     the upload prefix, one batch job is submitted referencing all of the
//     uploaded objects, and the call blocks until the job's terminal
//     result is available. The wait is bounded by a configurable timeout;
//     expiry surfaces as ErrBatchTimeout, a distinct retryable error kind.
//  3. The job result maps each submitted object URI to an output object
//     URI. Output ordering is re-established from that mapping in input
//     order, never assumed from the response's own iteration order.
//  4. Each output object is downloaded as text, then both the output
//     object and the uploaded input object are deleted. On job failure the
//     uploaded inputs are removed best-effort; a cleanup failure is logged
//     and never masks the job error.
//  5. Results from all groups are concatenated, preserving global input
//     order.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
)

// MaxFilesPerOperation is the maximum number of audio files one batch
// recognition call may reference. Hard limit of the collaborator API.
const MaxFilesPerOperation = 15

// ErrBatchTimeout reports that a batch job did not reach a terminal state
// within the configured wait bound. The uploads may still exist; the call
// is safe to retry.
var ErrBatchTimeout = errors.New("batch recognition wait timed out")

// BatchRecognizer is the asynchronous recognition collaborator: submit one
// batch job and block until its terminal response.
type BatchRecognizer interface {
	Recognize(ctx context.Context, req *speechpb.BatchRecognizeRequest) (*speechpb.BatchRecognizeResponse, error)
}

// ObjectStore is the object storage collaborator used for job inputs and
// outputs.
type ObjectStore interface {
	// Upload copies a local file to bucket/object.
	Upload(ctx context.Context, bucket string, object string, localPath string) error
	// DownloadText reads bucket/object as text.
	DownloadText(ctx context.Context, bucket string, object string) (string, error)
	// Delete removes bucket/object.
	Delete(ctx context.Context, bucket string, object string) error
}

// Transcriber batches local audio files through the recognition
// collaborator and returns the raw result payloads in input order.
type Transcriber struct {
	store          ObjectStore
	recognizer     BatchRecognizer
	recognizerName string        // Full recognizer resource name, e.g. projects/p/locations/global/recognizers/_.
	batchTimeout   time.Duration // Upper bound on one batch job's wait; zero means no bound.
}

// NewTranscriber creates a Transcriber for the default recognizer of the
// given project and location.
//
// Inputs:
//   - store: the object storage collaborator.
//   - recognizer: the batch recognition collaborator.
//   - project, location: addressing for the default recognizer resource.
//   - batchTimeout: per-job wait bound; zero disables the bound.
//
// Outputs:
//   - *Transcriber: the ready client.
func NewTranscriber(store ObjectStore, recognizer BatchRecognizer, project string, location string, batchTimeout time.Duration) *Transcriber {
	return &Transcriber{
		store:          store,
		recognizer:     recognizer,
		recognizerName: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", project, location),
		batchTimeout:   batchTimeout,
	}
}

// Transcribe runs every local audio file through batch recognition and
// returns one raw result payload per input path, in input order. Inputs
// are chunked so no single batch call exceeds MaxFilesPerOperation files.
func (t *Transcriber) Transcribe(ctx context.Context, localPaths []string, bucket string, uploadPrefix string, outputPrefix string) ([]string, error) {
	results := make([]string, 0, len(localPaths))
	for start := 0; start < len(localPaths); start += MaxFilesPerOperation {
		end := min(start+MaxFilesPerOperation, len(localPaths))
		chunk, err := t.transcribeGroup(ctx, localPaths[start:end], bucket, uploadPrefix, outputPrefix)
		if err != nil {
			return nil, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

// transcribeGroup processes one group of at most MaxFilesPerOperation
// files as a single batch job.
func (t *Transcriber) transcribeGroup(ctx context.Context, localPaths []string, bucket string, uploadPrefix string, outputPrefix string) ([]string, error) {
	bucketURIPrefix := fmt.Sprintf("gs://%s/", bucket)

	// Upload the group's audio files to the workspace bucket. The object
	// keeps its original base name under the upload prefix.
	inputURIs := make([]string, 0, len(localPaths))
	for _, localPath := range localPaths {
		object := path.Join(uploadPrefix, filepath.Base(localPath))
		if err := t.store.Upload(ctx, bucket, object, localPath); err != nil {
			t.cleanupInputs(ctx, bucket, inputURIs)
			return nil, fmt.Errorf("failed to upload %s: %w", localPath, err)
		}
		inputURIs = append(inputURIs, bucketURIPrefix+object)
	}

	response, err := t.recognize(ctx, inputURIs, bucketURIPrefix+outputPrefix)
	if err != nil {
		// Best-effort removal of the uploaded inputs so a failed job does
		// not leak workspace objects. The job error stays authoritative.
		t.cleanupInputs(ctx, bucket, inputURIs)
		return nil, err
	}

	// Re-establish input order from the input-uri to output-uri mapping.
	// The response map carries no ordering of its own. A failure while
	// retrieving results removes the uploaded inputs the same way the job
	// failure path does.
	payloads := make([]string, 0, len(inputURIs))
	for _, inputURI := range inputURIs {
		fileResult, ok := response.GetResults()[inputURI]
		if !ok {
			t.cleanupInputs(ctx, bucket, inputURIs)
			return nil, fmt.Errorf("batch response missing result for %s", inputURI)
		}
		outputURI := fileResult.GetCloudStorageResult().GetUri()
		if outputURI == "" {
			outputURI = fileResult.GetUri()
		}
		if outputURI == "" {
			t.cleanupInputs(ctx, bucket, inputURIs)
			return nil, fmt.Errorf("batch response carries no output object for %s", inputURI)
		}
		outputObject := strings.TrimPrefix(outputURI, bucketURIPrefix)
		payload, err := t.store.DownloadText(ctx, bucket, outputObject)
		if err != nil {
			t.cleanupInputs(ctx, bucket, inputURIs)
			return nil, fmt.Errorf("failed to download batch result %s: %w", outputURI, err)
		}
		if err := t.store.Delete(ctx, bucket, outputObject); err != nil {
			t.cleanupInputs(ctx, bucket, inputURIs)
			return nil, fmt.Errorf("failed to delete batch result %s: %w", outputURI, err)
		}
		payloads = append(payloads, payload)
	}

	t.cleanupInputs(ctx, bucket, inputURIs)
	return payloads, nil
}

// recognize submits one batch job and waits for its terminal response
// under the configured wait bound.
func (t *Transcriber) recognize(ctx context.Context, inputURIs []string, outputURI string) (*speechpb.BatchRecognizeResponse, error) {
	files := make([]*speechpb.BatchRecognizeFileMetadata, 0, len(inputURIs))
	for _, uri := range inputURIs {
		files = append(files, &speechpb.BatchRecognizeFileMetadata{
			AudioSource: &speechpb.BatchRecognizeFileMetadata_Uri{Uri: uri},
		})
	}

	request := &speechpb.BatchRecognizeRequest{
		Recognizer: t.recognizerName,
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Model:         "long",
			LanguageCodes: []string{"en-US"},
			Features: &speechpb.RecognitionFeatures{
				ProfanityFilter:            true,
				EnableWordTimeOffsets:      true,
				EnableWordConfidence:       true,
				EnableAutomaticPunctuation: true,
			},
		},
		Files: files,
		RecognitionOutputConfig: &speechpb.RecognitionOutputConfig{
			Output: &speechpb.RecognitionOutputConfig_GcsOutputConfig{
				GcsOutputConfig: &speechpb.GcsOutputConfig{Uri: outputURI},
			},
		},
	}

	waitCtx := ctx
	if t.batchTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.batchTimeout)
		defer cancel()
	}

	response, err := t.recognizer.Recognize(waitCtx, request)
	if err != nil {
		// Only the configured bound earns the retryable timeout kind. A
		// deadline inherited from the caller's own context stays a plain
		// recognition error.
		if t.batchTimeout > 0 && waitCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s", ErrBatchTimeout, t.batchTimeout)
		}
		return nil, fmt.Errorf("batch recognition failed: %w", err)
	}
	return response, nil
}

// cleanupInputs deletes the given input object URIs, logging failures
// without surfacing them.
func (t *Transcriber) cleanupInputs(ctx context.Context, bucket string, inputURIs []string) {
	bucketURIPrefix := fmt.Sprintf("gs://%s/", bucket)
	for _, uri := range inputURIs {
		object := strings.TrimPrefix(uri, bucketURIPrefix)
		if err := t.store.Delete(ctx, bucket, object); err != nil {
			slog.Warn("failed to delete uploaded audio object", "uri", uri, "error", err)
		}
	}
}
