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

// Package commands_test contains scenario tests for the assembled
// pipeline: the full command chain wired to in-memory collaborators,
// exercising the cache gate, the two transcription paths, and the
// ordering and idempotence guarantees.
package commands_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cache"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/sources"
)

const tName = "pipeline_test"

var logger = otelslog.NewLogger(tName)

// fakeBackend plays every collaborator role behind the pipeline and
// counts each interaction, so tests can assert which paths ran.
type fakeBackend struct {
	playlists map[string][]string // playlist id -> video ids
	captioned map[string]string   // video id -> caption transcript
	audio     map[string]string   // video id -> audio-path transcript
	workDir   string

	listCalls       int
	metadataCalls   int
	probeCalls      int
	extractCalls    int
	downloadCalls   int
	transcribeCalls int
	transcribePaths [][]string
}

func (f *fakeBackend) ListPlaylistPage(_ context.Context, playlistID string, _ string) (*model.PlaylistPage, error) {
	f.listCalls++
	page := &model.PlaylistPage{}
	for _, id := range f.playlists[playlistID] {
		page.Entries = append(page.Entries, model.PlaylistEntry{VideoId: id, PublishedAt: time.Now().UTC().Add(-time.Hour)})
	}
	return page, nil
}

func (f *fakeBackend) VideoMetadata(_ context.Context, id string) (*model.VideoMetadata, error) {
	f.metadataCalls++
	return &model.VideoMetadata{
		Title:       "Title " + id,
		Description: "Description " + id,
		Keywords:    []string{"news"},
		PublishedAt: time.Now().UTC().Add(-time.Hour),
	}, nil
}

func (f *fakeBackend) Probe(_ context.Context, id string) (*model.VideoStreams, error) {
	f.probeCalls++
	streams := &model.VideoStreams{VideoId: id, Playable: true}
	if _, ok := f.captioned[id]; ok {
		streams.CaptionTracks = []model.CaptionTrack{{LanguageCode: "en", BaseURL: "track://" + id}}
	}
	if _, ok := f.audio[id]; ok {
		streams.AudioFormats = []model.AudioFormat{{Url: "audio://" + id, MimeType: "audio/webm", Bitrate: 128000}}
	}
	return streams, nil
}

func (f *fakeBackend) Extract(_ context.Context, track *model.CaptionTrack) (string, error) {
	f.extractCalls++
	id := track.BaseURL[len("track://"):]
	return f.captioned[id], nil
}

func (f *fakeBackend) DownloadAudio(_ context.Context, audio *model.AudioFormat, dir string) (string, error) {
	f.downloadCalls++
	id := audio.Url[len("audio://"):]
	path := filepath.Join(dir, id+".webm")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeBackend) Transcribe(_ context.Context, localPaths []string, _ string, _ string, _ string) ([]string, error) {
	f.transcribeCalls++
	f.transcribePaths = append(f.transcribePaths, localPaths)
	payloads := make([]string, 0, len(localPaths))
	for _, localPath := range localPaths {
		id := filepath.Base(localPath)
		id = id[:len(id)-len(".webm")]
		payloads = append(payloads, fmt.Sprintf(`{"results":[{"alternatives":[{"transcript":%q,"confidence":0.9}]}]}`, f.audio[id]))
	}
	return payloads, nil
}

// pipeline assembles the full command chain over the fake backend and a
// real on-disk cache, mirroring the production wiring.
type pipeline struct {
	backend *fakeBackend
	store   *cache.Store
	chain   cor.Chain
}

func newPipeline(t *testing.T, backend *fakeBackend) *pipeline {
	t.Helper()
	store, err := cache.NewStore(filepath.Join(backend.workDir, "cache"))
	require.NoError(t, err)

	chain := cor.NewBaseChain("test-pipeline")
	chain.AddCommand(commands.NewSourceResolver("resolve-sources", sources.NewResolver(backend), 0))
	chain.AddCommand(commands.NewCacheLookup("cache-lookup", store))
	chain.AddCommand(commands.NewVideoProbe("probe-videos", backend, backend))
	chain.AddCommand(commands.NewCaptionExtract("extract-captions", backend, store))
	chain.AddCommand(commands.NewAudioDownload("download-audio", backend, backend.workDir))
	chain.AddCommand(commands.NewBatchTranscribe("batch-transcribe", backend, store, "bucket", "audio", "transcripts"))
	return &pipeline{backend: backend, store: store, chain: chain}
}

func (p *pipeline) run(t *testing.T, sourceList []string) []*model.VideoRecord {
	t.Helper()
	runContext := cor.NewBaseContext()
	runContext.SetContext(context.Background())
	defer runContext.Close()

	collector := commands.NewRecordCollector()
	runContext.Add(commands.ParamCollector, collector)
	runContext.Add(cor.CtxIn, sourceList)

	p.chain.Execute(runContext)
	require.False(t, runContext.HasErrors(), "pipeline errors: %v", runContext.GetErrors())

	resolved, _ := runContext.Get(commands.ParamResolvedIds).([]string)
	records := collector.Ordered(resolved)
	logger.Info("pipeline run finished", "resolved", len(resolved), "records", len(records))
	return records
}

func newBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		playlists: map[string][]string{},
		captioned: map[string]string{},
		audio:     map[string]string{},
		workDir:   t.TempDir(),
	}
}

// TestPipelineMixedPlaylist runs the canonical scenario: a three-video
// playlist where two videos are already cached and one carries captions.
// The cached videos must bypass every collaborator, and the output keeps
// playlist order.
func TestPipelineMixedPlaylist(t *testing.T) {
	backend := newBackend(t)
	backend.playlists["PLnews"] = []string{"vidcached01", "vidcached02", "vidcaption3"}
	backend.captioned["vidcaption3"] = "the fresh transcript"

	p := newPipeline(t, backend)
	for _, id := range []string{"vidcached01", "vidcached02"} {
		require.NoError(t, p.store.Put(id, &model.VideoRecord{Id: id, Title: "Cached " + id, Content: "cached transcript"}))
	}

	records := p.run(t, []string{"PLnews"})

	require.Len(t, records, 3)
	assert.Equal(t, "vidcached01", records[0].Id)
	assert.Equal(t, "vidcached02", records[1].Id)
	assert.Equal(t, "vidcaption3", records[2].Id)
	assert.Equal(t, "the fresh transcript", records[2].Content)

	// Only the cache miss touched the collaborators.
	assert.Equal(t, 1, backend.metadataCalls)
	assert.Equal(t, 1, backend.probeCalls)
	assert.Equal(t, 1, backend.extractCalls)
	assert.Equal(t, 0, backend.transcribeCalls)
}

// TestPipelineCaptionlessVideosUseAudioPath verifies the fallback: the
// caption-less videos are downloaded and batch-transcribed in deferral
// order, and every emitted record carries non-empty content.
func TestPipelineCaptionlessVideosUseAudioPath(t *testing.T) {
	backend := newBackend(t)
	ids := make([]string, 0, 16)
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("vidaudio%03d", i)
		ids = append(ids, id)
		backend.audio[id] = fmt.Sprintf("spoken transcript %d", i)
	}

	p := newPipeline(t, backend)
	records := p.run(t, ids)

	require.Len(t, records, 16)
	for i, record := range records {
		assert.Equal(t, ids[i], record.Id)
		assert.Equal(t, backend.audio[record.Id], record.Content)
		assert.NotEmpty(t, record.Content)
	}

	// One submission containing all sixteen files in deferral order; the
	// transcription client owns the per-batch sizing below this seam.
	require.Equal(t, 1, backend.transcribeCalls)
	require.Len(t, backend.transcribePaths[0], 16)
	assert.Equal(t, 16, backend.downloadCalls)
	assert.Equal(t, 0, backend.extractCalls)
}

// TestPipelineIsIdempotent verifies that a second identical run is
// served entirely from the cache: same records, no new collaborator
// traffic past the resolver.
func TestPipelineIsIdempotent(t *testing.T) {
	backend := newBackend(t)
	backend.playlists["PLnews"] = []string{"vidcaption1", "vidaudio001"}
	backend.captioned["vidcaption1"] = "captioned text"
	backend.audio["vidaudio001"] = "spoken text"

	p := newPipeline(t, backend)

	first := p.run(t, []string{"PLnews"})
	require.Len(t, first, 2)
	metadataAfterFirst := backend.metadataCalls
	transcribeAfterFirst := backend.transcribeCalls

	second := p.run(t, []string{"PLnews"})
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
	assert.Equal(t, metadataAfterFirst, backend.metadataCalls)
	assert.Equal(t, transcribeAfterFirst, backend.transcribeCalls)
}

// TestPipelineEmitsNoDuplicates verifies cross-source deduplication: the
// same video named directly, by URL, and through a playlist yields one
// record.
func TestPipelineEmitsNoDuplicates(t *testing.T) {
	backend := newBackend(t)
	backend.playlists["PLnews"] = []string{"vidshared01"}
	backend.captioned["vidshared01"] = "once only"

	p := newPipeline(t, backend)
	records := p.run(t, []string{
		"vidshared01",
		"PLnews",
		"https://www.youtube.com/watch?v=vidshared01",
	})

	require.Len(t, records, 1)
	assert.Equal(t, "vidshared01", records[0].Id)
	assert.Equal(t, 1, backend.metadataCalls)
}

// TestPipelineDropsVideosWithoutTranscript verifies that a video with
// neither captions nor audio streams is dropped rather than emitted with
// empty content.
func TestPipelineDropsVideosWithoutTranscript(t *testing.T) {
	backend := newBackend(t)
	backend.captioned["vidcaption1"] = "has captions"
	// vidbarren01 is playable but advertises no tracks and no audio.

	p := newPipeline(t, backend)
	records := p.run(t, []string{"vidcaption1", "vidbarren01"})

	require.Len(t, records, 1)
	assert.Equal(t, "vidcaption1", records[0].Id)
	for _, record := range records {
		assert.NotEmpty(t, record.Content)
	}
}
