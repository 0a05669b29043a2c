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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the transcript
// pipeline. This file defines the shared context parameter keys, the
// record collector every finalizing command writes to, and the
// collaborator interfaces the commands depend on. The interfaces are
// satisfied by the adapters in internal/cloud and by test doubles.
package commands

import (
	"context"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// Context parameter keys shared across the pipeline commands. The
// collector and resolved-id list live under fixed names because every
// finalizing command needs them regardless of its position in the chain.
const (
	ParamCollector   = "__RECORD_COLLECTOR__"
	ParamResolvedIds = "__RESOLVED_IDS__"
)

// RecordCollector accumulates finalized transcript records over one
// pipeline run, keyed by video id. Records arrive out of source order
// (cache hits first, then captioned videos, then batch results); Ordered
// restores the resolved source order at the end of the run.
type RecordCollector struct {
	records map[string]*model.VideoRecord
}

// NewRecordCollector creates an empty collector.
func NewRecordCollector() *RecordCollector {
	return &RecordCollector{records: make(map[string]*model.VideoRecord)}
}

// Add stores a finalized record. A second Add for the same id overwrites
// the first; finalizing commands never produce duplicates within a run.
func (c *RecordCollector) Add(record *model.VideoRecord) {
	c.records[record.Id] = record
}

// Len returns the number of collected records.
func (c *RecordCollector) Len() int {
	return len(c.records)
}

// Ordered returns the collected records in the order of the given id
// list. Ids with no record (skipped videos) are omitted.
func (c *RecordCollector) Ordered(ids []string) []*model.VideoRecord {
	out := make([]*model.VideoRecord, 0, len(c.records))
	for _, id := range ids {
		if record, ok := c.records[id]; ok {
			out = append(out, record)
		}
	}
	return out
}

// MetadataService is the single-video metadata collaborator.
type MetadataService interface {
	VideoMetadata(ctx context.Context, id string) (*model.VideoMetadata, error)
}

// VideoProber is the availability probe collaborator: one call per video
// answering playability, caption tracks, and audio streams.
type VideoProber interface {
	Probe(ctx context.Context, videoID string) (*model.VideoStreams, error)
}

// CaptionExtractor fetches a caption track and returns its normalized
// plain-text transcript.
type CaptionExtractor interface {
	Extract(ctx context.Context, track *model.CaptionTrack) (string, error)
}

// AudioDownloader downloads one audio stream into dir and returns the
// local file path.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, audio *model.AudioFormat, dir string) (string, error)
}

// AudioTranscriber runs local audio files through batch recognition and
// returns one raw result payload per input path, in input order.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, localPaths []string, bucket string, uploadPrefix string, outputPrefix string) ([]string, error)
}

// TranscriptStore is the persistent cache consulted before any network
// work for an id and written the moment a record is finalized.
type TranscriptStore interface {
	Get(id string) (*model.VideoRecord, bool, error)
	Put(id string, record *model.VideoRecord) error
}
