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
// Responsibility (COR) pattern's Command interface. This file defines the
// last pipeline step: batch transcription of the deferred records.
//
// Logic Flow:
// The deferred records cross the asynchronous batch boundary keyed by
// video id. The command submits their local audio paths in deferred
// order; the transcription client returns one raw payload per path in
// that same order, so position re-associates payload with id and the
// id-keyed map guards the association against any reordering introduced
// upstream. Each payload is normalized to plain text; an empty
// normalization drops that one video. Surviving records are finalized:
// content set, cache written, record collected. A batch-level failure
// (including the distinct timeout kind) is a command error and aborts
// the run.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/speech"
)

// BatchTranscribe finalizes the deferred records through the batch
// transcription client.
type BatchTranscribe struct {
	cor.BaseCommand
	transcriber      AudioTranscriber
	store            TranscriptStore
	bucket           string
	uploadPrefix     string
	transcriptPrefix string
}

// NewBatchTranscribe is the constructor for the BatchTranscribe command.
//
// Inputs:
//   - name: the command name.
//   - transcriber: the batch transcription client.
//   - store: the transcript cache written as records finalize.
//   - bucket: the workspace bucket for job inputs and outputs.
//   - uploadPrefix: object prefix for uploaded audio.
//   - transcriptPrefix: object prefix for batch output documents.
func NewBatchTranscribe(name string, transcriber AudioTranscriber, store TranscriptStore, bucket string, uploadPrefix string, transcriptPrefix string) *BatchTranscribe {
	return &BatchTranscribe{
		BaseCommand:      *cor.NewBaseCommand(name),
		transcriber:      transcriber,
		store:            store,
		bucket:           bucket,
		uploadPrefix:     uploadPrefix,
		transcriptPrefix: transcriptPrefix,
	}
}

// Execute transcribes the deferred records and finalizes the survivors.
func (c *BatchTranscribe) Execute(context cor.Context) {
	deferred := context.Get(c.GetInputParam()).([]*model.DeferredRecord)
	collector := context.Get(ParamCollector).(*RecordCollector)
	ctx := context.GetContext()

	if len(deferred) == 0 {
		c.GetSuccessCounter().Add(ctx, 1)
		context.Add(c.GetOutputParam(), 0)
		return
	}

	// The id-keyed map is the durable association across the batch
	// boundary; the paths slice only fixes submission order.
	byID := make(map[string]*model.DeferredRecord, len(deferred))
	order := make([]string, 0, len(deferred))
	paths := make([]string, 0, len(deferred))
	for _, record := range deferred {
		byID[record.Record.Id] = record
		order = append(order, record.Record.Id)
		paths = append(paths, record.AudioPath)
	}

	payloads, err := c.transcriber.Transcribe(ctx, paths, c.bucket, c.uploadPrefix, c.transcriptPrefix)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("batch transcription failed: %w", err))
		return
	}
	if len(payloads) != len(order) {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), fmt.Errorf("batch transcription returned %d payloads for %d inputs", len(payloads), len(order)))
		return
	}

	finalized := 0
	for i, id := range order {
		text, err := speech.NormalizeResult(payloads[i])
		if err != nil {
			slog.WarnContext(ctx, "skipping video, unusable batch result", "id", id, "error", err)
			continue
		}
		if text == "" {
			slog.WarnContext(ctx, "skipping video, batch result produced no text", "id", id)
			continue
		}
		record := byID[id].Record
		record.Content = text
		if err := c.store.Put(id, record); err != nil {
			c.GetErrorCounter().Add(ctx, 1)
			context.AddError(c.GetName(), err)
			return
		}
		collector.Add(record)
		finalized++
	}
	slog.InfoContext(ctx, "batch transcription complete", "submitted", len(order), "finalized", finalized)

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), finalized)
}
