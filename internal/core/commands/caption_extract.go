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
// caption path, the cheap transcript source tried before audio
// transcription.
//
// Logic Flow:
// Each probed video's caption tracks go through the selection policy. A
// selected track is fetched and normalized; non-empty text finalizes the
// record on the spot: content set, cache written, record collected. A
// video with no usable track, an empty normalization, or a failed fetch
// falls through to the audio path as a deferred record, keyed by its
// video id so the batch boundary can re-associate results later. A video
// with neither captions nor audio streams is skipped entirely.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/captions"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// CaptionExtract finalizes captioned videos and defers the rest to the
// audio path.
type CaptionExtract struct {
	cor.BaseCommand
	extractor CaptionExtractor
	store     TranscriptStore
}

// NewCaptionExtract is the constructor for the CaptionExtract command.
func NewCaptionExtract(name string, extractor CaptionExtractor, store TranscriptStore) *CaptionExtract {
	return &CaptionExtract{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
		store:       store,
	}
}

// Execute routes each probed video down the caption or audio path.
func (c *CaptionExtract) Execute(context cor.Context) {
	probed := context.Get(c.GetInputParam()).([]*model.ProbedVideo)
	collector := context.Get(ParamCollector).(*RecordCollector)
	ctx := context.GetContext()

	deferred := make([]*model.DeferredRecord, 0)
	captioned := 0
	for _, video := range probed {
		id := video.Record.Id

		if track := captions.SelectTrack(video.Streams.CaptionTracks); track != nil {
			text, err := c.extractor.Extract(ctx, track)
			if err != nil {
				slog.WarnContext(ctx, "caption fetch failed, deferring to audio path", "id", id, "error", err)
			} else if text != "" {
				video.Record.Content = text
				if err := c.store.Put(id, video.Record); err != nil {
					c.GetErrorCounter().Add(ctx, 1)
					context.AddError(c.GetName(), err)
					return
				}
				collector.Add(video.Record)
				captioned++
				continue
			}
		}

		audio := video.Streams.BestAudio()
		if audio == nil {
			slog.WarnContext(ctx, "skipping video with no captions and no audio streams", "id", id)
			continue
		}
		deferred = append(deferred, &model.DeferredRecord{
			Record: video.Record,
			Audio:  audio,
		})
	}
	slog.InfoContext(ctx, "caption extraction complete", "captioned", captioned, "deferred", len(deferred))

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), deferred)
}
