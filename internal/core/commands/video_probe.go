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
// probe step for cache-missed videos.
//
// Logic Flow:
// For each id the cache could not serve, the command fetches the video's
// metadata and probes its availability. A video that cannot be served is
// skipped, never fatal: a missing video, a malformed metadata payload, or
// an unplayable probe drops that one id with a log line and the run moves
// on. Videos that survive leave the command as ProbedVideo pairs, each
// carrying an in-progress record built from the typed metadata.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// VideoProbe turns cache-missed ids into probed videos with in-progress
// records.
type VideoProbe struct {
	cor.BaseCommand
	metadata MetadataService
	prober   VideoProber
}

// NewVideoProbe is the constructor for the VideoProbe command.
func NewVideoProbe(name string, metadata MetadataService, prober VideoProber) *VideoProbe {
	return &VideoProbe{
		BaseCommand: *cor.NewBaseCommand(name),
		metadata:    metadata,
		prober:      prober,
	}
}

// Execute probes every missed id and pipes the playable videos forward.
func (c *VideoProbe) Execute(context cor.Context) {
	ids := context.Get(c.GetInputParam()).([]string)
	ctx := context.GetContext()

	probed := make([]*model.ProbedVideo, 0, len(ids))
	for _, id := range ids {
		meta, err := c.metadata.VideoMetadata(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "skipping video, metadata unavailable", "id", id, "error", err)
			continue
		}
		streams, err := c.prober.Probe(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "skipping video, probe failed", "id", id, "error", err)
			continue
		}
		if !streams.Playable {
			slog.WarnContext(ctx, "skipping unplayable video", "id", id, "reason", streams.UnplayableFor)
			continue
		}
		probed = append(probed, &model.ProbedVideo{
			Record:  model.NewVideoRecord(id, meta),
			Streams: streams,
		})
	}
	slog.InfoContext(ctx, "probe complete", "candidates", len(ids), "playable", len(probed))

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), probed)
}
