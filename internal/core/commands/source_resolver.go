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
// first command of the pipeline: expanding the configured source list
// (single videos and playlists, URLs and bare ids) into an ordered,
// deduplicated list of video identifiers.
package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/sources"
)

// SourceResolver is the command wrapper around the source resolver. Its
// input is the raw source string list; its output is the resolved id
// list, which it also publishes under ParamResolvedIds so the workflow
// can restore output ordering at the end of the run.
type SourceResolver struct {
	cor.BaseCommand
	resolver *sources.Resolver
	maxAge   time.Duration // Playlist discovery age filter; zero disables it.
}

// NewSourceResolver is the constructor for the SourceResolver command.
func NewSourceResolver(name string, resolver *sources.Resolver, maxAge time.Duration) *SourceResolver {
	return &SourceResolver{
		BaseCommand: *cor.NewBaseCommand(name),
		resolver:    resolver,
		maxAge:      maxAge,
	}
}

// Execute resolves the source list and pipes the ordered ids forward.
func (c *SourceResolver) Execute(context cor.Context) {
	sourceList := context.Get(c.GetInputParam()).([]string)

	ids, err := c.resolver.Resolve(context.GetContext(), sourceList, c.maxAge)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to resolve sources: %w", err))
		return
	}
	slog.InfoContext(context.GetContext(), "resolved sources", "sources", len(sourceList), "videos", len(ids))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(ParamResolvedIds, ids)
	context.Add(c.GetOutputParam(), ids)
}
