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
// cache gate: every resolved id is checked against the persistent store
// before any network work happens for it. Hits go straight to the record
// collector; only misses flow to the next command.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
)

// CacheLookup filters the resolved id list through the transcript store.
type CacheLookup struct {
	cor.BaseCommand
	store TranscriptStore
}

// NewCacheLookup is the constructor for the CacheLookup command.
func NewCacheLookup(name string, store TranscriptStore) *CacheLookup {
	return &CacheLookup{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
	}
}

// Execute collects cached records and pipes the remaining ids forward. A
// corrupt cache entry is treated as a miss so the video is re-fetched and
// the entry rewritten.
func (c *CacheLookup) Execute(context cor.Context) {
	ids := context.Get(c.GetInputParam()).([]string)
	collector := context.Get(ParamCollector).(*RecordCollector)

	misses := make([]string, 0, len(ids))
	hits := 0
	for _, id := range ids {
		record, ok, err := c.store.Get(id)
		if err != nil {
			slog.WarnContext(context.GetContext(), "unreadable cache entry, treating as miss", "id", id, "error", err)
		}
		if ok && err == nil {
			collector.Add(record)
			hits++
			continue
		}
		misses = append(misses, id)
	}
	slog.InfoContext(context.GetContext(), "cache lookup complete", "hits", hits, "misses", len(misses))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), misses)
}
