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

// Package model defines the core data structures for the transcript
// ingestion pipeline. This file contains the VideoRecord, the canonical
// per-video unit of work and final pipeline output, together with its
// constructor.
//
// A VideoRecord is created during source resolution with an empty Content
// field, populated by either the caption path or the audio transcription
// path, and persisted to the cache store the moment it is finalized. The
// pipeline never emits a record whose Content is empty: a video that never
// obtains a transcript is dropped, not returned blank.
package model

import "time"

// WatchURLPrefix is the canonical watch URL prefix used to build the
// Url field of a VideoRecord from its id.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// VideoRecord is the unit of work flowing through the pipeline and the
// shape of every cache entry. Field order is stable; the cache store
// serializes records exactly as declared here.
type VideoRecord struct {
	Id                string   `json:"id"`                 // Opaque source-assigned identifier, stable across runs. Primary key.
	Title             string   `json:"title"`              // The video title.
	Description       string   `json:"description"`        // Text preceding the description separator or the first blank-line paragraph.
	PublishedDatetime string   `json:"published_datetime"` // ISO-8601 publish timestamp, UTC.
	Keywords          []string `json:"keywords"`           // Ordered keyword list from the source metadata.
	Url               string   `json:"url"`                // Canonical watch URL.
	Content           string   `json:"content"`            // Plain-text transcript. Empty only transiently before transcription completes.
}

// NewVideoRecord is the constructor for a VideoRecord. It builds the record
// from the typed metadata returned by the listing collaborator, trims the
// description down to its leading paragraph, and leaves Content empty for
// one of the two transcription paths to fill in.
//
// Inputs:
//   - id: the source-assigned video identifier.
//   - meta: the typed metadata record for the video.
//
// Outputs:
//   - *VideoRecord: a record in the Discovered state (Content == "").
func NewVideoRecord(id string, meta *VideoMetadata) *VideoRecord {
	return &VideoRecord{
		Id:                id,
		Title:             meta.Title,
		Description:       TrimDescription(meta.Description),
		PublishedDatetime: meta.PublishedAt.UTC().Format(time.RFC3339),
		Keywords:          meta.Keywords,
		Url:               WatchURLPrefix + id,
	}
}
