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
// ingestion pipeline. This file contains the typed records used at the
// collaborator boundaries. External services hand back loosely shaped
// payloads; the adapters in internal/cloud validate the required fields
// and convert them into these structs before anything flows inward, so
// the rest of the pipeline never touches an untyped map.
package model

import (
	"errors"
	"strings"
	"time"
)

// ErrMalformedListing is returned by the listing adapter when a playlist
// item or video metadata payload is missing a required field.
var ErrMalformedListing = errors.New("listing payload missing required field")

// ErrVideoNotFound is returned when a metadata lookup finds no video for
// the requested id. The orchestrator treats it as a per-item soft failure.
var ErrVideoNotFound = errors.New("video not found")

// DescriptionSeparator marks the end of the human-written part of a video
// description. Everything after it is boilerplate and is discarded.
const DescriptionSeparator = "--------"

// PlaylistEntry is one item of a paginated playlist listing: the video it
// points at and the moment it was published. The publish timestamp drives
// the resolver's age filter.
type PlaylistEntry struct {
	VideoId     string    // The id of the listed video.
	PublishedAt time.Time // Publish time in UTC.
}

// PlaylistPage is one page of a playlist listing. An empty NextPageToken
// marks the final page.
type PlaylistPage struct {
	Entries       []PlaylistEntry
	NextPageToken string
}

// VideoMetadata is the typed shape of a single-video metadata lookup.
type VideoMetadata struct {
	Title       string
	Description string
	Keywords    []string
	PublishedAt time.Time
}

// CaptionTrack describes one timed-text track advertised for a video.
// Kind is "asr" for auto-generated tracks; the extractor treats a track
// named "a.<lang>" and a track with Kind "asr" identically.
type CaptionTrack struct {
	LanguageCode string // e.g. "en"
	Kind         string // "" for human tracks, "asr" for auto-generated.
	BaseURL      string // URL of the timed-text XML document.
}

// AudioFormat describes one downloadable audio-only stream of a video.
type AudioFormat struct {
	Url      string
	MimeType string // e.g. "audio/webm; codecs=\"opus\""
	Bitrate  int64
}

// VideoStreams is the result of probing a single video: whether it can be
// played at all, which caption tracks exist, and which audio-only streams
// are available for the transcription fallback.
type VideoStreams struct {
	VideoId       string
	Playable      bool
	UnplayableFor string // Collaborator-supplied reason when Playable is false.
	CaptionTracks []CaptionTrack
	AudioFormats  []AudioFormat
}

// BestAudio picks the audio stream used for the transcription fallback:
// the highest-bitrate format, with "audio/webm" preferred over other
// containers at any bitrate. Returns nil when the video advertises no
// audio-only streams.
func (v *VideoStreams) BestAudio() *AudioFormat {
	var best *AudioFormat
	for i := range v.AudioFormats {
		format := &v.AudioFormats[i]
		if best == nil {
			best = format
			continue
		}
		bestWebm := strings.HasPrefix(best.MimeType, "audio/webm")
		formatWebm := strings.HasPrefix(format.MimeType, "audio/webm")
		if formatWebm != bestWebm {
			if formatWebm {
				best = format
			}
			continue
		}
		if format.Bitrate > best.Bitrate {
			best = format
		}
	}
	return best
}

// ProbedVideo pairs a video's in-progress record with the stream
// information its availability probe returned.
type ProbedVideo struct {
	Record  *VideoRecord
	Streams *VideoStreams
}

// DeferredRecord holds a video that was routed to the audio path. The
// record stays in memory, keyed by its video id, until the batch
// transcription step completes and writes the transcript back into it.
// Keying by id (not list position) is what re-associates asynchronous
// batch results with their originating video after the batch boundary.
type DeferredRecord struct {
	Record    *VideoRecord
	Audio     *AudioFormat // The audio stream chosen for transcription.
	AudioPath string       // Local path of the downloaded audio file, set by the download step.
}

// TrimDescription reduces a raw video description to its leading
// human-written portion: the text before the separator marker, cut again
// at the first blank-line paragraph break, with surrounding whitespace
// removed.
func TrimDescription(raw string) string {
	head, _, _ := strings.Cut(raw, DescriptionSeparator)
	head, _, _ = strings.Cut(head, "\n\n")
	return strings.TrimSpace(head)
}
