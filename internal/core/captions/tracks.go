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

// Package captions turns a video's timed-text caption markup into the
// plain-text transcript stored on a VideoRecord. This file implements the
// track selection policy and the fetch of the selected track.
package captions

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// TrackLanguage is the caption language the pipeline transcribes.
const TrackLanguage = "en"

// autoGeneratedPrefix marks auto-generated tracks in sources that name
// them "a.<lang>" instead of flagging them with the "asr" kind.
const autoGeneratedPrefix = "a."

// SelectTrack applies the language policy to a video's advertised caption
// tracks: prefer an explicit "en" track, fall back to an auto-generated
// "en" track, otherwise report that the video has no usable captions.
//
// Inputs:
//   - tracks: the caption tracks advertised by the probe.
//
// Outputs:
//   - *model.CaptionTrack: the chosen track, or nil when none qualifies.
func SelectTrack(tracks []model.CaptionTrack) *model.CaptionTrack {
	var auto *model.CaptionTrack
	for i := range tracks {
		track := &tracks[i]
		switch {
		case track.LanguageCode == TrackLanguage && track.Kind == "":
			return track
		case track.LanguageCode == TrackLanguage && track.Kind == "asr":
			auto = track
		case track.LanguageCode == autoGeneratedPrefix+TrackLanguage:
			auto = track
		}
	}
	return auto
}

// Extractor fetches a caption track's timed-text document and normalizes
// it to plain text.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an Extractor using the given HTTP client, or
// http.DefaultClient when nil.
func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{client: client}
}

// Extract downloads the track's timed-text XML and returns the normalized
// transcript text. Malformed markup yields empty text, not an error; the
// fetch itself failing is an error.
func (e *Extractor) Extract(ctx context.Context, track *model.CaptionTrack) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build caption request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch caption track: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption track fetch returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read caption track body: %w", err)
	}
	return NormalizeTimedText(string(raw)), nil
}
