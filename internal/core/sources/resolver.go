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

// Package sources expands a heterogeneous list of inputs (single-video
// references and playlist references) into a deduplicated, age-filtered,
// ordered list of video identifiers.
//
// Logic Flow:
//  1. Each source string is classified as a playlist or a single video.
//     URLs are reduced to their identifier; bare identifiers pass through.
//  2. A playlist expands through the paginated listing collaborator,
//     following next-page tokens until the final page. Items older than
//     the maximum age are discarded; the comparison is current UTC time
//     minus publish time, strictly less than the bound.
//  3. A single-video source contributes its id directly. The age filter is
//     a playlist-level discovery filter and does not apply to explicitly
//     named videos.
//  4. Identifiers are deduplicated by equality in first-seen order across
//     all sources; an id already seen is silently skipped.
package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// PlaylistLister is the paginated listing collaborator: one call returns
// one page of playlist items plus an optional next-page token.
type PlaylistLister interface {
	ListPlaylistPage(ctx context.Context, playlistID string, pageToken string) (*model.PlaylistPage, error)
}

// Resolver expands source strings into an ordered, deduplicated id list.
type Resolver struct {
	lister PlaylistLister
	now    func() time.Time // Clock hook; tests pin it to a fixed instant.
}

// NewResolver creates a Resolver over the given listing collaborator.
func NewResolver(lister PlaylistLister) *Resolver {
	return &Resolver{lister: lister, now: time.Now}
}

// Resolve expands sources into video ids, preserving first-seen order
// across mixed single-video and playlist inputs. A maxAge of zero means
// unbounded. A listing failure aborts resolution; there is no
// partial-source-list recovery.
func (r *Resolver) Resolve(ctx context.Context, sourceList []string, maxAge time.Duration) ([]string, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)

	appendID := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, source := range sourceList {
		if IsPlaylist(source) {
			playlistIDs, err := r.expandPlaylist(ctx, PlaylistID(source), maxAge)
			if err != nil {
				return nil, err
			}
			for _, id := range playlistIDs {
				appendID(id)
			}
			continue
		}
		appendID(VideoID(source))
	}
	return ids, nil
}

// expandPlaylist pages through one playlist, applying the age filter.
func (r *Resolver) expandPlaylist(ctx context.Context, playlistID string, maxAge time.Duration) ([]string, error) {
	ids := make([]string, 0)
	pageToken := ""
	for {
		page, err := r.lister.ListPlaylistPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
		}
		for _, entry := range page.Entries {
			age := r.now().UTC().Sub(entry.PublishedAt)
			if maxAge > 0 && age >= maxAge {
				continue
			}
			ids = append(ids, entry.VideoId)
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return ids, nil
}

// playlistIDPrefixes are the well-known leading characters of playlist
// identifiers; video ids are 11 characters, so length disambiguates the
// bare-id case.
var playlistIDPrefixes = []string{"PL", "UU", "OL", "FL", "RD"}

// IsPlaylist reports whether a source string names a playlist. Only a
// /playlist URL counts; a watch URL carrying a list parameter still
// names the single video.
func IsPlaylist(source string) bool {
	if strings.Contains(source, "/playlist") {
		return true
	}
	if strings.HasPrefix(strings.ToLower(source), "https://") {
		return false
	}
	bare := strings.TrimSpace(source)
	for _, prefix := range playlistIDPrefixes {
		if strings.HasPrefix(bare, prefix) && len(bare) > 11 {
			return true
		}
	}
	return false
}

// PlaylistID reduces a playlist URL to its identifier. Bare identifiers
// pass through unchanged.
func PlaylistID(source string) string {
	if !strings.HasPrefix(strings.ToLower(source), "https://") {
		return strings.TrimSpace(source)
	}
	_, id, found := strings.Cut(source, "?list=")
	if !found {
		_, id, _ = strings.Cut(source, "&list=")
	}
	id, _, _ = strings.Cut(id, "&")
	return id
}

// VideoID reduces a watch URL to its video identifier. Bare identifiers
// pass through unchanged.
func VideoID(source string) string {
	if !strings.HasPrefix(strings.ToLower(source), "https://") {
		return strings.TrimSpace(source)
	}
	_, id, found := strings.Cut(source, "?v=")
	if !found {
		_, id, _ = strings.Cut(source, "&v=")
	}
	id, _, _ = strings.Cut(id, "&")
	return id
}
