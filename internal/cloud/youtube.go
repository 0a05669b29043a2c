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

// Package cloud provides components for interacting with the external
// collaborators. This file adapts the YouTube Data API to the listing
// collaborator interface consumed by the source resolver and the probe
// step.
//
// Two concerns live here:
//   - Typing the boundary. The Data API hands back loosely populated
//     payloads; every required field is validated and converted into the
//     typed records in the model package. A missing field surfaces as
//     model.ErrMalformedListing instead of an untyped structure leaking
//     inward.
//   - Quota awareness. Listing calls pass through a client-side rate
//     limiter so a large playlist walk cannot burn through the project's
//     API quota.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// listingPageSize is the page size requested from the Data API; the
// maximum the API allows.
const listingPageSize = 50

// YouTubeDataService wraps the Data API behind the pipeline's listing and
// metadata interfaces. It satisfies sources.PlaylistLister and
// commands.MetadataService.
type YouTubeDataService struct {
	service *youtube.Service
	limiter *rate.Limiter
}

// NewYouTubeDataService creates the listing adapter.
//
// Inputs:
//   - ctx: the root context used to build the underlying service.
//   - apiKey: the Data API key.
//   - maxRequestsPerMinute: client-side quota ceiling; values below one
//     fall back to sixty.
//
// Outputs:
//   - *YouTubeDataService: the ready adapter.
//   - error: when the underlying service cannot be constructed.
func NewYouTubeDataService(ctx context.Context, apiKey string, maxRequestsPerMinute int) (*YouTubeDataService, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube data service: %w", err)
	}
	if maxRequestsPerMinute < 1 {
		maxRequestsPerMinute = 60
	}
	return &YouTubeDataService{
		service: service,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxRequestsPerMinute)), maxRequestsPerMinute),
	}, nil
}

// ListPlaylistPage returns one page of a playlist listing as typed
// entries, plus the token of the next page when one exists.
func (s *YouTubeDataService) ListPlaylistPage(ctx context.Context, playlistID string, pageToken string) (*model.PlaylistPage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := s.service.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(listingPageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	response, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("playlist items call failed for %s: %w", playlistID, err)
	}

	page := &model.PlaylistPage{NextPageToken: response.NextPageToken}
	for _, item := range response.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
			return nil, fmt.Errorf("%w: playlist %s item has no video id", model.ErrMalformedListing, playlistID)
		}
		published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: playlist %s item %s has publish time %q", model.ErrMalformedListing, playlistID, item.Snippet.ResourceId.VideoId, item.Snippet.PublishedAt)
		}
		page.Entries = append(page.Entries, model.PlaylistEntry{
			VideoId:     item.Snippet.ResourceId.VideoId,
			PublishedAt: published.UTC(),
		})
	}
	return page, nil
}

// VideoMetadata returns the typed metadata for one video id. A lookup
// with no result reports model.ErrVideoNotFound, which the orchestrator
// treats as a per-item soft failure.
func (s *YouTubeDataService) VideoMetadata(ctx context.Context, id string) (*model.VideoMetadata, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	response, err := s.service.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("video metadata call failed for %s: %w", id, err)
	}
	if len(response.Items) == 0 || response.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrVideoNotFound, id)
	}

	snippet := response.Items[0].Snippet
	if snippet.Title == "" || snippet.PublishedAt == "" {
		return nil, fmt.Errorf("%w: video %s snippet incomplete", model.ErrMalformedListing, id)
	}
	published, err := time.Parse(time.RFC3339, snippet.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s has publish time %q", model.ErrMalformedListing, id, snippet.PublishedAt)
	}

	return &model.VideoMetadata{
		Title:       snippet.Title,
		Description: snippet.Description,
		Keywords:    snippet.Tags,
		PublishedAt: published.UTC(),
	}, nil
}
