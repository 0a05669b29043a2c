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
// collaborators. This file implements the player probe: one call to the
// player endpoint per video, answering whether the video is playable,
// which caption tracks it advertises, and which audio-only streams are
// available for the transcription fallback. It also downloads a chosen
// audio stream to a local temp file, sniffing the container format to
// pick the file extension.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

const (
	playerEndpoint      = "https://www.youtube.com/youtubei/v1/player"
	playerClientName    = "ANDROID"
	playerClientVersion = "20.10.38"
	playerUserAgent     = "com.google.android.youtube/" + playerClientVersion + " (Linux; U; Android 11) gzip"
	playabilityStatusOK = "OK"
	maxPlayerResponse   = 3 * 1024 * 1024
	audioMimeTypePrefix = "audio/"
	downloadedAudioStem = ".audio"
)

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []playerCaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	StreamingData *struct {
		AdaptiveFormats []playerFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type playerCaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type playerFormat struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Bitrate  int64  `json:"bitrate"`
}

// PlayerService probes video availability and downloads audio streams. It
// satisfies commands.VideoProber and commands.AudioDownloader.
type PlayerService struct {
	client *http.Client
}

// NewPlayerService creates the probe adapter. A nil client falls back to
// http.DefaultClient.
func NewPlayerService(client *http.Client) *PlayerService {
	if client == nil {
		client = http.DefaultClient
	}
	return &PlayerService{client: client}
}

// Probe calls the player endpoint once for the given video id and maps
// the response into the typed stream record. An unplayable video is not
// an error: Playable is false and UnplayableFor carries the reason.
func (p *PlayerService) Probe(ctx context.Context, videoID string) (*model.VideoStreams, error) {
	payload := playerRequest{
		VideoID: videoID,
		Context: playerContext{
			Client: playerClient{
				ClientName:        playerClientName,
				ClientVersion:     playerClientVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerEndpoint+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", playerUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player probe failed for %s: %w", videoID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("player probe for %s returned HTTP %d: %s", videoID, resp.StatusCode, snippet)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPlayerResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read player response for %s: %w", videoID, err)
	}
	var parsed playerResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode player response for %s: %w", videoID, err)
	}

	streams := &model.VideoStreams{VideoId: videoID}
	if parsed.PlayabilityStatus == nil || parsed.PlayabilityStatus.Status != playabilityStatusOK {
		if parsed.PlayabilityStatus != nil {
			streams.UnplayableFor = parsed.PlayabilityStatus.Reason
			if streams.UnplayableFor == "" {
				streams.UnplayableFor = parsed.PlayabilityStatus.Status
			}
		} else {
			streams.UnplayableFor = "no playability status"
		}
		return streams, nil
	}
	streams.Playable = true

	if parsed.Captions != nil {
		for _, track := range parsed.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
			streams.CaptionTracks = append(streams.CaptionTracks, model.CaptionTrack{
				LanguageCode: track.LanguageCode,
				Kind:         track.Kind,
				BaseURL:      track.BaseURL,
			})
		}
	}
	if parsed.StreamingData != nil {
		for _, format := range parsed.StreamingData.AdaptiveFormats {
			if !strings.HasPrefix(format.MimeType, audioMimeTypePrefix) || format.URL == "" {
				continue
			}
			streams.AudioFormats = append(streams.AudioFormats, model.AudioFormat{
				Url:      format.URL,
				MimeType: format.MimeType,
				Bitrate:  format.Bitrate,
			})
		}
	}
	return streams, nil
}

// DownloadAudio streams the audio format's URL into dir under a random
// file name, then sniffs the container format and renames the file to
// carry the matching extension. It returns the final local path.
func (p *PlayerService) DownloadAudio(ctx context.Context, audio *model.AudioFormat, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audio.Url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", playerUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio download returned HTTP %d", resp.StatusCode)
	}

	stem := filepath.Join(dir, uuid.New().String())
	tempPath := stem + downloadedAudioStem
	out, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file %s: %w", tempPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write audio file %s: %w", tempPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close audio file %s: %w", tempPath, err)
	}

	// Rename to the sniffed container extension so the batch job inputs
	// carry meaningful names. An unknown container keeps the temp name.
	kind, err := filetype.MatchFile(tempPath)
	if err != nil || kind == filetype.Unknown {
		return tempPath, nil
	}
	finalPath := stem + "." + kind.Extension
	if err := os.Rename(tempPath, finalPath); err != nil {
		return tempPath, nil
	}
	return finalPath, nil
}
