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
// audio download step: each deferred record's chosen audio stream is
// pulled to a local temp file ahead of batch transcription. Downloaded
// files are registered with the run context so they are removed when the
// run finishes, whatever the batch outcome. A failed download drops that
// one video with a log line.
package commands

import (
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// AudioDownload materializes the deferred records' audio streams locally.
type AudioDownload struct {
	cor.BaseCommand
	downloader AudioDownloader
	workDir    string // Local directory for downloads; empty means the OS temp dir.
}

// NewAudioDownload is the constructor for the AudioDownload command.
func NewAudioDownload(name string, downloader AudioDownloader, workDir string) *AudioDownload {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &AudioDownload{
		BaseCommand: *cor.NewBaseCommand(name),
		downloader:  downloader,
		workDir:     workDir,
	}
}

// Execute downloads each deferred record's audio and pipes the records
// that now hold a local path.
func (c *AudioDownload) Execute(context cor.Context) {
	deferred := context.Get(c.GetInputParam()).([]*model.DeferredRecord)
	ctx := context.GetContext()

	downloaded := make([]*model.DeferredRecord, 0, len(deferred))
	for _, record := range deferred {
		localPath, err := c.downloader.DownloadAudio(ctx, record.Audio, c.workDir)
		if err != nil {
			slog.WarnContext(ctx, "skipping video, audio download failed", "id", record.Record.Id, "error", err)
			continue
		}
		context.AddTempFile(localPath)
		record.AudioPath = localPath
		downloaded = append(downloaded, record)
	}
	slog.InfoContext(ctx, "audio downloads complete", "requested", len(deferred), "downloaded", len(downloaded))

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), downloaded)
}
