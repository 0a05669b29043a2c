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

// Package main is the entry point for the video transcript pipeline.
//
// The application resolves the configured video and playlist sources,
// acquires a plain-text transcript for each video (from its caption
// track, or through batch speech recognition when no captions exist),
// and writes a markdown digest with a model-generated summary per video.
// The run is instrumented with OpenTelemetry for logging, tracing, and
// metrics.
//
// Functions:
//   - main: sets up logging, telemetry, configuration, and the service
//     clients, runs the pipeline once, and writes the digest.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/summary"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An interrupt cancels the root context; in-flight commands observe
	// the cancellation and the run aborts cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Warn("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	config := GetConfig()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	InitState(ctx)
	defer state.cloud.Close()
	slog.Info("Initialized State")

	pipeline, err := workflow.NewTranscriptWorkflow(config, state.cloud)
	if err != nil {
		slog.Error("failed to assemble pipeline", "error", err)
		log.Fatal(err)
	}

	records, err := pipeline.Run(ctx, config.Sources.Inputs)
	if err != nil {
		slog.Error("pipeline run failed", "error", err)
		log.Fatal(err)
	}
	slog.Info("pipeline run complete", "records", len(records))

	summarizer, err := summary.NewSummarizer(state.cloud.SummaryModel, config.Summary.Prompt)
	if err != nil {
		slog.Error("failed to create summarizer", "error", err)
		log.Fatal(err)
	}
	outputFile := config.Summary.OutputFile
	if outputFile == "" {
		outputFile = "summary.md"
	}
	if err := summarizer.WriteDigest(ctx, records, outputFile); err != nil {
		slog.Error("failed to write digest", "error", err)
		log.Fatal(err)
	}
	slog.Info("digest written", "file", outputFile, "videos", len(records))
}
