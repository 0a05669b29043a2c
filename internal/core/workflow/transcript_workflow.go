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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the
// transcript acquisition workflow: from a configured list of video and
// playlist sources to a list of finalized transcript records.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/cloud"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cache"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/captions"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/sources"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/speech"
)

// TranscriptWorkflow orchestrates the transcript acquisition pipeline. It
// is structured as a Chain of Responsibility (cor.Chain) executing the
// sequence: resolve sources, consult the cache, probe cache misses,
// extract captions, download audio for the caption-less remainder, and
// batch-transcribe it.
type TranscriptWorkflow struct {
	cor.BaseCommand
	config *cloud.Config
	store  *cache.Store
	chain  cor.Chain
}

// Execute runs the workflow by invoking the underlying chain.
func (w *TranscriptWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Run executes the pipeline for the given sources and returns the
// finalized records in resolved source order. It owns the run context:
// the collector is installed before execution and temp files are removed
// afterwards. An aborting command error is returned; per-video soft
// failures are not.
func (w *TranscriptWorkflow) Run(ctx context.Context, sourceList []string) ([]*model.VideoRecord, error) {
	runContext := cor.NewBaseContext()
	runContext.SetContext(ctx)
	defer runContext.Close()

	collector := commands.NewRecordCollector()
	runContext.Add(commands.ParamCollector, collector)
	runContext.Add(cor.CtxIn, sourceList)

	w.Execute(runContext)

	if runContext.HasErrors() {
		errs := make([]error, 0, len(runContext.GetErrors()))
		for _, err := range runContext.GetErrors() {
			errs = append(errs, err)
		}
		return nil, errors.Join(errs...)
	}

	resolved, _ := runContext.Get(commands.ParamResolvedIds).([]string)
	return collector.Ordered(resolved), nil
}

// initializeChain builds the command sequence of this workflow. Each
// command is an atomic unit of work; the output of one is the input of
// the next.
func (w *TranscriptWorkflow) initializeChain(serviceClients *cloud.ServiceClients) {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: expand the source list into an ordered, deduplicated id
	// list, applying the playlist age filter.
	maxAge := time.Duration(w.config.Sources.MaxVideoAgeHours * float64(time.Hour))
	out.AddCommand(commands.NewSourceResolver(
		"resolve-sources",
		sources.NewResolver(serviceClients.YouTubeData),
		maxAge))

	// Step 2: serve ids from the transcript cache; only misses continue.
	out.AddCommand(commands.NewCacheLookup("cache-lookup", w.store))

	// Step 3: fetch metadata and probe availability for each miss.
	// Unusable videos drop out here.
	out.AddCommand(commands.NewVideoProbe(
		"probe-videos",
		serviceClients.YouTubeData,
		serviceClients.Player))

	// Step 4: finalize videos with usable caption tracks; defer the rest
	// to the audio path keyed by video id.
	out.AddCommand(commands.NewCaptionExtract(
		"extract-captions",
		captions.NewExtractor(nil),
		w.store))

	// Step 5: download the deferred videos' audio to local temp files.
	out.AddCommand(commands.NewAudioDownload("download-audio", serviceClients.Player, ""))

	// Step 6: batch-transcribe the downloaded audio and finalize the
	// surviving records.
	transcriber := speech.NewTranscriber(
		serviceClients.ObjectStore,
		serviceClients.BatchSpeech,
		w.config.Application.GoogleProjectId,
		w.config.Speech.RecognizerLocation,
		time.Duration(w.config.Speech.BatchTimeoutInSeconds)*time.Second)
	out.AddCommand(commands.NewBatchTranscribe(
		"batch-transcribe",
		transcriber,
		w.store,
		w.config.Storage.WorkspaceBucket,
		w.config.Storage.AudioPrefix,
		w.config.Storage.TranscriptPrefix))

	w.chain = out
}

// NewTranscriptWorkflow is the constructor for the TranscriptWorkflow.
//
// Inputs:
//   - config: the application configuration.
//   - serviceClients: the initialized external service clients.
//
// Returns:
//   - *TranscriptWorkflow: the assembled pipeline.
//   - error: when the transcript cache cannot be opened.
func NewTranscriptWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) (*TranscriptWorkflow, error) {
	store, err := cache.NewStore(config.Cache.Directory)
	if err != nil {
		return nil, err
	}
	pipeline := &TranscriptWorkflow{
		BaseCommand: *cor.NewBaseCommand("transcript-pipeline"),
		config:      config,
		store:       store,
	}
	pipeline.initializeChain(serviceClients)
	return pipeline, nil
}
