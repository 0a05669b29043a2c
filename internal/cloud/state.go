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
// collaborators. This file initializes and holds the client objects the
// pipeline needs. It acts as a dependency injection container, creating
// a single shared `ServiceClients` struct that is passed to the workflow
// assembly.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called at application startup with the
//     loaded configuration.
//  2. It initializes the Storage, Speech-to-Text, Generative AI, and
//     YouTube Data clients, plus the player probe.
//  3. The configured summarization model is wrapped in the quota-aware
//     decorator.
//  4. Everything is bundled into one ServiceClients struct used by the
//     workflow and the summary writer.
//
// Structs:
//   - ServiceClients: the container of initialized clients and adapters.
//
// Functions:
//   - NewCloudServiceClients: factory creating all clients from config.
//   - Close: gracefully shuts down the client connections.
package cloud

import (
	"context"
	"fmt"
	"os"

	speechv2 "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// EnvYouTubeAPIKey is the environment variable that overrides the
// configured Data API key, so the key can stay out of the TOML files.
const EnvYouTubeAPIKey = "YOUTUBE_API_KEY"

// ServiceClients is a central container for all the clients that talk to
// external services. The workflow assembly takes this struct and wires
// its members into the pipeline commands.
type ServiceClients struct {
	StorageClient *storage.Client  // Client for Google Cloud Storage.
	SpeechClient  *speechv2.Client // Client for Speech-to-Text v2.
	GenAIClient   *genai.Client    // Client for Vertex AI generative models.

	ObjectStore  *GCSObjectStore              // Storage adapter used by the batch transcriber.
	BatchSpeech  *SpeechBatchClient           // Batch recognition adapter.
	YouTubeData  *YouTubeDataService          // Listing and metadata adapter.
	Player       *PlayerService               // Availability probe and audio downloader.
	SummaryModel *QuotaAwareGenerativeAIModel // Rate-limited summarization model.
}

// Close releases the client connections. Useful in tests and for
// controlled shutdowns; the genai client holds no closable connection.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.SpeechClient.Close()
}

// NewCloudServiceClients initializes every external client the pipeline
// uses, based on the provided configuration.
//
// Inputs:
//   - ctx: the root context managing the client lifecycles.
//   - config: the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: the fully initialized container.
//   - error: when any client fails to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	spc, err := speechv2.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	apiKey := config.YouTubeData.APIKey
	if env := os.Getenv(EnvYouTubeAPIKey); env != "" {
		apiKey = env
	}
	yt, err := NewYouTubeDataService(ctx, apiKey, config.YouTubeData.MaxRequestsPerMinute)
	if err != nil {
		return nil, err
	}

	summaryConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](config.Summary.Temperature),
		MaxOutputTokens:   config.Summary.MaxTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: config.Summary.SystemInstructions}}},
		SafetySettings:    DefaultSafetySettings,
	}

	return &ServiceClients{
		StorageClient: sc,
		SpeechClient:  spc,
		GenAIClient:   gc,
		ObjectStore:   NewGCSObjectStore(sc),
		BatchSpeech:   NewSpeechBatchClient(spc),
		YouTubeData:   yt,
		Player:        NewPlayerService(nil),
		SummaryModel:  NewQuotaAwareModel(summaryConfig, config.Summary.Model, gc.Models, config.Summary.RateLimit),
	}, nil
}
