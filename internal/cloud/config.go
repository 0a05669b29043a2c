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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the adapters that wrap the external
// collaborators (object storage, batch speech recognition, the video
// listing API, the player probe, and the summarization model).
//
// This file centralizes the configuration structs.
//
// Structs:
//   - Storage: workspace bucket and object prefixes for the audio path.
//   - YouTubeData: listing API key and quota settings.
//   - Speech: batch recognizer addressing and wait bound.
//   - Cache: transcript cache location.
//   - Sources: the default source list and discovery age filter.
//   - SummaryModel: configuration for the downstream summarization LLM.
//   - Config: the top-level aggregate loaded from TOML.
//
// Functions:
//   - NewConfig: constructor returning an initialized Config.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the content safety thresholds applied to
// the summarization model. Transcripts are trusted input, so every
// category is left unblocked.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Storage configures the object storage workspace used by the audio
// transcription path.
type Storage struct {
	WorkspaceBucket  string `toml:"workspace_bucket"`  // Bucket holding transient job inputs and outputs.
	AudioPrefix      string `toml:"audio_prefix"`      // Object prefix for uploaded audio files.
	TranscriptPrefix string `toml:"transcript_prefix"` // Object prefix for batch job output documents.
}

// YouTubeData configures the paginated listing collaborator.
type YouTubeData struct {
	APIKey               string `toml:"api_key"`                 // Data API key; may also arrive via environment.
	MaxRequestsPerMinute int    `toml:"max_requests_per_minute"` // Listing quota ceiling enforced client-side.
}

// Speech configures the batch recognition collaborator.
type Speech struct {
	RecognizerLocation    string `toml:"recognizer_location"`      // Location of the recognizer resource, e.g. "global".
	BatchTimeoutInSeconds int    `toml:"batch_timeout_in_seconds"` // Upper bound on one batch job's wait; 0 disables the bound.
}

// Cache configures the persistent transcript store.
type Cache struct {
	Directory string `toml:"directory"` // Directory holding one JSON entry per video.
}

// Sources configures the default run inputs.
type Sources struct {
	Inputs           []string `toml:"inputs"`              // Video or playlist URLs/ids, in order.
	MaxVideoAgeHours float64  `toml:"max_video_age_hours"` // Playlist discovery filter; 0 means unbounded.
}

// SummaryModel configures the downstream summarization LLM.
type SummaryModel struct {
	Model              string  `toml:"model"`               // Model name, e.g. "gemini-2.0-flash".
	SystemInstructions string  `toml:"system_instructions"` // System instructions for the model.
	Prompt             string  `toml:"prompt"`              // Per-video prompt template.
	Temperature        float32 `toml:"temperature"`
	MaxTokens          int32   `toml:"max_tokens"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second allowed against the model.
	OutputFile         string  `toml:"output_file"`
}

// Config is the overall application configuration loaded from TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`              // The application name, used as the telemetry service name.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project id.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
	} `toml:"application"`
	Storage     Storage      `toml:"storage"`
	YouTubeData YouTubeData  `toml:"youtube_data"`
	Speech      Speech       `toml:"speech"`
	Cache       Cache        `toml:"cache"`
	Sources     Sources      `toml:"sources"`
	Summary     SummaryModel `toml:"summary"`
}

// NewConfig creates an empty Config ready for the loader to populate.
func NewConfig() *Config {
	return &Config{}
}
