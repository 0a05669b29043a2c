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

// Package cloud_test contains tests for the hierarchical configuration
// loader, exercised through the test-suite configuration singleton. The
// base .env.toml is read first; the .env.test.toml override wins for the
// values it names and leaves the rest untouched.
package cloud_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	test "github.com/jaycherian/gcp-go-video-transcripts/internal/testutil"
)

// TestMain moves the working directory to the repository root so the
// configs directory named by the test environment setup resolves.
func TestMain(m *testing.M) {
	if err := os.Chdir("../.."); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// TestConfigRuntimeOverrideWins verifies that values named by the test
// override file replace their base-file counterparts.
func TestConfigRuntimeOverrideWins(t *testing.T) {
	config := test.GetConfig()
	require.NotNil(t, config)

	assert.Equal(t, "video-transcripts-test", config.Application.Name)
	assert.Equal(t, "test-project", config.Application.GoogleProjectId)
	assert.Equal(t, "test-workspace", config.Storage.WorkspaceBucket)
	assert.Equal(t, 5, config.Speech.BatchTimeoutInSeconds)
	assert.Equal(t, ".test-transcript-cache", config.Cache.Directory)
	assert.Equal(t, []string{"dQw4w9WgXcQ"}, config.Sources.Inputs)
}

// TestConfigBaseValuesSurviveOverride verifies that values absent from
// the override file keep their base-file settings.
func TestConfigBaseValuesSurviveOverride(t *testing.T) {
	config := test.GetConfig()
	require.NotNil(t, config)

	assert.Equal(t, "audio", config.Storage.AudioPrefix)
	assert.Equal(t, "transcripts", config.Storage.TranscriptPrefix)
	assert.Equal(t, "global", config.Speech.RecognizerLocation)
	assert.Equal(t, 60, config.YouTubeData.MaxRequestsPerMinute)
	assert.Equal(t, "gemini-2.0-flash", config.Summary.Model)
}

// TestConfigSingletonIsCached verifies that repeated accessor calls
// return the same loaded instance.
func TestConfigSingletonIsCached(t *testing.T) {
	first := test.GetConfig()
	second := test.GetConfig()
	assert.Same(t, first, second)
}
