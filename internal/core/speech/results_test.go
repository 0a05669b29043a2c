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

// Package speech_test contains unit tests for batch result
// normalization.
package speech_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeResultJoinsTopAlternatives verifies that the best
// alternative of each segment is kept, in document order, joined with
// single spaces.
func TestNormalizeResultJoinsTopAlternatives(t *testing.T) {
	payload := `{
  "results": [
    {"alternatives": [{"transcript": "Good morning.", "confidence": 0.95}, {"transcript": "Gut morning.", "confidence": 0.4}]},
    {"alternatives": [{"transcript": "Markets are open.", "confidence": 0.9}]}
  ]
}`
	text, err := speech.NormalizeResult(payload)
	require.NoError(t, err)
	assert.Equal(t, "Good morning. Markets are open.", text)
}

// TestNormalizeResultSkipsUnusableSegments verifies that segments with
// no alternatives or empty transcripts are skipped, not rendered as
// holes.
func TestNormalizeResultSkipsUnusableSegments(t *testing.T) {
	payload := `{
  "results": [
    {"alternatives": []},
    {"alternatives": [{"transcript": "only usable text", "confidence": 0.8}]},
    {"alternatives": [{"transcript": "", "confidence": 0.1}]}
  ]
}`
	text, err := speech.NormalizeResult(payload)
	require.NoError(t, err)
	assert.Equal(t, "only usable text", text)
}

// TestNormalizeResultEmptyPayload verifies that a result with no usable
// segments normalizes to empty text, which drops the record upstream.
func TestNormalizeResultEmptyPayload(t *testing.T) {
	text, err := speech.NormalizeResult(`{"results": []}`)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

// TestNormalizeResultMalformedPayload verifies the named parse error at
// the boundary.
func TestNormalizeResultMalformedPayload(t *testing.T) {
	_, err := speech.NormalizeResult("payload-for:clip.webm")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed batch result payload")
}
