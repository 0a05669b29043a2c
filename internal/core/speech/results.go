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

// Package speech implements the audio transcription client. This file
// normalizes one raw batch result payload into plain transcript text.
//
// The payload is the JSON document the recognition job wrote to object
// storage: a list of recognized segments, each carrying ranked alternative
// transcriptions. Normalization keeps the top alternative of every segment
// that has one, concatenates them in document order, and applies the same
// whitespace collapsing as the caption path. Segments without a usable
// alternative are skipped.
package speech

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/captions"
)

// BatchResultPayload is the typed shape of one transcription result file.
type BatchResultPayload struct {
	Results []RecognizedSegment `json:"results"`
}

// RecognizedSegment is one recognized stretch of speech with its ranked
// alternatives, best first.
type RecognizedSegment struct {
	Alternatives []SegmentAlternative `json:"alternatives"`
}

// SegmentAlternative is one candidate transcription of a segment.
type SegmentAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// NormalizeResult converts a raw batch result payload into plain text.
// A payload that is not valid JSON is a named parse error at the boundary;
// the orchestrator maps it to empty text, which drops the record.
func NormalizeResult(payload string) (string, error) {
	var parsed BatchResultPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return "", fmt.Errorf("malformed batch result payload: %w", err)
	}

	var texts []string
	for _, segment := range parsed.Results {
		if len(segment.Alternatives) == 0 || segment.Alternatives[0].Transcript == "" {
			continue
		}
		texts = append(texts, segment.Alternatives[0].Transcript)
	}

	return captions.Collapse(strings.Join(texts, " ")), nil
}
