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

// Package captions turns a video's timed-text caption markup into the
// plain-text transcript stored on a VideoRecord. This file handles the
// timed-text XML format itself.
//
// The document nests paragraph nodes (<p>) under a <body>, where each
// paragraph holds a mix of leaf text, sentence nodes (<s>) wrapping more
// text, and <br/> line-break markers. Normalization walks the paragraphs
// in document order, concatenates the text content, replaces each break
// marker with a single space, collapses double spaces and double newlines,
// and trims the result. Malformed markup yields empty text rather than an
// error; the orchestrator then treats the video as caption-less.
package captions

import (
	"encoding/xml"
	"strings"
)

// timedText mirrors the subset of the timed-text XML schema the extractor
// reads. Inner tokens are walked manually so that <br/> markers interleaved
// with character data keep their document position.
type timedText struct {
	Body timedBody `xml:"body"`
}

type timedBody struct {
	Paragraphs []timedParagraph `xml:"p"`
}

type timedParagraph struct {
	Inner string `xml:",innerxml"`
}

// NormalizeTimedText converts raw timed-text XML into normalized plain
// text. Malformed input produces an empty string.
func NormalizeTimedText(raw string) string {
	var doc timedText
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return ""
	}

	var texts []string
	for _, para := range doc.Body.Paragraphs {
		texts = append(texts, paragraphFragments(para.Inner)...)
	}
	return Collapse(strings.Join(texts, " "))
}

// paragraphFragments tokenizes one paragraph's inner XML, returning text
// fragments with each <br/> replaced by a single-space fragment. Sentence
// (<s>) wrappers are transparent: only their character data survives.
func paragraphFragments(inner string) []string {
	decoder := xml.NewDecoder(strings.NewReader(inner))
	var fragments []string
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "br" {
				fragments = append(fragments, " ")
			}
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				fragments = append(fragments, text)
			}
		}
	}
	return fragments
}

// Collapse applies the shared whitespace normalization used by both
// transcription paths: runs of two spaces become one, runs of two newlines
// become one, and leading/trailing whitespace is removed.
func Collapse(in string) string {
	out := strings.ReplaceAll(in, "  ", " ")
	out = strings.ReplaceAll(out, "\n\n", "\n")
	return strings.TrimSpace(out)
}
