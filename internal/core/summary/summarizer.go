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

// Package summary turns finalized transcript records into a markdown
// digest: each record's transcript is condensed by a generative model and
// the results are assembled into one document, one section per video.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/cloud"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// DefaultPrompt condenses one transcript. The braces are Go template
// slots filled per record.
const DefaultPrompt = `Summarize content below in 3-10 sentences.
Make sure to keep all key dates, numbers, KPIs, names, actions and events.
If summarizing an interview or a talk, keep most impactful quotes and statements.

CONTENT:
Title: ` + "`{{.Title}}`" + `

Description: ` + "`{{.Description}}`" + `

Date: ` + "`{{.PublishedDatetime}}`" + `. Keywords: ` + "`{{.Keywords}}`" + `

Transcript:

{{.Content}}
`

// Summarizer condenses transcript records through a rate-limited
// generative model and renders the markdown digest.
type Summarizer struct {
	model    *cloud.QuotaAwareGenerativeAIModel
	template *template.Template
}

// NewSummarizer creates a Summarizer. An empty prompt falls back to
// DefaultPrompt.
func NewSummarizer(model *cloud.QuotaAwareGenerativeAIModel, prompt string) (*Summarizer, error) {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	parsed, err := template.New("summary-prompt").Parse(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary prompt template: %w", err)
	}
	return &Summarizer{model: model, template: parsed}, nil
}

// promptParams is the data handed to the prompt template for one record.
type promptParams struct {
	Title             string
	Description       string
	PublishedDatetime string
	Keywords          string
	Content           string
}

// Summarize condenses one record's transcript. The record itself is not
// modified.
func (s *Summarizer) Summarize(ctx context.Context, record *model.VideoRecord) (string, error) {
	var buffer bytes.Buffer
	err := s.template.Execute(&buffer, promptParams{
		Title:             record.Title,
		Description:       record.Description,
		PublishedDatetime: record.PublishedDatetime,
		Keywords:          strings.Join(record.Keywords, ", "),
		Content:           record.Content,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute summary prompt: %w", err)
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: buffer.String()}}},
	}
	resp, err := s.model.GenerateContent(ctx, contents)
	if err != nil {
		return "", fmt.Errorf("summary generation failed for %s: %w", record.Id, err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("summary generation returned no text for %s", record.Id)
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "\n\n", "\n")), nil
}

// WriteDigest summarizes every record and writes the markdown digest to
// outputPath, one section per video in record order. A record whose
// summarization fails keeps its full transcript in the digest; the run
// is not aborted.
func (s *Summarizer) WriteDigest(ctx context.Context, records []*model.VideoRecord, outputPath string) error {
	sections := make([]string, 0, len(records))
	for _, record := range records {
		content, err := s.Summarize(ctx, record)
		if err != nil {
			slog.WarnContext(ctx, "summarization failed, keeping full transcript", "id", record.Id, "error", err)
			content = record.Content
		}
		sections = append(sections, fmt.Sprintf(
			"## %s\n\n%s\n\n%s\n\nDate: %s. Keywords: %s\n\n%s",
			record.Title,
			record.Url,
			record.Description,
			record.PublishedDatetime,
			strings.Join(record.Keywords, ", "),
			content))
	}
	if err := os.WriteFile(outputPath, []byte(strings.Join(sections, "\n\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write digest %s: %w", outputPath, err)
	}
	return nil
}

// responseText flattens the first candidate's text parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}
