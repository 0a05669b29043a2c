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
// collaborators. This file implements a wrapper around the standard
// Generative AI client. The wrapper uses the Decorator design pattern to
// add rate limiting and a retry mechanism to the summarization model
// without altering the client's code.
//
// Why this is important:
//   - Rate Limiting: Vertex AI enforces per-minute request quotas. The
//     wrapper blocks callers client-side instead of surfacing quota errors.
//   - Retry Logic: generation requests can fail for transient reasons; a
//     bounded retry loop makes a long pipeline run resilient to them.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: wraps a model name, its generation
//     config, and the shared model handle behind a rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: constructor for the wrapped model.
//   - GenerateContent: the rate-limited, retrying generation call.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const generateMaxRetries = 3

// QuotaAwareGenerativeAIModel decorates a Generative AI model with a
// client-side rate limiter and bounded retries.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
	retryBackoff            time.Duration
}

// NewQuotaAwareModel creates a new QuotaAwareGenerativeAIModel.
//
// Inputs:
//   - config: the generation config applied to every request.
//   - name: the model name, e.g. "gemini-2.0-flash".
//   - handle: the shared *genai.Models handle from the client.
//   - requestsPerSecond: maximum API calls allowed per second.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: the wrapped model.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
		retryBackoff:            time.Minute,
	}
}

// GenerateContent blocks until the rate limiter admits the request, then
// calls the model, retrying transient failures up to generateMaxRetries
// times with a fixed backoff between attempts.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= generateMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(q.retryBackoff):
			}
		}
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed generation on max retries: %w", lastErr)
}
