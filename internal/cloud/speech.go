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
// collaborators. This file adapts the Speech-to-Text v2 client to the
// batch recognition collaborator interface: submit one batch job and
// block until its long-running operation reaches a terminal state. The
// wait inherits whatever deadline the caller's context carries, which is
// how the transcriber enforces its configurable bound.
package cloud

import (
	"context"

	speechv2 "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
)

// SpeechBatchClient adapts the Speech-to-Text v2 client to the pipeline's
// BatchRecognizer interface.
type SpeechBatchClient struct {
	client *speechv2.Client
}

// NewSpeechBatchClient wraps an initialized Speech-to-Text v2 client.
func NewSpeechBatchClient(client *speechv2.Client) *SpeechBatchClient {
	return &SpeechBatchClient{client: client}
}

// Recognize submits the batch job and waits for the operation's terminal
// response.
func (c *SpeechBatchClient) Recognize(ctx context.Context, req *speechpb.BatchRecognizeRequest) (*speechpb.BatchRecognizeResponse, error) {
	operation, err := c.client.BatchRecognize(ctx, req)
	if err != nil {
		return nil, err
	}
	return operation.Wait(ctx)
}
