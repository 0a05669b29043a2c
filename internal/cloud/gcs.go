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
// collaborators. This file implements the object storage collaborator on
// Google Cloud Storage: streaming upload of local audio files, text
// download of batch results, and deletion of transient workspace objects.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

// GCSObjectStore adapts a GCS client to the object storage operations the
// audio transcription path needs. It satisfies speech.ObjectStore.
type GCSObjectStore struct {
	client *storage.Client
}

// NewGCSObjectStore wraps an initialized GCS client.
func NewGCSObjectStore(client *storage.Client) *GCSObjectStore {
	return &GCSObjectStore{client: client}
}

// Upload streams a local file to bucket/object. io.Copy keeps memory flat
// regardless of the audio file's size.
func (s *GCSObjectStore) Upload(ctx context.Context, bucket string, object string, localPath string) error {
	dat, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer func() { _ = dat.Close() }()

	writer := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy %s to gs://%s/%s: %w", localPath, bucket, object, err)
	}
	// Close finalizes the upload; an unclosed writer leaves no object behind.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// DownloadText reads bucket/object fully and returns it as a string.
func (s *GCSObjectStore) DownloadText(ctx context.Context, bucket string, object string) (string, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return string(data), nil
}

// Delete removes bucket/object.
func (s *GCSObjectStore) Delete(ctx context.Context, bucket string, object string) error {
	if err := s.client.Bucket(bucket).Object(object).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}
