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

// Package cache implements the persistent transcript store that lets the
// pipeline skip work it has already done in a previous run.
//
// Logic Flow:
// Each finalized VideoRecord is written to one file under a caller-supplied
// directory. The file name is the md5 hex digest of the video id plus a
// fixed ".json" extension, so identifiers containing filesystem-unsafe
// characters are handled uniformly. The file content is the record
// serialized as indented JSON with the struct's stable field order, which
// keeps entries diffable and readable by hand.
//
// The store is a read-through gate (checked before any network work for an
// id) and a write-through sink (written the moment a record is finalized).
// Existence is the only validity check: there is no TTL, and a hit is
// treated as permanently valid. A Put overwrites any prior entry for the
// same id. Concurrent runs against the same directory are not supported;
// the store assumes a single writer.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
)

// EntryExtension is the file extension of every cache entry.
const EntryExtension = ".json"

// Store maps a video id to its last-known transcript record, one file per
// video under a fixed local directory.
type Store struct {
	dir string // The directory holding the cache entries.
}

// NewStore creates a Store rooted at dir, creating the directory when it
// does not exist yet. The location is explicit configuration; the store
// never consults ambient global state.
//
// Inputs:
//   - dir: the cache directory.
//
// Outputs:
//   - *Store: the ready store.
//   - error: when the directory cannot be created.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// EntryPath returns the on-disk path for a video id: the md5 hex digest of
// the id with the fixed entry extension, under the store directory.
func (s *Store) EntryPath(id string) string {
	sum := md5.Sum([]byte(id))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+EntryExtension)
}

// Get returns the cached record for id. The second return value reports
// whether an entry exists; a missing entry is not an error.
func (s *Store) Get(id string) (*model.VideoRecord, bool, error) {
	data, err := os.ReadFile(s.EntryPath(id))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry for %s: %w", id, err)
	}
	record := &model.VideoRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry for %s: %w", id, err)
	}
	return record, true, nil
}

// Put serializes the full record and overwrites any prior entry for id.
func (s *Store) Put(id string, record *model.VideoRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry for %s: %w", id, err)
	}
	if err := os.WriteFile(s.EntryPath(id), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry for %s: %w", id, err)
	}
	return nil
}
