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

// Package cache_test contains unit tests for the persistent transcript
// store: entry layout, round-tripping, overwrite semantics, and the
// miss-is-not-an-error contract.
package cache_test

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/cache"
	"github.com/jaycherian/gcp-go-video-transcripts/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string, content string) *model.VideoRecord {
	return &model.VideoRecord{
		Id:                id,
		Title:             "Title " + id,
		Description:       "Description",
		PublishedDatetime: "2024-10-11T03:04:08Z",
		Keywords:          []string{"a", "b"},
		Url:               model.WatchURLPrefix + id,
		Content:           content,
	}
}

// TestEntryPathUsesIdDigest verifies the on-disk layout: one file per
// video named by the md5 hex digest of the id, so filesystem-unsafe
// identifiers are handled uniformly.
func TestEntryPathUsesIdDigest(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.NewStore(dir)
	require.NoError(t, err)

	id := "weird/id?&="
	sum := md5.Sum([]byte(id))
	want := filepath.Join(dir, hex.EncodeToString(sum[:])+cache.EntryExtension)
	assert.Equal(t, want, store.EntryPath(id))
}

// TestPutGetRoundTrip verifies that a stored record is returned
// field-for-field identical on the next lookup.
func TestPutGetRoundTrip(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	record := testRecord("vid00000001", "the transcript")
	require.NoError(t, store.Put(record.Id, record))

	got, ok, err := store.Get(record.Id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record, got)
}

// TestGetMissIsNotAnError verifies the miss contract: absent entries
// report ok=false with a nil error.
func TestGetMissIsNotAnError(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	got, ok, err := store.Get("never-stored")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

// TestPutOverwritesPriorEntry verifies that a second Put for the same id
// replaces the first entry completely.
func TestPutOverwritesPriorEntry(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	id := "vid00000001"
	require.NoError(t, store.Put(id, testRecord(id, "first")))
	require.NoError(t, store.Put(id, testRecord(id, "second")))

	got, ok, err := store.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Content)
}

// TestGetCorruptEntry verifies that an unreadable entry surfaces as an
// error, which the cache gate treats as a miss.
func TestGetCorruptEntry(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	id := "vid00000001"
	require.NoError(t, os.WriteFile(store.EntryPath(id), []byte("not json"), 0o644))

	_, ok, err := store.Get(id)
	assert.Error(t, err)
	assert.False(t, ok)
}

// TestNewStoreCreatesDirectory verifies that a missing cache directory is
// created rather than reported.
func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := cache.NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
