// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, retain int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"), retain)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RejectsNonPositiveRetain(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "journal.db"), 0)
	require.Error(t, err)
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 10)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Entry{
		SessionID:     "s1",
		RequestID:     "r1",
		Category:      "video",
		Outcome:       "ready",
		SelectedURI:   "b.webm",
		Candidates:    2,
		LastResortURI: "b.webm",
		Platform:      "Linux; Android 13",
		Family:        "per-source",
		CreatedAt:     at,
	}))
	require.NoError(t, s.Record(ctx, Entry{SessionID: "s2", Category: "audio", Outcome: "no_capability"}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "s2", entries[0].SessionID, "newest first")
	assert.False(t, entries[0].CreatedAt.IsZero())

	first := entries[1]
	assert.Equal(t, "b.webm", first.SelectedURI)
	assert.Equal(t, 2, first.Candidates)
	assert.True(t, at.Equal(first.CreatedAt))
}

func TestStore_RejectsUnknownOutcome(t *testing.T) {
	s := openTestStore(t, 10)
	err := s.Record(context.Background(), Entry{SessionID: "s", Category: "video", Outcome: "cancelled"})
	require.Error(t, err)
}

func TestStore_Retention(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{SessionID: fmt.Sprintf("s%d", i), Category: "video", Outcome: "unsupported"}))
	}

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"s4", "s3", "s2"}, []string{entries[0].SessionID, entries[1].SessionID, entries[2].SessionID})
}

func TestStore_Counts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 10)

	for _, o := range []string{"ready", "ready", "unsupported"} {
		require.NoError(t, s.Record(ctx, Entry{SessionID: "s", Category: "video", Outcome: o}))
	}

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ready": 2, "unsupported": 1}, counts)
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(path, 10)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{SessionID: "s", Category: "audio", Outcome: "ready"}))
	require.NoError(t, s.Close())

	s, err = Open(path, 10)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	entries, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NoError(t, s.Ping(ctx))
}
