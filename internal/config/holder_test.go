// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHolder(t *testing.T, content string) (*Holder, string) {
	t.Helper()
	clearEnv(t)
	path := writeConfig(t, "config.yaml", content)
	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	return NewHolder(cfg, loader), path
}

func TestHolder_ReloadSuccess(t *testing.T) {
	h, path := newTestHolder(t, "log:\n  level: info\n")
	require.Equal(t, "info", h.Get().LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, "debug", h.Get().LogLevel)
}

func TestHolder_ReloadFailureKeepsOldConfig(t *testing.T) {
	h, path := newTestHolder(t, "api:\n  rate_limit: 50\n")

	require.NoError(t, os.WriteFile(path, []byte("api:\n  rate_limit: -1\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 50, h.Get().API.RateLimit)

	require.NoError(t, os.WriteFile(path, []byte("api:\n  burst: 3\n"), 0o600))
	err := h.Reload(context.Background())
	require.ErrorIs(t, err, ErrUnknownConfigField)
	assert.Equal(t, 50, h.Get().API.RateLimit)
}

func TestHolder_RegisterListener(t *testing.T) {
	h, path := newTestHolder(t, "log:\n  level: info\n")
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	select {
	case cfg := <-ch:
		assert.Equal(t, "warn", cfg.LogLevel)
	case <-time.After(time.Second):
		t.Fatal("listener not notified")
	}
}

func TestHolder_NotifyListenersNonBlocking(t *testing.T) {
	h, _ := newTestHolder(t, "")
	full := make(chan AppConfig)
	h.RegisterListener(full)

	done := make(chan struct{})
	go func() {
		_ = h.Reload(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reload blocked on a listener without capacity")
	}
}

func TestHolder_StartWatcherEmptyPath(t *testing.T) {
	clearEnv(t)
	h := NewHolder(Defaults(), NewLoader(""))
	require.NoError(t, h.StartWatcher(context.Background()))
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	h, path := newTestHolder(t, "api:\n  rate_limit: 10\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, h.StartWatcher(ctx))
	require.NoError(t, os.WriteFile(path, []byte("api:\n  rate_limit: 20\n"), 0o600))

	require.Eventually(t, func() bool {
		return h.Get().API.RateLimit == 20
	}, 5*time.Second, 50*time.Millisecond)
}
