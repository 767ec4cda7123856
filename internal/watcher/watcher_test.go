package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create", fsnotify.Event{Name: "/c/a.txt", Op: fsnotify.Create}, true},
		{"write", fsnotify.Event{Name: "/c/a.txt", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/c/a.txt", Op: fsnotify.Remove}, true},
		{"rename", fsnotify.Event{Name: "/c/a.txt", Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: "/c/a.txt", Op: fsnotify.Chmod}, false},
		{"hidden", fsnotify.Event{Name: "/c/.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 100*time.Millisecond, func(context.Context) { calls.Add(1) })
	}()
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "gone"), time.Millisecond, func(context.Context) {})
	assert.Error(t, err)
}
