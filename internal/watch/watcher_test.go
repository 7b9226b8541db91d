package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemigrate/internal/dom"
	"git.home.luguber.info/inful/sitemigrate/internal/runner"
	"git.home.luguber.info/inful/sitemigrate/internal/storage"
	"git.home.luguber.info/inful/sitemigrate/internal/upgrade"
	"git.home.luguber.info/inful/sitemigrate/internal/version"
	"git.home.luguber.info/inful/sitemigrate/internal/versioning"
)

func savedDoc(saved string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en"><head><meta name="generator" content="Site Editor v%s"><title>Shop</title></head><body>
<div class="legacy-pages"><a data-editor-type="page" id="page-1">Home</a></div>
<div class="editable-style el-1" data-editor-id="el-1" data-editor-type="text-element"><div class="element-content">Hi</div></div>
</body></html>`, saved)
}

func newWatcher(t *testing.T, cfg Config) (*Watcher, *storage.FSStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	id := version.Identity{
		Running:      versioning.V(2, 6, 2),
		MinSupported: versioning.V(2, 2, 7),
		FrontEnd:     versioning.AssetVersion{Major: 2, Minor: 7},
		RootURL:      "https://edit.example.com",
	}
	r := runner.New(store, upgrade.New(id, upgrade.WithLogger(logger)), runner.WithLogger(logger))
	return New(store, r, cfg, logger), store
}

func markerOf(t *testing.T, store *storage.FSStore, name string) versioning.Tuple {
	t.Helper()
	b, err := store.Load(context.Background(), name)
	if err != nil {
		return versioning.Tuple{}
	}
	doc, err := dom.ParseString(string(b.HTML))
	require.NoError(t, err)
	return versioning.ReadMarker(doc)
}

func TestWatcherUpgradesOnStartAndOnWrite(t *testing.T) {
	w, store := newWatcher(t, Config{Debounce: 20 * time.Millisecond, Workers: 2})
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "early.html"), []byte(savedDoc("2.2.9")), 0o600))

	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, w.Stop(ctx))
	})

	require.Eventually(t, func() bool {
		return markerOf(t, store, "early") == versioning.V(2, 6, 2)
	}, 5*time.Second, 20*time.Millisecond, "startup sweep upgrades existing documents")

	staged := filepath.Join(t.TempDir(), "late.html")
	require.NoError(t, os.WriteFile(staged, []byte(savedDoc("2.4.0")), 0o600))
	require.NoError(t, os.Rename(staged, filepath.Join(store.Dir(), "late.html")))
	require.Eventually(t, func() bool {
		return markerOf(t, store, "late") == versioning.V(2, 6, 2)
	}, 5*time.Second, 20*time.Millisecond, "new files are upgraded")

	backups, err := store.Backups(context.Background(), "late")
	require.NoError(t, err)
	assert.Len(t, backups, 1, "original kept as backup")
}

func TestProcessSkipsUnchangedDocuments(t *testing.T) {
	w, store := newWatcher(t, Config{Workers: 1})
	ctx := t.Context()
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "shop.html"), []byte(savedDoc("2.2.9")), 0o600))

	w.process(ctx, "shop")
	first, err := store.Load(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, first.Hash, w.seen["shop"])

	w.process(ctx, "shop")
	second, err := store.Load(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, first.ModTime, second.ModTime, "unchanged documents are not rewritten")

	backups, err := store.Backups(ctx, "shop")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestProcessIgnoresMissingDocument(t *testing.T) {
	w, _ := newWatcher(t, Config{})
	w.process(t.Context(), "ghost")
	assert.Empty(t, w.seen)
	assert.Empty(t, w.inflight)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	w, _ := newWatcher(t, Config{Schedule: "not a cron"})
	require.Error(t, w.Start(t.Context()))
}

func TestScheduler(t *testing.T) {
	t.Run("cron", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		id, err := s.ScheduleCron("test", "0 */4 * * *", func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		_, err = s.ScheduleCron("test", "this is not a cron", func() {})
		require.Error(t, err)
	})

	t.Run("every", func(t *testing.T) {
		s, err := NewScheduler()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop(context.Background()) })

		var ticks atomic.Int32
		_, err = s.ScheduleEvery("tick", 10*time.Millisecond, func() { ticks.Add(1) })
		require.NoError(t, err)
		s.Start(t.Context())
		require.Eventually(t, func() bool { return ticks.Load() > 0 }, 2*time.Second, 5*time.Millisecond)

		_, err = s.ScheduleEvery("bad", 0, func() {})
		require.Error(t, err)
	})
}

func TestPool(t *testing.T) {
	var p pool
	var ran atomic.Int32
	release := make(chan struct{})
	require.True(t, p.spawn(func() { <-release; ran.Add(1) }))
	assert.False(t, p.spawn(nil))
	assert.Equal(t, 1, p.running())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.close(ctx), context.DeadlineExceeded)
	assert.False(t, p.spawn(func() {}), "closed pool refuses new goroutines")

	close(release)
	require.NoError(t, p.close(context.Background()))
	assert.Equal(t, int32(1), ran.Load())
	assert.Zero(t, p.running())

	p.reopen()
	assert.True(t, p.spawn(func() {}))
	require.NoError(t, p.close(context.Background()))
}
