package runs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hardsub/internal/config"
	"hardsub/internal/cues"
	"hardsub/internal/ocr"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestBeginAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run, err := store.Begin(ctx, "/videos/episode01.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("unexpected new run: %+v", run)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.VideoPath != "/videos/episode01.mkv" || got.Status != StatusRunning {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.FinishedAt != nil {
		t.Errorf("running run has finished_at: %v", got.FinishedAt)
	}
}

func TestGetByPrefix(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run, err := store.Begin(ctx, "/videos/a.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	got, err := store.Get(ctx, run.ID[:8])
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if got == nil || got.ID != run.ID {
		t.Errorf("prefix lookup returned %+v, want run %s", got, run.ID)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}

func TestCompletePersistsCues(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run, err := store.Begin(ctx, "/videos/a.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	cueList := []cues.Cue{
		{Index: 1, StartMS: 0, EndMS: 1500, Text: "first line", Box: ocr.Box{X: 10, Y: 700, Width: 300, Height: 40}},
		{Index: 2, StartMS: 2000, EndMS: 4000, Text: "second\nline", Box: ocr.Box{X: 12, Y: 702, Width: 290, Height: 38}},
	}
	detection := map[string]any{"engine": "stub"}
	if err := store.Complete(ctx, run.ID, detection, 42, cueList); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted || got.CueCount != 2 || got.FramesSampled != 42 {
		t.Errorf("unexpected completed run: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("completed run missing finished_at")
	}
	if got.DetectionJSON == "" {
		t.Error("completed run missing detection record")
	}

	stored, err := store.Cues(ctx, run.ID)
	if err != nil {
		t.Fatalf("cues: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(stored))
	}
	for i := range cueList {
		if stored[i] != cueList[i] {
			t.Errorf("cue %d changed in round trip: %+v vs %+v", i, stored[i], cueList[i])
		}
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run, err := store.Begin(ctx, "/videos/a.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Finish(ctx, run.ID, StatusFailed, "recognizing", "worker killed after timeout"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed || got.Phase != "recognizing" {
		t.Errorf("unexpected failed run: %+v", got)
	}
	if got.ErrorMessage == "" {
		t.Error("failed run missing error message")
	}
	if !got.Terminal() {
		t.Error("failed run should be terminal")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.Begin(ctx, "/videos/a.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.Begin(ctx, "/videos/b.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	listed, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(listed))
	}
	if listed[0].ID != second.ID || listed[1].ID != first.ID {
		t.Errorf("runs not newest first: %s then %s", listed[0].ID, listed[1].ID)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != second.ID {
		t.Errorf("limit not applied: %+v", limited)
	}
}

func TestPruneRemovesOldTerminalRuns(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old, err := store.Begin(ctx, "/videos/old.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Finish(ctx, old.ID, StatusCancelled, "sampling", ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	running, err := store.Begin(ctx, "/videos/live.mkv")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	pruned, err := store.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d runs, want 1", pruned)
	}

	remaining, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != running.ID {
		t.Errorf("running run should survive prune: %+v", remaining)
	}
}
