package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/storage"
)

func newTestStager(t *testing.T) (*Stager, *storage.LocalStore) {
	t.Helper()
	store := storage.NewLocalStore(t.TempDir(), nil)
	enc := render.NewStubEncoder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewStager(store, enc, 3, nil), store
}

func seedBlob(t *testing.T, store *storage.LocalStore, path, content string) {
	t.Helper()
	src := filepath.Join(t.TempDir(), "seed")
	if err := os.WriteFile(src, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Upload(context.Background(), src, path); err != nil {
		t.Fatal(err)
	}
}

func TestWorkspace_CloseRemovesEverything(t *testing.T) {
	stager, _ := newTestStager(t)
	ws, err := stager.NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	if err := os.WriteFile(ws.Path("scratch.bin"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace dir still present after Close")
	}
}

func TestStage_MissingBlob(t *testing.T) {
	stager, _ := newTestStager(t)
	ws, _ := stager.NewWorkspace()
	defer ws.Close()

	_, err := stager.Stage(context.Background(), ws, "videos/u/missing.mp4")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Stage() error = %v, want ErrNotFound", err)
	}
}

func TestStageAll_OrderAndContent(t *testing.T) {
	stager, store := newTestStager(t)
	ws, _ := stager.NewWorkspace()
	defer ws.Close()

	var remotes []string
	for i := 0; i < 5; i++ {
		path := storage.ClipPath("u", fmt.Sprintf("clip%d.mp4", i))
		seedBlob(t, store, path, fmt.Sprintf("content-%d", i))
		remotes = append(remotes, path)
	}

	locals, err := stager.StageAll(context.Background(), ws, remotes)
	if err != nil {
		t.Fatalf("StageAll() error = %v", err)
	}
	if len(locals) != 5 {
		t.Fatalf("staged %d files, want 5", len(locals))
	}
	for i, local := range locals {
		data, err := os.ReadFile(local)
		if err != nil {
			t.Fatalf("read staged file %d: %v", i, err)
		}
		if string(data) != fmt.Sprintf("content-%d", i) {
			t.Errorf("staged[%d] = %q, out of order", i, data)
		}
	}
}

func TestProbeDuration(t *testing.T) {
	stager, _ := newTestStager(t)
	d, err := stager.ProbeDuration(context.Background(), "whatever.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration() error = %v", err)
	}
	if d != 60 {
		t.Errorf("ProbeDuration() = %v, want stub 60", d)
	}
}

func TestStageAll_OneMissingFailsAll(t *testing.T) {
	stager, store := newTestStager(t)
	ws, _ := stager.NewWorkspace()
	defer ws.Close()

	seedBlob(t, store, storage.ClipPath("u", "a.mp4"), "a")

	_, err := stager.StageAll(context.Background(), ws, []string{
		storage.ClipPath("u", "a.mp4"),
		storage.ClipPath("u", "gone.mp4"),
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("StageAll() error = %v, want ErrNotFound", err)
	}
}
