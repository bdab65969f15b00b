package checkpoint

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/Preetham2702/AI-Snake-agent/internal/nn"
)

func TestSaveRestoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "snake_dqn.json")
	src := nn.NewMLP(11, 16, 0, 3, rand.New(rand.NewSource(1)))

	if err := Save(path, src, Meta{RunID: "run", Episode: 7, Score: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dst := nn.NewMLP(11, 16, 0, 3, rand.New(rand.NewSource(2)))
	meta, err := Restore(path, dst)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !dst.Equal(src) {
		t.Fatalf("restored parameters differ from saved ones")
	}
	if meta.Episode != 7 || meta.Score != 3 || meta.RunID != "run" || meta.SavedAt.IsZero() {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestFailedSaveKeepsPreviousCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake_dqn_best.json")
	good := nn.NewMLP(11, 8, 0, 3, rand.New(rand.NewSource(3)))
	if err := Save(path, good, Meta{Episode: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// NaN cannot be encoded, so this save fails during the write.
	bad := good.Clone()
	bad.Layers()[0].W.Set(0, 0, math.NaN())
	err := Save(path, bad, Meta{Episode: 2})
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "save" {
		t.Fatalf("err=%v want *PersistenceError", err)
	}

	restored := nn.NewMLP(11, 8, 0, 3, nil)
	meta, err := Restore(path, restored)
	if err != nil {
		t.Fatalf("previous checkpoint unreadable: %v", err)
	}
	if meta.Episode != 1 || !restored.Equal(good) {
		t.Fatalf("previous checkpoint was overwritten")
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	net := nn.NewMLP(11, 8, 0, 3, nil)

	var perr *PersistenceError
	if _, err := Restore(filepath.Join(dir, "missing.json"), net); !errors.As(err, &perr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: err=%v", err)
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(garbage); !errors.As(err, &perr) || perr.Op != "load" {
		t.Fatalf("garbage file: err=%v", err)
	}

	other := filepath.Join(dir, "other.json")
	if err := Save(other, nn.NewMLP(11, 4, 0, 3, nil), Meta{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Restore(other, net); !errors.As(err, &perr) {
		t.Fatalf("architecture mismatch: err=%v", err)
	}
}
