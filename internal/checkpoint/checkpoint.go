// Package checkpoint persists policy network parameters as JSON files.
//
// Writes go to a temporary file in the destination directory and are
// renamed over the target only after a successful flush and fsync, so a
// failed save leaves any previous checkpoint untouched.
package checkpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Preetham2702/AI-Snake-agent/internal/nn"
)

// Version is the on-disk format version.
const Version = 1

// PersistenceError reports a failed save or load.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Meta describes where a checkpoint came from. It carries no agent state.
type Meta struct {
	RunID      string    `json:"run_id,omitempty"`
	Episode    int       `json:"episode"`
	Score      int       `json:"score"`
	TrainSteps int       `json:"train_steps"`
	SavedAt    time.Time `json:"saved_at"`
}

// File is the decoded checkpoint.
type File struct {
	Version int       `json:"version"`
	Meta    Meta      `json:"meta"`
	Network nn.Params `json:"network"`
}

// Save writes the parameters of net to path atomically.
func Save(path string, net *nn.MLP, meta Meta) (err error) {
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	file := File{Version: Version, Meta: meta, Network: net.Params()}

	fail := func(err error) error {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("create dir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(fmt.Errorf("create temp: %w", err))
	}
	tmpPath := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := json.NewEncoder(w).Encode(file); err != nil {
		return fail(fmt.Errorf("encode: %w", err))
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flush: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync: %w", err))
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return fail(fmt.Errorf("close: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fail(fmt.Errorf("rename: %w", err))
	}
	return nil
}

// Load reads and decodes a checkpoint.
func Load(path string) (*File, error) {
	fail := func(err error) error {
		return &PersistenceError{Op: "load", Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fail(err)
	}
	defer f.Close()

	var file File
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&file); err != nil {
		return nil, fail(fmt.Errorf("decode: %w", err))
	}
	if file.Version != Version {
		return nil, fail(fmt.Errorf("unsupported version %d", file.Version))
	}
	return &file, nil
}

// Restore loads path into net. The architecture must match.
func Restore(path string, net *nn.MLP) (Meta, error) {
	file, err := Load(path)
	if err != nil {
		return Meta{}, err
	}
	if err := net.SetParams(file.Network); err != nil {
		return Meta{}, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	return file.Meta, nil
}
