package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/todo"
)

// CorruptPolicy decides what Load does with a record it cannot decode.
type CorruptPolicy string

const (
	// Abort fails the whole load on the first corrupt record.
	Abort CorruptPolicy = "abort"
	// Skip drops corrupt records with a warning and loads the rest.
	Skip CorruptPolicy = "skip"
)

// ParseCorruptPolicy parses "abort" or "skip". Empty means Abort.
func ParseCorruptPolicy(s string) (CorruptPolicy, error) {
	switch CorruptPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case Abort, "":
		return Abort, nil
	case Skip:
		return Skip, nil
	}
	return "", fmt.Errorf("invalid corrupt record policy %q (want abort or skip)", s)
}

// Options configures a File.
type Options struct {
	Path      string
	Format    string // csv, json or cbor; empty infers from Path
	OnCorrupt CorruptPolicy
	Logger    *log.Logger
}

// File persists the full task list to a single file. Every Flush rewrites
// the file through a temporary sibling and a rename, so readers see either
// the previous or the new contents.
type File struct {
	path    string
	codec   Codec
	zstd    bool
	policy  CorruptPolicy
	logger  *log.Logger
	skipped []error
}

var _ todo.Persister = (*File)(nil)

// Open prepares a File. It does not touch the filesystem.
func Open(opts Options) (*File, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("task file path is empty")
	}
	format := opts.Format
	if format == "" {
		format = FormatForPath(opts.Path)
	}
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	policy := opts.OnCorrupt
	if policy == "" {
		policy = Abort
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &File{
		path:   opts.Path,
		codec:  codec,
		zstd:   IsCompressed(opts.Path),
		policy: policy,
		logger: logger,
	}, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Format returns the codec name, with a "+zstd" suffix for compressed files.
func (f *File) Format() string {
	if f.zstd {
		return f.codec.Name() + "+zstd"
	}
	return f.codec.Name()
}

// Skipped returns the corrupt records dropped by the last Load.
func (f *File) Skipped() []error { return slices.Clone(f.skipped) }

// Load reads every task, sorted by due time. A missing file is an empty
// list. Corrupt records fail the load with a *CorruptRecordError unless the
// policy is Skip.
func (f *File) Load() ([]todo.Task, error) {
	f.skipped = nil
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Debug("task file does not exist yet", "path", f.path)
		return []todo.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if f.zstd && len(data) > 0 {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("load %s: %w", f.path, &CorruptRecordError{Err: err})
		}
	}

	entries, err := f.codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.path, err)
	}

	tasks := make([]todo.Task, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		t, err := f.decode(e, seen)
		if err != nil {
			if f.policy != Skip {
				return nil, fmt.Errorf("load %s: %w", f.path, err)
			}
			f.logger.Warn("skipping corrupt task record", "path", f.path, "err", err)
			f.skipped = append(f.skipped, err)
			continue
		}
		seen[t.ID] = e.Pos
		tasks = append(tasks, t)
	}

	slices.SortStableFunc(tasks, func(a, b todo.Task) int {
		return a.Due.Compare(b.Due)
	})
	f.logger.Debug("loaded tasks", "path", f.path, "count", len(tasks), "skipped", len(f.skipped))
	return tasks, nil
}

func (f *File) decode(e Entry, seen map[string]int) (todo.Task, error) {
	if e.Err != nil {
		return todo.Task{}, atPos(e.Pos, e.Err)
	}
	t, err := e.Record.Task()
	if err != nil {
		return todo.Task{}, atPos(e.Pos, err)
	}
	if first, dup := seen[t.ID]; dup {
		return todo.Task{}, &CorruptRecordError{
			Pos:   e.Pos,
			Field: "id",
			Err:   fmt.Errorf("duplicate of record %d", first),
		}
	}
	return t, nil
}

func atPos(pos int, err error) *CorruptRecordError {
	var ce *CorruptRecordError
	if errors.As(err, &ce) {
		out := *ce
		out.Pos = pos
		return &out
	}
	return &CorruptRecordError{Pos: pos, Err: err}
}

// Flush replaces the file contents with tasks.
func (f *File) Flush(tasks []todo.Task) error {
	var buf bytes.Buffer
	if err := f.codec.Encode(&buf, FromTasks(tasks)); err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	data := buf.Bytes()
	if f.zstd {
		data = compress(data)
	}
	if err := writeFileAtomic(f.path, data); err != nil {
		return err
	}
	f.logger.Debug("flushed tasks", "path", f.path, "count", len(tasks), "bytes", len(data))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating task file directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp task file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing task data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp task file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp task file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting task file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming task file to %s: %w", path, err)
	}

	success = true
	return nil
}
