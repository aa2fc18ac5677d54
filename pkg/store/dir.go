// Package store loads garden registries from persistent sources.
//
// Two sources are supported:
//
//   - [Dir]: a directory of schema files (.json, .yaml, .yml, .toml), one
//     garden per file, optionally watched for changes with [Watch]
//   - [Mongo]: a MongoDB collection with one document per garden
//
// Sources produce immutable [garden.MapRegistry] snapshots. Long-running
// processes publish the current snapshot through a [Live] registry, which
// swaps snapshots atomically so in-flight builds keep a consistent view.
package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/garden"
)

// Dir loads gardens from the schema files in one directory. Subdirectories
// are not scanned.
type Dir struct {
	Path   string
	Logger *log.Logger

	// Concurrency bounds parallel file decoding (default GOMAXPROCS).
	Concurrency int
}

// NewDir creates a directory source. A nil logger discards output.
func NewDir(path string, logger *log.Logger) *Dir {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Dir{Path: path, Logger: logger}
}

// Load decodes every schema file in the directory. Files that fail to
// decode or validate are logged and skipped. Files are read in name order,
// and when two files declare the same garden name the first one wins.
func (d *Dir) Load(ctx context.Context) (*garden.MapRegistry, error) {
	files, err := d.files()
	if err != nil {
		return nil, err
	}

	gardens := make([]*garden.Garden, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency())
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gd, err := garden.ReadFile(path)
			if err != nil {
				d.logger().Warn("skipping garden file", "file", filepath.Base(path), "err", errors.UserMessage(err))
				return nil
			}
			gardens[i] = gd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := garden.NewRegistry(gardens...)
	d.logger().Debug("loaded gardens", "dir", d.Path, "files", len(files), "gardens", reg.Len())
	return reg, nil
}

// files lists the schema files in the directory in name order.
func (d *Dir) files() ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "registry dir %s", d.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read registry dir %s", d.Path)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isSchemaFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(d.Path, e.Name()))
	}
	return files, nil
}

func (d *Dir) concurrency() int {
	if d.Concurrency > 0 {
		return d.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

func (d *Dir) logger() *log.Logger {
	if d.Logger == nil {
		d.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return d.Logger
}

// isSchemaFile reports whether name has a schema extension. Hidden files
// (editor swap files, temp files) are ignored.
func isSchemaFile(name string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	_, err := errors.ValidateSchemaFilename(name)
	return err == nil
}
