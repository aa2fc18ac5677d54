package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/gardenflow/pkg/garden"
)

// DefaultDebounce is how long Watch waits after the last file event before
// reloading, so an editor's write-rename-chmod burst triggers one reload.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures [Watch].
type WatchOptions struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// Extra is merged under every reloaded directory registry, so gardens
	// from other sources survive a reload. Directory gardens win.
	Extra garden.Registry

	// OnReload is called after each successful reload.
	OnReload func(*garden.MapRegistry)
}

// Watch reloads d into live whenever a schema file in the directory changes.
// It blocks until ctx is cancelled. A failed reload keeps the previous
// snapshot.
func Watch(ctx context.Context, d *Dir, live *Live, opts WatchOptions) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(d.Path); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	d.logger().Info("watching registry", "dir", d.Path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isSchemaFile(filepath.Base(event.Name)) || event.Op == fsnotify.Chmod {
				continue
			}
			d.logger().Debug("registry file changed", "file", filepath.Base(event.Name), "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.logger().Warn("registry watch error", "err", err)

		case <-timer.C:
			reg, err := d.Load(ctx)
			if err != nil {
				d.logger().Warn("registry reload failed, keeping previous gardens", "err", err)
				continue
			}
			if opts.Extra != nil {
				reg = Merge(reg, opts.Extra)
			}
			live.Swap(reg)
			d.logger().Info("reloaded registry", "gardens", reg.Len())
			if opts.OnReload != nil {
				opts.OnReload(reg)
			}
		}
	}
}
