package updater

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 2 * time.Second

// Watcher requests a restart when the database file is replaced by a
// refresh running outside this process.
type Watcher struct {
	path    string
	handoff *Handoff
	logger  *slog.Logger
	settle  time.Duration
}

// NewWatcher creates a watcher for the database file at path. settle is how
// long the file must stay quiet before the handoff is signalled; zero uses
// the default.
func NewWatcher(path string, handoff *Handoff, logger *slog.Logger, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = defaultSettle
	}
	return &Watcher{
		path:    filepath.Clean(path),
		handoff: handoff,
		logger:  logger,
		settle:  settle,
	}
}

// Run watches the directory holding the database file. It returns ErrHandoff
// after signalling, nil on cancellation, and an error if the watch cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching database file", "path", w.path)

	var settled <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.handoff.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.logger.Debug("database file changed", "op", event.Op.String())
			settled = time.After(w.settle)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		case <-settled:
			w.logger.Info("database file replaced, requesting restart", "path", w.path)
			w.handoff.Signal("database file replaced")
			return ErrHandoff
		}
	}
}
