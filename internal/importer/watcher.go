package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradeguard/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the broker's browser download time to finish writing
// before the file is parsed.
const settleDelay = 500 * time.Millisecond

// Watcher imports CSV exports dropped into an inbox directory.
type Watcher struct {
	importer *Importer
	inbox    string
}

func NewWatcher(im *Importer, inbox string) *Watcher {
	return &Watcher{importer: im, inbox: inbox}
}

// Run watches the inbox until ctx is canceled. Files already sitting in the
// inbox at startup are imported first so a restart never strands an export.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.inbox, 0o755); err != nil {
		return err
	}
	w.importExisting(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.inbox); err != nil {
		return err
	}
	logger.Infof("importer: watching inbox %s", w.inbox)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			if !isCSV(evt.Name) {
				continue
			}
			time.Sleep(settleDelay)
			if _, err := w.importer.ImportFile(ctx, evt.Name); err != nil {
				logger.Errorf("importer: importing %s failed: %v", filepath.Base(evt.Name), err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("importer: watcher error: %v", err)
		}
	}
}

func (w *Watcher) importExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		logger.Warnf("importer: reading inbox failed: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isCSV(entry.Name()) {
			continue
		}
		path := filepath.Join(w.inbox, entry.Name())
		if _, err := w.importer.ImportFile(ctx, path); err != nil {
			logger.Errorf("importer: importing %s failed: %v", entry.Name(), err)
		}
	}
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
