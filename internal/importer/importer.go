package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradeguard/internal/inference"
	"tradeguard/internal/ledger"
	"tradeguard/internal/logger"
)

// Importer drives the full ingestion path: parse export → ledger snapshot
// → trade inference → archive the processed file.
type Importer struct {
	ledger       *ledger.Ledger
	inference    *inference.Engine
	processedDir string
}

func New(led *ledger.Ledger, inf *inference.Engine, processedDir string) *Importer {
	return &Importer{ledger: led, inference: inf, processedDir: processedDir}
}

// ImportFile ingests one broker export and reconciles it against the
// previous snapshot. The file is archived only after a successful import.
func (im *Importer) ImportFile(ctx context.Context, path string) (int64, error) {
	logger.Infof("importer: importing %s", filepath.Base(path))
	export, err := ParseFidelityFile(path)
	if err != nil {
		return 0, err
	}
	snapshotID, err := im.ledger.Ingest(ctx, export.Rows, export.PendingCash)
	if err != nil {
		return 0, err
	}
	if _, err := im.inference.ReconcileLatest(ctx); err != nil {
		// The snapshot is already committed; a reconcile failure is logged
		// rather than unwinding the import.
		logger.Errorf("importer: trade inference after snapshot %d failed: %v", snapshotID, err)
	}
	if err := im.archive(path); err != nil {
		logger.Warnf("importer: archiving %s failed: %v", filepath.Base(path), err)
	}
	return snapshotID, nil
}

func (im *Importer) archive(path string) error {
	if im.processedDir == "" {
		return nil
	}
	if err := os.MkdirAll(im.processedDir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(path)
	stamped := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), base)
	return os.Rename(path, filepath.Join(im.processedDir, stamped))
}
