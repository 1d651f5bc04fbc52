// Package csvfile maintains the flat result table on disk: the CSV file the
// analysis CLI reads.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/couchcryptid/f1-weather-etl/internal/domain"
)

// Writer appends flattened rows to the table file. Rows whose
// "Driver Number and Race Name" key is already present are skipped, so a
// replayed session does not duplicate rows. It implements pipeline.BatchLoader.
type Writer struct {
	path     string
	rowLimit int
	logger   *slog.Logger

	mu      sync.Mutex
	file    *os.File
	csv     *csv.Writer
	keys    map[string]struct{}
	rows    int
	limited bool
}

// Open opens or creates the table at path. An existing file must carry the
// standard header; its keys are loaded for de-duplication. rowLimit caps the
// total number of data rows, 0 meaning no cap.
func Open(path string, rowLimit int, logger *slog.Logger) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create table dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}

	w := &Writer{
		path:     path,
		rowLimit: rowLimit,
		logger:   logger,
		file:     f,
		keys:     make(map[string]struct{}),
	}
	if err := w.scanExisting(); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek table: %w", err)
	}
	w.csv = csv.NewWriter(f)

	if w.rows == 0 && !w.hasHeader() {
		if err := w.csv.Write(domain.TableColumns); err != nil {
			f.Close()
			return nil, fmt.Errorf("write table header: %w", err)
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write table header: %w", err)
		}
	}

	logger.Info("csv table opened", "path", path, "existing_rows", w.rows, "row_limit", rowLimit)
	return w, nil
}

func (w *Writer) hasHeader() bool {
	info, err := w.file.Stat()
	return err == nil && info.Size() > 0
}

func (w *Writer) scanExisting() error {
	r := csv.NewReader(w.file)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read table header: %w", err)
	}
	if !slices.Equal(header, domain.TableColumns) {
		return fmt.Errorf("table %s has an unexpected header; refusing to append", w.path)
	}

	keyIdx := slices.Index(header, domain.ColDriverRaceKey)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read table row %d: %w", w.rows+1, err)
		}
		w.keys[row[keyIdx]] = struct{}{}
		w.rows++
	}
}

// LoadBatch appends new rows and flushes them to disk.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.RaceResultRecord) error {
	_, err := w.LoadBatchRows(ctx, records)
	return err
}

// LoadBatchRows appends records and returns how many rows reached the table.
// Duplicate keys and rows past the row limit are not counted.
func (w *Writer) LoadBatchRows(_ context.Context, records []domain.RaceResultRecord) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	written := 0
	for _, rec := range records {
		if w.rowLimit > 0 && w.rows >= w.rowLimit {
			if !w.limited {
				w.logger.Warn("csv table row limit reached, dropping further rows", "path", w.path, "row_limit", w.rowLimit)
				w.limited = true
			}
			break
		}
		key := rec.DriverRaceKey()
		if _, dup := w.keys[key]; dup {
			continue
		}
		if err := w.csv.Write(rec.CSVRow()); err != nil {
			return written, fmt.Errorf("write table row: %w", err)
		}
		w.keys[key] = struct{}{}
		w.rows++
		written++
	}

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return written, fmt.Errorf("flush table: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return written, fmt.Errorf("sync table: %w", err)
	}
	w.logger.Debug("csv rows appended", "written", written, "skipped", len(records)-written, "total", w.rows)
	return written, nil
}

// Rows returns the number of data rows in the table.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	return errors.Join(w.csv.Error(), w.file.Close())
}
