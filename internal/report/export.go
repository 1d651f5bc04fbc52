package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/f1-weather-etl/internal/analysis"
)

const exportSheet = "Sheet1"

// ExportTable writes t to path as CSV or XLSX, chosen by extension.
func ExportTable(t *analysis.Table, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export: %w", err)
		}
		if err := t.WriteCSV(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return ExportXLSX(t, path)
	default:
		return fmt.Errorf("export %s: unsupported file type %q", path, filepath.Ext(path))
	}
}

// ExportXLSX writes t to a single-sheet workbook with a header row.
func ExportXLSX(t *analysis.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	df := t.DataFrame()
	names := df.Names()
	for i, name := range names {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("export xlsx header: %w", err)
		}
		if err := f.SetCellValue(exportSheet, cell, name); err != nil {
			return fmt.Errorf("export xlsx header: %w", err)
		}
	}

	for colIdx, name := range names {
		col := df.Col(name)
		for rowIdx := 0; rowIdx < df.Nrow(); rowIdx++ {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("export xlsx: %w", err)
			}
			if err := f.SetCellValue(exportSheet, cell, cellValue(col.Elem(rowIdx))); err != nil {
				return fmt.Errorf("export xlsx %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	return nil
}

// cellValue keeps numbers numeric in the workbook; missing values become empty cells.
func cellValue(e series.Element) any {
	if e.IsNA() {
		return ""
	}
	if e.Type() == series.Float {
		v := e.Float()
		if math.IsNaN(v) {
			return ""
		}
		return v
	}
	return e.String()
}
