// pkg/loader/export.go
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/David-Botos/census-ingress/pkg/converter"
	"github.com/David-Botos/census-ingress/pkg/model"
)

// WriteCSV writes the table with a header row. Missing cells are written
// the way the converter formats them (empty by default).
func WriteCSV(w io.Writer, t *model.Table, conv *converter.TypeConverter, delimiter rune) error {
	if conv == nil {
		conv = converter.NewTypeConverter(nil)
	}

	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	columns := t.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for i := 0; i < t.Len(); i++ {
		for j, col := range columns {
			record[j] = conv.FormatValue(t.Value(i, col))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, creating parent directories
func WriteCSVFile(path string, t *model.Table, conv *converter.TypeConverter, delimiter rune) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteCSV(f, t, conv, delimiter); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
