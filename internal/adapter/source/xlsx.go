package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"labrec/internal/domain"
)

// loadXLSX reads sheet, or the first sheet when sheet is empty.
func loadXLSX(path, sheet string, offset int) ([]domain.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}
	return rowsToRecords(rows, offset)
}
