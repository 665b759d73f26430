package source

import (
	"encoding/csv"
	"fmt"
	"os"

	"labrec/internal/domain"
)

func loadCSV(path string, offset int) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rowsToRecords(rows, offset)
}
