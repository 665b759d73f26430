package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"labrec/internal/domain"
)

// FileSource loads lab records from CSV and XLSX files matched by globs.
type FileSource struct {
	root   string
	walker *Walker
	sheet  string
	logger *zap.Logger
}

func NewFileSource(root string, patterns []string, sheet string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		root:   root,
		walker: NewWalker(patterns, nil),
		sheet:  sheet,
		logger: logger,
	}
}

// Load reads every matching file in path order. Rows without an index column
// are numbered by their position across all files.
func (s *FileSource) Load() ([]domain.Record, error) {
	files, err := s.walker.Walk(s.root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no dataset files found under %s", s.root)
	}

	var records []domain.Record
	seen := make(map[int]string)
	for _, path := range files {
		var recs []domain.Record
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			recs, err = loadCSV(path, len(records))
		case ".xlsx":
			recs, err = loadXLSX(path, s.sheet, len(records))
		}
		if err != nil {
			return nil, err
		}

		for _, r := range recs {
			if prev, dup := seen[r.Index]; dup {
				return nil, fmt.Errorf("duplicate index %d in %s (first seen in %s)", r.Index, path, prev)
			}
			seen[r.Index] = path
		}

		s.logger.Debug("loaded dataset file",
			zap.String("path", path),
			zap.Int("records", len(recs)))
		records = append(records, recs...)
	}

	return records, nil
}

// StaticSource serves records already in memory.
type StaticSource []domain.Record

func (s StaticSource) Load() ([]domain.Record, error) {
	return s, nil
}
