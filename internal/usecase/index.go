package usecase

import (
	"fmt"

	"go.uber.org/zap"

	"labrec/internal/adapter/source"
	"labrec/internal/domain"
	"labrec/internal/port"
)

// Corpus is the loaded dataset of one run.
type Corpus struct {
	Records []domain.Record
	Docs    []domain.Document
	ByIndex map[int]domain.Record
}

// IndexUseCase loads records and projects them into searchable documents.
type IndexUseCase struct {
	source port.RecordSource
	logger *zap.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(src port.RecordSource, logger *zap.Logger) *IndexUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexUseCase{source: src, logger: logger}
}

// Load reads the dataset. An empty dataset is domain.ErrEmptyCorpus.
func (u *IndexUseCase) Load() (*Corpus, error) {
	records, err := u.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	corpus := &Corpus{
		Records: records,
		Docs:    source.Project(records),
		ByIndex: source.ByIndex(records),
	}
	u.logger.Info("corpus loaded", zap.Int("records", len(records)))
	return corpus, nil
}
