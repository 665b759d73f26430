package port

import "labrec/internal/domain"

// RecordSource loads lab records from an external dataset.
type RecordSource interface {
	Load() ([]domain.Record, error)
}
