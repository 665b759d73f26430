package port

import "labrec/internal/domain"

// IndexStore holds the sparse (lexical) index of the current run.
type IndexStore interface {
	PutDoc(doc domain.Document, tokens []string) error

	GetDoc(index int) (domain.Document, error)

	DocLen(index int) (int, error)

	GetPostings(term string) ([]domain.Posting, error)

	GetStats() (domain.Stats, error)

	Reset()
}
