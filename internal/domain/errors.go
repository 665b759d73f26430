package domain

import "errors"

var (
	// ErrEmptyCorpus is returned when an index is built from zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrRetrieverUnavailable wraps embedding or index failures. It is never
	// retried by the retriever.
	ErrRetrieverUnavailable = errors.New("retriever unavailable")

	// ErrNoSearchResults is returned when the web search yields nothing.
	ErrNoSearchResults = errors.New("no search results")

	// ErrRelevanceJudgment marks a per-candidate gate failure. The candidate
	// is excluded and processing continues.
	ErrRelevanceJudgment = errors.New("relevance judgment failed")

	// ErrSynthesis marks a failed completion in the web fallback.
	ErrSynthesis = errors.New("synthesis failed")

	ErrInvalidQuery = errors.New("invalid query")
)
