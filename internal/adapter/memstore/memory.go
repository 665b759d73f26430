package memstore

import (
	"fmt"
	"sync"

	"labrec/internal/domain"
)

// MemoryStore is the in-memory sparse index. It lives for a single run and is
// rebuilt from scratch by Reset + PutDoc.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[int]domain.Document
	docLens  map[int]int
	postings map[string][]domain.Posting
	totalLen int
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.Reset()
	return s
}

func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[int]domain.Document)
	s.docLens = make(map[int]int)
	s.postings = make(map[string][]domain.Posting)
	s.totalLen = 0
}

// PutDoc indexes doc under its tokens. Re-putting an index replaces it.
func (s *MemoryStore) PutDoc(doc domain.Document, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.Index]; exists {
		s.removeLocked(doc.Index)
	}

	s.docs[doc.Index] = doc
	s.docLens[doc.Index] = len(tokens)
	s.totalLen += len(tokens)

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for term, n := range tf {
		s.postings[term] = append(s.postings[term], domain.Posting{
			DocIndex: doc.Index,
			TF:       n,
		})
	}
	return nil
}

func (s *MemoryStore) removeLocked(index int) {
	s.totalLen -= s.docLens[index]
	delete(s.docs, index)
	delete(s.docLens, index)
	for term, postings := range s.postings {
		filtered := postings[:0]
		for _, p := range postings {
			if p.DocIndex != index {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(s.postings, term)
		} else {
			s.postings[term] = filtered
		}
	}
}

func (s *MemoryStore) GetDoc(index int) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[index]
	if !ok {
		return domain.Document{}, fmt.Errorf("document not found: %d", index)
	}
	return doc, nil
}

func (s *MemoryStore) DocLen(index int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.docLens[index]
	if !ok {
		return 0, fmt.Errorf("document not found: %d", index)
	}
	return n, nil
}

func (s *MemoryStore) GetPostings(term string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postings[term], nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.Stats{TotalDocs: len(s.docs)}
	if stats.TotalDocs > 0 {
		stats.AvgDocLen = float64(s.totalLen) / float64(stats.TotalDocs)
	}
	return stats, nil
}
