package retriever

import (
	"math"
	"sort"

	"labrec/internal/domain"
	"labrec/internal/port"
)

// BM25Retriever is the sparse half of the hybrid retriever.
type BM25Retriever struct {
	store     port.IndexStore
	tokenizer port.Tokenizer
	k1        float64
	b         float64
}

func NewBM25Retriever(store port.IndexStore, tokenizer port.Tokenizer, k1, b float64) *BM25Retriever {
	if k1 <= 0 {
		k1 = 1.2
	}
	if b < 0 || b > 1 {
		b = 0.75
	}
	return &BM25Retriever{
		store:     store,
		tokenizer: tokenizer,
		k1:        k1,
		b:         b,
	}
}

// Index replaces the sparse index with docs.
func (r *BM25Retriever) Index(docs []domain.Document) error {
	r.store.Reset()
	for _, doc := range docs {
		if err := r.store.PutDoc(doc, r.tokenizer.Tokenize(doc.Text)); err != nil {
			return err
		}
	}
	return nil
}

func (r *BM25Retriever) Search(query string, k int) ([]domain.Candidate, error) {
	queryTokens := r.tokenizer.Tokenize(query)
	if len(queryTokens) == 0 || k <= 0 {
		return nil, nil
	}

	stats, err := r.store.GetStats()
	if err != nil {
		return nil, err
	}
	if stats.TotalDocs == 0 {
		return nil, nil
	}

	docScores := make(map[int]float64)
	docLengths := make(map[int]int)

	N := float64(stats.TotalDocs)
	for _, term := range queryTokens {
		postings, err := r.store.GetPostings(term)
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			continue
		}

		n := float64(len(postings))
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)

		for _, posting := range postings {
			dl, exists := docLengths[posting.DocIndex]
			if !exists {
				dl, err = r.store.DocLen(posting.DocIndex)
				if err != nil {
					continue
				}
				docLengths[posting.DocIndex] = dl
			}

			tf := float64(posting.TF)
			docScores[posting.DocIndex] += Score(tf, float64(dl), stats.AvgDocLen, idf, r.k1, r.b)
		}
	}

	results := make([]domain.Candidate, 0, len(docScores))
	for index, score := range docScores {
		doc, err := r.store.GetDoc(index)
		if err != nil {
			continue
		}
		results = append(results, domain.Candidate{
			Index: index,
			Text:  doc.Text,
			Score: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	return results, nil
}

// Score is the BM25 contribution of one term to one document.
func Score(tf, dl, avgDl, idf, k1, b float64) float64 {
	if avgDl == 0 {
		avgDl = 1
	}
	return idf * (tf * (k1 + 1)) / (tf + k1*(1-b+b*dl/avgDl))
}
