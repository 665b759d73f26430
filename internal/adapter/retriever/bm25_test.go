package retriever

import (
	"testing"

	"labrec/internal/adapter/analyzer"
	"labrec/internal/adapter/memstore"
	"labrec/internal/domain"
)

func newBM25(t *testing.T, docs []domain.Document) *BM25Retriever {
	t.Helper()
	r := NewBM25Retriever(memstore.NewMemoryStore(), analyzer.NewTokenizer(true), 1.2, 0.75)
	if err := r.Index(docs); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBM25Scoring(t *testing.T) {
	retriever := newBM25(t, []domain.Document{
		{Index: 1, Text: "Lab Description: robot authentication and secure login"},
		{Index: 2, Text: "Lab Description: database connection pooling and query optimization"},
		{Index: 3, Text: "Lab Description: user authentication with biometric sensors"},
	})

	results, err := retriever.Search("authentication", 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results for 'authentication', got %d", len(results))
	}
	for _, r := range results {
		if r.Index != 1 && r.Index != 3 {
			t.Errorf("unexpected document %d in results", r.Index)
		}
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("expected ranks 1,2, got %d,%d", results[0].Rank, results[1].Rank)
	}

	results, err = retriever.Search("database", 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) == 0 {
		t.Fatal("expected results for 'database' query")
	}

	if results[0].Index != 2 {
		t.Errorf("expected document 2 to be top result for 'database', got %d", results[0].Index)
	}
	if results[0].Text == "" {
		t.Error("expected candidate text to be filled")
	}
}

func TestBM25TermFrequency(t *testing.T) {
	retriever := newBM25(t, []domain.Document{
		{Index: 1, Text: "protein folding"},
		{Index: 2, Text: "protein protein folding simulation"},
		{Index: 3, Text: "ocean currents"},
	})

	results, err := retriever.Search("protein", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected k=1 to truncate, got %d", len(results))
	}
	if results[0].Index != 2 {
		t.Errorf("expected document 2 first, got %d", results[0].Index)
	}
}

func TestBM25EmptyQuery(t *testing.T) {
	retriever := newBM25(t, []domain.Document{{Index: 0, Text: "hello world"}})

	results, err := retriever.Search("", 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 0 {
		t.Errorf("expected no results for empty query, got %d", len(results))
	}
}

func TestBM25NoMatches(t *testing.T) {
	retriever := newBM25(t, []domain.Document{{Index: 0, Text: "hello world"}})

	results, err := retriever.Search("zzzznonexistent", 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 0 {
		t.Errorf("expected no results for non-matching query, got %d", len(results))
	}
}

func TestBM25ReindexDropsOldDocs(t *testing.T) {
	retriever := newBM25(t, []domain.Document{{Index: 0, Text: "graphene membranes"}})
	if err := retriever.Index([]domain.Document{{Index: 1, Text: "coral reefs"}}); err != nil {
		t.Fatal(err)
	}

	results, err := retriever.Search("graphene", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected stale document to be gone, got %d results", len(results))
	}
}

func TestScore(t *testing.T) {
	// tf=1, dl=avgDl: the length term vanishes and the score is idf.
	got := Score(1, 10, 10, 2.0, 1.2, 0.75)
	if got != 2.0 {
		t.Errorf("expected 2.0, got %v", got)
	}
}
