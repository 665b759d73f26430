package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"labrec/internal/adapter/memstore"
	"labrec/internal/adapter/retriever"
	"labrec/internal/adapter/vectorstore"
	"labrec/internal/domain"
	"labrec/internal/port"
	"labrec/internal/usecase"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show the raw dense, BM25 and fused rankings for a query",
	Long: `Rank the labs for a query without the relevance gate. The dense and BM25
rankings are shown next to their weighted fusion, which helps tune
retrieve.dense_weight and retrieve.sparse_weight.

Examples:
  labrec search -q "graph neural networks"
  labrec search -q "battery materials" -k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

type searchOutput struct {
	Query  string             `json:"query"`
	Dense  []domain.Candidate `json:"dense"`
	Sparse []domain.Candidate `json:"sparse"`
	Fused  []domain.Candidate `json:"fused"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := GetLogger()

	query := usecase.NormalizeQuery(searchText)
	if query == "" {
		return fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	topK := cfg.Retrieve.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	corpus, err := loadCorpus(cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}

	tok := newTokenizer(cfg)
	emb, db, err := newEmbedder(cfg, GetRootDir(), tok, false, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	dense := retriever.NewSemanticRetriever(emb, func(dim int) (port.VectorStore, error) {
		return vectorstore.NewChromemStore("labs", dim)
	}, cfg.Embedding.BatchSize)
	sparse := retriever.NewBM25Retriever(memstore.NewMemoryStore(), tok, cfg.Retrieve.K1, cfg.Retrieve.B)

	ctx := cmd.Context()
	if err := sparse.Index(corpus.Docs); err != nil {
		return fmt.Errorf("bm25 indexing failed: %w", err)
	}
	if err := dense.Index(ctx, corpus.Docs); err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	out := searchOutput{Query: query}
	if out.Dense, err = dense.Search(ctx, query, topK); err != nil {
		return fmt.Errorf("dense search failed: %w", err)
	}
	if out.Sparse, err = sparse.Search(query, topK); err != nil {
		return fmt.Errorf("bm25 search failed: %w", err)
	}
	out.Fused = retriever.Fuse(out.Dense, out.Sparse, cfg.Retrieve.DenseWeight, cfg.Retrieve.SparseWeight, cfg.Retrieve.RRFK)
	if len(out.Fused) > topK {
		out.Fused = out.Fused[:topK]
	}

	w := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Query: %q\n", query)
	fmt.Fprintf(w, "Labs: %d  Model: %s  Dimension: %d\n", len(corpus.Docs), emb.ModelName(), emb.Dimension())
	printRanking(w, "DENSE (cosine)", out.Dense, corpus.ByIndex)
	printRanking(w, "BM25", out.Sparse, corpus.ByIndex)
	printRanking(w, fmt.Sprintf("FUSED (dense=%.2f sparse=%.2f rrf_k=%d)",
		cfg.Retrieve.DenseWeight, cfg.Retrieve.SparseWeight, cfg.Retrieve.RRFK), out.Fused, corpus.ByIndex)
	return nil
}

func printRanking(w io.Writer, title string, cands []domain.Candidate, records map[int]domain.Record) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 70))
	if len(cands) == 0 {
		fmt.Fprintln(w, "  (no matches)")
		return
	}
	for _, c := range cands {
		name := domain.Unknown
		if r, ok := records[c.Index]; ok {
			name = r.LabName
		}
		fmt.Fprintf(w, "%2d. [%.4f] #%d %s\n", c.Rank, c.Score, c.Index, name)
	}
}
