package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"labrec/config"
)

var indexClear bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the lab dataset and warm the embedding cache",
	Long: `Load every configured dataset file, embed each lab document and store the
vectors in the embedding cache, so later recommend and serve runs only embed
the query.

The cache is stored in .labrec/embeddings.db within the root directory
unless embedding.cache_path is set.

Examples:
  labrec index
  labrec index --clear -d /path/to/labs`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexClear, "clear", false, "drop cached vectors before embedding")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := GetLogger()
	root := GetRootDir()
	out := cmd.OutOrStdout()

	if cfg.Embedding.CachePath == "" {
		if err := config.EnsureDir(root); err != nil {
			return fmt.Errorf("failed to create .labrec directory: %w", err)
		}
	}

	fmt.Fprintf(out, "Loading labs from %s...\n", root)
	corpus, err := loadCorpus(cfg, root, logger)
	if err != nil {
		return err
	}

	emb, db, err := newEmbedder(cfg, root, newTokenizer(cfg), true, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if indexClear {
		if err := db.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	batchSize := cfg.Embedding.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	texts := make([]string, len(corpus.Docs))
	for i, d := range corpus.Docs {
		texts[i] = d.Text
	}

	progress := newProgress(cmd.ErrOrStderr(), "Embedding")
	start := time.Now()
	for i := 0; i < len(texts); i += batchSize {
		end := min(i+batchSize, len(texts))
		if _, err := emb.Embed(cmd.Context(), texts[i:end]); err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}
		progress(end, len(texts))
	}

	cached, err := db.Count()
	if err != nil {
		return fmt.Errorf("failed to count cached vectors: %w", err)
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Labs loaded:    %d\n", len(corpus.Records))
	fmt.Fprintf(out, "  Documents:      %d\n", len(corpus.Docs))
	fmt.Fprintf(out, "  Model:          %s (dim %d)\n", emb.ModelName(), emb.Dimension())
	fmt.Fprintf(out, "  Cached vectors: %d\n", cached)
	fmt.Fprintf(out, "  Elapsed:        %s\n", formatDuration(time.Since(start)))
	return nil
}
