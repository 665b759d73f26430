package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labrec/internal/adapter/retriever"
	"labrec/internal/usecase"
)

// interactiveTopK is used when the top-K answer is not a positive integer.
const interactiveTopK = 3

var (
	recommendQuery      string
	recommendTopK       int
	recommendJSON       bool
	recommendNoProgress bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend research labs for a request",
	Long: `Retrieve the labs closest to the request, keep the ones a language model
judges relevant, and fall back to a web search when none are.

Without -k and -q the command asks for both on standard input.

Examples:
  labrec recommend
  labrec recommend -k 3 -q "reinforcement learning for robot arms"
  labrec recommend -q "protein structure prediction" --json`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVarP(&recommendQuery, "query", "q", "", "student request (prompted when empty)")
	recommendCmd.Flags().IntVarP(&recommendTopK, "top-k", "k", 0, "number of recommendations (prompted when unset)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "output as JSON")
	recommendCmd.Flags().BoolVar(&recommendNoProgress, "no-progress", false, "hide the embedding progress bar")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := GetLogger()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	topK := recommendTopK
	if !cmd.Flags().Changed("top-k") {
		var err error
		if topK, err = promptTopK(in, out); err != nil {
			return err
		}
	}
	if topK < 1 {
		return fmt.Errorf("top-k must be >= 1, got %d", topK)
	}

	query := recommendQuery
	if query == "" {
		fmt.Fprint(out, "Please enter your input: ")
		line, err := readLine(in)
		if err != nil {
			return err
		}
		query = line
	}

	var onProgress retriever.ProgressFunc
	if !recommendJSON && !recommendNoProgress {
		onProgress = newProgress(cmd.ErrOrStderr(), "Embedding")
	}

	a, err := newApp(cfg, GetRootDir(), onProgress, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.recommend.Recommend(cmd.Context(), query, topK)
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}
	if result.Err != nil {
		logger.Warn("web fallback failed", zap.Error(result.Err))
	}

	stats := a.llm.Stats()
	logger.Debug("llm usage",
		zap.Int("calls", stats.TotalCalls),
		zap.Int("input_tokens", stats.TotalInputTokens),
		zap.Int("output_tokens", stats.TotalOutputTokens),
	)

	if recommendJSON {
		return writeResultJSON(out, result)
	}

	blocks := a.present.Present(cmd.Context(), result.Recommendations)
	if result.Escalated {
		fmt.Fprintln(out, "\nNo lab in the database matched your request. Results from the web:")
	}
	for _, b := range blocks {
		fmt.Fprintf(out, "\n%s\n", b)
	}
	return nil
}

// promptTopK asks for the number of recommendations. The fallback is
// interactiveTopK whatever retrieve.top_k is set to.
func promptTopK(in *bufio.Reader, out io.Writer) (int, error) {
	fmt.Fprintf(out, "Enter the number of top results to retrieve (default is %d): ", interactiveTopK)
	line, err := readLine(in)
	if err != nil {
		return 0, err
	}
	return parseTopK(line, interactiveTopK), nil
}

// parseTopK reads the interactive top-K answer. Anything that is not a
// positive integer selects def.
func parseTopK(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input was interrupted")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeResultJSON(w io.Writer, result *usecase.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
