package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var inspectSamples int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show what the dataset loads as",
	Long: `Print the number of loaded lab records and searchable documents, and the
document text of the first few labs exactly as it is embedded and indexed.

Examples:
  labrec inspect
  labrec inspect -n 5`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVarP(&inspectSamples, "samples", "n", 1, "number of documents to print")
}

func runInspect(cmd *cobra.Command, args []string) error {
	corpus, err := loadCorpus(GetConfig(), GetRootDir(), GetLogger())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Records:   %d\n", len(corpus.Records))
	fmt.Fprintf(out, "Documents: %d\n", len(corpus.Docs))

	n := min(max(inspectSamples, 0), len(corpus.Docs))
	for _, doc := range corpus.Docs[:n] {
		fmt.Fprintln(out, strings.Repeat("-", 70))
		fmt.Fprintf(out, "#%d\n%s", doc.Index, doc.Text)
	}
	return nil
}
