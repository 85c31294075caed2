package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/keyscan/internal/parser"
	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Derive path frequencies from solved keys",
		Long: `Analyze converts every key of a corpus of solved keys into its path in the
implicit binary tree (1 is the root, n has children 2n and 2n+1) and counts
node visits, parent to child edges and path prefixes.

The resulting frequency table can be saved and passed to
"keyscan scan --allowed-prefixes" to restrict the guided search.

Examples:
  keyscan analyze --corpus solved.txt
  keyscan analyze --corpus puzzles.csv --format csv --out table.json --top 5`,
		Args: cobra.NoArgs,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().String("corpus", "", "Corpus of solved keys (required)")
	cmd.Flags().String("format", "text", "Corpus format: text, csv or json")
	cmd.Flags().IntSlice("lengths", defaultLengths(), "Prefix lengths to count")
	cmd.Flags().StringP("out", "o", "", "Write the frequency table to this JSON file")
	cmd.Flags().Int("top", 10, "Entries shown per most-common view (0 = all)")
	cmd.Flags().Uint64("threshold", 1, "Report how many prefixes an allow-list at this threshold keeps")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func defaultLengths() []int {
	lengths := make([]int, pathtree.DefaultMaxPrefixLength)
	for i := range lengths {
		lengths[i] = i + 1
	}
	return lengths
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	corpusPath, _ := f.GetString("corpus")
	format, _ := f.GetString("format")
	lengths, _ := f.GetIntSlice("lengths")
	outPath, _ := f.GetString("out")
	top, _ := f.GetInt("top")
	threshold, _ := f.GetUint64("threshold")

	p, err := parser.NewParser(format)
	if err != nil {
		return err
	}
	corpus, err := parser.ParseFile(p, corpusPath)
	if err != nil {
		return err
	}

	table, err := pathtree.NewAnalyzer(pathtree.WithPrefixLengths(lengths...)).Analyze(corpus.Keys)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analyzed %d keys", table.TotalPaths)
	if corpus.Skipped > 0 {
		fmt.Fprintf(out, " (%d non-numeric entries skipped)", corpus.Skipped)
	}
	fmt.Fprintln(out)

	printCounts(out, "Most common nodes", table.MostCommonNodes(top))
	printCounts(out, "Most common edges", table.MostCommonEdges(top))
	for _, k := range table.Lengths {
		printCounts(out, fmt.Sprintf("Most common prefixes of length %d", k), table.MostCommonPrefixes(k, top))
	}

	allowed := table.AllowedPrefixes(threshold)
	fmt.Fprintf(out, "\nAllow-list at threshold %d keeps %d prefixes\n", threshold, allowed.Len())

	if outPath != "" {
		if err := pathtree.SaveTable(outPath, table); err != nil {
			return err
		}
		fmt.Fprintf(out, "Frequency table written to %s\n", outPath)
	}
	return nil
}

func printCounts(w io.Writer, title string, counts []pathtree.Count) {
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(w, "  %-24s %d\n", c.Key, c.Count)
	}
}
