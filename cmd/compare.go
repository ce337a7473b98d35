package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/matcher"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [query-image] [candidate-image]",
	Short: "Compare two images without touching the catalog",
	Long: `Extract descriptors from both images and run the matcher once.

Examples:
  # Use the configured policy
  finder compare found.jpg lost.jpg

  # Ratio test with a custom ratio
  finder compare --mode ratio --ratio 1.5 --min-good 4 found.jpg lost.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	addPolicyFlags(compareCmd)
	compareCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	cfg := config.Load()

	policy, err := policyFromFlags(cmd, cfg.Matching)
	if err != nil {
		return err
	}

	queryImg, err := loadImage(args[0])
	if err != nil {
		return err
	}
	candidateImg, err := loadImage(args[1])
	if err != nil {
		return err
	}

	extractor := newExtractor(cfg.Extractor)
	query := extractor.Extract(queryImg)
	candidate := extractor.Extract(candidateImg)

	result, err := matcher.Match(query, candidate, policy)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	result.CandidateID = args[1]

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Policy:       %s\n", policy)
	fmt.Printf("Features:     %d query, %d candidate\n", query.Len(), candidate.Len())
	printMatchResult(result)
	return nil
}

// printMatchResult prints one matcher verdict in human readable form.
func printMatchResult(result matcher.MatchResult) {
	verdict := "no"
	if result.IsMatch {
		verdict = "yes"
	}
	fmt.Printf("Match:        %s (%s)\n", verdict, result.Reason)
	if result.Distance == matcher.NoDistance {
		fmt.Println("Distance:     n/a")
	} else {
		fmt.Printf("Distance:     %d bits\n", result.Distance)
	}
	fmt.Printf("Good matches: %d of %d pairs\n", result.GoodMatches, result.Pairs)
}
