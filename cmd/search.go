package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/matcher"
	"github.com/kozaktomas/finder/internal/search"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [image]",
	Short: "Search the catalog for an item matching a photo",
	Long: `Compare a photo with every registered item and report the first match.

Examples:
  # Scan the whole catalog
  finder search found.jpg

  # Compare with a single item
  finder search --target 5b1c7c0e-... found.jpg

  # Scan with 8 workers
  finder search --parallel --workers 8 found.jpg

  # Evaluate every item and report the closest one
  finder search --best found.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	addPolicyFlags(searchCmd)
	searchCmd.Flags().String("target", "", "Compare with this item ID only")
	searchCmd.Flags().Bool("parallel", false, "Evaluate candidates concurrently")
	searchCmd.Flags().Int("workers", 0, "Parallel workers (default from MATCH_WORKERS)")
	searchCmd.Flags().Bool("best", false, "Scan every item and report the best ranked one")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	target := mustGetString(cmd, "target")
	parallel := mustGetBool(cmd, "parallel")
	best := mustGetBool(cmd, "best")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	workers := cfg.Matching.Workers
	if w := mustGetInt(cmd, "workers"); w > 0 {
		workers = w
	}

	if target != "" && (parallel || best) {
		return errors.New("--target cannot be combined with --parallel or --best")
	}

	policy, err := policyFromFlags(cmd, cfg.Matching)
	if err != nil {
		return err
	}

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	writer, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	orchestrator := search.NewOrchestrator(writer, newExtractor(cfg.Extractor), workers)
	verdict, err := orchestrator.SearchImage(ctx, img, policy, search.Options{
		Target:   target,
		Best:     best,
		Parallel: parallel,
		Workers:  workers,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}

	printVerdict(verdict, policy)
	return nil
}

func printVerdict(verdict search.AggregateVerdict, policy matcher.Policy) {
	fmt.Printf("Policy:    %s\n", policy)
	fmt.Printf("Evaluated: %d item(s)\n", verdict.Evaluated)

	if len(verdict.Skipped) > 0 {
		fmt.Printf("Skipped:   %d item(s)\n", len(verdict.Skipped))
		for _, s := range verdict.Skipped {
			fmt.Printf("  %s: %s\n", s.ID, s.Reason)
		}
	}

	if verdict.Matched {
		fmt.Printf("\nPotential match found: %s\n", verdict.Best.CandidateID)
	} else {
		fmt.Println("\nNo match found.")
	}

	if len(verdict.Results) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tDISTANCE\tGOOD\tPAIRS\tREASON")
	fmt.Fprintln(w, "----\t--------\t----\t-----\t------")
	for _, r := range verdict.Results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", r.CandidateID, r.Distance, r.GoodMatches, r.Pairs, r.Reason)
	}
	w.Flush()
}
