package cmd

import (
	"fmt"

	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/matcher"
	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// addPolicyFlags registers the flags read by policyFromFlags.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Match policy: threshold or ratio (default from MATCH_MODE)")
	cmd.Flags().Int("threshold", 0, "Maximum Hamming distance in threshold mode (default from MATCH_MAX_DISTANCE)")
	cmd.Flags().Float64("ratio", 0, "Distance ratio in ratio mode (default from MATCH_RATIO)")
	cmd.Flags().Int("min-good", 0, "Good matches required in ratio mode (default from MATCH_MIN_GOOD)")
}

// policyFromFlags builds the match policy from the configuration, letting
// explicitly set flags override it.
func policyFromFlags(cmd *cobra.Command, defaults config.MatchingConfig) (matcher.Policy, error) {
	mode := defaults.Mode
	maxDistance := defaults.MaxDistance
	ratio := defaults.Ratio
	minGood := defaults.MinGoodMatches

	if cmd.Flags().Changed("mode") {
		mode = mustGetString(cmd, "mode")
	}
	if cmd.Flags().Changed("threshold") {
		maxDistance = mustGetInt(cmd, "threshold")
	}
	if cmd.Flags().Changed("ratio") {
		ratio = mustGetFloat64(cmd, "ratio")
	}
	if cmd.Flags().Changed("min-good") {
		minGood = mustGetInt(cmd, "min-good")
	}

	return matcher.ParsePolicy(mode, maxDistance, ratio, minGood)
}
