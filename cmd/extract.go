package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/fingerprint"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [image]",
	Short: "Compute the ORB fingerprint of an image",
	Long: `Detect keypoints in an image and print how many ORB descriptors it produced.

Examples:
  # Count features
  finder extract backpack.jpg

  # Print the serialized descriptors as stored in the catalog
  finder extract --json backpack.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("json", false, "Output the serialized descriptors as JSON")
}

type extractOutput struct {
	File             string    `json:"file"`
	Features         int       `json:"features"`
	DescriptorLength int       `json:"descriptor_length"`
	Descriptors      []float64 `json:"descriptors"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	cfg := config.Load()

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}
	set := newExtractor(cfg.Extractor).Extract(img)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(extractOutput{
			File:             args[0],
			Features:         set.Len(),
			DescriptorLength: set.Length,
			Descriptors:      fingerprint.Serialize(set),
		})
	}

	bounds := img.Bounds()
	fmt.Printf("Image:      %s (%dx%d)\n", args[0], bounds.Dx(), bounds.Dy())
	fmt.Printf("Features:   %d\n", set.Len())
	fmt.Printf("Descriptor: %d bytes\n", set.Length)
	if set.Empty() {
		fmt.Println("Warning: no features detected, this image can never match")
	}
	return nil
}
