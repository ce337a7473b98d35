package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/ingest"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage catalog items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add [image]",
	Short: "Register a lost or found item",
	Long: `Fingerprint a photo and store it in the catalog together with its metadata.

Examples:
  finder item add --description "Red backpack" --category batoh \
    --lat 49.1951 --lng 16.6068 backpack.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runItemAdd,
}

var itemGetCmd = &cobra.Command{
	Use:   "get [item-id]",
	Short: "Show a registered item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemGet,
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete [item-id]",
	Short: "Remove an item from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemDelete,
}

var itemCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of registered items",
	Args:  cobra.NoArgs,
	RunE:  runItemCount,
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemAddCmd, itemGetCmd, itemDeleteCmd, itemCountCmd)

	itemAddCmd.Flags().String("id", "", "Item ID (generated when empty)")
	itemAddCmd.Flags().String("description", "", "Short description of the item")
	itemAddCmd.Flags().String("date", "", "Date the item was lost or found, yyyy-MM-dd (default today)")
	itemAddCmd.Flags().String("category", "", "Item category")
	itemAddCmd.Flags().String("image-url", "", "Where the original photo is hosted")
	itemAddCmd.Flags().String("user", "", "ID of the reporting user")
	addLocationFlags(itemAddCmd)

	itemGetCmd.Flags().Bool("json", false, "Output as JSON")
}

// addLocationFlags registers --lat, --lng and --located-at.
func addLocationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "Latitude where the item was found")
	cmd.Flags().Float64("lng", 0, "Longitude where the item was found")
	cmd.Flags().String("located-at", "", "When the location was captured, RFC3339 (default now)")
}

// locationFromFlags returns the location given on the command line, or nil
// when --lat or --lng is missing.
func locationFromFlags(cmd *cobra.Command) (*ingest.Location, error) {
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
		return nil, nil
	}

	capturedAt := time.Now()
	if v := mustGetString(cmd, "located-at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid --located-at: %w", err)
		}
		capturedAt = t
	}

	return &ingest.Location{
		Lat:        mustGetFloat64(cmd, "lat"),
		Lng:        mustGetFloat64(cmd, "lng"),
		CapturedAt: capturedAt,
	}, nil
}

func newRegistrar(writer catalog.Writer, cfg *config.Config) *ingest.Registrar {
	return ingest.NewRegistrar(writer, newExtractor(cfg.Extractor), ingest.Options{
		MaxDescriptionLength: cfg.Ingest.MaxDescriptionLength,
		MaxLocationAge:       cfg.Ingest.MaxLocationAge,
	})
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	loc, err := locationFromFlags(cmd)
	if err != nil {
		return err
	}

	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().Format(ingest.DateLayout)
	}

	req := ingest.Request{
		ID:          mustGetString(cmd, "id"),
		Description: mustGetString(cmd, "description"),
		Date:        date,
		Category:    mustGetString(cmd, "category"),
		ImageURL:    mustGetString(cmd, "image-url"),
		UserID:      mustGetString(cmd, "user"),
		Location:    loc,
	}

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	cfg := config.Load()
	ctx := context.Background()
	writer, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	result, err := newRegistrar(writer, cfg).Register(ctx, img, req)
	if err != nil {
		return err
	}

	fmt.Printf("Registered item %s\n", result.ID)
	fmt.Printf("  Category: %s\n", result.Category)
	fmt.Printf("  Features: %d\n", result.FeatureCount)
	return nil
}

func runItemGet(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	ctx := context.Background()
	writer, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	rec, err := writer.FetchOne(ctx, args[0])
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("item %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to fetch item: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("ID:          %s\n", rec.ID)
	fmt.Printf("Description: %s\n", rec.Metadata.Description)
	fmt.Printf("Date:        %s\n", rec.Metadata.Date)
	fmt.Printf("Category:    %s\n", rec.Metadata.Category)
	if rec.Metadata.ImageURL != "" {
		fmt.Printf("Image URL:   %s\n", rec.Metadata.ImageURL)
	}
	if rec.Metadata.UserID != "" {
		fmt.Printf("User:        %s\n", rec.Metadata.UserID)
	}
	fmt.Printf("Location:    %.6f, %.6f (%s)\n", rec.Metadata.Latitude, rec.Metadata.Longitude, rec.Metadata.LocatedAt.Format(time.RFC3339))
	fmt.Printf("Descriptors: %d x %d bytes\n", rec.DescriptorCount(), rec.DescriptorLength)
	fmt.Printf("Created:     %s\n", rec.CreatedAt.Format(time.RFC3339))
	return nil
}

func runItemDelete(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	writer, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	if err := writer.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("item %s not found", args[0])
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	fmt.Printf("Deleted item %s\n", args[0])
	return nil
}

func runItemCount(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	writer, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	count, err := writer.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}

	fmt.Printf("Backend: %s\n", catalog.BackendName())
	fmt.Printf("Items:   %d\n", count)
	return nil
}
