package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/constants"
	"github.com/kozaktomas/finder/internal/ingest"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var itemImportCmd = &cobra.Command{
	Use:   "import [folder]",
	Short: "Register every image in a folder",
	Long: `Register each image in a folder as a separate item. The file name
(without extension) becomes the description. All items share the given
category, date and location.

Examples:
  finder item import --category klice --lat 49.1951 --lng 16.6068 ./found-keys

  # Include subdirectories, 8 images at a time
  finder item import -r --concurrency 8 --category batoh --lat 50.08 --lng 14.43 ./photos`,
	Args: cobra.ExactArgs(1),
	RunE: runItemImport,
}

func init() {
	itemCmd.AddCommand(itemImportCmd)

	itemImportCmd.Flags().BoolP("recursive", "r", false, "Search for images recursively in subdirectories")
	itemImportCmd.Flags().String("category", "", "Category of every imported item")
	itemImportCmd.Flags().String("date", "", "Date the items were lost or found, yyyy-MM-dd (default today)")
	itemImportCmd.Flags().String("user", "", "ID of the reporting user")
	itemImportCmd.Flags().Int("concurrency", constants.DefaultImportWorkers, "Number of images fingerprinted in parallel")
	addLocationFlags(itemImportCmd)
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	return constants.ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// collectImages lists the image files of a folder.
func collectImages(folder string, recursive bool) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot access folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", folder)
	}

	var paths []string
	if recursive {
		err := filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isImageFile(d.Name()) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot walk folder %s: %w", folder, err)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", folder, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			paths = append(paths, filepath.Join(folder, entry.Name()))
		}
	}
	return paths, nil
}

// descriptionFromFile turns "red_backpack.jpg" into "red backpack", cut to
// maxLen runes.
func descriptionFromFile(path string, maxLen int) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	if runes := []rune(name); maxLen > 0 && len(runes) > maxLen {
		name = string(runes[:maxLen])
	}
	return name
}

func runItemImport(cmd *cobra.Command, args []string) error {
	recursive := mustGetBool(cmd, "recursive")
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	loc, err := locationFromFlags(cmd)
	if err != nil {
		return err
	}
	if loc == nil {
		return errors.New("--lat and --lng are required")
	}
	date := mustGetString(cmd, "date")
	if date == "" {
		date = time.Now().Format(ingest.DateLayout)
	}

	files, err := collectImages(args[0], recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No image files found in the specified folder.")
		return nil
	}
	fmt.Printf("Found %d image(s) to import\n\n", len(files))

	cfg := config.Load()
	ctx := context.Background()
	writer, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	registrar := newRegistrar(writer, cfg)
	maxLen := cfg.Ingest.MaxDescriptionLength
	category := mustGetString(cmd, "category")
	userID := mustGetString(cmd, "user")
	// Without --located-at the operator's position is current for every image,
	// however long the import runs.
	refreshLocation := !cmd.Flags().Changed("located-at")

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var successCount, featureless int
	var importErrors []string
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, path := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			itemLoc := *loc
			if refreshLocation {
				itemLoc.CapturedAt = time.Now()
			}

			img, err := loadImage(path)
			if err == nil {
				var result ingest.Result
				result, err = registrar.Register(ctx, img, ingest.Request{
					Description: descriptionFromFile(path, maxLen),
					Date:        date,
					Category:    category,
					UserID:      userID,
					Location:    &itemLoc,
				})
				if err == nil {
					mu.Lock()
					successCount++
					if result.FeatureCount == 0 {
						featureless++
					}
					mu.Unlock()
					return
				}
			}

			mu.Lock()
			importErrors = append(importErrors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			mu.Unlock()
		}(path)
	}

	wg.Wait()
	fmt.Println()

	fmt.Printf("\nCompleted: %d imported, %d errors\n", successCount, len(importErrors))
	if featureless > 0 {
		fmt.Printf("Warning: %d image(s) produced no features and will never match\n", featureless)
	}
	for _, e := range importErrors {
		fmt.Printf("  %s\n", e)
	}

	if len(importErrors) > 0 && successCount == 0 {
		return errors.New("no images were imported")
	}
	return nil
}
