package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/catalog/mariadb"
	"github.com/kozaktomas/finder/internal/catalog/postgres"
	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/fingerprint"
)

// openCatalog connects the configured backend, registers it and returns its
// writer. The returned close function releases the connection pool.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Writer, func(), error) {
	var closeFn func()

	switch backend := cfg.CatalogBackend(); backend {
	case catalog.BackendPostgres:
		pool, err := postgres.Initialize(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		closeFn = func() { pool.Close() }
	case catalog.BackendMariaDB:
		pool, err := mariadb.Initialize(cfg.MariaDB.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		closeFn = func() { pool.Close() }
	case "":
		return nil, nil, errors.New("DATABASE_URL or MARIADB_DSN environment variable is required")
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q (expected %s or %s)", backend, catalog.BackendPostgres, catalog.BackendMariaDB)
	}

	writer, err := catalog.GetWriter(ctx)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return writer, closeFn, nil
}

// newExtractor builds the ORB extractor from the configured parameters.
func newExtractor(cfg config.ExtractorConfig) *fingerprint.Extractor {
	return fingerprint.NewExtractor(fingerprint.Config{
		MaxFeatures:   cfg.MaxFeatures,
		Levels:        cfg.Levels,
		ScaleFactor:   cfg.ScaleFactor,
		FastThreshold: cfg.FastThreshold,
		EdgeThreshold: cfg.EdgeThreshold,
		MaxImageSize:  cfg.MaxImageSize,
	})
}

// loadImage decodes an image file from disk.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	img, err := fingerprint.DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
