// Package ingest registers new lost and found items: it validates the
// submitted fields, fingerprints the photo and stores both in the catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/fingerprint"
)

// ErrInvalidItem is returned when a registration request fails validation.
var ErrInvalidItem = errors.New("invalid item")

// DateLayout is the accepted item date format (yyyy-MM-dd).
const DateLayout = "2006-01-02"

const (
	DefaultMaxDescriptionLength = 120
	DefaultMaxLocationAge       = 5 * time.Minute
)

// Location is a position fix together with the time it was taken.
type Location struct {
	Lat        float64
	Lng        float64
	CapturedAt time.Time
}

// Request holds the user supplied fields of a new item.
type Request struct {
	ID          string // optional, generated when empty
	Description string
	Date        string
	Category    string
	ImageURL    string
	UserID      string
	Location    *Location
}

// Result describes a stored item.
type Result struct {
	ID           string `json:"id"`
	FeatureCount int    `json:"feature_count"`
	Category     string `json:"category"`
}

// Options tunes validation.
type Options struct {
	MaxDescriptionLength int
	MaxLocationAge       time.Duration
	Now                  func() time.Time
}

// Registrar validates and stores items. It is safe for concurrent use.
type Registrar struct {
	writer    catalog.Writer
	extractor *fingerprint.Extractor
	opts      Options
}

// NewRegistrar creates a Registrar. Zero options take the defaults.
func NewRegistrar(writer catalog.Writer, extractor *fingerprint.Extractor, opts Options) *Registrar {
	if opts.MaxDescriptionLength <= 0 {
		opts.MaxDescriptionLength = DefaultMaxDescriptionLength
	}
	if opts.MaxLocationAge <= 0 {
		opts.MaxLocationAge = DefaultMaxLocationAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registrar{writer: writer, extractor: extractor, opts: opts}
}

// Validate checks the request fields without touching the catalog.
func (r *Registrar) Validate(req Request) error {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidItem)
	}
	if n := utf8.RuneCountInString(desc); n > r.opts.MaxDescriptionLength {
		return fmt.Errorf("%w: description has %d characters, limit is %d", ErrInvalidItem, n, r.opts.MaxDescriptionLength)
	}

	if req.Date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidItem)
	}
	if _, err := time.Parse(DateLayout, req.Date); err != nil {
		return fmt.Errorf("%w: date %q is not in yyyy-MM-dd format", ErrInvalidItem, req.Date)
	}

	if NormalizeCategory(req.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidItem)
	}

	return r.validateLocation(req.Location)
}

func (r *Registrar) validateLocation(loc *Location) error {
	if loc == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidItem)
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("%w: location %.6f,%.6f is out of range", ErrInvalidItem, loc.Lat, loc.Lng)
	}
	if loc.CapturedAt.IsZero() {
		return fmt.Errorf("%w: location has no timestamp", ErrInvalidItem)
	}
	if age := r.opts.Now().Sub(loc.CapturedAt); age > r.opts.MaxLocationAge {
		return fmt.Errorf("%w: location is %s old, limit is %s", ErrInvalidItem, age.Round(time.Second), r.opts.MaxLocationAge)
	}
	return nil
}

// Register validates the request, fingerprints img and saves the item.
func (r *Registrar) Register(ctx context.Context, img image.Image, req Request) (Result, error) {
	if img == nil {
		return Result{}, fmt.Errorf("%w: image is required", ErrInvalidItem)
	}
	if err := r.Validate(req); err != nil {
		return Result{}, err
	}

	set := r.extractor.Extract(img)
	if set.Empty() {
		log.Printf("ingest: no features found in image for %q, the item will never match", req.Description)
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	category := NormalizeCategory(req.Category)

	rec := catalog.Record{
		ID:               id,
		Descriptors:      fingerprint.Serialize(set),
		DescriptorLength: set.Length,
		Metadata: catalog.Metadata{
			Description: strings.TrimSpace(req.Description),
			Date:        req.Date,
			Category:    category,
			ImageURL:    req.ImageURL,
			UserID:      req.UserID,
			Latitude:    req.Location.Lat,
			Longitude:   req.Location.Lng,
			LocatedAt:   req.Location.CapturedAt,
		},
		CreatedAt: r.opts.Now(),
	}

	savedID, err := r.writer.Save(ctx, rec)
	if err != nil {
		return Result{}, fmt.Errorf("save item: %w", err)
	}
	return Result{ID: savedID, FeatureCount: set.Len(), Category: category}, nil
}

// RegisterBytes decodes an encoded image and registers it.
func (r *Registrar) RegisterBytes(ctx context.Context, data []byte, req Request) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: image is required", ErrInvalidItem)
	}
	img, err := fingerprint.DecodeImageBytes(data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return r.Register(ctx, img, req)
}
