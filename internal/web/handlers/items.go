package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/constants"
	"github.com/kozaktomas/finder/internal/ingest"
)

// ItemsHandler handles item registration and lookup endpoints.
type ItemsHandler struct {
	registrar *ingest.Registrar
	catalog   catalog.Writer
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(registrar *ingest.Registrar, writer catalog.Writer) *ItemsHandler {
	return &ItemsHandler{
		registrar: registrar,
		catalog:   writer,
	}
}

// ItemResponse is the public view of a catalog record. Descriptors are not
// exposed, only their count.
type ItemResponse struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	Date            string    `json:"date"`
	Category        string    `json:"category"`
	ImageURL        string    `json:"image_url,omitempty"`
	UserID          string    `json:"user_id,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	LocatedAt       time.Time `json:"located_at"`
	DescriptorCount int       `json:"descriptor_count"`
	CreatedAt       time.Time `json:"created_at"`
}

func newItemResponse(rec *catalog.Record) ItemResponse {
	return ItemResponse{
		ID:              rec.ID,
		Description:     rec.Metadata.Description,
		Date:            rec.Metadata.Date,
		Category:        rec.Metadata.Category,
		ImageURL:        rec.Metadata.ImageURL,
		UserID:          rec.Metadata.UserID,
		Latitude:        rec.Metadata.Latitude,
		Longitude:       rec.Metadata.Longitude,
		LocatedAt:       rec.Metadata.LocatedAt,
		DescriptorCount: rec.DescriptorCount(),
		CreatedAt:       rec.CreatedAt,
	}
}

// readUploadedImage returns the bytes of the "image" form file.
func readUploadedImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("image is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read image")
	}
	return data, nil
}

// parseLocation reads latitude, longitude and located_at (RFC 3339) form values.
func parseLocation(r *http.Request) (*ingest.Location, error) {
	latStr, lngStr := r.FormValue("latitude"), r.FormValue("longitude")
	if latStr == "" || lngStr == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %s", latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %s", lngStr)
	}

	loc := &ingest.Location{Lat: lat, Lng: lng}
	if s := r.FormValue("located_at"); s != "" {
		loc.CapturedAt, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid located_at: %s", s)
		}
	}
	return loc, nil
}

// Create registers a new item from a multipart form.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxMemoryUpload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidMultipartForm)
		return
	}

	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := parseLocation(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := ingest.Request{
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Category:    r.FormValue("category"),
		ImageURL:    r.FormValue("image_url"),
		UserID:      r.FormValue("user_id"),
		Location:    loc,
	}

	result, err := h.registrar.RegisterBytes(r.Context(), data, req)
	switch {
	case err == nil:
	case errors.Is(err, ingest.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, catalog.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "item already exists")
		return
	default:
		log.Printf("Failed to register item: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to register item")
		return
	}

	log.Printf("Registered item %s with %d features", result.ID, result.FeatureCount)
	respondJSON(w, http.StatusCreated, result)
}

// Get returns a single item.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.catalog.FetchOne(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		log.Printf("Failed to get item %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	respondJSON(w, http.StatusOK, newItemResponse(rec))
}

// Delete removes an item.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.catalog.Delete(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		log.Printf("Failed to delete item %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Count returns the number of registered items.
func (h *ItemsHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.catalog.Count(r.Context())
	if err != nil {
		log.Printf("Failed to count items: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count items")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}
