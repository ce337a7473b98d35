package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/constants"
	"github.com/kozaktomas/finder/internal/fingerprint"
	"github.com/kozaktomas/finder/internal/matcher"
	"github.com/kozaktomas/finder/internal/search"
)

// User visible search outcomes.
const (
	msgMatchFound     = "potential match found"
	msgNoMatch        = "no match found"
	msgCatalogFailure = "error retrieving descriptors"
	msgNoFeatures     = "no features detected in query image"
)

// SearchHandler handles image search requests.
type SearchHandler struct {
	orchestrator *search.Orchestrator
	defaults     config.MatchingConfig
}

// NewSearchHandler creates a new search handler. defaults provide the policy
// and worker count when a request does not override them.
func NewSearchHandler(orchestrator *search.Orchestrator, defaults config.MatchingConfig) *SearchHandler {
	return &SearchHandler{
		orchestrator: orchestrator,
		defaults:     defaults,
	}
}

// SearchResponse is returned for every completed search, matched or not.
type SearchResponse struct {
	Message string `json:"message"`
	Policy  string `json:"policy"`
	search.AggregateVerdict
}

// policyFromForm overrides the configured policy with mode, threshold,
// ratio and min_good form values.
func (h *SearchHandler) policyFromForm(r *http.Request) (matcher.Policy, error) {
	mode := h.defaults.Mode
	maxDistance := h.defaults.MaxDistance
	ratio := h.defaults.Ratio
	minGood := h.defaults.MinGoodMatches

	if v := r.FormValue("mode"); v != "" {
		mode = v
	}
	if v := r.FormValue("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return matcher.Policy{}, fmt.Errorf("invalid threshold: %s", v)
		}
		maxDistance = n
	}
	if v := r.FormValue("ratio"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return matcher.Policy{}, fmt.Errorf("invalid ratio: %s", v)
		}
		ratio = f
	}
	if v := r.FormValue("min_good"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return matcher.Policy{}, fmt.Errorf("invalid min_good: %s", v)
		}
		minGood = n
	}

	return matcher.ParsePolicy(mode, maxDistance, ratio, minGood)
}

// Search compares the uploaded image with the catalog, or with a single
// item when "target" is set. "best" scans every item for the best match. A completed search without a match is a 200
// with matched=false; failures to read the catalog are 5xx.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxMemoryUpload); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidMultipartForm)
		return
	}

	policy, err := h.policyFromForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	img, err := fingerprint.DecodeImageBytes(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to decode image")
		return
	}

	target := r.FormValue("target")
	verdict, err := h.orchestrator.SearchImage(r.Context(), img, policy, search.Options{
		Target:   target,
		Best:     formBool(r, "best", false),
		Parallel: formBool(r, "parallel", h.defaults.Workers > 1),
		Workers:  h.defaults.Workers,
	})

	switch {
	case err == nil:
	case errors.Is(err, search.ErrNoFeaturesInQuery):
		respondError(w, http.StatusUnprocessableEntity, msgNoFeatures)
		return
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "item not found")
		return
	default:
		log.Printf("Search failed (target=%q): %v", sanitizeForLog(target), err)
		respondError(w, http.StatusServiceUnavailable, msgCatalogFailure)
		return
	}

	msg := msgNoMatch
	if verdict.Matched {
		msg = msgMatchFound
	}
	respondJSON(w, http.StatusOK, SearchResponse{
		Message:          msg,
		Policy:           policy.String(),
		AggregateVerdict: verdict,
	})
}

// formBool parses a boolean form value, returning def when it is absent.
// Unparsable values count as false.
func formBool(r *http.Request, key string, def bool) bool {
	if v := r.FormValue(key); v != "" {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return def
}
