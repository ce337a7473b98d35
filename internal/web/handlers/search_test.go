package handlers

import (
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/catalog/mock"
	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/fingerprint"
	"github.com/kozaktomas/finder/internal/search"
)

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		Mode:           "threshold",
		MaxDistance:    0,
		Ratio:          2.0,
		MinGoodMatches: 2,
		Workers:        1,
	}
}

func newTestSearchHandler(store *mock.MockCatalog, cfg config.MatchingConfig) *SearchHandler {
	extractor := fingerprint.NewExtractor(fingerprint.DefaultConfig())
	return NewSearchHandler(search.NewOrchestrator(store, extractor, cfg.Workers), cfg)
}

// storeWithPhoto registers the fingerprint of squaresImage(200, 200) under id.
func storeWithPhoto(t *testing.T, id string) *mock.MockCatalog {
	t.Helper()
	set := fingerprint.NewExtractor(fingerprint.DefaultConfig()).Extract(squaresImage(200, 200))
	if set.Empty() {
		t.Fatal("test image produced no features")
	}
	store := mock.NewMockCatalog()
	store.AddRecord(catalog.Record{ID: "empty", Descriptors: []float64{}, DescriptorLength: fingerprint.DescriptorLength})
	store.AddRecord(catalog.Record{ID: id, Descriptors: fingerprint.Serialize(set), DescriptorLength: set.Length})
	return store
}

func TestSearchHandler_Match(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"sequential scan", map[string]string{}},
		{"parallel scan", map[string]string{"parallel": "true"}},
		{"best scan", map[string]string{"best": "true"}},
		{"single target", map[string]string{"target": "backpack"}},
		{"ratio policy", map[string]string{"mode": "ratio", "ratio": "1.5", "min_good": "2"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestSearchHandler(storeWithPhoto(t, "backpack"), testMatchingConfig())

			recorder := httptest.NewRecorder()
			h.Search(recorder, multipartRequest(t, "/api/v1/search", tc.fields, encodePNG(t, squaresImage(200, 200))))

			assertStatusCode(t, recorder, http.StatusOK)
			var resp SearchResponse
			parseJSONResponse(t, recorder, &resp)
			if !resp.Matched {
				t.Fatalf("expected a match, got %s", recorder.Body.String())
			}
			if resp.Message != msgMatchFound {
				t.Errorf("expected message '%s', got '%s'", msgMatchFound, resp.Message)
			}
			if resp.Best == nil || resp.Best.CandidateID != "backpack" {
				t.Errorf("expected best 'backpack', got %+v", resp.Best)
			}
		})
	}
}

func TestSearchHandler_NoMatchIsNotAnError(t *testing.T) {
	store := mock.NewMockCatalog()
	store.AddRecord(catalog.Record{ID: "other", Descriptors: make([]float64, 32), DescriptorLength: 32})
	h := newTestSearchHandler(store, testMatchingConfig())

	recorder := httptest.NewRecorder()
	h.Search(recorder, multipartRequest(t, "/api/v1/search", nil, encodePNG(t, squaresImage(200, 200))))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp SearchResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Matched {
		t.Error("expected no match")
	}
	if resp.Message != msgNoMatch {
		t.Errorf("expected message '%s', got '%s'", msgNoMatch, resp.Message)
	}
	if resp.Evaluated != 1 {
		t.Errorf("expected 1 evaluated candidate, got %d", resp.Evaluated)
	}
}

func TestSearchHandler_Errors(t *testing.T) {
	photo := func(t *testing.T) []byte { return encodePNG(t, squaresImage(200, 200)) }

	tests := []struct {
		name       string
		store      func(t *testing.T) *mock.MockCatalog
		fields     map[string]string
		image      func(t *testing.T) []byte
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing image",
			store:      func(t *testing.T) *mock.MockCatalog { return mock.NewMockCatalog() },
			image:      func(t *testing.T) []byte { return nil },
			wantStatus: http.StatusBadRequest,
			wantError:  "image is required",
		},
		{
			name:       "undecodable image",
			store:      func(t *testing.T) *mock.MockCatalog { return mock.NewMockCatalog() },
			image:      func(t *testing.T) []byte { return []byte("not a png") },
			wantStatus: http.StatusBadRequest,
			wantError:  "failed to decode image",
		},
		{
			name:       "featureless image",
			store:      func(t *testing.T) *mock.MockCatalog { return mock.NewMockCatalog() },
			image:      func(t *testing.T) []byte { return encodePNG(t, image.NewGray(image.Rect(0, 0, 80, 80))) },
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  msgNoFeatures,
		},
		{
			name:       "unknown mode",
			store:      func(t *testing.T) *mock.MockCatalog { return mock.NewMockCatalog() },
			fields:     map[string]string{"mode": "fuzzy"},
			image:      photo,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid policy configuration: unknown mode \"fuzzy\"",
		},
		{
			name:       "negative threshold",
			store:      func(t *testing.T) *mock.MockCatalog { return mock.NewMockCatalog() },
			fields:     map[string]string{"threshold": "-1"},
			image:      photo,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid policy configuration: max distance must be >= 0, got -1",
		},
		{
			name:       "target not found",
			store:      func(t *testing.T) *mock.MockCatalog { return mock.NewMockCatalog() },
			fields:     map[string]string{"target": "missing"},
			image:      photo,
			wantStatus: http.StatusNotFound,
			wantError:  "item not found",
		},
		{
			name: "catalog failure",
			store: func(t *testing.T) *mock.MockCatalog {
				store := storeWithPhoto(t, "backpack")
				store.FetchAllError = errors.New("connection refused")
				return store
			},
			image:      photo,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  msgCatalogFailure,
		},
		{
			name: "corrupt target",
			store: func(t *testing.T) *mock.MockCatalog {
				store := mock.NewMockCatalog()
				store.AddRecord(catalog.Record{ID: "bad", Descriptors: []float64{1, 2, 3}, DescriptorLength: 32})
				return store
			},
			fields:     map[string]string{"target": "bad"},
			image:      photo,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  msgCatalogFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestSearchHandler(tc.store(t), testMatchingConfig())

			recorder := httptest.NewRecorder()
			h.Search(recorder, multipartRequest(t, "/api/v1/search", tc.fields, tc.image(t)))

			assertStatusCode(t, recorder, tc.wantStatus)
			assertJSONError(t, recorder, tc.wantError)
		})
	}
}

func TestSearchHandler_CorruptRecordSkippedInScan(t *testing.T) {
	set := fingerprint.NewExtractor(fingerprint.DefaultConfig()).Extract(squaresImage(200, 200))
	store := mock.NewMockCatalog()
	store.AddRecord(catalog.Record{ID: "bad", Descriptors: []float64{-1}, DescriptorLength: 1})
	store.AddRecord(catalog.Record{ID: "backpack", Descriptors: fingerprint.Serialize(set), DescriptorLength: set.Length})
	cfg := testMatchingConfig()
	cfg.Workers = 4
	h := newTestSearchHandler(store, cfg)

	for _, parallel := range []string{"false", "true"} {
		recorder := httptest.NewRecorder()
		h.Search(recorder, multipartRequest(t, "/api/v1/search", map[string]string{"parallel": parallel}, encodePNG(t, squaresImage(200, 200))))

		assertStatusCode(t, recorder, http.StatusOK)
		var resp SearchResponse
		parseJSONResponse(t, recorder, &resp)
		if !resp.Matched {
			t.Errorf("parallel=%s: expected a match despite the corrupt record", parallel)
		}
		if len(resp.Skipped) != 1 || resp.Skipped[0].ID != "bad" {
			t.Errorf("parallel=%s: expected 'bad' to be skipped, got %+v", parallel, resp.Skipped)
		}
	}
}
