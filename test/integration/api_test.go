package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/hungry-puppies/internal/api"
	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
	"github.com/eugenenazirov/hungry-puppies/internal/solver"
	"github.com/eugenenazirov/hungry-puppies/internal/storage"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	store := storage.NewMemoryStorage(time.Minute, 32)
	logger := zaptest.NewLogger(t)
	handler := api.NewHandler(solver.New(), store, api.WithLogger(logger))
	return api.NewRouter(handler, logger)
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type solveBody struct {
	Happiness int   `json:"happiness"`
	Treats    []int `json:"treats"`
	Cached    bool  `json:"cached"`
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	treats := []int{1, 1, 2, 2, 3, 4, 4, 5, 5, 5, 6, 6}
	payload, _ := json.Marshal(map[string]any{"treats": treats})
	rec = performRequest(t, handler, http.MethodPost, "/api/solve", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from solve, got %d", rec.Code)
	}

	var solved solveBody
	if err := json.NewDecoder(rec.Body).Decode(&solved); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if solved.Happiness != 4 {
		t.Fatalf("expected happiness 4, got %d", solved.Happiness)
	}
	if solved.Cached {
		t.Fatalf("expected first solve to run the search")
	}
	got := slices.Clone(solved.Treats)
	slices.Sort(got)
	if !slices.Equal(got, treats) {
		t.Fatalf("expected a permutation of %v, got %v", treats, solved.Treats)
	}

	// The returned order scores the same through the score endpoint.
	scorePayload, _ := json.Marshal(map[string]any{"treats": solved.Treats})
	rec = performRequest(t, handler, http.MethodPost, "/api/score", scorePayload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from score, got %d", rec.Code)
	}
	var scored struct {
		Happiness int `json:"happiness"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&scored); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if scored.Happiness != solved.Happiness || scored.Happiness != lineup.Score(solved.Treats) {
		t.Fatalf("expected score %d, got %d", solved.Happiness, scored.Happiness)
	}

	// Solving a shuffled copy is answered from the cache.
	shuffled := []int{6, 5, 4, 3, 2, 1, 6, 5, 4, 5, 2, 1}
	payload, _ = json.Marshal(map[string]any{"treats": shuffled})
	rec = performRequest(t, handler, http.MethodPost, "/api/solve", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from cached solve, got %d", rec.Code)
	}
	var cached solveBody
	if err := json.NewDecoder(rec.Body).Decode(&cached); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !cached.Cached || cached.Happiness != 4 || !slices.Equal(cached.Treats, solved.Treats) {
		t.Fatalf("expected cached copy of the first solution, got %+v", cached)
	}
}
