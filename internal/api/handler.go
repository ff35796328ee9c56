package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
	"github.com/eugenenazirov/hungry-puppies/internal/solver"
	"github.com/eugenenazirov/hungry-puppies/internal/storage"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	outcomeContextKey   contextKey = "solveOutcome"

	defaultSolveTimeout = 30 * time.Second
)

// Handler wires solver and cache dependencies into HTTP handlers.
type Handler struct {
	solver       solver.Solver
	cache        storage.Storage
	logger       *zap.Logger
	solveTimeout time.Duration

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger sets the logger used to report solves and cache failures.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSolveTimeout bounds how long a single solve may run.
func WithSolveTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.solveTimeout = timeout
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(s solver.Solver, cache storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		solver:       s,
		cache:        cache,
		logger:       zap.NewNop(),
		solveTimeout: defaultSolveTimeout,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req treatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Treats) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid treats", "treats must contain at least one size")
		return
	}

	requestID := requestIDFromContext(r.Context())

	// The limit applies to cache hits too; a shared cache may hold solutions
	// computed under a more generous limit.
	if err := h.solver.Validate(req.Treats); err != nil {
		h.writeSolveError(w, err, len(req.Treats), 0, requestID)
		return
	}

	key := storage.Key(req.Treats)
	cached, ok, err := h.cache.Get(r.Context(), key)
	if err != nil {
		h.logger.Warn("cache lookup failed", zap.Error(err), zap.String("request_id", requestID))
	}
	if ok {
		recordOutcome(r.Context(), len(req.Treats), cached.Happiness, true)
		writeJSON(w, http.StatusOK, solveResponse{
			Happiness:      cached.Happiness,
			Treats:         cached.Treats,
			GuessHappiness: cached.GuessHappiness,
			Cached:         true,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.solveTimeout)
	defer cancel()

	start := time.Now()
	result, solveErr := h.solver.Solve(ctx, req.Treats)
	elapsed := time.Since(start)

	if solveErr != nil {
		h.writeSolveError(w, solveErr, len(req.Treats), elapsed, requestID)
		return
	}

	recordOutcome(r.Context(), len(req.Treats), result.Happiness, false)
	h.logger.Info("lineup solved",
		zap.Int("treats", len(req.Treats)),
		zap.Int("happiness", result.Happiness),
		zap.Int("guess", result.GuessHappiness),
		zap.Int64("nodes", result.Stats.Nodes),
		zap.Int64("pruned", result.Stats.Pruned),
		zap.Duration("duration", elapsed),
		zap.String("request_id", requestID),
	)

	solution := storage.Solution{
		Happiness:      result.Happiness,
		Treats:         result.Treats,
		GuessHappiness: result.GuessHappiness,
	}
	if err := h.cache.Set(r.Context(), key, solution); err != nil {
		h.logger.Warn("cache store failed", zap.Error(err), zap.String("request_id", requestID))
	}

	resp := solveResponse{
		Happiness:         result.Happiness,
		Treats:            result.Treats,
		GuessHappiness:    result.GuessHappiness,
		Nodes:             result.Stats.Nodes,
		Pruned:            result.Stats.Pruned,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeSolveError(w http.ResponseWriter, err error, treats int, elapsed time.Duration, requestID string) {
	switch {
	case errors.Is(err, solver.ErrNoTreats), errors.Is(err, solver.ErrInvalidTreatSize):
		writeError(w, http.StatusBadRequest, "Invalid treats", err.Error())
	case errors.Is(err, solver.ErrTooManyTreats):
		writeError(w, http.StatusUnprocessableEntity, "Too many treats", err.Error(),
			"Split the line into smaller groups or raise max_treats")
	case errors.Is(err, solver.ErrSearchAborted):
		h.logger.Warn("solve aborted",
			zap.Int("treats", treats),
			zap.Duration("duration", elapsed),
			zap.String("request_id", requestID),
		)
		suggestion := fmt.Sprintf("The search did not finish within %s; inputs with many distinct sizes are slow", h.solveTimeout)
		writeError(w, http.StatusServiceUnavailable, "Search timed out", err.Error(), suggestion)
	default:
		writeInternalError(w, err)
	}
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req treatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Treats) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid treats", "treats must contain at least one size")
		return
	}
	for _, size := range req.Treats {
		if size <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid treats", fmt.Sprintf("%v: got %d", solver.ErrInvalidTreatSize, size))
			return
		}
	}

	resp := scoreResponse{
		Happiness: lineup.Score(req.Treats),
		Treats:    req.Treats,
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type treatsRequest struct {
	Treats []int `json:"treats"`
}

type solveResponse struct {
	Happiness         int   `json:"happiness"`
	Treats            []int `json:"treats"`
	GuessHappiness    int   `json:"guessHappiness"`
	Nodes             int64 `json:"nodes"`
	Pruned            int64 `json:"pruned"`
	Cached            bool  `json:"cached"`
	CalculationTimeMs int64 `json:"calculationTimeMs"`
}

type scoreResponse struct {
	Happiness int   `json:"happiness"`
	Treats    []int `json:"treats"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
