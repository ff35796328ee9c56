package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/eugenenazirov/hungry-puppies/internal/config"
	"github.com/eugenenazirov/hungry-puppies/internal/lineup"
	"github.com/eugenenazirov/hungry-puppies/internal/logging"
	"github.com/eugenenazirov/hungry-puppies/internal/solver"
)

const (
	modeSolve = "solve"
	modeScore = "score"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type solveResult struct {
	Happiness      int   `json:"happiness"`
	Treats         []int `json:"treats"`
	GuessHappiness int   `json:"guessHappiness"`
	Nodes          int64 `json:"nodes"`
	Pruned         int64 `json:"pruned"`
	TimeMs         int64 `json:"timeMs"`
}

type scoreResult struct {
	Happiness int   `json:"happiness"`
	Treats    []int `json:"treats"`
}

type functionHandler struct {
	solver  solver.Solver
	timeout time.Duration
	logger  *zap.Logger
}

func newFunctionHandler(cfg config.Config, logger *zap.Logger) *functionHandler {
	return &functionHandler{
		solver:  solver.New(solver.WithMaxTreats(cfg.MaxTreats)),
		timeout: cfg.SolveTimeout,
		logger:  logger,
	}
}

func (h *functionHandler) handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(http.StatusBadRequest, "invalid base64 body")
		}
		body = string(decoded)
	}

	if !gjson.Valid(body) {
		return errResp(http.StatusBadRequest, "invalid JSON body")
	}

	treats, err := readTreats(gjson.Get(body, "treats"))
	if err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}

	mode := gjson.Get(body, "mode").String()
	switch mode {
	case "", modeSolve:
		return h.solve(ctx, treats)
	case modeScore:
		return h.score(treats)
	default:
		return errResp(http.StatusBadRequest, fmt.Sprintf("unknown mode %q", mode))
	}
}

func (h *functionHandler) solve(ctx context.Context, treats []int) (events.LambdaFunctionURLResponse, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h.solver.Solve(ctx, treats)
	if err != nil {
		switch {
		case errors.Is(err, solver.ErrNoTreats), errors.Is(err, solver.ErrInvalidTreatSize):
			return errResp(http.StatusBadRequest, err.Error())
		case errors.Is(err, solver.ErrTooManyTreats):
			return errResp(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, solver.ErrSearchAborted):
			return errResp(http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("solve failed", zap.Error(err))
			return errResp(http.StatusInternalServerError, "internal error")
		}
	}

	elapsed := time.Since(start)
	h.logger.Info("lineup solved",
		zap.Int("treats", len(treats)),
		zap.Int("happiness", result.Happiness),
		zap.Int64("nodes", result.Stats.Nodes),
		zap.Duration("duration", elapsed),
	)

	return okResp(solveResult{
		Happiness:      result.Happiness,
		Treats:         result.Treats,
		GuessHappiness: result.GuessHappiness,
		Nodes:          result.Stats.Nodes,
		Pruned:         result.Stats.Pruned,
		TimeMs:         elapsed.Milliseconds(),
	})
}

func (h *functionHandler) score(treats []int) (events.LambdaFunctionURLResponse, error) {
	if len(treats) == 0 {
		return errResp(http.StatusBadRequest, solver.ErrNoTreats.Error())
	}
	for _, size := range treats {
		if size <= 0 {
			return errResp(http.StatusBadRequest, fmt.Sprintf("%v: got %d", solver.ErrInvalidTreatSize, size))
		}
	}
	return okResp(scoreResult{Happiness: lineup.Score(treats), Treats: treats})
}

// readTreats accepts only an array of integral numbers.
func readTreats(v gjson.Result) ([]int, error) {
	if !v.Exists() {
		return nil, errors.New("missing treats field")
	}
	if !v.IsArray() {
		return nil, errors.New("treats must be an array")
	}

	arr := v.Array()
	out := make([]int, len(arr))
	for i, item := range arr {
		if item.Type != gjson.Number || item.Num != float64(item.Int()) {
			return nil, fmt.Errorf("treats[%d] is not an integer: %s", i, item.Raw)
		}
		out[i] = int(item.Int())
	}
	return out, nil
}

func okResp(payload any) (events.LambdaFunctionURLResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return errResp(http.StatusInternalServerError, "encode response")
	}
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(body)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	lambda.Start(newFunctionHandler(cfg, logger).handle)
}
