package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Resham8/token-swap/internal/ai"
	"github.com/Resham8/token-swap/internal/flags"
	"github.com/Resham8/token-swap/internal/history"
	"github.com/Resham8/token-swap/internal/models"
	"github.com/Resham8/token-swap/internal/swap"
	"github.com/Resham8/token-swap/internal/token"
)

// Desk is the slice of the swap orchestrator the handlers need.
type Desk interface {
	Snapshot() swap.FormState
	SetAmount(text string) error
	ReverseDirection() error
	SelectInput(sym token.Symbol) error
	SelectOutput(sym token.Symbol) error
	RefreshBalance()
	Execute(ctx context.Context) (*swap.Result, error)
}

// Handlers contains all dependencies for API endpoint handlers.
type Handlers struct {
	Desk         Desk
	History      history.Recorder // optional
	Flags        *flags.Store     // optional
	AI           *ai.Agent        // optional
	AIBaseConfig ai.AgentConfig
	DevMode      bool
	Logger       *logrus.Logger
}

func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// State returns the current form snapshot with derived display values.
func (h *Handlers) State(c echo.Context) error {
	st := h.Desk.Snapshot()
	return c.JSON(http.StatusOK, StateResponse{
		FormState:   st,
		Rate:        st.Rate(),
		PriceImpact: st.PriceImpact(),
	})
}

// SetAmount updates the input amount text. A quote fetch is scheduled in
// the background; the caller polls /v1/state for the result.
func (h *Handlers) SetAmount(c echo.Context) error {
	var req AmountRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := h.Desk.SetAmount(req.Amount); err != nil {
		return h.deskErr(c, err)
	}
	return h.State(c)
}

func (h *Handlers) Reverse(c echo.Context) error {
	if err := h.Desk.ReverseDirection(); err != nil {
		return h.deskErr(c, err)
	}
	return h.State(c)
}

func (h *Handlers) SelectInput(c echo.Context) error {
	return h.selectAsset(c, h.Desk.SelectInput)
}

func (h *Handlers) SelectOutput(c echo.Context) error {
	return h.selectAsset(c, h.Desk.SelectOutput)
}

func (h *Handlers) selectAsset(c echo.Context, apply func(token.Symbol) error) error {
	var req PairRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	sym := token.Symbol(strings.ToUpper(strings.TrimSpace(req.Symbol)))
	if _, ok := token.Lookup(sym); !ok {
		return h.err(c, http.StatusBadRequest, "unknown token", map[string]any{"symbol": req.Symbol})
	}
	if err := apply(sym); err != nil {
		return h.deskErr(c, err)
	}
	return h.State(c)
}

func (h *Handlers) RefreshBalance(c echo.Context) error {
	h.Desk.RefreshBalance()
	return h.State(c)
}

// SwapExecute runs the held quote through the full execution pipeline. The
// kill switch short-circuits before the desk is touched.
func (h *Handlers) SwapExecute(c echo.Context) error {
	if h.Flags != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
		disabled, err := h.Flags.Enabled(ctx, flags.KillSwitch)
		cancel()
		if err != nil {
			h.Logger.WithError(err).Warn("kill switch check failed")
		} else if disabled {
			return h.err(c, http.StatusServiceUnavailable, "swap execution is disabled", nil)
		}
	}

	start := time.Now()
	res, err := h.Desk.Execute(c.Request().Context())
	if err != nil {
		return h.deskErr(c, err)
	}
	return c.JSON(http.StatusOK, SwapResponse{
		Signature:   res.Signature,
		ExplorerURL: res.ExplorerURL(),
		TookMs:      time.Since(start).Milliseconds(),
	})
}

// deskErr maps the orchestrator's sentinel errors onto HTTP statuses. A
// non-sentinel error means the pipeline itself failed mid-flight.
func (h *Handlers) deskErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, swap.ErrBusy):
		return h.err(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, swap.ErrWalletNotConnected),
		errors.Is(err, swap.ErrInvalidAmount),
		errors.Is(err, swap.ErrInsufficientBalance),
		errors.Is(err, swap.ErrCannotSign):
		return h.err(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, swap.ErrClosed):
		return h.err(c, http.StatusServiceUnavailable, "shutting down", nil)
	default:
		return h.err(c, http.StatusBadGateway, "swap failed", map[string]any{"err": err.Error()})
	}
}

// RecentSwaps returns the most recent executed swaps.
// Accepts a limit query parameter (default 100, range 1-200).
func (h *Handlers) RecentSwaps(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusOK, map[string]any{"items": []any{}})
	}

	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.History.Recent(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	if items == nil {
		items = []*models.SwapRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *Handlers) FlagsUpsert(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// AIAsk answers natural language questions about executed swaps. Supports
// an optional per-request model override.
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	agent := h.AI
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		tmp, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		defer func() { _ = tmp.Close() }()
		agent = tmp
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
