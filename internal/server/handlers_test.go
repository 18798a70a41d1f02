package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resham8/token-swap/internal/swap"
	"github.com/Resham8/token-swap/internal/token"
)

type fakeDesk struct {
	st         swap.FormState
	setErr     error
	reverseErr error
	execRes    *swap.Result
	execErr    error

	amounts   []string
	reverses  int
	refreshes int
	executes  int
}

func (d *fakeDesk) Snapshot() swap.FormState { return d.st }

func (d *fakeDesk) SetAmount(text string) error {
	if d.setErr != nil {
		return d.setErr
	}
	d.amounts = append(d.amounts, text)
	d.st.AmountIn = text
	return nil
}

func (d *fakeDesk) ReverseDirection() error {
	if d.reverseErr != nil {
		return d.reverseErr
	}
	d.reverses++
	d.st.AssetIn, d.st.AssetOut = d.st.AssetOut, d.st.AssetIn
	return nil
}

func (d *fakeDesk) SelectInput(sym token.Symbol) error  { return nil }
func (d *fakeDesk) SelectOutput(sym token.Symbol) error { return nil }
func (d *fakeDesk) RefreshBalance()                     { d.refreshes++ }

func (d *fakeDesk) Execute(ctx context.Context) (*swap.Result, error) {
	d.executes++
	if d.execErr != nil {
		return nil, d.execErr
	}
	return d.execRes, nil
}

func newTestServer(t *testing.T, d *fakeDesk) *echo.Echo {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	e := echo.New()
	e.HideBanner = true
	RegisterRoutes(e, &Handlers{Desk: d, Logger: logger}, ServerConfig{})
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, &fakeDesk{})
	rec := doJSON(e, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestStateIncludesDerivedFields(t *testing.T) {
	d := &fakeDesk{st: swap.FormState{
		AssetIn:   token.MustLookup(token.SOL),
		AssetOut:  token.MustLookup(token.USDC),
		AmountIn:  "1.2",
		AmountOut: "150.000000",
	}}
	e := newTestServer(t, d)

	rec := doJSON(e, http.MethodGet, "/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1.2", got["amountIn"])
	assert.Equal(t, "150.000000", got["amountOut"])
	// No quote held, so no rate or impact.
	assert.NotContains(t, got, "rate")
}

func TestSetAmount(t *testing.T) {
	d := &fakeDesk{}
	e := newTestServer(t, d)

	rec := doJSON(e, http.MethodPut, "/v1/amount", `{"amount":"1.2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1.2"}, d.amounts)

	rec = doJSON(e, http.MethodPut, "/v1/amount", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeskErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{swap.ErrBusy, http.StatusConflict},
		{swap.ErrWalletNotConnected, http.StatusUnprocessableEntity},
		{swap.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{swap.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{swap.ErrCannotSign, http.StatusUnprocessableEntity},
		{swap.ErrClosed, http.StatusServiceUnavailable},
		{fmt.Errorf("confirmation failed: block height exceeded"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		d := &fakeDesk{execErr: tc.err}
		e := newTestServer(t, d)

		rec := doJSON(e, http.MethodPost, "/v1/swap", "")
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tc.code, resp.Code)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestSwapExecuteSuccess(t *testing.T) {
	d := &fakeDesk{execRes: &swap.Result{Signature: "5ig"}}
	e := newTestServer(t, d)

	rec := doJSON(e, http.MethodPost, "/v1/swap", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SwapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "5ig", resp.Signature)
	assert.Equal(t, "https://solscan.io/tx/5ig", resp.ExplorerURL)
	assert.Equal(t, 1, d.executes)
}

func TestReverse(t *testing.T) {
	d := &fakeDesk{st: swap.FormState{
		AssetIn:  token.MustLookup(token.SOL),
		AssetOut: token.MustLookup(token.USDC),
	}}
	e := newTestServer(t, d)

	rec := doJSON(e, http.MethodPost, "/v1/reverse", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, d.reverses)

	d.reverseErr = swap.ErrBusy
	rec = doJSON(e, http.MethodPost, "/v1/reverse", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSelectUnknownToken(t *testing.T) {
	e := newTestServer(t, &fakeDesk{})
	rec := doJSON(e, http.MethodPut, "/v1/pair/input", `{"symbol":"DOGE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentSwapsWithoutHistory(t *testing.T) {
	e := newTestServer(t, &fakeDesk{})
	rec := doJSON(e, http.MethodGet, "/v1/swaps/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/v1/swaps/recent?limit=0", "")
	assert.Equal(t, http.StatusOK, rec.Code, "limit unchecked when history is off")
}

func TestAPIKeyAuth(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	e := echo.New()
	RegisterRoutes(e, &Handlers{Desk: &fakeDesk{}, Logger: logger}, ServerConfig{APIKey: "sekrit"})

	// Missing key is a malformed request, wrong key is unauthorized.
	rec := doJSON(e, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-API-Key", "wrong")
	rr0 := httptest.NewRecorder()
	e.ServeHTTP(rr0, req)
	assert.Equal(t, http.StatusUnauthorized, rr0.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	e := newTestServer(t, &fakeDesk{})
	rec := doJSON(e, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","code":404}`, rec.Body.String())
}
