package jupiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleQuoteBody = `{
	"inputMint": "So11111111111111111111111111111111111111112",
	"inAmount": "1500000000",
	"outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"outAmount": "150000000",
	"otherAmountThreshold": "149250000",
	"swapMode": "ExactIn",
	"slippageBps": 50,
	"priceImpactPct": "0.0123",
	"routePlan": []
}`

func TestClient_Quote(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/quote", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleQuoteBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	out, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      "1500000000",
		SlippageBps: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "1500000000", gotQuery["amount"])
	assert.Equal(t, "50", gotQuery["slippageBps"])
	assert.Equal(t, "So11111111111111111111111111111111111111112", gotQuery["inputMint"])
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", gotQuery["outputMint"])

	assert.Equal(t, "150000000", out.OutAmount)
	assert.Equal(t, uint16(50), out.SlippageBps)
	assert.Equal(t, "149250000", out.OtherAmountThreshold)
	assert.InDelta(t, 0.0123, out.PriceImpact(), 1e-9)
	assert.JSONEq(t, sampleQuoteBody, string(out.Raw))
}

func TestClient_Quote_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no route"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:  "a",
		OutputMint: "b",
		Amount:     "1",
	})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}

func TestClient_Quote_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"inputMint":"x","outputMint":"y","inAmount":"nope","outAmount":"1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Quote(context.Background(), QuoteRequest{InputMint: "a", OutputMint: "b", Amount: "1"})
	assert.ErrorContains(t, err, "malformed jupiter quote")
}

func TestClient_Swap(t *testing.T) {
	var gotBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/swap", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"swapTransaction":"AQID","lastValidBlockHeight":12345}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	out, err := c.Swap(context.Background(), SwapRequest{
		QuoteResponse:    json.RawMessage(sampleQuoteBody),
		UserPublicKey:    "FakePubkey11111111111111111111111111111111",
		WrapAndUnwrapSol: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "AQID", out.SwapTransaction)
	assert.Equal(t, uint64(12345), out.LastValidBlockHeight)

	// The quote object must be replayed verbatim.
	assert.JSONEq(t, sampleQuoteBody, string(gotBody["quoteResponse"]))

	var wrap bool
	require.NoError(t, json.Unmarshal(gotBody["wrapAndUnwrapSol"], &wrap))
	assert.True(t, wrap)
}

func TestClient_Swap_MissingTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Swap(context.Background(), SwapRequest{
		QuoteResponse: json.RawMessage(`{}`),
		UserPublicKey: "x",
	})
	assert.ErrorContains(t, err, "missing swapTransaction")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "")
	assert.Equal(t, defaultBaseURL, c.BaseURL)

	c = NewClient("https://example.com/api/", "k")
	assert.Equal(t, "https://example.com/api", c.BaseURL)
	assert.Equal(t, "k", c.APIKey)
}
