package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/prices"
	"github.com/cleared-dev/folio/internal/trades"
)

type stubNews struct {
	articles []model.Article
	err      error
	queries  []string
}

func (s *stubNews) Search(_ context.Context, q string) ([]model.Article, error) {
	s.queries = append(s.queries, q)
	return s.articles, s.err
}

func newTestServer(t *testing.T, nw *stubNews) *Server {
	t.Helper()
	dir := t.TempDir()
	src := prices.NewStatic(map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(150),
		"TSLA": decimal.NewFromInt(100),
	})
	defaults := []model.Holding{
		{Ticker: "AAPL", Quantity: decimal.NewFromInt(10), TargetWeightPercent: decimal.NewFromInt(30)},
		{Ticker: "TSLA", Quantity: decimal.NewFromInt(5), TargetWeightPercent: decimal.NewFromInt(70)},
	}
	svc := portfolio.NewService(holdings.NewCSVStore(dir), trades.NewCSVLog(dir), src, defaults, zerolog.Nop())
	if nw == nil {
		nw = &stubNews{}
	}
	return New(Config{
		Log:       zerolog.Nop(),
		Portfolio: svc,
		News:      nw,
		Keywords:  []string{"stock market", "Nasdaq"},
		Currency:  "USD",
		Version:   "test",
	})
}

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestPlan(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/api/plan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2000", body["simulated_total"])
	assert.Equal(t, true, body["fallback"])
	assert.Equal(t, true, body["rationed"])

	sells := body["sells"].([]any)
	require.Len(t, sells, 1)
	sell := sells[0].(map[string]any)
	assert.Equal(t, "AAPL", sell["ticker"])
	assert.Equal(t, "6", sell["recommended_quantity"])

	rec, body = do(t, s, http.MethodGet, "/api/plan?budget=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3000", body["simulated_total"])
	assert.Equal(t, "1000", body["allocated"])

	rec, body = do(t, s, http.MethodGet, "/api/plan?budget=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, true, body["error"])
	assert.Contains(t, body["message"], `budget "lots" is not a number`)
}

func TestHoldingsRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodGet, "/api/holdings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["fallback"])
	assert.Len(t, body["holdings"], 2)

	rec, body = do(t, s, http.MethodPut, "/api/holdings",
		`{"holdings":[{"ticker":"tsla","quantity":"10","target_weight_percent":"100"}],"budget":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, false, body["fallback"])
	assert.Equal(t, "1000", body["simulated_total"])
	assert.Empty(t, body["buys"])
	assert.Empty(t, body["sells"])

	_, body = do(t, s, http.MethodGet, "/api/holdings", "")
	assert.Equal(t, false, body["fallback"])
	hs := body["holdings"].([]any)
	require.Len(t, hs, 1)
	assert.Equal(t, "TSLA", hs[0].(map[string]any)["ticker"])

	rec, body = do(t, s, http.MethodPut, "/api/holdings", `{"holdings":[],"extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "invalid request body")
}

func TestTrades(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := do(t, s, http.MethodPost, "/api/trades",
		`{"date":"2025-02-03","ticker":"aapl","side":"BUY","unit_price":"150","quantity":"2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	trade := body["trade"].(map[string]any)
	assert.Equal(t, "AAPL", trade["ticker"])
	assert.Equal(t, "buy", trade["side"])
	assert.Equal(t, "300", trade["total"])
	assert.Nil(t, body["warning"])

	rec, body = do(t, s, http.MethodPost, "/api/trades",
		`{"date":"2025-02-04","ticker":"TSLA","side":"sell","unit_price":"100","quantity":"50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, body["warning"], "quantity set to zero")

	rec, body = do(t, s, http.MethodGet, "/api/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["trades"], 2)
	assert.Equal(t, "300", body["bought"])
	assert.Equal(t, "5000", body["sold"])

	_, hb := do(t, s, http.MethodGet, "/api/holdings", "")
	assert.Equal(t, false, hb["fallback"])
}

func TestTrades_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad date", `{"date":"03/02/2025","ticker":"AAPL","side":"buy","unit_price":"1","quantity":"1"}`, "must be YYYY-MM-DD"},
		{"zero quantity", `{"ticker":"AAPL","side":"buy","unit_price":"1","quantity":"0"}`, "quantity must be positive"},
		{"bad side", `{"ticker":"AAPL","side":"hold","unit_price":"1","quantity":"1"}`, "must be buy or sell"},
		{"not json", `nope`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, s, http.MethodPost, "/api/trades", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, true, body["error"])
			assert.Contains(t, body["message"], tt.want)
		})
	}
}

func TestNews(t *testing.T) {
	nw := &stubNews{articles: []model.Article{{Title: "Markets up", Link: "https://example.com"}}}
	s := newTestServer(t, nw)

	rec, body := do(t, s, http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stock market", body["query"])
	arts := body["articles"].([]any)
	require.Len(t, arts, 1)
	assert.Equal(t, "Markets up", arts[0].(map[string]any)["title"])
	assert.Nil(t, arts[0].(map[string]any)["published"])

	_, body = do(t, s, http.MethodGet, "/api/news?q=Nasdaq", "")
	assert.Equal(t, "Nasdaq", body["query"])
	assert.Equal(t, []string{"stock market", "Nasdaq"}, nw.queries)
}

func TestNews_FetchFailure(t *testing.T) {
	s := newTestServer(t, &stubNews{err: errors.New("HTTP 503")})

	rec, body := do(t, s, http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["articles"])
	assert.Equal(t, "could not load news: HTTP 503", body["message"])
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/plan", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
