package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/news"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/rebalance"
	"github.com/cleared-dev/folio/internal/trades"
)

const maxBody = 1 << 20

type holdingJSON struct {
	Ticker              string          `json:"ticker"`
	Quantity            decimal.Decimal `json:"quantity"`
	TargetWeightPercent decimal.Decimal `json:"target_weight_percent"`
}

type lineJSON struct {
	Ticker              string          `json:"ticker"`
	Quantity            decimal.Decimal `json:"quantity"`
	Price               decimal.Decimal `json:"price"`
	TargetWeightPercent decimal.Decimal `json:"target_weight_percent"`
	MarketValue         decimal.Decimal `json:"market_value"`
	IdealValue          decimal.Decimal `json:"ideal_value"`
	Shortfall           decimal.Decimal `json:"shortfall"`
	RecommendedCash     decimal.Decimal `json:"recommended_cash"`
	RecommendedQuantity decimal.Decimal `json:"recommended_quantity"`
	Priced              bool            `json:"priced"`
	ExceedsHolding      bool            `json:"exceeds_holding,omitempty"`
}

type planJSON struct {
	Currency         string          `json:"currency"`
	Budget           decimal.Decimal `json:"budget"`
	TotalMarketValue decimal.Decimal `json:"total_market_value"`
	SimulatedTotal   decimal.Decimal `json:"simulated_total"`
	TotalNeeded      decimal.Decimal `json:"total_needed"`
	Allocated        decimal.Decimal `json:"allocated"`
	Ratio            decimal.Decimal `json:"ratio"`
	Rationed         bool            `json:"rationed"`
	Fallback         bool            `json:"fallback"`
	Holdings         []lineJSON      `json:"holdings"`
	Buys             []lineJSON      `json:"buys"`
	Sells            []lineJSON      `json:"sells"`
	Warnings         []string        `json:"warnings"`
}

type tradeJSON struct {
	Date      string          `json:"date"`
	Ticker    string          `json:"ticker"`
	Side      model.Side      `json:"side"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type articleJSON struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Source    string     `json:"source,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
		"service": "folio",
	})
}

func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	res, err := s.portfolio.Holdings(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]holdingJSON, 0, len(res.Holdings))
	for _, h := range res.Holdings {
		out = append(out, holdingJSON{Ticker: h.Ticker, Quantity: h.Quantity, TargetWeightPercent: h.TargetWeightPercent})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"holdings": out,
		"fallback": res.Fallback,
	})
}

type putHoldingsRequest struct {
	Holdings []holdingJSON    `json:"holdings"`
	Budget   *decimal.Decimal `json:"budget"`
}

func (s *Server) handlePutHoldings(w http.ResponseWriter, r *http.Request) {
	var req putHoldingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hs := make([]model.Holding, 0, len(req.Holdings))
	for _, h := range req.Holdings {
		hs = append(hs, model.Holding{Ticker: h.Ticker, Quantity: h.Quantity, TargetWeightPercent: h.TargetWeightPercent})
	}
	budget := s.budget
	if req.Budget != nil {
		budget = *req.Budget
	}

	res, err := s.portfolio.SaveAndCompute(r.Context(), hs, budget)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.planResponse(res))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	budget := s.budget
	if raw := strings.TrimSpace(r.URL.Query().Get("budget")); raw != "" {
		b, err := decimal.NewFromString(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("budget %q is not a number", raw))
			return
		}
		budget = b
	}

	res, err := s.portfolio.Snapshot(r.Context(), budget)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.planResponse(res))
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	recs, err := s.portfolio.History(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]tradeJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toTradeJSON(rec))
	}
	bought, sold := trades.Totals(recs)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"trades": out,
		"bought": bought,
		"sold":   sold,
	})
}

type postTradeRequest struct {
	Date      string          `json:"date"`
	Ticker    string          `json:"ticker"`
	Side      model.Side      `json:"side"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (s *Server) handlePostTrade(w http.ResponseWriter, r *http.Request) {
	var req postTradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("date %q must be YYYY-MM-DD", req.Date))
			return
		}
		date = d
	}

	res, err := s.portfolio.ApplyTrade(r.Context(), portfolio.TradeParams{
		Date:      date,
		Ticker:    req.Ticker,
		Side:      model.Side(strings.ToLower(string(req.Side))),
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	switch {
	case errors.Is(err, trades.ErrInvalidTrade):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := map[string]any{"trade": toTradeJSON(res.Record)}
	if res.Floored {
		body["warning"] = fmt.Sprintf("sell exceeds the %s holding; quantity set to zero", res.Record.Ticker)
	}
	s.writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	state := news.NewViewState(s.keywords)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		state = state.Select(q)
	}

	body := map[string]any{
		"query":    state.Query(),
		"keywords": state.Keywords,
	}
	articles, err := s.news.Search(r.Context(), state.Query())
	if err != nil {
		s.log.Warn().Err(err).Str("query", state.Query()).Msg("News fetch failed")
		body["articles"] = []articleJSON{}
		body["message"] = "could not load news: " + err.Error()
		s.writeJSON(w, http.StatusOK, body)
		return
	}

	out := make([]articleJSON, 0, len(articles))
	for _, a := range articles {
		aj := articleJSON{Title: a.Title, Link: a.Link, Source: a.Source}
		if !a.Published.IsZero() {
			p := a.Published
			aj.Published = &p
		}
		out = append(out, aj)
	}
	body["articles"] = out
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) planResponse(res portfolio.Result) planJSON {
	p := res.Plan
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return planJSON{
		Currency:         s.currency,
		Budget:           p.Budget,
		TotalMarketValue: p.TotalMarketValue,
		SimulatedTotal:   p.SimulatedTotal,
		TotalNeeded:      p.TotalNeeded,
		Allocated:        p.Allocated,
		Ratio:            p.Ratio,
		Rationed:         p.Rationed,
		Fallback:         res.Fallback,
		Holdings:         toLines(p.Lines),
		Buys:             toLines(p.Buys),
		Sells:            toLines(p.Sells),
		Warnings:         warnings,
	}
}

func toLines(ls []rebalance.Line) []lineJSON {
	out := make([]lineJSON, 0, len(ls))
	for _, l := range ls {
		out = append(out, lineJSON{
			Ticker:              l.Ticker,
			Quantity:            l.Quantity,
			Price:               l.Price,
			TargetWeightPercent: l.TargetWeightPercent,
			MarketValue:         l.MarketValue,
			IdealValue:          l.IdealValue,
			Shortfall:           l.Shortfall,
			RecommendedCash:     l.RecommendedCash,
			RecommendedQuantity: l.RecommendedQuantity,
			Priced:              l.Eligible,
			ExceedsHolding:      l.ExceedsHolding,
		})
	}
	return out
}

func toTradeJSON(r model.TradeRecord) tradeJSON {
	return tradeJSON{
		Date:      r.Date.Format("2006-01-02"),
		Ticker:    r.Ticker,
		Side:      r.Side,
		UnitPrice: r.UnitPrice,
		Quantity:  r.Quantity,
		Total:     r.Total,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
	})
}
