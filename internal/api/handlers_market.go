package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/stock-tracker/internal/types"
)

// countParam parses an optional ?count= query parameter
func countParam(r *http.Request) int {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return 0
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return count
}

func respondQuotes(w http.ResponseWriter, quotes []types.MarketQuote) {
	if quotes == nil {
		quotes = []types.MarketQuote{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": quotes,
		"count":  len(quotes),
	})
}

// handleSearch handles GET /api/search?q= - equity keyword search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	quotes, err := s.marketService.Search(r.Context(), query)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondQuotes(w, quotes)
}

// handleQuote handles GET /api/quote/{ticker} - single symbol quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	quote, err := s.marketService.Quote(r.Context(), ticker)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// handleTopGainers handles GET /api/top/gainer - day's top gainers
func (s *Server) handleTopGainers(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.marketService.TopGainers(r.Context(), countParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondQuotes(w, quotes)
}

// handleTopLosers handles GET /api/top/loser - day's top losers
func (s *Server) handleTopLosers(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.marketService.TopLosers(r.Context(), countParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondQuotes(w, quotes)
}

// handleTrending handles GET /api/top/trending - trending US symbols
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.marketService.Trending(r.Context(), countParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondQuotes(w, quotes)
}

// handleIndexes handles GET /api/index - major US index quotes
func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.marketService.Indexes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondQuotes(w, quotes)
}

// handleHistory handles GET /api/history/{ticker}?from=&to=&interval= -
// price history bars
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var period1, period2 time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "from must be formatted as YYYY-MM-DD", nil)
			return
		}
		period1 = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "to must be formatted as YYYY-MM-DD", nil)
			return
		}
		period2 = parsed
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	candles, err := s.marketService.History(r.Context(), ticker, period1, period2, interval)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if candles == nil {
		candles = []types.Candle{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"candles": candles,
		"count":   len(candles),
	})
}
