package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/service"
)

// tradeRequest is the request body for buy and sell orders
type tradeRequest struct {
	Ticker   string          `json:"ticker"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// handleGetPortfolio handles GET /api/portfolio - open positions with valuation
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	view, err := s.portfolioService.GetPortfolio(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleBuy handles POST /api/portfolio/buy - execute a buy order
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	result, err := s.tradeService.Buy(r.Context(), &service.TradeInput{
		Ticker:   req.Ticker,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleSell handles POST /api/portfolio/sell - execute a sell order
func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	result, err := s.tradeService.Sell(r.Context(), &service.TradeInput{
		Ticker:   req.Ticker,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleGetCash handles GET /api/cash - current cash balance
func (s *Server) handleGetCash(w http.ResponseWriter, r *http.Request) {
	view, err := s.portfolioService.GetCash(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleGetTransactions handles GET /api/transactions - trade log, newest first
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}

	transactions, err := s.portfolioService.GetTransactions(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
