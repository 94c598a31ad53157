// Package api is the HTTP boundary of the trading journal: request decoding,
// input validation, error-to-status mapping, and response envelopes. All
// domain logic lives in the journal package; all persistence in store.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"crypto-journal-go/internal/journal"
	"crypto-journal-go/internal/mexc"
	"crypto-journal-go/internal/models"
	"crypto-journal-go/internal/store"
)

// popularPairs is the fixed instrument list behind /api/mexc/popular-pairs.
var popularPairs = []string{
	"BTC/USDT", "ETH/USDT", "BNB/USDT", "ADA/USDT",
	"SOL/USDT", "MATIC/USDT", "DOT/USDT", "AVAX/USDT",
}

// Handler holds dependencies for the API endpoints.
type Handler struct {
	log   *zap.Logger
	store *store.Store
	mexc  mexc.ClientInterface
}

// NewHandler creates a new Handler.
func NewHandler(log *zap.Logger, st *store.Store, mexcClient mexc.ClientInterface) *Handler {
	return &Handler{log: log, store: st, mexc: mexcClient}
}

// TradeCreateRequest is the JSON body for POST /api/trades. Exactly one of
// usd_amount or quantity must be supplied; it selects the sizing mode.
type TradeCreateRequest struct {
	Pair       string           `json:"pair"`
	EntryPrice float64          `json:"entry_price"`
	ExitPrice  *float64         `json:"exit_price"`
	UsdAmount  *float64         `json:"usd_amount"`
	Quantity   *float64         `json:"quantity"`
	TradeDate  models.Date      `json:"trade_date"`
	Strategy   string           `json:"strategy"`
	TradeType  models.TradeType `json:"trade_type"`
	StopLoss   *float64         `json:"stop_loss"`
	TakeProfit *float64         `json:"take_profit"`
	Notes      string           `json:"notes"`
	ImageData  string           `json:"image_data"`
}

func (r TradeCreateRequest) validate() string {
	switch {
	case r.Pair == "":
		return "pair is required"
	case r.EntryPrice <= 0:
		return "entry_price must be positive"
	case r.Strategy == "":
		return "strategy is required"
	case !r.TradeType.Valid():
		return "trade_type must be Long or Short"
	case r.TradeDate.IsZero():
		return "trade_date is required"
	case r.UsdAmount == nil && r.Quantity == nil:
		return "one of usd_amount or quantity is required"
	case r.UsdAmount != nil && r.Quantity != nil:
		return "usd_amount and quantity are mutually exclusive"
	case r.UsdAmount != nil && *r.UsdAmount <= 0:
		return "usd_amount must be positive"
	case r.Quantity != nil && *r.Quantity <= 0:
		return "quantity must be positive"
	}
	return ""
}

// TradeListResponse is the paginated envelope of GET /api/trades.
type TradeListResponse struct {
	Trades     []models.Trade `json:"trades"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// TickerResponse is the envelope of the MEXC proxy endpoints.
type TickerResponse struct {
	Tickers []mexc.Ticker `json:"tickers"`
}

// Root handles GET /api/.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Crypto Trading Journal API"})
}

// CreateTrade handles POST /api/trades.
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, msg, http.StatusUnprocessableEntity)
		return
	}

	trade := models.Trade{
		ID:         models.NewTradeID(),
		Pair:       req.Pair,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		TradeDate:  req.TradeDate,
		Strategy:   req.Strategy,
		TradeType:  req.TradeType,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Notes:      req.Notes,
		ImageData:  req.ImageData,
	}
	if req.UsdAmount != nil {
		trade.SizingMode = models.SizingUSD
		trade.UsdAmount = *req.UsdAmount
		trade.Quantity = journal.Quantity(trade.UsdAmount, trade.EntryPrice)
	} else {
		trade.SizingMode = models.SizingQuantity
		trade.Quantity = *req.Quantity
	}
	trade.Pnl = journal.PnL(trade.TradeType, trade.EntryPrice, trade.ExitPrice, trade.Quantity)

	if err := h.store.Create(r.Context(), &trade); err != nil {
		h.log.Error("Failed to create trade", zap.Error(err))
		writeError(w, "failed to create trade", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// ListTrades handles GET /api/trades with filter/sort/page query params.
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	params, errMsg := parseListParams(r)
	if errMsg != "" {
		writeError(w, errMsg, http.StatusBadRequest)
		return
	}

	spec := journal.Build(params)
	trades, total, err := h.store.List(r.Context(), spec)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSort) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("Failed to list trades", zap.Error(err))
		writeError(w, "failed to fetch trades", http.StatusInternalServerError)
		return
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	writeJSON(w, http.StatusOK, TradeListResponse{
		Trades:     trades,
		Total:      total,
		Page:       page,
		Limit:      spec.Limit,
		TotalPages: journal.TotalPages(total, spec.Limit),
	})
}

// GetTrade handles GET /api/trades/{tradeID}.
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tradeID")
	trade, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Trade not found.", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to get trade", zap.String("id", id), zap.Error(err))
		writeError(w, "failed to fetch trade", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// UpdateTrade handles PUT /api/trades/{tradeID} with a sparse patch body.
func (h *Handler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tradeID")

	var patch store.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if patch.TradeType != nil && !patch.TradeType.Valid() {
		writeError(w, "trade_type must be Long or Short", http.StatusUnprocessableEntity)
		return
	}

	trade, err := h.store.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, store.ErrEmptyUpdate):
		writeError(w, "No update data provided.", http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, "Trade not found.", http.StatusNotFound)
	case err != nil:
		h.log.Error("Failed to update trade", zap.String("id", id), zap.Error(err))
		writeError(w, "failed to update trade", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, trade)
	}
}

// DeleteTrade handles DELETE /api/trades/{tradeID}. Whether a missing id is
// a 404 or a silent success is a store policy (journal.strict_delete).
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tradeID")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "Trade not found.", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to delete trade", zap.String("id", id), zap.Error(err))
		writeError(w, "failed to delete trade", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Trade deleted successfully"})
}

// TradeStats handles GET /api/trades/stats/summary.
func (h *Handler) TradeStats(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.ClosedTrades(r.Context())
	if err != nil {
		h.log.Error("Failed to fetch trades for statistics", zap.Error(err))
		writeError(w, "failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, journal.Aggregate(trades).Rounded())
}

// MexcTicker handles GET /api/mexc/ticker?symbols=BTC/USDT,ETH/USDT.
// Symbols the upstream fails to return are logged and omitted; a partial
// result is never an error.
func (h *Handler) MexcTicker(w http.ResponseWriter, r *http.Request) {
	symbols := r.URL.Query().Get("symbols")
	if symbols == "" {
		writeError(w, "symbols query parameter is required", http.StatusBadRequest)
		return
	}
	h.fetchTickers(w, r, strings.Split(symbols, ","))
}

// PopularPairs handles GET /api/mexc/popular-pairs.
func (h *Handler) PopularPairs(w http.ResponseWriter, r *http.Request) {
	h.fetchTickers(w, r, popularPairs)
}

func (h *Handler) fetchTickers(w http.ResponseWriter, r *http.Request, pairs []string) {
	tickers := []mexc.Ticker{}
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		ticker, err := h.mexc.Ticker24h(r.Context(), pair)
		if err != nil {
			h.log.Warn("Skipping ticker for symbol", zap.String("pair", pair), zap.Error(err))
			continue
		}
		tickers = append(tickers, *ticker)
	}
	writeJSON(w, http.StatusOK, TickerResponse{Tickers: tickers})
}

// parseListParams extracts and type-checks the recognized listing options.
func parseListParams(r *http.Request) (journal.ListParams, string) {
	q := r.URL.Query()
	params := journal.ListParams{
		Search:    q.Get("search"),
		Strategy:  q.Get("strategy"),
		TradeType: q.Get("trade_type"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      1,
		Limit:     journal.DefaultLimit,
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return params, "page must be a positive integer"
		}
		params.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > journal.MaxLimit {
			return params, "limit must be between 1 and 100"
		}
		params.Limit = n
	}
	if v := q.Get("date_from"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return params, "date_from must be YYYY-MM-DD"
		}
		params.DateFrom = &d
	}
	if v := q.Get("date_to"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return params, "date_to must be YYYY-MM-DD"
		}
		params.DateTo = &d
	}
	if v := q.Get("pnl_min"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, "pnl_min must be a number"
		}
		params.PnlMin = &f
	}
	if v := q.Get("pnl_max"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, "pnl_max must be a number"
		}
		params.PnlMax = &f
	}
	return params, ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, detail string, status int) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
