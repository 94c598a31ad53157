// Package mexc is a read-only client for the public MEXC spot API. Only the
// 24h ticker endpoint is used, to enrich the journal dashboard with live
// market data.
package mexc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"crypto-journal-go/internal/config"
)

// ClientInterface defines the MEXC operations the API layer depends on.
type ClientInterface interface {
	Ticker24h(ctx context.Context, pair string) (*Ticker, error)
}

// Client is a client for the MEXC REST API.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new MEXC API client. Outbound calls go through a rate
// limiter and carry a bounded request timeout so a slow upstream cannot hold
// a dashboard request open indefinitely.
func NewClient(cfg *config.Mexc, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	return &Client{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// Ticker is the 24h ticker snapshot for one instrument pair. Symbol keeps
// the caller's "BASE/QUOTE" spelling rather than the exchange's concatenated
// form.
type Ticker struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"lastPrice"`
	PriceChange        float64 `json:"priceChange"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Volume             float64 `json:"volume"`
}

// ticker24hPayload mirrors the upstream response, which carries all numbers
// as strings.
type ticker24hPayload struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
}

// Ticker24h fetches the 24h ticker stats for a pair like "BTC/USDT". The
// upstream may answer with a single object or, for ambiguous symbols, a
// list; both shapes are handled. There are no retries: a failed symbol is
// the caller's to omit.
func (c *Client) Ticker24h(ctx context.Context, pair string) (*Ticker, error) {
	symbol := strings.ReplaceAll(pair, "/", "")

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		Get("/ticker/24hr")
	if err != nil {
		return nil, fmt.Errorf("ticker request for %s failed: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ticker request for %s failed with status %s", symbol, resp.Status())
	}

	payload, err := decodeTickerBody(resp.Body(), symbol)
	if err != nil {
		return nil, err
	}

	return &Ticker{
		Symbol:             pair,
		LastPrice:          parseFloat(payload.LastPrice),
		PriceChange:        parseFloat(payload.PriceChange),
		PriceChangePercent: parseFloat(payload.PriceChangePercent),
		HighPrice:          parseFloat(payload.HighPrice),
		LowPrice:           parseFloat(payload.LowPrice),
		Volume:             parseFloat(payload.Volume),
	}, nil
}

func decodeTickerBody(body []byte, symbol string) (*ticker24hPayload, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var payloads []ticker24hPayload
		if err := json.Unmarshal(body, &payloads); err != nil {
			return nil, fmt.Errorf("decode ticker list for %s: %w", symbol, err)
		}
		for i := range payloads {
			if payloads[i].Symbol == symbol {
				return &payloads[i], nil
			}
		}
		return nil, fmt.Errorf("symbol %s not present in ticker response", symbol)
	}

	var payload ticker24hPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode ticker for %s: %w", symbol, err)
	}
	return &payload, nil
}

// parseFloat mirrors the upstream contract of "0 when absent or junk".
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
