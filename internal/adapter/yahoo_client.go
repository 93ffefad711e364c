// Package adapter provides clients for external market-data providers.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stock-tracker/internal/config"
	"github.com/stock-tracker/internal/retry"
	"github.com/stock-tracker/internal/types"
	"golang.org/x/time/rate"
)

const userAgent = "stock-tracker/1.0"

// YahooClient fetches quotes, screeners, trending symbols, and price
// history from the public Yahoo Finance endpoints.
type YahooClient struct {
	chartBaseURL string // v8 chart host
	queryBaseURL string // v1/v7 search, screener, trending, batch quote host
	client       *http.Client
	limiter      *rate.Limiter
	retryConfig  *retry.Config
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient(cfg *config.YahooConfig) *YahooClient {
	return &YahooClient{
		chartBaseURL: strings.TrimRight(cfg.QuoteBaseURL, "/"),
		queryBaseURL: strings.TrimRight(cfg.QueryBaseURL, "/"),
		client:       &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		retryConfig:  retry.DefaultConfig(),
	}
}

// getJSON performs a rate-limited GET with retry on transient failures
// (network errors, 5xx, 429) and decodes the response body into out.
// Other non-2xx statuses fail without retry.
func (c *YahooClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	var body []byte

	err := retry.WithExponentialBackoff(ctx, c.retryConfig, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.Transient(fmt.Errorf("yahoo http %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("yahoo http %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.Transient(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode yahoo response: %w", err)
	}
	return nil
}

// chartResponse is the subset of the v8 chart payload the client reads
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetQuote returns the latest market price and currency for one ticker
func (c *YahooClient) GetQuote(ctx context.Context, ticker string) (*types.Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	rawURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d",
		c.chartBaseURL, url.PathEscape(ticker))

	var raw chartResponse
	if err := c.getJSON(ctx, rawURL, &raw); err != nil {
		return nil, err
	}

	if len(raw.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result for %s", ticker)
	}

	meta := raw.Chart.Result[0].Meta
	price := decimal.NewFromFloat(meta.RegularMarketPrice)
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("non-positive price %s for %s", price, ticker)
	}

	return &types.Quote{
		Ticker:   ticker,
		Price:    price,
		Currency: meta.Currency,
	}, nil
}

// yahooQuoteItem is one entry of a v7 quote or screener response
type yahooQuoteItem struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
	RegularMarketPrice         float64  `json:"regularMarketPrice"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64    `json:"regularMarketVolume"`
	MarketCap                  *float64 `json:"marketCap"`
}

func (q *yahooQuoteItem) toMarketQuote() types.MarketQuote {
	name := q.ShortName
	if name == "" {
		name = q.LongName
	}
	return types.MarketQuote{
		Symbol:        q.Symbol,
		Name:          name,
		Price:         q.RegularMarketPrice,
		Change:        q.RegularMarketChange,
		ChangePercent: q.RegularMarketChangePercent,
		Volume:        q.RegularMarketVolume,
		MarketCap:     q.MarketCap,
	}
}

// BatchQuotes fetches market quotes for up to a few dozen symbols at once
func (c *YahooClient) BatchQuotes(ctx context.Context, symbols []string) ([]types.MarketQuote, error) {
	if len(symbols) == 0 {
		return []types.MarketQuote{}, nil
	}

	rawURL := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		c.queryBaseURL, url.QueryEscape(strings.Join(symbols, ",")))

	var raw struct {
		QuoteResponse struct {
			Result []yahooQuoteItem `json:"result"`
			Error  interface{}      `json:"error"`
		} `json:"quoteResponse"`
	}
	if err := c.getJSON(ctx, rawURL, &raw); err != nil {
		return nil, err
	}

	quotes := make([]types.MarketQuote, 0, len(raw.QuoteResponse.Result))
	for i := range raw.QuoteResponse.Result {
		quotes = append(quotes, raw.QuoteResponse.Result[i].toMarketQuote())
	}
	return quotes, nil
}

// Search returns the symbols of equities matching a keyword query
func (c *YahooClient) Search(ctx context.Context, query string) ([]string, error) {
	rawURL := fmt.Sprintf("%s/v1/finance/search?q=%s", c.queryBaseURL, url.QueryEscape(query))

	var raw struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			QuoteType string `json:"quoteType"`
		} `json:"quotes"`
	}
	if err := c.getJSON(ctx, rawURL, &raw); err != nil {
		return nil, err
	}

	var symbols []string
	for _, q := range raw.Quotes {
		if q.QuoteType == "EQUITY" {
			symbols = append(symbols, q.Symbol)
		}
	}
	return symbols, nil
}

// Screener fetches a predefined Yahoo screener (day_gainers, day_losers)
func (c *YahooClient) Screener(ctx context.Context, screenerID string, count int) ([]types.MarketQuote, error) {
	rawURL := fmt.Sprintf("%s/v1/finance/screener/predefined/saved?scrIds=%s&count=%d&start=0&lang=en-US&region=US",
		c.queryBaseURL, url.QueryEscape(screenerID), count)

	var raw struct {
		Finance struct {
			Result []struct {
				Quotes []yahooQuoteItem `json:"quotes"`
			} `json:"result"`
		} `json:"finance"`
	}
	if err := c.getJSON(ctx, rawURL, &raw); err != nil {
		return nil, err
	}

	if len(raw.Finance.Result) == 0 {
		return []types.MarketQuote{}, nil
	}

	items := raw.Finance.Result[0].Quotes
	quotes := make([]types.MarketQuote, 0, len(items))
	for i := range items {
		quotes = append(quotes, items[i].toMarketQuote())
	}
	return quotes, nil
}

// TrendingSymbols returns the symbols currently trending in a region
func (c *YahooClient) TrendingSymbols(ctx context.Context, region string, count int) ([]string, error) {
	rawURL := fmt.Sprintf("%s/v1/finance/trending/%s?count=%d&lang=en-US",
		c.queryBaseURL, url.PathEscape(region), count)

	var raw struct {
		Finance struct {
			Result []struct {
				Quotes []struct {
					Symbol string `json:"symbol"`
				} `json:"quotes"`
			} `json:"result"`
		} `json:"finance"`
	}
	if err := c.getJSON(ctx, rawURL, &raw); err != nil {
		return nil, err
	}

	if len(raw.Finance.Result) == 0 {
		return nil, nil
	}

	var symbols []string
	for _, q := range raw.Finance.Result[0].Quotes {
		symbols = append(symbols, q.Symbol)
	}
	return symbols, nil
}

// History returns daily (or other interval) bars between period1 and
// period2. Bars with a null open are skipped, matching gaps in Yahoo's
// data for halted sessions.
func (c *YahooClient) History(ctx context.Context, ticker string, period1, period2 time.Time, interval string) ([]types.Candle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if interval == "" {
		interval = "1d"
	}

	rawURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s",
		c.chartBaseURL, url.PathEscape(ticker), period1.Unix(), period2.Unix(), url.QueryEscape(interval))

	var raw chartResponse
	if err := c.getJSON(ctx, rawURL, &raw); err != nil {
		return nil, err
	}

	if len(raw.Chart.Result) == 0 {
		return nil, fmt.Errorf("no history for %s", ticker)
	}

	result := raw.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []types.Candle{}, nil
	}

	bars := result.Indicators.Quote[0]
	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	candles := make([]types.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(bars.Open) || bars.Open[i] == nil {
			continue
		}

		candle := types.Candle{
			Date: time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open: *bars.Open[i],
		}
		if i < len(bars.High) && bars.High[i] != nil {
			candle.High = *bars.High[i]
		}
		if i < len(bars.Low) && bars.Low[i] != nil {
			candle.Low = *bars.Low[i]
		}
		if i < len(bars.Close) && bars.Close[i] != nil {
			candle.Close = *bars.Close[i]
		}
		if i < len(bars.Volume) && bars.Volume[i] != nil {
			candle.Volume = *bars.Volume[i]
		}
		if i < len(adjClose) && adjClose[i] != nil {
			candle.AdjClose = *adjClose[i]
		}
		candles = append(candles, candle)
	}
	return candles, nil
}
