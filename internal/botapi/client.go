// Package botapi is the REST client for the external trading-bot server.
// All endpoints are consumed from, not defined by, this system.
package botapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultSnapshotTimeout = 5 * time.Second
	recentTradesCap        = 20
)

// APIError is a non-2xx response from the bot server. The body is kept
// verbatim so the orchestration layer can surface it to the user as is.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bot api: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client talks to the bot server REST API. Snapshot reads use a bounded
// timeout; trade submission deliberately does not, because a slow response
// must be awaited to conclusion to avoid ambiguous double-submit risk.
type Client struct {
	baseURL      string
	snapshotHTTP *http.Client
	tradeHTTP    *http.Client
	logger       *zap.Logger
}

// NewClient creates a bot API client. snapshotTimeout <= 0 falls back to
// the 5s default.
func NewClient(baseURL string, snapshotTimeout time.Duration, logger *zap.Logger) *Client {
	if snapshotTimeout <= 0 {
		snapshotTimeout = defaultSnapshotTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		snapshotHTTP: &http.Client{Timeout: snapshotTimeout},
		tradeHTTP:    &http.Client{},
		logger:       logger,
	}
}

// GetPositionPnL fetches the current position snapshot.
func (c *Client) GetPositionPnL(ctx context.Context) (*PositionPnL, error) {
	var out PositionPnL
	if err := c.getJSON(ctx, "/api/position/pnl", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatus fetches bot status and balances.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.getJSON(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRecentTrades fetches the trade history, capped to the most recent 20
// entries for rendering. The server returns newest first.
func (c *Client) GetRecentTrades(ctx context.Context) ([]domain.TradeRecord, error) {
	var wire []wireTrade
	if err := c.getJSON(ctx, "/api/trades/recent", &wire); err != nil {
		return nil, err
	}
	if len(wire) > recentTradesCap {
		wire = wire[:recentTradesCap]
	}

	out := make([]domain.TradeRecord, 0, len(wire))
	for _, w := range wire {
		record, err := w.toDomain()
		if err != nil {
			c.logger.Warn("skipping malformed trade record", zap.Error(err))
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// GetGridLevels fetches the bot's buy/sell threshold prices.
func (c *Client) GetGridLevels(ctx context.Context) (*domain.GridLevels, error) {
	var wire wireGridLevels
	if err := c.getJSON(ctx, "/api/grid/levels", &wire); err != nil {
		return nil, err
	}
	return &domain.GridLevels{
		BuyThreshold:  wire.BuyThresholdPrice,
		SellThreshold: wire.SellThresholdPrice,
	}, nil
}

// GetCandles fetches historical candles for the symbol and timeframe.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]domain.Candle, error) {
	path := fmt.Sprintf("/api/candles/%s/%s?limit=%d", symbol, timeframe, limit)
	var wire []wireCandle
	if err := c.getJSON(ctx, path, &wire); err != nil {
		return nil, err
	}

	out := make([]domain.Candle, len(wire))
	for i, w := range wire {
		out[i] = domain.Candle{
			Time:   time.Unix(w.Time, 0),
			Open:   w.Open,
			High:   w.High,
			Low:    w.Low,
			Close:  w.Close,
			Volume: w.Volume,
		}
	}
	return out, nil
}

// SubmitManualTrade posts a confirmed trade to the bot server. No client
// timeout shorter than the execution window is applied and the request is
// never retried.
func (c *Client) SubmitManualTrade(ctx context.Context, intent domain.TradeIntent, clientOrderID string) (*domain.TradeRecord, error) {
	req := manualTradeRequest{
		Action:        intent.Side.String(),
		Amount:        intent.Amount,
		Price:         intent.Price,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ClientOrderID: clientOrderID,
	}

	var resp manualTradeResponse
	if err := c.postJSON(ctx, c.tradeHTTP, "/api/manual-trade", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "trade rejected by bot server"
		}
		return nil, errors.New(msg)
	}

	if resp.Trade == nil {
		return nil, nil
	}
	record, err := resp.Trade.toDomain()
	if err != nil {
		return nil, errors.Wrap(err, "parse trade result")
	}
	return &record, nil
}

// Chat requests advice from the bot's AI endpoint.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*Advice, error) {
	var advice Advice
	if err := c.postJSON(ctx, c.snapshotHTTP, "/api/chat", req, &advice); err != nil {
		return nil, err
	}
	advice.ReceivedAt = time.Now()
	return &advice, nil
}

// AILog ships an event to the advisory logging sink. Failures are logged
// and swallowed: the sink is fire-and-forget from this system's view.
func (c *Client) AILog(ctx context.Context, payload any) {
	if err := c.postJSON(ctx, c.snapshotHTTP, "/api/ai-log", payload, nil); err != nil {
		c.logger.Debug("ai-log post failed", zap.Error(err))
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}

	resp, err := c.snapshotHTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "marshal request %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

func (w wireTrade) toDomain() (domain.TradeRecord, error) {
	side, ok := domain.SideFromString(w.Action)
	if !ok {
		return domain.TradeRecord{}, errors.Errorf("unknown trade action %q", w.Action)
	}

	ts, err := time.Parse(time.RFC3339, w.Timestamp)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrapf(err, "parse trade timestamp %q", w.Timestamp)
	}

	return domain.TradeRecord{
		Timestamp: ts,
		Side:      side,
		Amount:    w.Amount,
		Price:     w.Price,
		Profit:    w.Profit,
	}, nil
}
