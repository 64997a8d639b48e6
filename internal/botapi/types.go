package botapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionPnL is the GET /api/position/pnl payload.
type PositionPnL struct {
	HasPosition      bool            `json:"has_position"`
	Amount           decimal.Decimal `json:"amount"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPct decimal.Decimal `json:"unrealized_pnl_pct"`
}

// Status is the GET /api/status payload. Balance is keyed by asset symbol.
type Status struct {
	Balance      map[string]decimal.Decimal `json:"balance"`
	BotRunning   bool                       `json:"bot_running"`
	CurrentPrice decimal.Decimal            `json:"current_price"`
	Position     string                     `json:"position"`
}

// wireTrade is a single GET /api/trades/recent entry.
type wireTrade struct {
	Timestamp string          `json:"timestamp"`
	Action    string          `json:"action"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Profit    decimal.Decimal `json:"profit"`
}

// wireGridLevels is the GET /api/grid/levels payload.
type wireGridLevels struct {
	BuyThresholdPrice  decimal.Decimal `json:"buy_threshold_price"`
	SellThresholdPrice decimal.Decimal `json:"sell_threshold_price"`
}

// wireCandle is a single GET /api/candles entry; time is unix seconds.
type wireCandle struct {
	Time   int64           `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// manualTradeRequest is the POST /api/manual-trade body.
type manualTradeRequest struct {
	Action        string          `json:"action"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	Timestamp     string          `json:"timestamp"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// manualTradeResponse is the POST /api/manual-trade result.
type manualTradeResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Trade   *wireTrade `json:"trade"`
}

// ChatRequest is the POST /api/chat body: a question plus the current
// trading context the advisor reasons over.
type ChatRequest struct {
	Message string      `json:"message"`
	Mode    string      `json:"mode,omitempty"`
	Context ChatContext `json:"context"`
}

// ChatContext is the dashboard state snapshot attached to advice requests.
type ChatContext struct {
	CurrentPrice  decimal.Decimal `json:"current_price"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	BaseBalance   decimal.Decimal `json:"base_balance"`
	QuoteBalance  decimal.Decimal `json:"quote_balance"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RSI14         decimal.Decimal `json:"rsi_14,omitempty"`
	EMA20         decimal.Decimal `json:"ema_20,omitempty"`
	Trend         string          `json:"trend,omitempty"`
}

// Advice is the POST /api/chat response.
type Advice struct {
	Message    string          `json:"message"`
	Action     string          `json:"action"`
	Confidence decimal.Decimal `json:"confidence"`
	ReceivedAt time.Time       `json:"-"`
}
