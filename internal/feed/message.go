package feed

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Message type discriminators pushed by the bot server.
const (
	TypePriceUpdate   = "price_update"
	TypeTradeExecuted = "trade_executed"
	TypeStatusChange  = "status_change"
	TypeAIAdvice      = "ai_advice"
	TypeModeChange    = "mode_change"
	TypeHeartbeat     = "heartbeat"
	TypePong          = "pong"
	TypeStatus        = "status"
)

// Message is the envelope every push message arrives in. Data is decoded
// lazily by the handler registered for the type.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PriceUpdate is the payload of a price_update message.
type PriceUpdate struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
}

// TradeExecuted is the payload of a trade_executed message.
type TradeExecuted struct {
	Action    string          `json:"action"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
	Profit    decimal.Decimal `json:"profit"`
}

// StatusChange is the payload of a status_change message.
type StatusChange struct {
	Running bool   `json:"running"`
	Reason  string `json:"reason"`
}

// AIAdvice is the payload of an ai_advice message.
type AIAdvice struct {
	Message    string          `json:"message"`
	Action     string          `json:"action"`
	Confidence decimal.Decimal `json:"confidence"`
}

// ModeChange is the payload of a mode_change message.
type ModeChange struct {
	Mode string `json:"mode"`
}
