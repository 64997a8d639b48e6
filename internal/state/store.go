// Package state owns the in-memory dashboard state. Every mutation point
// is a method on Store so it stays enumerable and testable away from any
// presentation code.
package state

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

// recentTradesCap bounds the trade list held for rendering; the
// authoritative history lives server-side.
const recentTradesCap = 20

// Advice is the latest AI co-pilot message.
type Advice struct {
	Message    string
	Action     string
	Confidence decimal.Decimal
	ReceivedAt time.Time
}

// Snapshot is an immutable copy of the dashboard state handed to the
// view-binding layer and the SSE server.
type Snapshot struct {
	Position     domain.Position
	Balances     domain.Balances
	Trades       []domain.TradeRecord
	GridLevels   domain.GridLevels
	BotRunning   bool
	FeedState    string
	Advice       *Advice
	APIAvailable bool
	UpdatedAt    time.Time
}

// Store holds the mutable dashboard state. Read-only refreshes (ticks,
// periodic polls) interleave freely and simply overwrite fields:
// last-write-wins, staleness is corrected by the next tick. The one
// ordering rule lives in the balance generation counter: an authoritative
// snapshot always beats an optimistic post-trade update that raced it.
type Store struct {
	mu sync.RWMutex

	position   domain.Position
	balances   domain.Balances
	balanceGen uint64
	trades     []domain.TradeRecord
	gridLevels domain.GridLevels
	botRunning bool
	feedState  string
	advice     *Advice
	apiOK      bool
	updatedAt  time.Time

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetPosition replaces the position wholesale.
func (s *Store) SetPosition(p domain.Position) {
	s.mu.Lock()
	s.position = p
	s.touch()
	s.mu.Unlock()
}

// Position returns the current position.
func (s *Store) Position() domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// SetBalances applies an authoritative balance snapshot and bumps the
// generation counter, invalidating any optimistic update still in flight.
func (s *Store) SetBalances(b domain.Balances) {
	s.mu.Lock()
	s.balances = b
	s.balanceGen++
	s.touch()
	s.mu.Unlock()
}

// Balances returns the current balances together with the generation the
// caller should pass back to ApplyOptimisticBalances.
func (s *Store) Balances() (domain.Balances, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances, s.balanceGen
}

// ApplyOptimisticBalances applies a locally computed post-trade balance,
// but only when no authoritative snapshot has landed since basedOn was
// read: the authoritative fetch always wins if it arrives later. Returns
// whether the write was applied.
func (s *Store) ApplyOptimisticBalances(b domain.Balances, basedOn uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balanceGen != basedOn {
		return false
	}
	s.balances = b
	s.touch()
	return true
}

// SetTrades replaces the recent-trade list, newest first, capped for
// rendering.
func (s *Store) SetTrades(trades []domain.TradeRecord) {
	s.mu.Lock()
	if len(trades) > recentTradesCap {
		trades = trades[:recentTradesCap]
	}
	s.trades = append([]domain.TradeRecord(nil), trades...)
	s.touch()
	s.mu.Unlock()
}

// PrependTrade pushes a freshly executed trade to the head of the list.
func (s *Store) PrependTrade(t domain.TradeRecord) {
	s.mu.Lock()
	s.trades = append([]domain.TradeRecord{t}, s.trades...)
	if len(s.trades) > recentTradesCap {
		s.trades = s.trades[:recentTradesCap]
	}
	s.touch()
	s.mu.Unlock()
}

// SetGridLevels stores the bot's threshold prices.
func (s *Store) SetGridLevels(g domain.GridLevels) {
	s.mu.Lock()
	s.gridLevels = g
	s.touch()
	s.mu.Unlock()
}

// SetBotRunning flags whether the bot reports itself running.
func (s *Store) SetBotRunning(running bool) {
	s.mu.Lock()
	s.botRunning = running
	s.touch()
	s.mu.Unlock()
}

// SetFeedState records the WebSocket connection state for display.
func (s *Store) SetFeedState(state string) {
	s.mu.Lock()
	s.feedState = state
	s.touch()
	s.mu.Unlock()
}

// SetAdvice stores the latest co-pilot message.
func (s *Store) SetAdvice(a Advice) {
	s.mu.Lock()
	s.advice = &a
	s.touch()
	s.mu.Unlock()
}

// SetAPIAvailable flags whether the last snapshot poll succeeded; a false
// value renders as a clearly marked "unavailable" display.
func (s *Store) SetAPIAvailable(ok bool) {
	s.mu.Lock()
	s.apiOK = ok
	s.touch()
	s.mu.Unlock()
}

// Snapshot returns a copy of the full dashboard state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Position:     s.position,
		Balances:     s.balances,
		Trades:       append([]domain.TradeRecord(nil), s.trades...),
		GridLevels:   s.gridLevels,
		BotRunning:   s.botRunning,
		FeedState:    s.feedState,
		APIAvailable: s.apiOK,
		UpdatedAt:    s.updatedAt,
	}
	if s.advice != nil {
		a := *s.advice
		snap.Advice = &a
	}
	return snap
}

func (s *Store) touch() {
	s.updatedAt = s.now()
}
