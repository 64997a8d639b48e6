package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradeboard/config"
	"github.com/vadiminshakov/tradeboard/internal/copilot"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"github.com/vadiminshakov/tradeboard/internal/metrics"
	"go.uber.org/zap"
)

func testConfig(apiBase string) config.Config {
	return config.Config{
		Pair:            domain.Pair{From: "BTC", To: "USDT"},
		APIBase:         apiBase,
		WSURL:           "ws://127.0.0.1:1/ws",
		FeeRate:         decimal.NewFromFloat(0.001),
		MinTradeSize:    decimal.NewFromFloat(0.001),
		MaxTradeSize:    decimal.NewFromFloat(0.1),
		Cooldown:        5 * time.Second,
		Timeframe:       "1h",
		PollInterval:    time.Second,
		WebAddr:         ":0",
		CopilotMode:     "opinion",
		CopilotInterval: time.Hour,
	}
}

func botServerStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/position/pnl", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"has_position":true,"amount":"0.01","entry_price":"50000","current_price":"51000","unrealized_pnl":"10","unrealized_pnl_pct":"2"}`)
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"balance":{"BTC":"0.5","USDT":"10000"},"bot_running":true,"current_price":"51000","position":"long"}`)
	})
	mux.HandleFunc("/api/trades/recent", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"timestamp":"2026-08-28T10:00:00Z","action":"BUY","amount":"0.01","price":"50000","profit":"0"}]`)
	})
	mux.HandleFunc("/api/grid/levels", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"buy_threshold_price":"49000","sell_threshold_price":"53000"}`)
	})
	mux.HandleFunc("/api/candles/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"time":1756360800,"open":"50000","high":"51200","low":"49800","close":"51000","volume":"12"}]`)
	})

	return httptest.NewServer(mux)
}

func TestRefreshSnapshot(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)

	d.refreshSnapshot(context.Background())

	snap := d.store.Snapshot()
	require.True(t, snap.APIAvailable)
	require.True(t, snap.Position.HasPosition)
	require.True(t, snap.Position.EntryPrice.Equal(decimal.NewFromInt(50000)))
	require.True(t, snap.Balances.Base.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, snap.Balances.Quote.Equal(decimal.NewFromInt(10000)))
	require.True(t, snap.BotRunning)
	require.Len(t, snap.Trades, 1)
	require.True(t, snap.GridLevels.BuyThreshold.Equal(decimal.NewFromInt(49000)))

	lines := d.priceLines.All()
	require.Len(t, lines, 2)

	// engine picked up the polled position
	valuation := d.engine.UpdatePrice(decimal.NewFromInt(51000))
	require.True(t, valuation.Unrealized.PnL.Equal(decimal.NewFromInt(10)))
}

func TestRefreshSnapshotServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)

	d.refreshSnapshot(context.Background())
	require.False(t, d.store.Snapshot().APIAvailable)
}

func TestBootstrapSeedsRoller(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)

	d.bootstrap(context.Background())

	current, ok := d.roller.Current()
	require.True(t, ok)
	require.True(t, current.Close.Equal(decimal.NewFromInt(51000)))
}

func TestApplyPriceUpdatesEngineAndChart(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)

	d.refreshSnapshot(context.Background())
	d.applyPrice(time.Now(), decimal.NewFromInt(52000))

	snap := d.store.Snapshot()
	require.True(t, snap.Position.CurrentPrice.Equal(decimal.NewFromInt(52000)))

	current, ok := d.roller.Current()
	require.True(t, ok)
	require.True(t, current.Close.Equal(decimal.NewFromInt(52000)))

	valuation := d.engine.UpdatePrice(d.engine.CurrentPrice())
	require.True(t, valuation.Unrealized.PnL.Equal(decimal.NewFromInt(20)))
}

func TestRenderFrameWritesToOut(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)
	var buf bytes.Buffer
	d.out = &buf

	d.refreshSnapshot(context.Background())
	d.renderFrame()

	require.Contains(t, buf.String(), "BTC_USDT")
}

func TestHandleCommandRoutesTrade(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)
	d.refreshSnapshot(context.Background())

	submittedBefore := testutil.ToFloat64(metrics.TradesSubmitted.WithLabelValues("BUY"))

	// below the minimum size, rejected before any confirmation prompt
	d.handleCommand(context.Background(), "buy 0.0001")

	toasts := d.notifier.Recent(1)
	require.Len(t, toasts, 1)
	require.Equal(t, "Trade rejected", toasts[0].Title)

	// locally rejected intents never count as submissions
	require.Equal(t, submittedBefore, testutil.ToFloat64(metrics.TradesSubmitted.WithLabelValues("BUY")))
}

func TestHandleCommandModeAndUnknown(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)

	d.handleCommand(context.Background(), "mode suggest")
	require.Equal(t, copilot.ModeSuggest, d.copilot.Mode())

	d.handleCommand(context.Background(), "jump")
	require.Equal(t, "Unknown command", d.notifier.Recent(1)[0].Title)

	d.handleCommand(context.Background(), "buy lots")
	require.Equal(t, "Bad command", d.notifier.Recent(1)[0].Title)
}

func TestInputLoopReadsUntilEOF(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)
	d.in = strings.NewReader("mode copilot\n")

	require.NoError(t, d.inputLoop(context.Background()))
	require.Equal(t, copilot.ModeCopilot, d.copilot.Mode())
}

func TestNewWiresTradeEndpoint(t *testing.T) {
	ts := botServerStub(t)
	defer ts.Close()

	d, err := New(testConfig(ts.URL), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, d.web.Trades)
}

func TestNewRejectsUnknownCopilotMode(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.CopilotMode = "autopilot"

	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
}
