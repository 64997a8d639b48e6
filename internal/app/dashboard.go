// Package app wires the dashboard together: REST snapshot polling, the
// realtime feed, the profit engine, the chart state, the copilot loop and
// the render/serve surfaces all run under one errgroup.
package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/config"
	"github.com/vadiminshakov/tradeboard/internal/botapi"
	"github.com/vadiminshakov/tradeboard/internal/chart"
	"github.com/vadiminshakov/tradeboard/internal/copilot"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"github.com/vadiminshakov/tradeboard/internal/feed"
	"github.com/vadiminshakov/tradeboard/internal/market"
	"github.com/vadiminshakov/tradeboard/internal/metrics"
	"github.com/vadiminshakov/tradeboard/internal/notify"
	"github.com/vadiminshakov/tradeboard/internal/pnl"
	"github.com/vadiminshakov/tradeboard/internal/state"
	"github.com/vadiminshakov/tradeboard/internal/trade"
	"github.com/vadiminshakov/tradeboard/internal/tui"
	"github.com/vadiminshakov/tradeboard/internal/view"
	"github.com/vadiminshakov/tradeboard/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	renderInterval = time.Second
	candleHistory  = 100
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Dashboard owns every long-running component of the client.
type Dashboard struct {
	cfg        config.Config
	api        *botapi.Client
	store      *state.Store
	engine     *pnl.Engine
	executor   *trade.Executor
	feed       *feed.Client
	roller     *chart.Roller
	markers    *chart.Markers
	priceLines *chart.PriceLines
	copilot    *copilot.Copilot
	notifier   *notify.Notifier
	renderer   *view.Renderer
	web        *web.Server
	fallback   *market.BinanceProvider
	logger     *zap.Logger

	// out receives rendered frames, in supplies trade commands;
	// both swappable for tests.
	out io.Writer
	in  io.Reader

	// renderMu keeps frame redraws off the terminal while the
	// confirmation form owns it.
	renderMu sync.Mutex
}

// New assembles a dashboard from configuration.
func New(cfg config.Config, logger *zap.Logger) (*Dashboard, error) {
	mode, err := copilot.ParseMode(cfg.CopilotMode)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		cfg:        cfg,
		api:        botapi.NewClient(cfg.APIBase, 0, logger),
		store:      state.NewStore(),
		engine:     pnl.New(decimal.Decimal{}, decimal.Decimal{}, decimal.Decimal{}, cfg.FeeRate, false),
		roller:     chart.NewRoller(chart.IntervalSeconds(cfg.Timeframe)),
		markers:    chart.NewMarkers(),
		priceLines: chart.NewPriceLines(),
		renderer:   view.NewRenderer(cfg.Pair),
		logger:     logger,
		out:        os.Stdout,
		in:         os.Stdin,
	}

	d.notifier = notify.New(logger, nil)

	d.executor = trade.NewExecutor(trade.ExecutorConfig{
		Limits: trade.Limits{
			MinTradeSize: cfg.MinTradeSize,
			MaxTradeSize: cfg.MaxTradeSize,
			FeeRate:      cfg.FeeRate,
		},
		Cooldown: cfg.Cooldown,
	}, tui.NewConfirmer(), d.api, nil, logger)

	d.feed = feed.NewClient(feed.Config{URL: cfg.WSURL}, logger)

	if cfg.BinanceFallback {
		d.fallback = market.NewBinanceProvider(binance.NewClient("", ""))
	}

	d.copilot = copilot.New(d.api, d.store, d.indicatorSummary, d.submitSuggestion, copilot.Config{
		Mode:            mode,
		OpinionInterval: cfg.CopilotInterval,
		SuggestAmount:   cfg.CopilotAmount,
	}, logger)

	d.web = web.NewServer(cfg.WebAddr, d.store, logger)
	d.web.Trades = d

	d.registerFeedHandlers()

	return d, nil
}

// Run blocks until ctx is cancelled or a component fails fatally.
func (d *Dashboard) Run(ctx context.Context) error {
	d.bootstrap(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := d.feed.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return d.pollLoop(ctx)
	})
	g.Go(func() error {
		err := d.copilot.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if len(d.cfg.TLSDomains) > 0 {
			return d.web.StartWithAutoTLS(ctx, d.cfg.TLSDomains, d.cfg.CertCache)
		}
		return d.web.Start(ctx)
	})
	g.Go(func() error {
		return d.renderLoop(ctx)
	})
	g.Go(func() error {
		return d.inputLoop(ctx)
	})

	err := g.Wait()
	d.feed.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bootstrap loads the initial snapshot and candle history. Failures here
// are not fatal, the poll loop retries on its interval.
func (d *Dashboard) bootstrap(ctx context.Context) {
	d.refreshSnapshot(ctx)

	candles, err := d.api.GetCandles(ctx, d.cfg.Pair.Symbol(), d.cfg.Timeframe, candleHistory)
	if (err != nil || len(candles) == 0) && d.fallback != nil {
		candles, err = d.fallback.GetCandles(ctx, d.cfg.Pair, d.cfg.Timeframe, market.TimeframeLimit(d.cfg.Timeframe))
	}
	if err != nil {
		d.logger.Warn("candle history unavailable", zap.Error(err))
		return
	}
	if len(candles) > 0 {
		d.roller.Seed(candles[len(candles)-1])
	}

	// no price from the bot server yet; show the market price until the
	// first snapshot or tick lands
	if d.fallback != nil && d.store.Position().CurrentPrice.IsZero() {
		price, err := d.fallback.GetPrice(ctx, d.cfg.Pair)
		if err != nil {
			d.logger.Warn("fallback price unavailable", zap.Error(err))
			return
		}
		d.applyPrice(time.Now(), price)
	}
}

func (d *Dashboard) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.refreshSnapshot(ctx)
		}
	}
}

// refreshSnapshot pulls the authoritative state from the bot server.
func (d *Dashboard) refreshSnapshot(ctx context.Context) {
	ok := true

	if pos, err := d.api.GetPositionPnL(ctx); err != nil {
		ok = false
		metrics.PollErrors.WithLabelValues("position").Inc()
		d.logger.Warn("position poll failed", zap.Error(err))
	} else {
		position := domain.Position{
			HasPosition:  pos.HasPosition,
			Amount:       pos.Amount,
			EntryPrice:   pos.EntryPrice,
			CurrentPrice: pos.CurrentPrice,
		}
		d.store.SetPosition(position)
		d.engine.SetPosition(pos.Amount, pos.EntryPrice, pos.CurrentPrice, pos.HasPosition)
		d.publishValuation()
	}

	if status, err := d.api.GetStatus(ctx); err != nil {
		ok = false
		metrics.PollErrors.WithLabelValues("status").Inc()
		d.logger.Warn("status poll failed", zap.Error(err))
	} else {
		d.store.SetBalances(domain.Balances{
			Base:  status.Balance[d.cfg.Pair.From],
			Quote: status.Balance[d.cfg.Pair.To],
		})
		d.store.SetBotRunning(status.BotRunning)
	}

	if trades, err := d.api.GetRecentTrades(ctx); err != nil {
		ok = false
		metrics.PollErrors.WithLabelValues("trades").Inc()
		d.logger.Warn("trades poll failed", zap.Error(err))
	} else {
		d.store.SetTrades(trades)
	}

	if levels, err := d.api.GetGridLevels(ctx); err != nil {
		ok = false
		metrics.PollErrors.WithLabelValues("grid").Inc()
		d.logger.Warn("grid poll failed", zap.Error(err))
	} else {
		d.store.SetGridLevels(*levels)
		d.priceLines.Set("Buy Grid", levels.BuyThreshold, "#22c55e")
		d.priceLines.Set("Sell Grid", levels.SellThreshold, "#ef4444")
	}

	d.store.SetAPIAvailable(ok)
}

func (d *Dashboard) registerFeedHandlers() {
	d.feed.OnStateChange(func(s feed.State) {
		d.store.SetFeedState(s.String())
		switch s {
		case feed.StateOpen:
			metrics.FeedConnected.Set(1)
		case feed.StateConnecting:
			metrics.FeedReconnects.Inc()
			metrics.FeedConnected.Set(0)
		default:
			metrics.FeedConnected.Set(0)
		}
	})

	d.feed.On(feed.TypePriceUpdate, func(raw json.RawMessage) {
		metrics.FeedMessages.WithLabelValues(feed.TypePriceUpdate).Inc()
		var upd feed.PriceUpdate
		if err := codec.Unmarshal(raw, &upd); err != nil {
			d.logger.Warn("bad price_update payload", zap.Error(err))
			return
		}
		d.applyPrice(time.Unix(upd.Timestamp, 0), upd.Price)
	})

	d.feed.On(feed.TypeTradeExecuted, func(raw json.RawMessage) {
		metrics.FeedMessages.WithLabelValues(feed.TypeTradeExecuted).Inc()
		var exec feed.TradeExecuted
		if err := codec.Unmarshal(raw, &exec); err != nil {
			d.logger.Warn("bad trade_executed payload", zap.Error(err))
			return
		}
		side, ok := domain.SideFromString(exec.Action)
		if !ok {
			d.logger.Warn("trade_executed with unknown action", zap.String("action", exec.Action))
			return
		}
		ts := time.Unix(exec.Timestamp, 0)
		d.store.PrependTrade(domain.TradeRecord{
			Timestamp: ts,
			Side:      side,
			Amount:    exec.Amount,
			Price:     exec.Price,
			Profit:    exec.Profit,
		})
		d.markers.Mark(ts, side, exec.Price)
		d.notifier.Info("Bot trade", fmt.Sprintf("%s %s @ %s",
			side.String(), view.Amount(exec.Amount), view.Currency(exec.Price)))
	})

	d.feed.On(feed.TypeStatusChange, func(raw json.RawMessage) {
		metrics.FeedMessages.WithLabelValues(feed.TypeStatusChange).Inc()
		var change feed.StatusChange
		if err := codec.Unmarshal(raw, &change); err != nil {
			d.logger.Warn("bad status_change payload", zap.Error(err))
			return
		}
		d.store.SetBotRunning(change.Running)
		if change.Running {
			d.notifier.Success("Bot started", change.Reason)
		} else {
			d.notifier.Warning("Bot stopped", change.Reason)
		}
	})

	d.feed.On(feed.TypeAIAdvice, func(raw json.RawMessage) {
		metrics.FeedMessages.WithLabelValues(feed.TypeAIAdvice).Inc()
		var advice feed.AIAdvice
		if err := codec.Unmarshal(raw, &advice); err != nil {
			d.logger.Warn("bad ai_advice payload", zap.Error(err))
			return
		}
		d.store.SetAdvice(state.Advice{
			Message:    advice.Message,
			Action:     advice.Action,
			Confidence: advice.Confidence,
			ReceivedAt: time.Now(),
		})
	})

	d.feed.On(feed.TypeModeChange, func(raw json.RawMessage) {
		metrics.FeedMessages.WithLabelValues(feed.TypeModeChange).Inc()
		var change feed.ModeChange
		if err := codec.Unmarshal(raw, &change); err != nil {
			d.logger.Warn("bad mode_change payload", zap.Error(err))
			return
		}
		mode, err := copilot.ParseMode(change.Mode)
		if err != nil {
			d.logger.Warn("mode_change with unknown mode", zap.String("mode", change.Mode))
			return
		}
		d.copilot.SetMode(mode)
	})

	d.feed.On(feed.TypeStatus, func(raw json.RawMessage) {
		metrics.FeedMessages.WithLabelValues(feed.TypeStatus).Inc()
		var status botapi.Status
		if err := codec.Unmarshal(raw, &status); err != nil {
			d.logger.Warn("bad status payload", zap.Error(err))
			return
		}
		d.store.SetBalances(domain.Balances{
			Base:  status.Balance[d.cfg.Pair.From],
			Quote: status.Balance[d.cfg.Pair.To],
		})
		d.store.SetBotRunning(status.BotRunning)
	})

	// keepalive frames carry no state
	noop := func(json.RawMessage) {}
	d.feed.On(feed.TypeHeartbeat, noop)
	d.feed.On(feed.TypePong, noop)
}

// applyPrice routes one price observation through the profit engine, the
// chart roller and the position shown on screen.
func (d *Dashboard) applyPrice(t time.Time, price decimal.Decimal) {
	d.engine.UpdatePrice(price)
	d.roller.Tick(t, price)

	pos := d.store.Position()
	pos.CurrentPrice = price
	d.store.SetPosition(pos)

	d.publishValuation()
}

func (d *Dashboard) publishValuation() {
	valuation := d.engine.UpdatePrice(d.engine.CurrentPrice())
	pnlFloat, _ := valuation.Unrealized.PnL.Float64()
	metrics.UnrealizedPnL.Set(pnlFloat)
}

// ExecuteTrade runs a manual trade through validation, confirmation and
// submission, then applies the optimistic side effects.
func (d *Dashboard) ExecuteTrade(ctx context.Context, intent domain.TradeIntent) trade.Outcome {
	balances, gen := d.store.Balances()

	// the confirmation form owns the terminal for the duration
	d.renderMu.Lock()
	outcome := d.executor.Execute(ctx, intent, balances)
	d.renderMu.Unlock()

	switch outcome.State {
	case trade.StateRejected:
		metrics.TradesRejected.WithLabelValues(outcome.Verdict.Reason.String()).Inc()
		d.notifier.Warning("Trade rejected", outcome.Verdict.Message)
	case trade.StateCancelled:
		d.notifier.Info("Trade cancelled", "")
	case trade.StateConfirmed:
		metrics.TradesSubmitted.WithLabelValues(intent.Side.String()).Inc()
		metrics.TradesConfirmed.WithLabelValues(intent.Side.String()).Inc()
		d.store.ApplyOptimisticBalances(trade.ApplyFill(balances, intent, outcome.Verdict.Quote), gen)
		if outcome.Record != nil {
			d.store.PrependTrade(*outcome.Record)
			d.markers.Mark(outcome.Record.Timestamp, intent.Side, intent.Price)
		}
		d.notifier.Success("Trade executed", fmt.Sprintf("%s %s @ %s",
			intent.Side.String(), view.Amount(intent.Amount), view.Currency(intent.Price)))
	case trade.StateFailed:
		metrics.TradesSubmitted.WithLabelValues(intent.Side.String()).Inc()
		metrics.TradesFailed.Inc()
		d.notifier.Error("Trade failed", fmt.Sprintf("%v", outcome.Err))
	}

	return outcome
}

// submitSuggestion adapts ExecuteTrade for the copilot. The intent still
// passes validation and the interactive confirmation prompt.
func (d *Dashboard) submitSuggestion(ctx context.Context, intent domain.TradeIntent) {
	d.ExecuteTrade(ctx, intent)
}

// indicatorSummary computes copilot context from recent candles, falling
// back to Binance when the bot server has no history.
func (d *Dashboard) indicatorSummary(ctx context.Context) (market.Summary, error) {
	candles, err := d.api.GetCandles(ctx, d.cfg.Pair.Symbol(), d.cfg.Timeframe, candleHistory)
	if (err != nil || len(candles) == 0) && d.fallback != nil {
		candles, err = d.fallback.GetCandles(ctx, d.cfg.Pair, d.cfg.Timeframe, market.TimeframeLimit(d.cfg.Timeframe))
	}
	if err != nil {
		return market.Summary{}, err
	}

	return market.Summarize(candles)
}

func (d *Dashboard) renderLoop(ctx context.Context) error {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.renderFrame()
		}
	}
}

func (d *Dashboard) renderFrame() {
	d.renderMu.Lock()
	defer d.renderMu.Unlock()

	valuation := d.engine.UpdatePrice(d.engine.CurrentPrice())
	frame := d.renderer.Render(d.store.Snapshot(), valuation, d.notifier.Recent(3))
	// clear screen and move the cursor home before each frame
	fmt.Fprint(d.out, "\033[2J\033[H"+frame)
}

// inputLoop reads trade commands line by line. It is the keyboard side
// of manual trading; the web server accepts the same intents over HTTP.
func (d *Dashboard) inputLoop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(d.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// stdin closed; trading stays available over HTTP
				return nil
			}
			d.handleCommand(ctx, line)
		}
	}
}

func (d *Dashboard) handleCommand(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	cmd := strings.ToLower(fields[0])
	switch cmd {
	case "buy", "sell":
		if len(fields) != 2 {
			d.notifier.Warning("Bad command", "usage: buy|sell <amount>")
			return
		}
		amount, err := decimal.NewFromString(fields[1])
		if err != nil {
			d.notifier.Warning("Bad command", fmt.Sprintf("amount %q is not a decimal", fields[1]))
			return
		}
		side, _ := domain.SideFromString(cmd)
		d.ExecuteTrade(ctx, domain.TradeIntent{
			Side:   side,
			Amount: amount,
			Price:  d.engine.CurrentPrice(),
		})
	case "mode":
		if len(fields) != 2 {
			d.notifier.Warning("Bad command", "usage: mode opinion|suggest|copilot")
			return
		}
		mode, err := copilot.ParseMode(fields[1])
		if err != nil {
			d.notifier.Warning("Bad command", err.Error())
			return
		}
		d.copilot.SetMode(mode)
		d.notifier.Info("Copilot mode", string(mode))
	default:
		d.notifier.Warning("Unknown command", fields[0])
	}
}
