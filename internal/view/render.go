// Package view is the presentation boundary: it turns plain data from the
// valuation and execution code into styled terminal output. No other
// package formats for display.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"github.com/vadiminshakov/tradeboard/internal/notify"
	"github.com/vadiminshakov/tradeboard/internal/pnl"
	"github.com/vadiminshakov/tradeboard/internal/state"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	gain      = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	loss      = lipgloss.AdaptiveColor{Light: "#E25D5D", Dark: "#F87171"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(subtle)

	gainStyle = lipgloss.NewStyle().Foreground(gain).Bold(true)
	lossStyle = lipgloss.NewStyle().Foreground(loss).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(subtle)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1).
			MarginRight(1)

	toastStyles = map[notify.Level]lipgloss.Style{
		notify.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		notify.LevelSuccess: lipgloss.NewStyle().Foreground(gain),
		notify.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		notify.LevelError:   lipgloss.NewStyle().Foreground(loss).Bold(true),
	}
)

// Renderer builds the terminal dashboard from state snapshots.
type Renderer struct {
	pair domain.Pair
}

// NewRenderer creates a renderer for the given trading pair.
func NewRenderer(pair domain.Pair) *Renderer {
	return &Renderer{pair: pair}
}

// Render produces the full dashboard screen.
func (r *Renderer) Render(snap state.Snapshot, valuation pnl.Valuation, toasts []notify.Toast) string {
	var b strings.Builder

	b.WriteString(r.header(snap))
	b.WriteString("\n")

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(r.positionPanel(snap, valuation)),
		panelStyle.Render(r.balancesPanel(snap)),
		panelStyle.Render(r.advicePanel(snap)),
	)
	b.WriteString(panels)
	b.WriteString("\n")

	b.WriteString(panelStyle.Render(r.tradesPanel(snap)))
	b.WriteString("\n")

	if len(toasts) > 0 {
		b.WriteString(r.toasts(toasts))
	}

	return b.String()
}

func (r *Renderer) header(snap state.Snapshot) string {
	status := "STOPPED"
	if snap.BotRunning {
		status = "RUNNING"
	}
	conn := snap.FeedState
	if conn == "" {
		conn = "connecting"
	}

	title := headerStyle.Render(fmt.Sprintf(" %s ", r.pair.String()))
	price := Currency(snap.Position.CurrentPrice)
	if !snap.APIAvailable {
		price = "unavailable"
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		title,
		price,
		labelStyle.Render("bot: "+status),
		labelStyle.Render("feed: "+conn))
}

func (r *Renderer) positionPanel(snap state.Snapshot, valuation pnl.Valuation) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("POSITION") + "\n")

	if !snap.Position.HasPosition {
		b.WriteString(dimStyle.Render("flat, holding " + r.pair.To))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("amount    %s %s\n", Amount(snap.Position.Amount), r.pair.From))
	b.WriteString(fmt.Sprintf("entry     %s\n", Currency(snap.Position.EntryPrice)))
	b.WriteString(fmt.Sprintf("current   %s\n", Currency(snap.Position.CurrentPrice)))

	unreal := valuation.Unrealized
	line := fmt.Sprintf("%s (%s)", Currency(unreal.PnL), Percent(unreal.Pct))
	b.WriteString("unreal    " + pnlStyle(unreal.PnL.Sign()).Render(line) + "\n")

	if valuation.IfSold != nil {
		b.WriteString(fmt.Sprintf("if sold   %s\n", pnlStyle(valuation.IfSold.NetProfit.Sign()).Render(Currency(valuation.IfSold.NetProfit))))
		b.WriteString(fmt.Sprintf("breakeven %s", Currency(valuation.IfSold.BreakEven)))
	}
	return b.String()
}

func (r *Renderer) balancesPanel(snap state.Snapshot) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("BALANCES") + "\n")
	b.WriteString(fmt.Sprintf("%-5s %s\n", r.pair.From, Amount(snap.Balances.Base)))
	b.WriteString(fmt.Sprintf("%-5s %s\n", r.pair.To, Currency(snap.Balances.Quote)))

	if snap.GridLevels.BuyThreshold.IsPositive() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("buy@  %s\n", Currency(snap.GridLevels.BuyThreshold))))
	}
	if snap.GridLevels.SellThreshold.IsPositive() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("sell@ %s", Currency(snap.GridLevels.SellThreshold))))
	}
	return b.String()
}

func (r *Renderer) advicePanel(snap state.Snapshot) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("AI CO-PILOT") + "\n")

	if snap.Advice == nil {
		b.WriteString(dimStyle.Render("no advice yet"))
		return b.String()
	}

	b.WriteString(snap.Advice.Message + "\n")
	if snap.Advice.Action != "" {
		b.WriteString(fmt.Sprintf("action: %s  confidence: %s", snap.Advice.Action, Percent(snap.Advice.Confidence)))
	}
	return b.String()
}

func (r *Renderer) tradesPanel(snap state.Snapshot) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("RECENT TRADES") + "\n")

	if len(snap.Trades) == 0 {
		b.WriteString(dimStyle.Render("no trades yet"))
		return b.String()
	}

	for _, t := range snap.Trades {
		line := fmt.Sprintf("%s  %-4s %s @ %s",
			t.Timestamp.Format("15:04:05"),
			t.Side.String(),
			Amount(t.Amount),
			Currency(t.Price))
		if !t.Profit.IsZero() {
			line += "  " + pnlStyle(t.Profit.Sign()).Render(Currency(t.Profit))
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) toasts(toasts []notify.Toast) string {
	var b strings.Builder
	for _, toast := range toasts {
		style, ok := toastStyles[toast.Level]
		if !ok {
			style = dimStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("[%s] %s: %s", toast.Level, toast.Title, toast.Message)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pnlStyle(sign int) lipgloss.Style {
	switch {
	case sign > 0:
		return gainStyle
	case sign < 0:
		return lossStyle
	default:
		return dimStyle
	}
}
