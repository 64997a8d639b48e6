// Package tui holds the interactive terminal prompts.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"github.com/vadiminshakov/tradeboard/internal/trade"
	"github.com/vadiminshakov/tradeboard/internal/view"
)

var (
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)
)

// Confirmer presents the trade summary and the risk acknowledgment in the
// terminal. The confirm action stays disabled until the risk toggle is
// accepted; the context deadline auto-cancels the prompt.
type Confirmer struct{}

// NewConfirmer creates the interactive confirmer.
func NewConfirmer() *Confirmer {
	return &Confirmer{}
}

// Confirm renders the bounded-time confirmation prompt. Returns false on
// explicit cancel and on deadline expiry.
func (c *Confirmer) Confirm(ctx context.Context, intent domain.TradeIntent, quote trade.Quote) (bool, error) {
	totalLabel := "Total Cost"
	if intent.Side == domain.SideSell {
		totalLabel = "Total Proceeds"
	}

	summary := summaryStyle.Render(fmt.Sprintf(
		"Amount:    %s\nPrice:     %s\nValue:     %s\nFee:       %s\n%s: %s",
		view.Amount(intent.Amount),
		view.Currency(intent.Price),
		view.Currency(quote.Value),
		view.Currency(quote.Fee),
		totalLabel,
		view.Currency(quote.Total)))

	var (
		riskAccepted bool
		confirmed    bool
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Confirm %s", intent.Side.String())).
				Description(summary+"\n"+warnStyle.Render("Trading involves significant risk. You can lose capital.")),
			huh.NewConfirm().
				Title("I understand the risks").
				Value(&riskAccepted),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Submit %s now?", intent.Side.String())).
				Affirmative("Confirm Trade").
				Negative("Cancel").
				Value(&confirmed),
		).WithHideFunc(func() bool { return !riskAccepted }),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false, err
		}
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, errors.Wrap(err, "confirmation prompt")
	}

	return riskAccepted && confirmed, nil
}
