package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPushAndRecent(t *testing.T) {
	var pushed []Toast
	n := New(zap.NewNop(), func(toast Toast) { pushed = append(pushed, toast) })

	n.Info("connected", "feed is live")
	n.Success("trade executed", "BUY 0.01 @ $50000.00")
	n.Error("trade failed", "insufficient quote balance")

	require.Len(t, pushed, 3)

	recent := n.Recent(2)
	require.Len(t, recent, 2)
	require.Equal(t, "trade failed", recent[0].Title)
	require.Equal(t, LevelError, recent[0].Level)
	require.Equal(t, "trade executed", recent[1].Title)
	require.NotEmpty(t, recent[0].ID)
}

func TestRingCapped(t *testing.T) {
	n := New(zap.NewNop(), nil)
	for i := 0; i < 75; i++ {
		n.Info("toast", fmt.Sprintf("#%d", i))
	}

	all := n.Recent(0)
	require.Len(t, all, 50)
	require.Equal(t, "#74", all[0].Message)
	require.Equal(t, "#25", all[49].Message)
}
