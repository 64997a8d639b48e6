package domain

// Side represents the direction of a trade.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// side string constants to avoid magic strings
const (
	sideStringBuy  = "BUY"
	sideStringSell = "SELL"
)

// String returns the string representation of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return sideStringBuy
	case SideSell:
		return sideStringSell
	default:
		return "unknown"
	}
}

// SideFromString parses a side from its wire representation.
// The bot API uses upper-case action strings.
func SideFromString(s string) (Side, bool) {
	switch s {
	case sideStringBuy, "buy":
		return SideBuy, true
	case sideStringSell, "sell":
		return SideSell, true
	}
	return 0, false
}
