// Package market implements the per-city economic simulation: a reduced
// stochastic price process (the default) and an agent population model.
// Both are steppable, deterministic for a given seed and call sequence, and
// round-trip through a flat Snapshot.
//
// A Market is not safe for concurrent use. Step and the external trade calls
// must be invoked sequentially from one control flow.
package market

import "math"

// Model names a market implementation.
type Model string

const (
	ModelPrice      Model = "price"      // Per-good mid-price process
	ModelPopulation Model = "population" // Utility-maximizing agents
)

// Unlimited is the budget for orders the caller does not cap.
const Unlimited = math.MaxInt

// Market is the behavior shared by every city simulator.
type Market interface {
	// Model reports which implementation backs the market.
	Model() Model
	// NumGoods is the fixed number of goods the market trades.
	NumGoods() int

	// Step advances the simulation by one tick.
	Step()

	// ExternalBuy executes a player purchase of amount units of good.
	ExternalBuy(good int, markup float64, amount int) Fill
	// ExternalSell executes a player sale of amount units of good.
	ExternalSell(good int, markdown float64, amount int) Fill
	// Buy is ExternalBuy with the player's budget as a cap on the total paid.
	Buy(o Order) Fill
	// Sell is ExternalSell taking an Order. Cities pay from their own purse,
	// so o.Budget is ignored.
	Sell(o Order) Fill

	// BuyPrice is the current price a player pays per unit (the ask).
	BuyPrice(good int) float64
	// SellPrice is the current price a player receives per unit (the bid).
	SellPrice(good int) float64
	// ReferencePrice is the single price used for charts and reports.
	ReferencePrice(good int) float64
	// Prices returns ask and bid for every good.
	Prices() []Quote

	// Snapshot captures configuration and state for persistence.
	Snapshot() Snapshot
}

// Order is a player trade request.
type Order struct {
	Good   int
	Factor float64 // Markup for buys, markdown for sells
	Amount int
	Budget int // Maximum gold a buyer will spend; Unlimited for no cap
}

// Fill describes what an order actually did.
type Fill struct {
	Good      int `json:"good"`
	Requested int `json:"requested"`
	Units     int `json:"units"` // Units that changed hands
	Total     int `json:"total"` // Gold that changed hands, truncated per unit
}

// AvgPrice returns the average gold per filled unit.
func (f Fill) AvgPrice() float64 {
	if f.Units == 0 {
		return 0
	}
	return float64(f.Total) / float64(f.Units)
}

// Quote is the ask/bid pair for one good.
type Quote struct {
	Good int     `json:"good"`
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// quotes assembles Prices for any market.
func quotes(m Market) []Quote {
	out := make([]Quote, m.NumGoods())
	for g := range out {
		out[g] = Quote{Good: g, Buy: m.BuyPrice(g), Sell: m.SellPrice(g)}
	}
	return out
}

// gold truncates a price toward zero into whole gold, clamped to
// [0, math.MaxInt].
func gold(price float64) int {
	switch {
	case price <= 0 || math.IsNaN(price):
		return 0
	case price >= math.MaxInt:
		return math.MaxInt
	}
	return int(price)
}

// addGold sums two non-negative gold amounts, saturating at math.MaxInt.
func addGold(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
