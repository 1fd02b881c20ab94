package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-market/internal/agents"
	"github.com/talgya/mini-market/internal/entropy"
)

// With S=10 and D=3: U(0)=10, U(1)=270/28, U(3)=5, U(4)=270/91, U(5)=270/152.
func trader(goods, money int, expected, volatility float64) *agents.Agent {
	return &agents.Agent{
		Goods:       []int{goods},
		Money:       money,
		Expected:    []float64{expected},
		BaseValue:   []float64{10},
		HalfUtility: []float64{3},
		Volatility:  volatility,
	}
}

func market1(pop ...*agents.Agent) *Population {
	cfg := DefaultPopulationConfig(1)
	cfg.Agents = len(pop)
	cfg.HungerRate = 0
	cfg.BreakChance = 0
	return newPopulation(cfg, pop, entropy.New(3))
}

func TestClearMatchedPair(t *testing.T) {
	tests := []struct {
		name          string
		buyer, seller *agents.Agent

		traded                    bool
		buyerMoney, sellerMoney   int
		buyerGoods, sellerGoods   int
		buyerBelief, sellerBelief float64
	}{
		{
			name:   "trade at the seller's belief, truncated",
			buyer:  trader(0, 10, 6, 0.5),
			seller: trader(4, 0, 5.75, 0.25),
			traded: true,
			// Paid trunc(5.75) = 5.
			buyerMoney: 5, sellerMoney: 5,
			buyerGoods: 1, sellerGoods: 3,
			buyerBelief: 5.5, sellerBelief: 6,
		},
		{
			name:       "buyer belief below the ask",
			buyer:      trader(0, 10, 4, 0.5),
			seller:     trader(4, 0, 5, 0.25),
			buyerMoney: 10, sellerMoney: 0,
			buyerGoods: 0, sellerGoods: 4,
			buyerBelief: 4.5, sellerBelief: 4.75,
		},
		{
			name:       "buyer cannot pay",
			buyer:      trader(0, 3, 6, 0.5),
			seller:     trader(4, 0, 5, 0.25),
			buyerMoney: 3, sellerMoney: 0,
			buyerGoods: 0, sellerGoods: 4,
			buyerBelief: 6.5, sellerBelief: 4.75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.buyer.IsBuyer(0))
			require.False(t, tt.seller.IsBuyer(0))
			require.True(t, tt.seller.IsSeller(0))

			p := market1(tt.buyer, tt.seller)
			p.clear(0)

			if tt.traded {
				assert.Equal(t, 1, p.trades)
			} else {
				assert.Equal(t, 0, p.trades)
			}
			assert.Equal(t, tt.buyerMoney, tt.buyer.Money)
			assert.Equal(t, tt.sellerMoney, tt.seller.Money)
			assert.Equal(t, tt.buyerGoods, tt.buyer.Goods[0])
			assert.Equal(t, tt.sellerGoods, tt.seller.Goods[0])
			assert.Equal(t, tt.buyerBelief, tt.buyer.Expected[0])
			assert.Equal(t, tt.sellerBelief, tt.seller.Expected[0])
		})
	}
}

func TestClearUnmatchedBuyers(t *testing.T) {
	solvent := trader(0, 10, 6, 0.5)
	broke := trader(0, 2, 6, 0.5)
	idle := trader(3, 10, 4, 0.5) // U(4) <= 4 < U(3)
	require.False(t, idle.IsBuyer(0))
	require.False(t, idle.IsSeller(0))

	p := market1(solvent, broke, idle)
	p.clear(0)

	assert.Equal(t, 6.5, solvent.Expected[0], "could trade, raises")
	assert.Equal(t, 6.0, broke.Expected[0], "cannot pay its belief, holds")
	assert.Equal(t, 4.0, idle.Expected[0])
	assert.Equal(t, 0, p.trades)
}

func TestClearUnmatchedSellers(t *testing.T) {
	stocked := trader(4, 0, 5, 0.25)
	empty := trader(0, 0, 12, 0.25) // 12 >= U(0) but never a buyer
	idle := trader(3, 10, 4, 0.5)
	require.True(t, empty.IsSeller(0))
	require.False(t, empty.IsBuyer(0))

	p := market1(stocked, empty, idle)
	p.clear(0)

	assert.Equal(t, 4.75, stocked.Expected[0], "has stock, lowers")
	assert.Equal(t, 12.0, empty.Expected[0], "nothing to sell, holds")
	assert.Equal(t, 4.0, idle.Expected[0])
	assert.Equal(t, 4, stocked.Goods[0])
}

func TestRumorStepsTowardPeer(t *testing.T) {
	a := trader(0, 0, 2, 0.5)
	b := trader(0, 0, 5, 0.25)
	p := market1(a, b)
	p.rumor()

	// a moves toward 5, then b toward a's new 2.5.
	assert.Equal(t, 2.5, a.Expected[0])
	assert.Equal(t, 4.75, b.Expected[0])

	// Beliefs spaced wider than any step move exactly one step each.
	low := trader(0, 0, 1, 0.5)
	mid := trader(0, 0, 5, 0.25)
	high := trader(0, 0, 9, 0.125)
	p = market1(low, mid, high)
	p.rumor()

	assert.Equal(t, 1.5, low.Expected[0])
	assert.Equal(t, 8.875, high.Expected[0])
	assert.InDelta(t, 0.25, math.Abs(mid.Expected[0]-5), 1e-12)

	same := trader(0, 0, 3, 0.5)
	twin := trader(0, 0, 3, 0.5)
	p = market1(same, twin)
	p.rumor()
	assert.Equal(t, 3.0, same.Expected[0], "equal beliefs hold")
	assert.Equal(t, 3.0, twin.Expected[0])
}


func TestNewPopulationRejectsMismatchedAgents(t *testing.T) {
	assert.Panics(t, func() {
		newPopulation(DefaultPopulationConfig(2), []*agents.Agent{trader(1, 1, 1, 1)}, entropy.New(1))
	})
}
