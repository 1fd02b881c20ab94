// Agent behavior: the once-per-step produce/consume decision and breakage.
package agents

import "math"

// Rand is the random stream breakage draws from.
type Rand interface {
	Float() float64
}

// Decide picks this step's action. The agent produces its highest-utility
// good when that good is worth no more than its best price belief and still
// beats leisure; otherwise a hungry agent holding that good eats one unit.
func (a *Agent) Decide() Action {
	best, u := a.BestGood()

	if u <= a.MaxExpected() && u >= a.BaseLeisure {
		return Action{Kind: ActionProduce, Good: best}
	}
	if a.Hunger >= a.Expected[best] && a.Goods[best] >= 1 {
		return Action{Kind: ActionConsume, Good: best}
	}
	return Action{Kind: ActionIdle, Good: best}
}

// ProductionUnits is how many units one production action yields for an
// agent, given the market's base production quantity. Always at least 1.
func (a *Agent) ProductionUnits(quantity float64) int {
	n := int(math.Round(a.BaseWork * quantity))
	if n < 1 {
		return 1
	}
	return n
}

// Apply carries out an action decided by Decide.
func (a *Agent) Apply(action Action, quantity float64) {
	switch action.Kind {
	case ActionProduce:
		a.Goods[action.Good] += a.ProductionUnits(quantity)
	case ActionConsume:
		if a.Goods[action.Good] > 0 {
			a.Goods[action.Good]--
		}
		a.Hunger = 0
	}
}

// Break destroys each held unit independently with probability chance and
// returns how many units were lost.
func (a *Agent) Break(rng Rand, chance float64) int {
	if chance <= 0 {
		return 0
	}
	lost := 0
	for g, qty := range a.Goods {
		broken := 0
		for i := 0; i < qty; i++ {
			if rng.Float() < chance {
				broken++
			}
		}
		a.Goods[g] -= broken
		if a.Goods[g] < 0 {
			a.Goods[g] = 0
		}
		lost += broken
	}
	return lost
}
