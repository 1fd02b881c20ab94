package agents

import "math"

// Utility returns the value of holding x units of good g:
// S / ((x/D)^3 + 1). It equals S at x = 0 and falls toward 0 as x grows.
func (a *Agent) Utility(g, x int) float64 {
	s, d := a.BaseValue[g], a.HalfUtility[g]
	if d <= 0 {
		if x == 0 {
			return s
		}
		return 0
	}
	r := float64(x) / d
	return s / (r*r*r + 1)
}

// CurrentUtility is the utility of the agent's current holding of g.
func (a *Agent) CurrentUtility(g int) float64 {
	return a.Utility(g, a.Goods[g])
}

// PotentialUtility is the utility the agent would have with one more unit of g.
func (a *Agent) PotentialUtility(g int) float64 {
	return a.Utility(g, a.Goods[g]+1)
}

// IsBuyer reports whether the agent believes g is priced below the utility
// of one more unit.
func (a *Agent) IsBuyer(g int) bool {
	return a.Expected[g] < a.PotentialUtility(g)
}

// IsSeller reports whether the agent believes g is priced at or above the
// utility of what it already holds.
func (a *Agent) IsSeller(g int) bool {
	return a.Expected[g] >= a.CurrentUtility(g)
}

// CanTrade reports whether a buyer could pay its own price belief for g.
func (a *Agent) CanTrade(g int) bool {
	return float64(a.Money) >= a.Expected[g]
}

// BestGood returns the good with the highest current utility. The first
// index wins ties.
func (a *Agent) BestGood() (int, float64) {
	best, bestU := 0, math.Inf(-1)
	for g := range a.Goods {
		if u := a.CurrentUtility(g); u > bestU {
			best, bestU = g, u
		}
	}
	return best, bestU
}

// MaxExpected returns the highest price belief across goods.
func (a *Agent) MaxExpected() float64 {
	m := math.Inf(-1)
	for _, e := range a.Expected {
		if e > m {
			m = e
		}
	}
	return m
}

// Raise moves the belief about g up by one volatility step.
func (a *Agent) Raise(g int) {
	a.Expected[g] += a.Volatility
}

// Lower moves the belief about g down by one volatility step, never below 0.
func (a *Agent) Lower(g int) {
	a.Expected[g] -= a.Volatility
	if a.Expected[g] < 0 {
		a.Expected[g] = 0
	}
}

// NudgeToward moves the belief about g one step toward target. Equal
// beliefs are left alone.
func (a *Agent) NudgeToward(g int, target float64) {
	switch {
	case target > a.Expected[g]:
		a.Raise(g)
	case target < a.Expected[g]:
		a.Lower(g)
	}
}
