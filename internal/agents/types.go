// Package agents provides the economic actor used by population markets:
// per-good inventory, money, price beliefs and the utility model behind
// every buy/sell decision.
package agents

import "fmt"

// ActionKind enumerates what an agent does before the market opens each step.
type ActionKind uint8

const (
	ActionIdle    ActionKind = iota // Available for trade only
	ActionProduce                   // Adds units of the highest-utility good
	ActionConsume                   // Eats one unit, resets hunger
)

// String returns the action name for logs.
func (k ActionKind) String() string {
	switch k {
	case ActionProduce:
		return "produce"
	case ActionConsume:
		return "consume"
	default:
		return "idle"
	}
}

// Agent is one economic actor in a city market. Every per-good slice has the
// market's good count as its length.
type Agent struct {
	Goods    []int     `json:"goods"`    // Inventory, never negative
	Money    int       `json:"money"`    // Currency holdings, never negative
	Expected []float64 `json:"expected"` // Belief about each good's market price

	BaseValue   []float64 `json:"base_value"`   // S: utility of the first unit
	HalfUtility []float64 `json:"half_utility"` // D: diminishing-returns scale

	Volatility  float64 `json:"volatility"`   // Belief step size
	BaseWork    float64 `json:"base_work"`    // Production yield multiplier
	BaseLeisure float64 `json:"base_leisure"` // Utility floor below which the agent won't produce
	Hunger      float64 `json:"hunger"`       // Accumulates each step until the agent eats
}

// Action is an agent's decision for one step.
type Action struct {
	Kind ActionKind
	Good int
}

// NumGoods returns the dimensionality of the agent's per-good state.
func (a *Agent) NumGoods() int {
	return len(a.Goods)
}

// Validate checks that every per-good slice has length n.
func (a *Agent) Validate(n int) error {
	switch {
	case a.NumGoods() != n:
		return fmt.Errorf("goods has %d entries, want %d", a.NumGoods(), n)
	case len(a.Expected) != n:
		return fmt.Errorf("expected has %d entries, want %d", len(a.Expected), n)
	case len(a.BaseValue) != n:
		return fmt.Errorf("base value has %d entries, want %d", len(a.BaseValue), n)
	case len(a.HalfUtility) != n:
		return fmt.Errorf("half utility has %d entries, want %d", len(a.HalfUtility), n)
	}
	return nil
}

// Clone returns a deep copy.
func (a *Agent) Clone() *Agent {
	c := *a
	c.Goods = append([]int(nil), a.Goods...)
	c.Expected = append([]float64(nil), a.Expected...)
	c.BaseValue = append([]float64(nil), a.BaseValue...)
	c.HalfUtility = append([]float64(nil), a.HalfUtility...)
	return &c
}
