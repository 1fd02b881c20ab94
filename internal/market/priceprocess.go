package market

import (
	"fmt"
	"math"

	"github.com/talgya/mini-market/internal/economy"
	"github.com/talgya/mini-market/internal/entropy"
)

// Price process defaults, used for missing configuration and snapshot fields.
const (
	DefaultNumGoods       = 4
	DefaultBasePrice      = 10.0
	DefaultStickiness     = 2.0
	DefaultBuyImpact      = 0.25
	DefaultSellImpact     = 0.25
	DefaultDrift          = 0.1
	DefaultCrossInfluence = 0.05
	DefaultSpread         = 0.05
)

// Mid-price bounds.
const (
	MinPrice        = 0.01
	CeilingMultiple = 2.5 // Mid never exceeds base * CeilingMultiple after a step
)

// PriceConfig tunes a PriceProcess. BasePrice and Stickiness set the good count.
type PriceConfig struct {
	BasePrice      []float64
	Stickiness     []float64
	BuyImpact      float64
	SellImpact     float64
	Drift          float64
	CrossInfluence float64
	Spread         float64 // Bid/ask half-width as a fraction of mid
}

// DefaultPriceConfig returns the default tuning for numGoods goods.
func DefaultPriceConfig(numGoods int) PriceConfig {
	cfg := PriceConfig{
		BasePrice:      make([]float64, numGoods),
		Stickiness:     make([]float64, numGoods),
		BuyImpact:      DefaultBuyImpact,
		SellImpact:     DefaultSellImpact,
		Drift:          DefaultDrift,
		CrossInfluence: DefaultCrossInfluence,
		Spread:         DefaultSpread,
	}
	for g := 0; g < numGoods; g++ {
		cfg.BasePrice[g] = DefaultBasePrice
		cfg.Stickiness[g] = DefaultStickiness
	}
	return cfg
}

// Validate reports configuration that would break the price invariants.
func (c PriceConfig) Validate() error {
	if len(c.BasePrice) == 0 {
		return fmt.Errorf("price config: no goods")
	}
	if len(c.Stickiness) != len(c.BasePrice) {
		return fmt.Errorf("price config: %d stickiness values for %d goods", len(c.Stickiness), len(c.BasePrice))
	}
	for g := range c.BasePrice {
		if !(c.BasePrice[g] > 0) {
			return fmt.Errorf("price config: good %d base price %v must be positive", g, c.BasePrice[g])
		}
		if !(c.Stickiness[g] > 0) {
			return fmt.Errorf("price config: good %d stickiness %v must be positive", g, c.Stickiness[g])
		}
	}
	return nil
}

// PriceProcess tracks one mid-price per good anchored to a base price.
// Each step applies random drift, cross-good bleed and mean reversion;
// player orders push the mid with logarithmic impact.
type PriceProcess struct {
	cfg   PriceConfig
	mid   []float64
	delta []float64 // Drift applied to each good in the current step
	rng   *entropy.Source
}

// NewPriceProcess creates a price process with every mid at its base price.
func NewPriceProcess(cfg PriceConfig, rng *entropy.Source) (*PriceProcess, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BasePrice = append([]float64(nil), cfg.BasePrice...)
	cfg.Stickiness = append([]float64(nil), cfg.Stickiness...)
	return &PriceProcess{
		cfg:   cfg,
		mid:   append([]float64(nil), cfg.BasePrice...),
		delta: make([]float64, len(cfg.BasePrice)),
		rng:   rng,
	}, nil
}

// Model implements Market.
func (p *PriceProcess) Model() Model { return ModelPrice }

// NumGoods implements Market.
func (p *PriceProcess) NumGoods() int { return len(p.mid) }

// Config returns a copy of the tuning.
func (p *PriceProcess) Config() PriceConfig {
	c := p.cfg
	c.BasePrice = append([]float64(nil), p.cfg.BasePrice...)
	c.Stickiness = append([]float64(nil), p.cfg.Stickiness...)
	return c
}

// Mid returns the current mid-price of good.
func (p *PriceProcess) Mid(good int) float64 {
	economy.MustIndex(good, len(p.mid))
	return p.mid[good]
}

// SetMid overrides the mid-price of good, floored at MinPrice.
func (p *PriceProcess) SetMid(good int, price float64) {
	economy.MustIndex(good, len(p.mid))
	p.mid[good] = math.Max(price, MinPrice)
}

// Step advances every mid-price by one tick.
func (p *PriceProcess) Step() {
	n := len(p.mid)

	// Bounded random drift.
	for g := 0; g < n; g++ {
		p.delta[g] = p.rng.Range(-1, 1) * p.cfg.Drift
		p.mid[g] += p.delta[g]
	}

	// Each good's drift bleeds into every other good with a random sign.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			p.mid[i] += p.delta[j] * p.cfg.CrossInfluence * p.rng.Sign()
		}
	}

	for g := 0; g < n; g++ {
		base := p.cfg.BasePrice[g]
		p.mid[g] += (base - p.mid[g]) / (p.cfg.Stickiness[g] * 2)
		p.mid[g] = math.Min(math.Max(p.mid[g], MinPrice), base*CeilingMultiple)
	}
}

// ExternalBuy implements Market.
func (p *PriceProcess) ExternalBuy(good int, markup float64, amount int) Fill {
	return p.Buy(Order{Good: good, Factor: markup, Amount: amount, Budget: Unlimited})
}

// ExternalSell implements Market.
func (p *PriceProcess) ExternalSell(good int, markdown float64, amount int) Fill {
	return p.Sell(Order{Good: good, Factor: markdown, Amount: amount, Budget: Unlimited})
}

// Buy fills the order at the current ask, capped by the budget, then pushes
// the mid up once for the whole filled amount.
func (p *PriceProcess) Buy(o Order) Fill {
	economy.MustIndex(o.Good, len(p.mid))
	f := Fill{Good: o.Good, Requested: o.Amount}
	if o.Amount <= 0 {
		return f
	}

	ask := p.BuyPrice(o.Good)
	units := o.Amount
	if o.Budget != Unlimited {
		if affordable := float64(o.Budget) / ask; affordable < float64(units) {
			units = int(affordable)
		}
	}
	if units <= 0 {
		return f
	}

	f.Units = units
	f.Total = gold(ask * float64(units))
	p.push(o.Good, 1, p.cfg.BuyImpact, units, o.Factor)
	return f
}

// Sell fills the order at the current bid, then pushes the mid down once.
func (p *PriceProcess) Sell(o Order) Fill {
	economy.MustIndex(o.Good, len(p.mid))
	f := Fill{Good: o.Good, Requested: o.Amount}
	if o.Amount <= 0 {
		return f
	}

	f.Units = o.Amount
	f.Total = gold(p.SellPrice(o.Good) * float64(o.Amount))
	p.push(o.Good, -1, p.cfg.SellImpact, o.Amount, o.Factor)
	return f
}

// push moves good's mid in direction dir. Impact grows with the log of the
// order size and shrinks the further the mid already sits from base in that
// direction.
func (p *PriceProcess) push(good int, dir, impact float64, amount int, factor float64) {
	size := 1 + float64(amount)*factor
	if size <= 1 {
		return
	}
	base := p.cfg.BasePrice[good]
	deviation := math.Max(0, dir*(p.mid[good]-base)/base)
	resistance := 1 / (1 + deviation*p.cfg.Stickiness[good])

	p.mid[good] += dir * impact * math.Log(size) * resistance
	if p.mid[good] < MinPrice {
		p.mid[good] = MinPrice
	}
}

// BuyPrice implements Market: mid * (1 + spread).
func (p *PriceProcess) BuyPrice(good int) float64 {
	economy.MustIndex(good, len(p.mid))
	return p.mid[good] * (1 + p.cfg.Spread)
}

// SellPrice implements Market: mid * (1 - spread), never negative.
func (p *PriceProcess) SellPrice(good int) float64 {
	economy.MustIndex(good, len(p.mid))
	return math.Max(0, p.mid[good]*(1-p.cfg.Spread))
}

// ReferencePrice implements Market with the mid-price.
func (p *PriceProcess) ReferencePrice(good int) float64 {
	return p.Mid(good)
}

// Prices implements Market.
func (p *PriceProcess) Prices() []Quote {
	return quotes(p)
}
