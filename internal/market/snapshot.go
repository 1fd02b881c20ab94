// Snapshot adapter: flat key/value form of every market for save files.
package market

import (
	"strconv"

	"github.com/talgya/mini-market/internal/agents"
	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/kv"
)

// Snapshot is a market's configuration and state as nested key/value data.
// It survives encoding/json and any other text format that preserves
// those shapes.
type Snapshot = kv.Map

// Snapshot keys shared by both models.
const (
	keyModel    = "model"
	keyNumGoods = "numGoods"
	keySeed     = "seed"
	keyRNG      = "rng"
)

// FromSnapshot rehydrates a market. Unknown or missing models load as a
// price process; missing or malformed fields take their defaults.
func FromSnapshot(s Snapshot) Market {
	if Model(s.String(keyModel, string(ModelPrice))) == ModelPopulation {
		return PopulationFromSnapshot(s)
	}
	return PriceFromSnapshot(s)
}

// Snapshot implements Market.
func (p *PriceProcess) Snapshot() Snapshot {
	return Snapshot{
		keyModel:         string(ModelPrice),
		keyNumGoods:      len(p.mid),
		"midPrice":       append([]float64(nil), p.mid...),
		"basePrice":      append([]float64(nil), p.cfg.BasePrice...),
		"stickiness":     append([]float64(nil), p.cfg.Stickiness...),
		"buyImpact":      p.cfg.BuyImpact,
		"sellImpact":     p.cfg.SellImpact,
		"drift":          p.cfg.Drift,
		"crossInfluence": p.cfg.CrossInfluence,
		"spreadFraction": p.cfg.Spread,
		keySeed:          strconv.FormatUint(p.rng.Seed(), 10),
		keyRNG:           p.rng.State(),
	}
}

// PriceFromSnapshot rehydrates a price process.
func PriceFromSnapshot(s Snapshot) *PriceProcess {
	base, _ := s.Floats("basePrice")
	n := s.Int(keyNumGoods, 0)
	if n <= 0 {
		n = len(base)
	}
	if n <= 0 {
		n = DefaultNumGoods
	}

	cfg := DefaultPriceConfig(n)
	cfg.BasePrice = fit(base, n, func(int) float64 { return DefaultBasePrice }, positive)
	stick, _ := s.Floats("stickiness")
	cfg.Stickiness = fit(stick, n, func(int) float64 { return DefaultStickiness }, positive)
	cfg.BuyImpact = s.Float("buyImpact", DefaultBuyImpact)
	cfg.SellImpact = s.Float("sellImpact", DefaultSellImpact)
	cfg.Drift = s.Float("drift", DefaultDrift)
	cfg.CrossInfluence = s.Float("crossInfluence", DefaultCrossInfluence)
	cfg.Spread = s.Float("spreadFraction", DefaultSpread)

	p, err := NewPriceProcess(cfg, source(s))
	if err != nil {
		// fit guarantees a valid config.
		panic(err)
	}
	mid, _ := s.Floats("midPrice")
	p.mid = fit(mid, n, func(g int) float64 { return cfg.BasePrice[g] }, positive)
	return p
}

// Snapshot implements Market.
func (p *Population) Snapshot() Snapshot {
	list := make([]any, len(p.agents))
	for i, a := range p.agents {
		a = a.Clone()
		list[i] = map[string]any{
			"goods":       a.Goods,
			"money":       a.Money,
			"expected":    a.Expected,
			"baseValue":   a.BaseValue,
			"halfUtility": a.HalfUtility,
			"volatility":  a.Volatility,
			"baseWork":    a.BaseWork,
			"baseLeisure": a.BaseLeisure,
			"hunger":      a.Hunger,
		}
	}
	s := Snapshot{
		keyModel:             string(ModelPopulation),
		keyNumGoods:          p.cfg.NumGoods,
		"agentCount":         p.cfg.Agents,
		"hungerRate":         p.cfg.HungerRate,
		"breakChance":        p.cfg.BreakChance,
		"productionQuantity": p.cfg.ProductionQuantity,
		"produced":           p.produced,
		"consumed":           p.consumed,
		"broken":             p.broken,
		"trades":             p.trades,
		"agents":             list,
		keySeed:              strconv.FormatUint(p.rng.Seed(), 10),
		keyRNG:               p.rng.State(),
	}
	spawn := p.cfg.Spawn
	for key, ptr := range spawnFloats(&spawn) {
		s[key] = *ptr
	}
	for key, ptr := range spawnInts(&spawn) {
		s[key] = *ptr
	}
	return s
}

// PopulationFromSnapshot rehydrates a population market. When the agent
// list is missing entirely a fresh population is spawned from the stored
// configuration and seed.
func PopulationFromSnapshot(s Snapshot) *Population {
	n := s.Int(keyNumGoods, DefaultNumGoods)
	if n <= 0 {
		n = DefaultNumGoods
	}
	cfg := DefaultPopulationConfig(n)
	cfg.Agents = s.Int("agentCount", DefaultAgentCount)
	if cfg.Agents < 0 {
		cfg.Agents = DefaultAgentCount
	}
	cfg.HungerRate = s.Float("hungerRate", DefaultHungerRate)
	cfg.BreakChance = s.Float("breakChance", DefaultBreakChance)
	cfg.ProductionQuantity = s.Float("productionQuantity", DefaultProductionQuantity)
	for key, ptr := range spawnFloats(&cfg.Spawn) {
		*ptr = s.Float(key, *ptr)
	}
	for key, ptr := range spawnInts(&cfg.Spawn) {
		*ptr = s.Int(key, *ptr)
	}

	rng := source(s)
	list, ok := s.Maps("agents")
	if !ok {
		pop, err := NewPopulation(cfg, rng)
		if err != nil {
			panic(err)
		}
		return pop
	}

	pop := make([]*agents.Agent, 0, len(list))
	for _, m := range list {
		pop = append(pop, agentFromSnapshot(m, n, cfg.Spawn))
	}
	cfg.Agents = len(pop)
	p := newPopulation(cfg, pop, rng)
	p.produced = s.Int("produced", 0)
	p.consumed = s.Int("consumed", 0)
	p.broken = s.Int("broken", 0)
	p.trades = s.Int("trades", 0)
	return p
}

// agentFromSnapshot decodes one agent; malformed fields fall back to the
// midpoint of the spawn ranges.
func agentFromSnapshot(m Snapshot, n int, spawn agents.SpawnConfig) *agents.Agent {
	mid := func(lo, hi float64) func(int) float64 {
		return func(int) float64 { return (lo + hi) / 2 }
	}
	goods, _ := m.Ints("goods")
	expected, _ := m.Floats("expected")
	value, _ := m.Floats("baseValue")
	half, _ := m.Floats("halfUtility")

	a := &agents.Agent{
		Goods:       make([]int, n),
		Money:       m.Int("money", spawn.InitialMoney),
		Expected:    fit(expected, n, mid(spawn.ExpectedMin, spawn.ExpectedMax), nonNegative),
		BaseValue:   fit(value, n, mid(spawn.ValueMin, spawn.ValueMax), nonNegative),
		HalfUtility: fit(half, n, mid(spawn.HalfUtilityMin, spawn.HalfUtilityMax), positive),
		Volatility:  m.Float("volatility", (spawn.VolatilityMin+spawn.VolatilityMax)/2),
		BaseWork:    m.Float("baseWork", (spawn.WorkMin+spawn.WorkMax)/2),
		BaseLeisure: m.Float("baseLeisure", (spawn.LeisureMin+spawn.LeisureMax)/2),
		Hunger:      m.Float("hunger", 0),
	}
	for g := 0; g < n && g < len(goods); g++ {
		if goods[g] > 0 {
			a.Goods[g] = goods[g]
		}
	}
	if a.Money < 0 {
		a.Money = 0
	}
	return a
}

func spawnFloats(c *agents.SpawnConfig) map[string]*float64 {
	return map[string]*float64{
		"valueMin":       &c.ValueMin,
		"valueMax":       &c.ValueMax,
		"halfUtilityMin": &c.HalfUtilityMin,
		"halfUtilityMax": &c.HalfUtilityMax,
		"expectedMin":    &c.ExpectedMin,
		"expectedMax":    &c.ExpectedMax,
		"volatilityMin":  &c.VolatilityMin,
		"volatilityMax":  &c.VolatilityMax,
		"workMin":        &c.WorkMin,
		"workMax":        &c.WorkMax,
		"leisureMin":     &c.LeisureMin,
		"leisureMax":     &c.LeisureMax,
	}
}

func spawnInts(c *agents.SpawnConfig) map[string]*int {
	return map[string]*int{
		"goodsMin":     &c.GoodsMin,
		"goodsMax":     &c.GoodsMax,
		"initialMoney": &c.InitialMoney,
	}
}

// source restores the random stream, or seeds a fresh one when the state
// is missing or corrupt.
func source(s Snapshot) *entropy.Source {
	seed := s.Uint64(keySeed, 0)
	if state := s.String(keyRNG, ""); state != "" {
		if src, err := entropy.Restore(seed, state); err == nil {
			return src
		}
	}
	return entropy.New(seed)
}

func positive(v float64) bool    { return v > 0 }
func nonNegative(v float64) bool { return v >= 0 }

// fit returns exactly n values: vs truncated or padded, with entries that
// fail ok replaced by def.
func fit(vs []float64, n int, def func(int) float64, ok func(float64) bool) []float64 {
	out := make([]float64, n)
	for g := range out {
		if g < len(vs) && ok(vs[g]) {
			out[g] = vs[g]
		} else {
			out[g] = def(g)
		}
	}
	return out
}
