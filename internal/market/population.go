package market

import (
	"fmt"
	"sort"

	"github.com/talgya/mini-market/internal/agents"
	"github.com/talgya/mini-market/internal/economy"
	"github.com/talgya/mini-market/internal/entropy"
)

// Population defaults.
const (
	DefaultAgentCount         = 200
	DefaultHungerRate         = 0.1
	DefaultBreakChance        = 0.005
	DefaultProductionQuantity = 1.0
)

// PopulationConfig tunes a Population market.
type PopulationConfig struct {
	NumGoods           int
	Agents             int
	Spawn              agents.SpawnConfig
	HungerRate         float64 // Hunger added to every agent each step
	BreakChance        float64 // Per-unit chance a held good is destroyed each step
	ProductionQuantity float64 // Units per production action before the agent's work multiplier
}

// DefaultPopulationConfig returns the default tuning for numGoods goods.
func DefaultPopulationConfig(numGoods int) PopulationConfig {
	return PopulationConfig{
		NumGoods:           numGoods,
		Agents:             DefaultAgentCount,
		Spawn:              agents.DefaultSpawnConfig(),
		HungerRate:         DefaultHungerRate,
		BreakChance:        DefaultBreakChance,
		ProductionQuantity: DefaultProductionQuantity,
	}
}

// Validate reports configuration that cannot build a population.
func (c PopulationConfig) Validate() error {
	if c.NumGoods <= 0 {
		return fmt.Errorf("population config: %d goods", c.NumGoods)
	}
	if c.Agents < 0 {
		return fmt.Errorf("population config: %d agents", c.Agents)
	}
	return nil
}

// Population is a market of utility-maximizing agents whose price beliefs
// converge through bilateral matching, peer rumor and a global median signal.
type Population struct {
	cfg    PopulationConfig
	agents []*agents.Agent
	rng    *entropy.Source

	// Diagnostics for the most recent step.
	produced int
	consumed int // Eaten units plus broken units
	broken   int
	trades   int

	buyers  []*agents.Agent
	sellers []*agents.Agent
	scratch []float64
}

// NewPopulation spawns cfg.Agents agents from rng.
func NewPopulation(cfg PopulationConfig, rng *entropy.Source) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pop := agents.NewSpawner(cfg.Spawn, cfg.NumGoods, rng).SpawnPopulation(cfg.Agents)
	return newPopulation(cfg, pop, rng), nil
}

// newPopulation panics when an agent's per-good state does not match
// cfg.NumGoods.
func newPopulation(cfg PopulationConfig, pop []*agents.Agent, rng *entropy.Source) *Population {
	for i, a := range pop {
		if err := a.Validate(cfg.NumGoods); err != nil {
			panic(fmt.Sprintf("population: agent %d: %v", i, err))
		}
	}
	return &Population{
		cfg:    cfg,
		agents: pop,
		rng:    rng,
	}
}

// Model implements Market.
func (p *Population) Model() Model { return ModelPopulation }

// NumGoods implements Market.
func (p *Population) NumGoods() int { return p.cfg.NumGoods }

// Config returns the tuning.
func (p *Population) Config() PopulationConfig { return p.cfg }

// Agents returns the live agents. Callers must not retain or mutate them
// across steps.
func (p *Population) Agents() []*agents.Agent { return p.agents }

// Step runs one tick: decisions and breakage, per-good matching, rumor,
// then the global signal.
func (p *Population) Step() {
	p.produced, p.consumed, p.broken, p.trades = 0, 0, 0, 0

	for _, a := range p.agents {
		a.Hunger += p.cfg.HungerRate
		act := a.Decide()
		a.Apply(act, p.cfg.ProductionQuantity)
		switch act.Kind {
		case agents.ActionProduce:
			p.produced++
		case agents.ActionConsume:
			p.consumed++
		}
		lost := a.Break(p.rng, p.cfg.BreakChance)
		p.broken += lost
		p.consumed += lost
	}

	for g := 0; g < p.cfg.NumGoods; g++ {
		p.clear(g)
	}

	p.rumor()
	p.globalSignal()
}

// clear matches buyers and sellers of good g.
func (p *Population) clear(g int) {
	p.buyers, p.sellers = p.buyers[:0], p.sellers[:0]
	for _, a := range p.agents {
		switch {
		case a.IsBuyer(g):
			p.buyers = append(p.buyers, a)
		case a.IsSeller(g):
			p.sellers = append(p.sellers, a)
		}
	}

	shuffle(p.rng, p.buyers)
	shuffle(p.rng, p.sellers)

	matched := min(len(p.buyers), len(p.sellers))
	for i := 0; i < matched; i++ {
		buyer, seller := p.buyers[i], p.sellers[i]
		price := seller.Expected[g]
		if float64(buyer.Money) >= price && seller.Goods[g] >= 1 && buyer.Expected[g] >= price {
			pay := gold(price)
			seller.Goods[g]--
			buyer.Goods[g]++
			buyer.Money -= pay
			seller.Money = addGold(seller.Money, pay)
			// Both sides got a deal.
			buyer.Lower(g)
			seller.Raise(g)
			p.trades++
			continue
		}
		buyer.Raise(g)
		seller.Lower(g)
	}

	for _, b := range p.buyers[matched:] {
		if b.CanTrade(g) {
			b.Raise(g)
		}
	}
	for _, s := range p.sellers[matched:] {
		if s.Goods[g] >= 1 {
			s.Lower(g)
		}
	}
}

func shuffle(rng *entropy.Source, xs []*agents.Agent) {
	rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

// rumor has every agent compare beliefs with one other random agent and
// step each belief toward the peer's.
func (p *Population) rumor() {
	n := len(p.agents)
	if n < 2 {
		return
	}
	for i, a := range p.agents {
		j := p.rng.IntN(n - 1)
		if j >= i {
			j++
		}
		peer := p.agents[j]
		for g := range a.Expected {
			a.NudgeToward(g, peer.Expected[g])
		}
	}
}

// globalSignal steps every belief toward the median current utility of
// that good across the population.
func (p *Population) globalSignal() {
	if len(p.agents) == 0 {
		return
	}
	for g := 0; g < p.cfg.NumGoods; g++ {
		med := p.MedianUtility(g)
		for _, a := range p.agents {
			a.NudgeToward(g, med)
		}
	}
}

// MedianUtility returns the median current utility of good g.
func (p *Population) MedianUtility(g int) float64 {
	economy.MustIndex(g, p.cfg.NumGoods)
	n := len(p.agents)
	if n == 0 {
		return 0
	}
	p.scratch = p.scratch[:0]
	for _, a := range p.agents {
		p.scratch = append(p.scratch, a.CurrentUtility(g))
	}
	sort.Float64s(p.scratch)
	if n%2 == 1 {
		return p.scratch[n/2]
	}
	return (p.scratch[n/2-1] + p.scratch[n/2]) / 2
}

// ExternalBuy implements Market.
func (p *Population) ExternalBuy(good int, markup float64, amount int) Fill {
	return p.Buy(Order{Good: good, Factor: markup, Amount: amount, Budget: Unlimited})
}

// ExternalSell implements Market.
func (p *Population) ExternalSell(good int, markdown float64, amount int) Fill {
	return p.Sell(Order{Good: good, Factor: markdown, Amount: amount, Budget: Unlimited})
}

// Buy takes one unit at a time from the holder with the lowest belief,
// paying belief*markup. Each unit is followed by a rumor and a global
// signal step, so large orders raise prices as they fill.
func (p *Population) Buy(o Order) Fill {
	economy.MustIndex(o.Good, p.cfg.NumGoods)
	f := Fill{Good: o.Good, Requested: o.Amount}
	for i := 0; i < o.Amount; i++ {
		seller := p.cheapestHolder(o.Good)
		if seller == nil {
			break
		}
		pay := gold(seller.Expected[o.Good] * o.Factor)
		if o.Budget != Unlimited && addGold(f.Total, pay) > o.Budget {
			break
		}
		seller.Goods[o.Good]--
		seller.Money = addGold(seller.Money, pay)
		seller.Raise(o.Good)
		f.Units++
		f.Total = addGold(f.Total, pay)

		p.rumor()
		p.globalSignal()
	}
	return f
}

// Sell gives one unit at a time to the highest-belief agent that can pay
// belief*markdown. Each unit is followed by a rumor and a global signal step.
func (p *Population) Sell(o Order) Fill {
	economy.MustIndex(o.Good, p.cfg.NumGoods)
	f := Fill{Good: o.Good, Requested: o.Amount}
	for i := 0; i < o.Amount; i++ {
		buyer := p.richestBidder(o.Good, o.Factor)
		if buyer == nil {
			break
		}
		pay := gold(buyer.Expected[o.Good] * o.Factor)
		buyer.Goods[o.Good]++
		buyer.Money -= pay
		buyer.Lower(o.Good)
		f.Units++
		f.Total = addGold(f.Total, pay)

		p.rumor()
		p.globalSignal()
	}
	return f
}

// cheapestHolder returns the agent holding g with the lowest belief.
func (p *Population) cheapestHolder(g int) *agents.Agent {
	var best *agents.Agent
	for _, a := range p.agents {
		if a.Goods[g] < 1 {
			continue
		}
		if best == nil || a.Expected[g] < best.Expected[g] {
			best = a
		}
	}
	return best
}

// richestBidder returns the highest-belief agent that can pay its own
// belief scaled by factor for g.
func (p *Population) richestBidder(g int, factor float64) *agents.Agent {
	var best *agents.Agent
	for _, a := range p.agents {
		if a.Money < gold(a.Expected[g]*factor) {
			continue
		}
		if best == nil || a.Expected[g] > best.Expected[g] {
			best = a
		}
	}
	return best
}

// BuyPrice implements Market: the lowest belief among holders, or the
// average belief when nobody holds the good.
func (p *Population) BuyPrice(good int) float64 {
	economy.MustIndex(good, p.cfg.NumGoods)
	if a := p.cheapestHolder(good); a != nil {
		return a.Expected[good]
	}
	return p.AverageExpected(good)
}

// SellPrice implements Market: the highest belief among agents able to pay
// it, or the average belief when nobody can.
func (p *Population) SellPrice(good int) float64 {
	economy.MustIndex(good, p.cfg.NumGoods)
	if a := p.richestBidder(good, 1); a != nil {
		return a.Expected[good]
	}
	return p.AverageExpected(good)
}

// ReferencePrice implements Market with the average belief.
func (p *Population) ReferencePrice(good int) float64 {
	return p.AverageExpected(good)
}

// Prices implements Market.
func (p *Population) Prices() []Quote {
	return quotes(p)
}

// AgentCount returns the population size.
func (p *Population) AgentCount() int { return len(p.agents) }

// Produced returns how many agents produced in the last step.
func (p *Population) Produced() int { return p.produced }

// Consumed returns units eaten plus units broken in the last step.
func (p *Population) Consumed() int { return p.consumed }

// Broken returns units lost to breakage in the last step.
func (p *Population) Broken() int { return p.broken }

// Trades returns matched agent-to-agent trades in the last step.
func (p *Population) Trades() int { return p.trades }

// TotalGoods returns the units of g held across all agents.
func (p *Population) TotalGoods(g int) int {
	economy.MustIndex(g, p.cfg.NumGoods)
	total := 0
	for _, a := range p.agents {
		total += a.Goods[g]
	}
	return total
}

// AverageGoods returns the mean holding of g per agent.
func (p *Population) AverageGoods(g int) float64 {
	if len(p.agents) == 0 {
		economy.MustIndex(g, p.cfg.NumGoods)
		return 0
	}
	return float64(p.TotalGoods(g)) / float64(len(p.agents))
}

// AverageExpected returns the mean price belief for g.
func (p *Population) AverageExpected(g int) float64 {
	return p.average(g, func(a *agents.Agent) float64 { return a.Expected[g] })
}

// AverageUtility returns the mean current utility of g.
func (p *Population) AverageUtility(g int) float64 {
	return p.average(g, func(a *agents.Agent) float64 { return a.CurrentUtility(g) })
}

// AveragePotentialUtility returns the mean utility of g with one more unit.
func (p *Population) AveragePotentialUtility(g int) float64 {
	return p.average(g, func(a *agents.Agent) float64 { return a.PotentialUtility(g) })
}

// AverageMoney returns the mean money per agent.
func (p *Population) AverageMoney() float64 {
	if len(p.agents) == 0 {
		return 0
	}
	total := 0
	for _, a := range p.agents {
		total += a.Money
	}
	return float64(total) / float64(len(p.agents))
}

func (p *Population) average(g int, f func(*agents.Agent) float64) float64 {
	economy.MustIndex(g, p.cfg.NumGoods)
	if len(p.agents) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range p.agents {
		sum += f(a)
	}
	return sum / float64(len(p.agents))
}
