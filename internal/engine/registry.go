package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/world"
)

// ErrUnknownCity is returned for city names missing from the atlas.
var ErrUnknownCity = errors.New("unknown city")

// Registry owns one market per city. Markets are created on first use,
// seeded from the global seed and the city position, or restored from a
// snapshot.
type Registry struct {
	seed       uint64
	atlas      *world.Atlas
	price      market.PriceConfig
	population market.PopulationConfig
	historyLen int

	markets map[string]market.Market
	history map[string]*History
}

// RegistryConfig carries what the registry needs to build markets.
type RegistryConfig struct {
	Seed          uint64
	Atlas         *world.Atlas
	Price         market.PriceConfig
	Population    market.PopulationConfig
	HistoryLength int
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		seed:       cfg.Seed,
		atlas:      cfg.Atlas,
		price:      cfg.Price,
		population: cfg.Population,
		historyLen: cfg.HistoryLength,
		markets:    make(map[string]market.Market),
		history:    make(map[string]*History),
	}
}

// Seed returns the global seed city markets derive from.
func (r *Registry) Seed() uint64 { return r.seed }

// Atlas returns the city atlas.
func (r *Registry) Atlas() *world.Atlas { return r.atlas }

// Obtain returns the city's market, creating it if this is its first use.
func (r *Registry) Obtain(city string) (market.Market, error) {
	if m, ok := r.markets[city]; ok {
		return m, nil
	}
	c, ok := r.atlas.City(city)
	if !ok {
		return nil, fmt.Errorf("obtain %q: %w", city, ErrUnknownCity)
	}
	m, err := r.create(c)
	if err != nil {
		return nil, fmt.Errorf("create market for %q: %w", city, err)
	}
	r.markets[city] = m
	slog.Debug("city market created", "city", city, "model", m.Model(), "goods", m.NumGoods())
	return m, nil
}

func (r *Registry) create(c world.City) (market.Market, error) {
	rng := entropy.New(entropy.CitySeed(r.seed, c.Position.X, c.Position.Y))
	switch c.Model {
	case market.ModelPopulation:
		return market.NewPopulation(r.population, rng)
	default:
		return market.NewPriceProcess(r.price, rng)
	}
}

// Get returns the city's market without creating it.
func (r *Registry) Get(city string) (market.Market, bool) {
	m, ok := r.markets[city]
	return m, ok
}

// Restore replaces the city's market with one rebuilt from a snapshot.
// Cities the atlas no longer lists are kept so their saves survive.
func (r *Registry) Restore(city string, s market.Snapshot) market.Market {
	if _, ok := r.atlas.City(city); !ok {
		slog.Warn("restoring market for city missing from atlas", "city", city)
	}
	m := market.FromSnapshot(s)
	r.markets[city] = m
	delete(r.history, city)
	slog.Debug("city market restored", "city", city, "model", m.Model())
	return m
}

// Names returns every city with a live market: atlas cities in atlas order,
// then restored extras sorted by name.
func (r *Registry) Names() []string {
	var out []string
	seen := make(map[string]bool, len(r.markets))
	for _, name := range r.atlas.Names() {
		if _, ok := r.markets[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range r.markets {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// StepAll creates any missing atlas market, then steps every market once
// in Names order and records its reference prices.
func (r *Registry) StepAll() error {
	for _, name := range r.atlas.Names() {
		if _, err := r.Obtain(name); err != nil {
			return err
		}
	}
	for _, name := range r.Names() {
		m := r.markets[name]
		m.Step()
		r.record(name, m)
	}
	return nil
}

func (r *Registry) record(city string, m market.Market) {
	h, ok := r.history[city]
	if !ok {
		h = NewHistory(r.historyLen)
		r.history[city] = h
	}
	prices := make([]float64, m.NumGoods())
	for g := range prices {
		prices[g] = m.ReferencePrice(g)
	}
	h.Add(prices)
}

// History returns the city's price history, or nil before its first step.
func (r *Registry) History(city string) *History {
	return r.history[city]
}

// Snapshots captures every live market.
func (r *Registry) Snapshots() map[string]market.Snapshot {
	out := make(map[string]market.Snapshot, len(r.markets))
	for name, m := range r.markets {
		out[name] = m.Snapshot()
	}
	return out
}

// Reset drops every market and history and switches to a new global seed.
func (r *Registry) Reset(seed uint64) {
	r.seed = seed
	clear(r.markets)
	clear(r.history)
}
