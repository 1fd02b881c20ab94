// Package config loads the YAML file that describes goods, city markets and
// session defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-market/internal/agents"
	"github.com/talgya/mini-market/internal/economy"
	"github.com/talgya/mini-market/internal/market"
)

// Session defaults.
const (
	DefaultStartingGold    = 1000
	DefaultStepEveryFrames = 600
	DefaultFrameRate       = 60
	DefaultMoveSpeed       = 200.0
	DefaultHistoryLength   = 256
	DefaultWorldExtent     = 3000.0
	DefaultCitySpacing     = 400.0
)

// Config is the root of the YAML file.
type Config struct {
	Seed       uint64           `yaml:"seed"`
	LogLevel   string           `yaml:"log_level"`
	Goods      []economy.Good   `yaml:"goods"`
	Market     MarketConfig     `yaml:"market"`
	Population PopulationConfig `yaml:"population"`
	Atlas      AtlasConfig      `yaml:"atlas"`
	Cities     []CityConfig     `yaml:"cities"`
	Session    SessionConfig    `yaml:"session"`
	Save       SaveConfig       `yaml:"save"`
}

// MarketConfig tunes the price-process markets.
type MarketConfig struct {
	Model          string  `yaml:"model"` // Default model for cities that name none
	BuyImpact      float64 `yaml:"buy_impact"`
	SellImpact     float64 `yaml:"sell_impact"`
	Drift          float64 `yaml:"drift"`
	CrossInfluence float64 `yaml:"cross_influence"`
	Spread         float64 `yaml:"spread"`
	HistoryLength  int     `yaml:"history_length"`
}

// PopulationConfig tunes the agent markets.
type PopulationConfig struct {
	Agents             int                `yaml:"agents"`
	HungerRate         float64            `yaml:"hunger_rate"`
	BreakChance        float64            `yaml:"break_chance"`
	ProductionQuantity float64            `yaml:"production_quantity"`
	Spawn              agents.SpawnConfig `yaml:"spawn"`
}

// AtlasConfig bounds automatic city placement.
type AtlasConfig struct {
	Extent      float64 `yaml:"extent"`       // Cities land in [-extent, extent] on both axes
	Spacing     float64 `yaml:"spacing"`      // Minimum distance between placed cities
	ExtraCities int     `yaml:"extra_cities"` // Procedurally named cities added after the listed ones
}

// CityConfig names one city. X and Y are optional; cities without both are
// placed by the atlas.
type CityConfig struct {
	Name  string   `yaml:"name"`
	X     *float64 `yaml:"x"`
	Y     *float64 `yaml:"y"`
	Model string   `yaml:"model"`
}

// Placed reports whether the city has a fixed position.
func (c CityConfig) Placed() bool {
	return c.X != nil && c.Y != nil
}

// SessionConfig holds new-game defaults.
type SessionConfig struct {
	StartingGold    int     `yaml:"starting_gold"`
	StepEveryFrames int     `yaml:"step_every_frames"`
	FrameRate       int     `yaml:"frame_rate"`
	MoveSpeed       float64 `yaml:"move_speed"` // World units per second
}

// SaveConfig locates the save database.
type SaveConfig struct {
	Path string `yaml:"path"`
	Slot string `yaml:"slot"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	spawn := agents.DefaultSpawnConfig()
	return &Config{
		LogLevel: "info",
		Goods: []economy.Good{
			{Key: "grain", Name: "Grain", BasePrice: 8, Stickiness: 2},
			{Key: "cloth", Name: "Cloth", BasePrice: 14, Stickiness: 2.5},
			{Key: "iron", Name: "Iron", BasePrice: 22, Stickiness: 3},
			{Key: "spice", Name: "Spice", BasePrice: 35, Stickiness: 1.5},
		},
		Market: MarketConfig{
			Model:          string(market.ModelPrice),
			BuyImpact:      market.DefaultBuyImpact,
			SellImpact:     market.DefaultSellImpact,
			Drift:          market.DefaultDrift,
			CrossInfluence: market.DefaultCrossInfluence,
			Spread:         market.DefaultSpread,
			HistoryLength:  DefaultHistoryLength,
		},
		Population: PopulationConfig{
			Agents:             market.DefaultAgentCount,
			HungerRate:         market.DefaultHungerRate,
			BreakChance:        market.DefaultBreakChance,
			ProductionQuantity: market.DefaultProductionQuantity,
			Spawn:              spawn,
		},
		Atlas: AtlasConfig{
			Extent:  DefaultWorldExtent,
			Spacing: DefaultCitySpacing,
		},
		Cities: []CityConfig{
			{Name: "Ashford"},
			{Name: "Brightwater"},
			{Name: "Coldharbor", Model: string(market.ModelPopulation)},
			{Name: "Dunmere"},
		},
		Session: SessionConfig{
			StartingGold:    DefaultStartingGold,
			StepEveryFrames: DefaultStepEveryFrames,
			FrameRate:       DefaultFrameRate,
			MoveSpeed:       DefaultMoveSpeed,
		},
		Save: SaveConfig{
			Path: "data/saves.db",
			Slot: "autosave",
		},
	}
}

// Load reads path over the defaults, fills zero values and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, fills zero values and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fill replaces zero values left by a partial file with defaults.
func (c *Config) fill() {
	d := Default()
	for i := range c.Goods {
		if c.Goods[i].BasePrice == 0 {
			c.Goods[i].BasePrice = market.DefaultBasePrice
		}
		if c.Goods[i].Stickiness == 0 {
			c.Goods[i].Stickiness = market.DefaultStickiness
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Market.Model == "" {
		c.Market.Model = d.Market.Model
	}
	if c.Market.HistoryLength <= 0 {
		c.Market.HistoryLength = d.Market.HistoryLength
	}
	if c.Atlas.Extent <= 0 {
		c.Atlas.Extent = d.Atlas.Extent
	}
	if c.Atlas.Spacing < 0 {
		c.Atlas.Spacing = d.Atlas.Spacing
	}
	if c.Session.StartingGold < 0 {
		c.Session.StartingGold = d.Session.StartingGold
	}
	if c.Session.StepEveryFrames <= 0 {
		c.Session.StepEveryFrames = d.Session.StepEveryFrames
	}
	if c.Session.FrameRate <= 0 {
		c.Session.FrameRate = d.Session.FrameRate
	}
	if c.Session.MoveSpeed <= 0 {
		c.Session.MoveSpeed = d.Session.MoveSpeed
	}
	if c.Save.Slot == "" {
		c.Save.Slot = d.Save.Slot
	}
	for i := range c.Cities {
		if c.Cities[i].Model == "" {
			c.Cities[i].Model = c.Market.Model
		}
	}
}

// Validate rejects configurations no market can be built from.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Goods) == 0 {
		errs = append(errs, errors.New("no goods"))
	}
	for i, g := range c.Goods {
		if !(g.BasePrice > 0) {
			errs = append(errs, fmt.Errorf("good %d (%s): base price must be positive", i, g.Key))
		}
		if !(g.Stickiness > 0) {
			errs = append(errs, fmt.Errorf("good %d (%s): stickiness must be positive", i, g.Key))
		}
	}
	if c.Market.Spread < 0 || c.Market.Spread >= 1 {
		errs = append(errs, fmt.Errorf("spread %v must be in [0, 1)", c.Market.Spread))
	}
	if !validModel(c.Market.Model) {
		errs = append(errs, fmt.Errorf("unknown market model %q", c.Market.Model))
	}
	if c.Atlas.ExtraCities < 0 {
		errs = append(errs, fmt.Errorf("atlas: %d extra cities", c.Atlas.ExtraCities))
	}
	if c.Population.Agents < 0 {
		errs = append(errs, fmt.Errorf("population: %d agents", c.Population.Agents))
	}
	seen := make(map[string]bool, len(c.Cities))
	for i, city := range c.Cities {
		name := strings.TrimSpace(city.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("city %d has no name", i))
		case seen[name]:
			errs = append(errs, fmt.Errorf("duplicate city %q", name))
		}
		seen[name] = true
		if (city.X == nil) != (city.Y == nil) {
			errs = append(errs, fmt.Errorf("city %q: give both x and y or neither", name))
		}
		if city.Model != "" && !validModel(city.Model) {
			errs = append(errs, fmt.Errorf("city %q: unknown market model %q", name, city.Model))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validModel(m string) bool {
	return market.Model(m) == market.ModelPrice || market.Model(m) == market.ModelPopulation
}

// Catalog builds the goods catalog.
func (c *Config) Catalog() (*economy.Catalog, error) {
	return economy.NewCatalog(c.Goods)
}

// PriceConfig returns the price-process tuning for the catalog's goods.
func (c *Config) PriceConfig(cat *economy.Catalog) market.PriceConfig {
	return market.PriceConfig{
		BasePrice:      cat.BasePrices(),
		Stickiness:     cat.Stickiness(),
		BuyImpact:      c.Market.BuyImpact,
		SellImpact:     c.Market.SellImpact,
		Drift:          c.Market.Drift,
		CrossInfluence: c.Market.CrossInfluence,
		Spread:         c.Market.Spread,
	}
}

// PopulationConfig returns the agent-market tuning for the catalog's goods.
func (c *Config) PopulationConfig(cat *economy.Catalog) market.PopulationConfig {
	return market.PopulationConfig{
		NumGoods:           cat.Len(),
		Agents:             c.Population.Agents,
		Spawn:              c.Population.Spawn,
		HungerRate:         c.Population.HungerRate,
		BreakChance:        c.Population.BreakChance,
		ProductionQuantity: c.Population.ProductionQuantity,
	}
}
