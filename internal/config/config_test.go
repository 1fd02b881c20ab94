package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/market"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, len(cfg.Goods), cat.Len())

	pc := cfg.PriceConfig(cat)
	require.NoError(t, pc.Validate())
	assert.Equal(t, cfg.Goods[2].BasePrice, pc.BasePrice[2])
	assert.Equal(t, cfg.Goods[3].Stickiness, pc.Stickiness[3])

	pop := cfg.PopulationConfig(cat)
	require.NoError(t, pop.Validate())
	assert.Equal(t, market.DefaultAgentCount, pop.Agents)
	assert.Equal(t, cat.Len(), pop.NumGoods)
}

func TestParsePartialFile(t *testing.T) {
	cfg, err := config.Parse([]byte(`
seed: 42
goods:
  - key: Salt
    base_price: 6
  - key: wine
    name: Red Wine
    stickiness: 4
market:
  spread: 0.1
population:
  agents: 50
  spawn:
    initial_money: 250
cities:
  - name: Port Lyle
    x: 120
    y: -40
  - name: Marrow
    model: population
session:
  starting_gold: 500
`))
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Seed)
	require.Len(t, cfg.Goods, 2)
	assert.Equal(t, 6.0, cfg.Goods[0].BasePrice)
	assert.Equal(t, market.DefaultStickiness, cfg.Goods[0].Stickiness)
	assert.Equal(t, market.DefaultBasePrice, cfg.Goods[1].BasePrice)
	assert.Equal(t, 0.1, cfg.Market.Spread)
	assert.Equal(t, market.DefaultDrift, cfg.Market.Drift, "unset fields keep defaults")

	assert.Equal(t, 50, cfg.Population.Agents)
	assert.Equal(t, 250, cfg.Population.Spawn.InitialMoney)
	assert.Equal(t, 20.0, cfg.Population.Spawn.ValueMax)

	require.Len(t, cfg.Cities, 2)
	assert.True(t, cfg.Cities[0].Placed())
	assert.Equal(t, -40.0, *cfg.Cities[0].Y)
	assert.Equal(t, string(market.ModelPrice), cfg.Cities[0].Model)
	assert.False(t, cfg.Cities[1].Placed())
	assert.Equal(t, string(market.ModelPopulation), cfg.Cities[1].Model)

	assert.Equal(t, 500, cfg.Session.StartingGold)
	assert.Equal(t, config.DefaultStepEveryFrames, cfg.Session.StepEveryFrames)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	i, ok := cat.Lookup("salt")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no goods", "goods: []"},
		{"negative stickiness", "goods: [{key: a, stickiness: -1}]"},
		{"bad spread", "market: {spread: 1.5}"},
		{"bad model", "market: {model: barter}"},
		{"duplicate city", "cities: [{name: A}, {name: A}]"},
		{"unnamed city", "cities: [{name: ''}]"},
		{"half position", "cities: [{name: A, x: 3}]"},
		{"bad city model", "cities: [{name: A, model: barter}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\nsave: {slot: main}\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "main", cfg.Save.Slot)
	assert.Len(t, cfg.Cities, len(config.Default().Cities))

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("goods: {"), 0o644))
	_, err = config.Load(bad)
	assert.Error(t, err)
}

func TestBundledConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "market.yaml"))
	require.NoError(t, err)
	assert.Equal(t, uint64(20260101), cfg.Seed)
	assert.Len(t, cfg.Goods, 4)
	assert.Equal(t, 2, cfg.Atlas.ExtraCities)
	require.Len(t, cfg.Cities, 4)
	assert.True(t, cfg.Cities[0].Placed())
	assert.False(t, cfg.Cities[1].Placed())
	assert.Equal(t, string(market.ModelPopulation), cfg.Cities[2].Model)
}
