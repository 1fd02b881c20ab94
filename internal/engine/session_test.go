package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/engine"
	"github.com/talgya/mini-market/internal/quest"
	"github.com/talgya/mini-market/internal/world"
)

func newSession(t *testing.T) *engine.Session {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 2024
	cfg.Population.Agents = 40
	cat, err := cfg.Catalog()
	require.NoError(t, err)
	return engine.NewSession(cfg, cat, testAtlas(t))
}

func TestNewSessionDefaults(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, 1000, s.Gold)
	assert.Equal(t, 1.0, s.MusicVolume)
	assert.Equal(t, 1.0, s.SFXVolume)
	assert.Equal(t, uint64(2024), s.FirstLoadSeed)
	assert.Equal(t, []int{0, 0, 0, 0}, s.Cargo)
	assert.Equal(t, uint64(600), s.Clock.StepEvery)
}

func TestBuyAndSell(t *testing.T) {
	s := newSession(t)

	res, err := s.Buy("Ashford", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Fill.Units)
	assert.Equal(t, 1000, res.GoldBefore)
	assert.Equal(t, 1000-res.Fill.Total, res.GoldAfter)
	assert.Equal(t, res.GoldAfter, s.Gold)
	assert.Equal(t, 5, s.Cargo[1])

	res, err = s.Sell("Ashford", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fill.Units)
	assert.Equal(t, 3, s.Cargo[1])
	assert.Greater(t, res.GoldAfter, res.GoldBefore)
}

func TestTradeErrors(t *testing.T) {
	s := newSession(t)

	_, err := s.Buy("Atlantis", 0, 1)
	assert.ErrorIs(t, err, engine.ErrUnknownCity)
	_, err = s.Buy("Ashford", 9, 1)
	assert.ErrorIs(t, err, engine.ErrUnknownGood)
	_, err = s.Buy("Ashford", 0, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)
	_, err = s.Sell("Ashford", 0, 1)
	assert.ErrorIs(t, err, engine.ErrInsufficientCargo)

	s.Gold = 3
	res, err := s.Buy("Ashford", 3, 1)
	assert.ErrorIs(t, err, engine.ErrInsufficientGold)
	assert.Equal(t, 0, res.Fill.Units)
	assert.Equal(t, 3, s.Gold)
}

func TestBuyIsCappedByGold(t *testing.T) {
	s := newSession(t)
	s.Gold = 100
	res, err := s.Buy("Brightwater", 0, 1000)
	require.NoError(t, err)
	assert.Greater(t, res.Fill.Units, 0)
	assert.Less(t, res.Fill.Units, 1000)
	assert.GreaterOrEqual(t, s.Gold, 0)
}

func TestSellCompletesQuest(t *testing.T) {
	s := newSession(t)
	s.Quests.Add(&quest.Quest{Name: "Spice run", City: "Coldharbor", Good: 3, QuantityNeeded: 2, RewardGold: 300})
	s.Cargo[3] = 5

	res, err := s.Sell("Brightwater", 3, 2)
	require.NoError(t, err)
	assert.Empty(t, res.Completed, "wrong city")

	res, err = s.Sell("Coldharbor", 3, 2)
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, 300, res.Reward)
	assert.Equal(t, res.GoldBefore+res.Fill.Total+300, res.GoldAfter)
	assert.Equal(t, 0, s.Quests.Len())
}

func TestTravel(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.TravelToCity("Ashford"))
	assert.ErrorIs(t, s.TravelToCity("Atlantis"), engine.ErrUnknownCity)

	// 200 units/s at 60 frames/s; Ashford is ~322 units away.
	s.Clock.Advance(60)
	assert.InDelta(t, 200, s.WorldPos.Distance(world.Position{}), 1e-6)
	assert.Equal(t, "", s.CurrentCity)

	s.Clock.Advance(120)
	assert.Equal(t, world.Position{X: 310, Y: -88}, s.WorldPos)
	assert.Equal(t, "Ashford", s.CurrentCity)
}

func TestClockStepsMarkets(t *testing.T) {
	s := newSession(t)
	s.Clock.Advance(1200)
	assert.Len(t, s.Registry().Names(), 3)
	assert.Equal(t, 2, s.Registry().History("Coldharbor").Len())
}

func TestSessionSaveRoundTrip(t *testing.T) {
	s := newSession(t)
	s.Quests.Add(&quest.Quest{Name: "Iron", City: "Ashford", Good: 2, QuantityNeeded: 10, RewardGold: 90})
	_, err := s.Buy("Coldharbor", 0, 3)
	require.NoError(t, err)
	require.NoError(t, s.TravelToCity("Brightwater"))
	s.Clock.Advance(1800)
	s.MusicVolume = 0.4

	b, err := json.Marshal(s.ToMap())
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(b, &saved))

	loaded := newSession(t)
	loaded.LoadMap(saved)

	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.Gold, loaded.Gold)
	assert.Equal(t, s.Cargo, loaded.Cargo)
	assert.Equal(t, s.WorldPos, loaded.WorldPos)
	assert.Equal(t, s.Target, loaded.Target)
	assert.Equal(t, 0.4, loaded.MusicVolume)
	assert.Equal(t, s.Clock.Frame, loaded.Clock.Frame)
	require.Equal(t, 1, loaded.Quests.Len())
	assert.Equal(t, s.Quests.Active()[0], loaded.Quests.Active()[0])

	// Both sessions continue on identical trajectories.
	s.Clock.Advance(1200)
	loaded.Clock.Advance(1200)
	assert.Equal(t, s.Registry().Snapshots(), loaded.Registry().Snapshots())
	assert.Equal(t, s.CurrentCity, loaded.CurrentCity)
}

func TestLoadMapDefaults(t *testing.T) {
	s := newSession(t)
	s.LoadMap(map[string]any{
		"playerGold":  "plenty",
		"sfxVolume":   7.0,
		"playerCargo": []any{2.0, -4.0},
	})
	assert.Equal(t, 1000, s.Gold)
	assert.Equal(t, 1.0, s.MusicVolume)
	assert.Equal(t, 1.0, s.SFXVolume)
	assert.Equal(t, uint64(0), s.FirstLoadSeed)
	assert.Equal(t, uint64(0), s.Registry().Seed())
	assert.Equal(t, []int{2, 0, 0, 0}, s.Cargo)
	assert.Equal(t, 0, s.Quests.Len())
	assert.Empty(t, s.Registry().Names())
}

func TestMissions(t *testing.T) {
	s := newSession(t)
	assert.Empty(t, s.Missions())

	s.Quests.Add(&quest.Quest{City: "Ashford", Good: 1, QuantityNeeded: 6, QuantityDelivered: 2})
	s.Quests.Add(&quest.Quest{City: "Dunmere", Good: 9, QuantityNeeded: 1})
	assert.Equal(t, []string{"SELL 2/6 CLOTH IN ASHFORD", "SELL 0/1 GOOD 9 IN DUNMERE"}, s.Missions())
}
