package persistence_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/engine"
	"github.com/talgya/mini-market/internal/persistence"
	"github.com/talgya/mini-market/internal/quest"
	"github.com/talgya/mini-market/internal/world"
)

func openDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newSession(t *testing.T) *engine.Session {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 31
	cfg.Population.Agents = 25
	cat, err := cfg.Catalog()
	require.NoError(t, err)
	atlas, err := world.FromConfig(cfg)
	require.NoError(t, err)
	return engine.NewSession(cfg, cat, atlas)
}

func TestSaveAndLoadGame(t *testing.T) {
	db := openDB(t)
	s := newSession(t)
	s.Quests.Add(&quest.Quest{Name: "Cloth", City: "Dunmere", Good: 1, QuantityNeeded: 4, RewardGold: 60})
	_, err := s.Buy("Coldharbor", 2, 2)
	require.NoError(t, err)
	s.Clock.Advance(1200)

	require.NoError(t, db.SaveGame("slot one", s))
	assert.True(t, db.HasSave("slot one"))

	loaded := newSession(t)
	require.NoError(t, db.LoadGame("slot one", loaded))
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.Gold, loaded.Gold)
	assert.Equal(t, s.Cargo, loaded.Cargo)
	assert.Equal(t, 1, loaded.Quests.Len())
	assert.Equal(t, s.Registry().Names(), loaded.Registry().Names())

	s.Clock.Advance(600)
	loaded.Clock.Advance(600)
	assert.Equal(t, s.Registry().Snapshots(), loaded.Registry().Snapshots())
}

func TestOverwriteAndList(t *testing.T) {
	db := openDB(t)
	s := newSession(t)
	require.NoError(t, db.SaveGame("a", s))

	s.Gold = 1234
	s.WorldPos = world.Position{X: 12.5, Y: -3}
	s.Clock.Advance(600)
	require.NoError(t, db.SaveGame("a", s))
	require.NoError(t, db.SaveGame("b", s))

	slots, err := db.ListSlots()
	require.NoError(t, err)
	require.Len(t, slots, 2)

	sum, err := db.Summary("a")
	require.NoError(t, err)
	assert.Equal(t, 1234, sum.Gold)
	assert.Equal(t, 12.5, sum.WorldX)
	assert.Equal(t, 4, sum.Cities)
	assert.Equal(t, int64(600), sum.Frame)
	assert.Equal(t, s.ID.String(), sum.SessionID)
	assert.Equal(t, "Gold: 1234\nWorldPos: (12.50,-3.00)\nCities: 4", sum.String())
	assert.False(t, sum.Time().IsZero())

	require.NoError(t, db.DeleteSlot("b"))
	assert.False(t, db.HasSave("b"))
	assert.ErrorIs(t, db.DeleteSlot("b"), persistence.ErrNoSave)
}

func TestMissingSlot(t *testing.T) {
	db := openDB(t)
	s := newSession(t)
	assert.ErrorIs(t, db.LoadGame("nope", s), persistence.ErrNoSave)
	_, err := db.Summary("nope")
	assert.ErrorIs(t, err, persistence.ErrNoSave)
	assert.ErrorIs(t, db.SaveGame("  ", s), persistence.ErrInvalidSlot)

	slots, err := db.ListSlots()
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestMeta(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.SaveMeta("last_slot", "a"))
	require.NoError(t, db.SaveMeta("last_slot", "b"))
	v, err := db.GetMeta("last_slot")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	_, err = db.GetMeta("missing")
	assert.Error(t, err)
}
