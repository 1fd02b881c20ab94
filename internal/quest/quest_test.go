package quest_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-market/internal/quest"
)

func grainForAshford() *quest.Quest {
	return &quest.Quest{
		Name:           "Hungry Winter",
		City:           "Ashford",
		Good:           0,
		QuantityNeeded: 10,
		RewardGold:     250,
	}
}

func TestDeliver(t *testing.T) {
	q := grainForAshford()

	assert.False(t, q.Deliver(1, 5, "Ashford"), "wrong good")
	assert.False(t, q.Deliver(0, 5, "Dunmere"), "wrong city")
	assert.False(t, q.Deliver(0, -2, "Ashford"))
	assert.Equal(t, 0, q.QuantityDelivered)

	assert.False(t, q.Deliver(0, 4, "Ashford"))
	assert.Equal(t, 6, q.Remaining())
	assert.Equal(t, "SELL 4/10 GRAIN IN ASHFORD", q.Mission("Grain"))

	assert.True(t, q.Deliver(0, 20, "Ashford"))
	assert.True(t, q.Done())
	assert.Equal(t, 10, q.QuantityDelivered)
	assert.False(t, q.Deliver(0, 1, "Ashford"), "already complete")
}

func TestLogDeliver(t *testing.T) {
	var l quest.Log
	l.Add(grainForAshford())
	l.Add(&quest.Quest{Name: "Cloth", City: "Ashford", Good: 1, QuantityNeeded: 2, RewardGold: 40})
	l.Add(&quest.Quest{Name: "More grain", City: "Ashford", Good: 0, QuantityNeeded: 3, RewardGold: 30})

	done, gold := l.Deliver(0, 3, "Ashford")
	require.Len(t, done, 1)
	assert.Equal(t, "More grain", done[0].Name)
	assert.Equal(t, 30, gold)
	assert.Equal(t, 2, l.Len())

	done, gold = l.Deliver(1, 2, "Ashford")
	require.Len(t, done, 1)
	assert.Equal(t, 40, gold)
	require.Len(t, l.Active(), 1)
	assert.Equal(t, 3, l.Active()[0].QuantityDelivered)
}

func TestMapRoundTrip(t *testing.T) {
	q := grainForAshford()
	q.Text = "The granaries are empty."
	q.Reward = "250 gold"
	q.Deliver(0, 7, "Ashford")

	var l quest.Log
	l.Add(q)
	b, err := json.Marshal(l.ToList())
	require.NoError(t, err)
	var decoded []any
	require.NoError(t, json.Unmarshal(b, &decoded))

	back := quest.LogFromList(append(decoded, "junk"))
	require.Equal(t, 1, back.Len())
	assert.Equal(t, q, back.Active()[0])
}

func TestFromMapDefaults(t *testing.T) {
	q := quest.FromMap(map[string]any{"cityTarget": "Dunmere", "quantityNeeded": "lots", "questRewardGold": -5.0})
	assert.Equal(t, "Dunmere", q.City)
	assert.Equal(t, 0, q.QuantityNeeded)
	assert.Equal(t, 0, q.RewardGold)
	assert.True(t, q.Done())
}
