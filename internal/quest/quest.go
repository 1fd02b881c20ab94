// Package quest tracks delivery quests: bring a quantity of one good to a
// target city for a gold reward.
package quest

import (
	"fmt"
	"strings"

	"github.com/talgya/mini-market/internal/kv"
)

// Quest is one delivery contract.
type Quest struct {
	Name              string
	Text              string
	Reward            string // Reward description shown to the player
	City              string // Target city
	Good              int
	QuantityNeeded    int
	QuantityDelivered int
	RewardGold        int
}

// Remaining returns how many more units complete the quest.
func (q *Quest) Remaining() int {
	return max(0, q.QuantityNeeded-q.QuantityDelivered)
}

// Done reports whether enough units have been delivered.
func (q *Quest) Done() bool {
	return q.QuantityDelivered >= q.QuantityNeeded
}

// Deliver records quantity units of good sold in city and reports whether
// that completed the quest. Deliveries of other goods or to other cities
// are ignored.
func (q *Quest) Deliver(good, quantity int, city string) bool {
	if city != q.City || good != q.Good || quantity <= 0 || q.Done() {
		return false
	}
	q.QuantityDelivered = min(q.QuantityNeeded, q.QuantityDelivered+quantity)
	return q.Done()
}

// Mission formats the progress line, e.g. "SELL 3/10 GRAIN IN ASHFORD".
func (q *Quest) Mission(goodName string) string {
	return fmt.Sprintf("SELL %d/%d %s IN %s",
		q.QuantityDelivered, q.QuantityNeeded, strings.ToUpper(goodName), strings.ToUpper(q.City))
}

// ToMap encodes the quest for a save file.
func (q *Quest) ToMap() map[string]any {
	return map[string]any{
		"questName":         q.Name,
		"questText":         q.Text,
		"questReward":       q.Reward,
		"cityTarget":        q.City,
		"goodType":          q.Good,
		"quantityNeeded":    q.QuantityNeeded,
		"quantityDelivered": q.QuantityDelivered,
		"questRewardGold":   q.RewardGold,
	}
}

// FromMap decodes a quest written by ToMap. Missing or malformed fields
// decode as zero values.
func FromMap(m map[string]any) *Quest {
	s := kv.Map(m)
	return &Quest{
		Name:              s.String("questName", ""),
		Text:              s.String("questText", ""),
		Reward:            s.String("questReward", ""),
		City:              s.String("cityTarget", ""),
		Good:              s.Int("goodType", 0),
		QuantityNeeded:    max(0, s.Int("quantityNeeded", 0)),
		QuantityDelivered: max(0, s.Int("quantityDelivered", 0)),
		RewardGold:        max(0, s.Int("questRewardGold", 0)),
	}
}

// Log is the player's list of active quests.
type Log struct {
	active []*Quest
}

// Add accepts a quest.
func (l *Log) Add(q *Quest) {
	l.active = append(l.active, q)
}

// Active returns the accepted, unfinished quests.
func (l *Log) Active() []*Quest {
	return append([]*Quest(nil), l.active...)
}

// Len returns the number of active quests.
func (l *Log) Len() int { return len(l.active) }

// Deliver applies a sale to every active quest. Completed quests leave the
// log; their rewards are summed into gold.
func (l *Log) Deliver(good, quantity int, city string) (completed []*Quest, gold int) {
	kept := l.active[:0]
	for _, q := range l.active {
		if q.Deliver(good, quantity, city) {
			completed = append(completed, q)
			gold += q.RewardGold
			continue
		}
		kept = append(kept, q)
	}
	clear(l.active[len(kept):])
	l.active = kept
	return completed, gold
}

// ToList encodes every active quest for a save file.
func (l *Log) ToList() []any {
	out := make([]any, len(l.active))
	for i, q := range l.active {
		out[i] = q.ToMap()
	}
	return out
}

// LogFromList decodes a list written by ToList, skipping entries that are
// not maps.
func LogFromList(list []any) *Log {
	l := &Log{}
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			l.Add(FromMap(m))
		}
	}
	return l
}
