// Package economy holds the goods catalog shared by every city market.
package economy

import (
	"fmt"
	"strings"
)

// Good describes one tradeable good type.
type Good struct {
	Key        string  `json:"key" yaml:"key"`
	Name       string  `json:"name" yaml:"name"`
	BasePrice  float64 `json:"base_price" yaml:"base_price"` // Anchor for mean reversion
	Stickiness float64 `json:"stickiness" yaml:"stickiness"` // Resistance to price movement
}

// Catalog is the ordered list of goods. A good's index in the catalog is its
// index in every per-good array of every market.
type Catalog struct {
	goods []Good
	index map[string]int
}

// NewCatalog builds a catalog, rejecting empty lists and duplicate keys.
func NewCatalog(goods []Good) (*Catalog, error) {
	if len(goods) == 0 {
		return nil, fmt.Errorf("catalog: no goods")
	}
	c := &Catalog{
		goods: make([]Good, len(goods)),
		index: make(map[string]int, len(goods)),
	}
	for i, g := range goods {
		key := strings.ToLower(strings.TrimSpace(g.Key))
		if key == "" {
			return nil, fmt.Errorf("catalog: good %d has no key", i)
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate good %q", key)
		}
		g.Key = key
		if g.Name == "" {
			g.Name = key
		}
		c.goods[i] = g
		c.index[key] = i
	}
	return c, nil
}

// Len returns the number of goods.
func (c *Catalog) Len() int {
	return len(c.goods)
}

// Good returns the good at index i. It panics when i is out of range.
func (c *Catalog) Good(i int) Good {
	MustIndex(i, len(c.goods))
	return c.goods[i]
}

// NameOf returns the display name of good i, or "good i" when i is not in
// the catalog. Saved data may reference goods a later catalog dropped.
func (c *Catalog) NameOf(i int) string {
	if i >= 0 && i < len(c.goods) {
		return c.goods[i].Name
	}
	return fmt.Sprintf("good %d", i)
}

// Goods returns a copy of the ordered goods list.
func (c *Catalog) Goods() []Good {
	out := make([]Good, len(c.goods))
	copy(out, c.goods)
	return out
}

// Lookup returns the index of the good with the given key (case-insensitive).
func (c *Catalog) Lookup(key string) (int, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(key))]
	return i, ok
}

// Names returns display names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.goods))
	for i, g := range c.goods {
		names[i] = g.Name
	}
	return names
}

// BasePrices returns base prices in catalog order.
func (c *Catalog) BasePrices() []float64 {
	out := make([]float64, len(c.goods))
	for i, g := range c.goods {
		out[i] = g.BasePrice
	}
	return out
}

// Stickiness returns per-good stickiness in catalog order.
func (c *Catalog) Stickiness() []float64 {
	out := make([]float64, len(c.goods))
	for i, g := range c.goods {
		out[i] = g.Stickiness
	}
	return out
}

// MustIndex panics when good is not in [0, n). An out-of-range good index
// means the caller and the market disagree about the schema.
func MustIndex(good, n int) {
	if good < 0 || good >= n {
		panic(fmt.Sprintf("economy: good index %d out of range [0,%d)", good, n))
	}
}
