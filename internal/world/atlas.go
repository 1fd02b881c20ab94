// Package world holds the city atlas: every city's name, map position and
// market model.
package world

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/mini-market/internal/market"
)

// Position is a point in world coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// String formats the position the way save summaries show it.
func (p Position) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// City is one market town on the map. Its position seeds its market.
type City struct {
	Name     string       `json:"name"`
	Position Position     `json:"position"`
	Model    market.Model `json:"model"`
}

// Atlas is the ordered set of cities.
type Atlas struct {
	cities []City
	index  map[string]int
}

// NewAtlas builds an atlas, rejecting unnamed and duplicate cities.
func NewAtlas(cities []City) (*Atlas, error) {
	a := &Atlas{
		cities: make([]City, 0, len(cities)),
		index:  make(map[string]int, len(cities)),
	}
	for i, c := range cities {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("atlas: city %d has no name", i)
		}
		if _, dup := a.index[c.Name]; dup {
			return nil, fmt.Errorf("atlas: duplicate city %q", c.Name)
		}
		if c.Model == "" {
			c.Model = market.ModelPrice
		}
		a.index[c.Name] = len(a.cities)
		a.cities = append(a.cities, c)
	}
	return a, nil
}

// Len returns the number of cities.
func (a *Atlas) Len() int { return len(a.cities) }

// Cities returns a copy of the cities in atlas order.
func (a *Atlas) Cities() []City {
	return append([]City(nil), a.cities...)
}

// City looks up a city by name.
func (a *Atlas) City(name string) (City, bool) {
	i, ok := a.index[name]
	if !ok {
		return City{}, false
	}
	return a.cities[i], true
}

// Names returns the city names in atlas order.
func (a *Atlas) Names() []string {
	out := make([]string, len(a.cities))
	for i, c := range a.cities {
		out[i] = c.Name
	}
	return out
}

// Nearest returns the city closest to p and its distance. ok is false for
// an empty atlas.
func (a *Atlas) Nearest(p Position) (city City, dist float64, ok bool) {
	dist = math.Inf(1)
	for _, c := range a.cities {
		if d := c.Position.Distance(p); d < dist {
			city, dist, ok = c, d, true
		}
	}
	return city, dist, ok
}

// String returns a summary of the atlas.
func (a *Atlas) String() string {
	return fmt.Sprintf("Atlas(cities=%d)", len(a.cities))
}
