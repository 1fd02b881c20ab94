// City placement: scores the map with layered simplex noise and places
// cities at the most desirable spots, keeping a minimum spacing.
package world

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/market"
)

const (
	gridCells   = 32 // Candidate points per axis
	noiseScale  = 4.0
	octaves     = 4
	persistence = 0.5
)

// Placer assigns positions to cities that have none.
type Placer struct {
	Seed    uint64
	Extent  float64
	Spacing float64
}

type candidate struct {
	pos   Position
	score float64
}

// Place returns positions for count new cities given the already fixed
// positions. Placement depends only on the placer fields, so the same seed
// always yields the same map.
func (p Placer) Place(fixed []Position, count int) []Position {
	if count <= 0 {
		return nil
	}
	candidates := p.candidates()

	taken := append([]Position(nil), fixed...)
	out := make([]Position, 0, count)
	used := make([]bool, len(candidates))

	// Relax the spacing until every city fits.
	for spacing := p.Spacing; len(out) < count; spacing /= 2 {
		for i, c := range candidates {
			if len(out) >= count {
				break
			}
			if used[i] || tooClose(c.pos, taken, spacing) {
				continue
			}
			used[i] = true
			taken = append(taken, c.pos)
			out = append(out, c.pos)
		}
		if spacing < 1e-9 {
			break
		}
	}
	return out
}

// candidates scores a square grid over [-Extent, Extent] and returns it
// sorted by desirability, best first.
func (p Placer) candidates() []candidate {
	noise := opensimplex.NewNormalized(int64(p.Seed))
	step := 2 * p.Extent / gridCells

	out := make([]candidate, 0, (gridCells+1)*(gridCells+1))
	for i := 0; i <= gridCells; i++ {
		for j := 0; j <= gridCells; j++ {
			pos := Position{
				X: math.Round(-p.Extent + float64(i)*step),
				Y: math.Round(-p.Extent + float64(j)*step),
			}
			nx, ny := pos.X/p.Extent*noiseScale, pos.Y/p.Extent*noiseScale
			out = append(out, candidate{pos: pos, score: octaveNoise(noise, nx, ny, octaves, 1, persistence)})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].score > out[b].score
	})
	return out
}

// tooClose reports whether p is within minDist of any existing position.
// A position already taken is always too close, whatever the spacing.
func tooClose(p Position, existing []Position, minDist float64) bool {
	for _, q := range existing {
		if p == q || p.Distance(q) < minDist {
			return true
		}
	}
	return false
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// FromConfig builds the atlas: listed cities keep their positions, the rest
// are placed from the global seed, and extra procedurally named cities are
// appended.
func FromConfig(cfg *config.Config) (*Atlas, error) {
	cities := make([]City, 0, len(cfg.Cities)+cfg.Atlas.ExtraCities)
	var fixed []Position
	var pending []int

	for _, cc := range cfg.Cities {
		c := City{Name: cc.Name, Model: market.Model(cc.Model)}
		if cc.Placed() {
			c.Position = Position{X: *cc.X, Y: *cc.Y}
			fixed = append(fixed, c.Position)
		} else {
			pending = append(pending, len(cities))
		}
		cities = append(cities, c)
	}

	if n := cfg.Atlas.ExtraCities; n > 0 {
		taken := make(map[string]bool, len(cities))
		for _, c := range cities {
			taken[c.Name] = true
		}
		rng := entropy.New(cfg.Seed + 200)
		for _, name := range GenerateNames(rng, n, taken) {
			pending = append(pending, len(cities))
			cities = append(cities, City{Name: name, Model: market.Model(cfg.Market.Model)})
		}
	}

	placer := Placer{Seed: cfg.Seed, Extent: cfg.Atlas.Extent, Spacing: cfg.Atlas.Spacing}
	for i, pos := range placer.Place(fixed, len(pending)) {
		cities[pending[i]].Position = pos
	}
	return NewAtlas(cities)
}
