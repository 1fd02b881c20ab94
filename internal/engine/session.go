package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/economy"
	"github.com/talgya/mini-market/internal/kv"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/quest"
	"github.com/talgya/mini-market/internal/world"
)

// Session errors.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrUnknownGood       = errors.New("unknown good")
	ErrInsufficientGold  = errors.New("not enough gold")
	ErrInsufficientCargo = errors.New("not enough cargo")
)

// Defaults applied to missing save fields.
const (
	DefaultVolume       = 1.0
	DefaultArriveRadius = 50.0
)

// Save-file keys.
const (
	keyEconomies = "CityEconomies"
	keyQuests    = "activeQuests"
)

// TradeResult reports one player trade.
type TradeResult struct {
	City       string
	Fill       market.Fill
	GoldBefore int
	GoldAfter  int
	Completed  []*quest.Quest // Quests finished by this sale
	Reward     int            // Quest gold included in GoldAfter
}

// Session is one player's game: gold, cargo, position, settings, quests
// and the registry of city markets.
type Session struct {
	ID            uuid.UUID
	FirstLoadSeed uint64
	Gold          int
	Cargo         []int // Units held per good
	WorldPos      world.Position
	Target        world.Position
	MusicVolume   float64
	SFXVolume     float64
	CurrentCity   string
	Quests        *quest.Log

	Markup       float64 // Order factor for purchases
	Markdown     float64 // Order factor for sales
	MoveSpeed    float64 // World units per second
	ArriveRadius float64

	Clock *Engine

	registry     *Registry
	catalog      *economy.Catalog
	frameRate    int
	startingGold int
}

// NewSession starts a fresh game from configuration.
func NewSession(cfg *config.Config, catalog *economy.Catalog, atlas *world.Atlas) *Session {
	s := &Session{
		ID:            uuid.New(),
		FirstLoadSeed: cfg.Seed,
		Gold:          cfg.Session.StartingGold,
		Cargo:         make([]int, catalog.Len()),
		MusicVolume:   DefaultVolume,
		SFXVolume:     DefaultVolume,
		Quests:        &quest.Log{},
		Markup:        1 + cfg.Market.Spread,
		Markdown:      1 - cfg.Market.Spread,
		MoveSpeed:     cfg.Session.MoveSpeed,
		ArriveRadius:  DefaultArriveRadius,
		Clock:         NewEngine(cfg.Session.StepEveryFrames, cfg.Session.FrameRate),
		registry: NewRegistry(RegistryConfig{
			Seed:          cfg.Seed,
			Atlas:         atlas,
			Price:         cfg.PriceConfig(catalog),
			Population:    cfg.PopulationConfig(catalog),
			HistoryLength: cfg.Market.HistoryLength,
		}),
		catalog:      catalog,
		frameRate:    cfg.Session.FrameRate,
		startingGold: cfg.Session.StartingGold,
	}
	s.Clock.OnFrame = func(uint64) { s.Move(1 / float64(s.frameRate)) }
	s.Clock.OnStep = s.step
	return s
}

// Registry returns the session's city markets.
func (s *Session) Registry() *Registry { return s.registry }

// Catalog returns the goods catalog.
func (s *Session) Catalog() *economy.Catalog { return s.catalog }

func (s *Session) step(n uint64) {
	if err := s.registry.StepAll(); err != nil {
		slog.Error("market step failed", "step", n, "error", err)
		return
	}
	slog.Debug("markets stepped", "step", n, "cities", len(s.registry.Names()))
}

func (s *Session) checkTrade(good, amount int) error {
	if good < 0 || good >= s.catalog.Len() {
		return fmt.Errorf("good %d: %w", good, ErrUnknownGood)
	}
	if amount <= 0 {
		return fmt.Errorf("%d units: %w", amount, ErrInvalidAmount)
	}
	return nil
}

// Buy purchases up to amount units of good in city with the player's gold.
// A partial fill is not an error; ErrInsufficientGold means not even one
// unit was affordable.
func (s *Session) Buy(city string, good, amount int) (TradeResult, error) {
	if err := s.checkTrade(good, amount); err != nil {
		return TradeResult{}, err
	}
	m, err := s.registry.Obtain(city)
	if err != nil {
		return TradeResult{}, err
	}

	res := TradeResult{City: city, GoldBefore: s.Gold}
	res.Fill = m.Buy(market.Order{Good: good, Factor: s.Markup, Amount: amount, Budget: s.Gold})
	s.Gold -= res.Fill.Total
	s.Cargo[good] += res.Fill.Units
	res.GoldAfter = s.Gold

	if res.Fill.Units == 0 && float64(s.Gold) < m.BuyPrice(good) {
		return res, fmt.Errorf("buy %s in %s: %w", s.catalog.Good(good).Key, city, ErrInsufficientGold)
	}
	slog.Debug("player bought", "city", city, "good", s.catalog.Good(good).Key,
		"units", res.Fill.Units, "gold", res.Fill.Total)
	return res, nil
}

// Sell sells amount units of good from cargo in city. Units sold count
// toward delivery quests targeting that city.
func (s *Session) Sell(city string, good, amount int) (TradeResult, error) {
	if err := s.checkTrade(good, amount); err != nil {
		return TradeResult{}, err
	}
	if s.Cargo[good] < amount {
		return TradeResult{}, fmt.Errorf("sell %d %s, holding %d: %w",
			amount, s.catalog.Good(good).Key, s.Cargo[good], ErrInsufficientCargo)
	}
	m, err := s.registry.Obtain(city)
	if err != nil {
		return TradeResult{}, err
	}

	res := TradeResult{City: city, GoldBefore: s.Gold}
	res.Fill = m.Sell(market.Order{Good: good, Factor: s.Markdown, Amount: amount, Budget: market.Unlimited})
	s.Cargo[good] -= res.Fill.Units
	s.Gold += res.Fill.Total

	if res.Fill.Units > 0 {
		res.Completed, res.Reward = s.Quests.Deliver(good, res.Fill.Units, city)
		s.Gold += res.Reward
		for _, q := range res.Completed {
			slog.Info("quest completed", "quest", q.Name, "city", city, "reward", q.RewardGold)
		}
	}
	res.GoldAfter = s.Gold
	return res, nil
}

// Quote returns the city's current quotes.
func (s *Session) Quote(city string) ([]market.Quote, error) {
	m, err := s.registry.Obtain(city)
	if err != nil {
		return nil, err
	}
	return m.Prices(), nil
}

// Missions returns the progress line of every active quest.
func (s *Session) Missions() []string {
	out := make([]string, 0, s.Quests.Len())
	for _, q := range s.Quests.Active() {
		out = append(out, q.Mission(s.catalog.NameOf(q.Good)))
	}
	return out
}

// TravelTo sets the point the player walks toward.
func (s *Session) TravelTo(p world.Position) {
	s.Target = p
}

// TravelToCity targets a city's position.
func (s *Session) TravelToCity(name string) error {
	c, ok := s.registry.Atlas().City(name)
	if !ok {
		return fmt.Errorf("travel to %q: %w", name, ErrUnknownCity)
	}
	s.TravelTo(c.Position)
	return nil
}

// Move walks the player toward the target for dt seconds and updates the
// current city: the nearest city within ArriveRadius, or none.
func (s *Session) Move(dt float64) {
	dx, dy := s.Target.X-s.WorldPos.X, s.Target.Y-s.WorldPos.Y
	dist := math.Hypot(dx, dy)
	if dist > 1 {
		step := s.MoveSpeed * dt
		if step >= dist {
			s.WorldPos = s.Target
		} else {
			s.WorldPos.X += dx / dist * step
			s.WorldPos.Y += dy / dist * step
		}
	}

	prev := s.CurrentCity
	s.CurrentCity = ""
	if c, d, ok := s.registry.Atlas().Nearest(s.WorldPos); ok && d <= s.ArriveRadius {
		s.CurrentCity = c.Name
	}
	if s.CurrentCity != prev && s.CurrentCity != "" {
		slog.Info("arrived", "city", s.CurrentCity)
	}
}

// ToMap encodes the whole session, city economies included, for a save.
func (s *Session) ToMap() map[string]any {
	economies := make(map[string]any)
	for name, snap := range s.registry.Snapshots() {
		economies[name] = map[string]any(snap)
	}
	return map[string]any{
		"sessionId":     s.ID.String(),
		"firstLoadSeed": strconv.FormatUint(s.FirstLoadSeed, 10),
		"playerGold":    s.Gold,
		"playerCargo":   append([]int(nil), s.Cargo...),
		"worldPosX":     s.WorldPos.X,
		"worldPosY":     s.WorldPos.Y,
		"targetPosX":    s.Target.X,
		"targetPosY":    s.Target.Y,
		"musicVolume":   s.MusicVolume,
		"sfxVolume":     s.SFXVolume,
		"currentCity":   s.CurrentCity,
		"frame":         strconv.FormatUint(s.Clock.Frame, 10),
		keyQuests:       s.Quests.ToList(),
		keyEconomies:    economies,
	}
}

// LoadMap replaces the session state with a save written by ToMap.
// Missing or malformed fields fall back to new-game defaults: 1000 gold
// unless configured otherwise, volumes 1.0, seed 0. Every city economy in
// the save is restored; other cities start fresh from the loaded seed.
func (s *Session) LoadMap(m map[string]any) {
	d := kv.Map(m)

	if id, err := uuid.Parse(d.String("sessionId", "")); err == nil {
		s.ID = id
	} else {
		s.ID = uuid.New()
	}
	s.FirstLoadSeed = d.Uint64("firstLoadSeed", 0)
	s.Gold = max(0, d.Int("playerGold", s.startingGold))
	s.MusicVolume = clamp01(d.Float("musicVolume", DefaultVolume))
	s.SFXVolume = clamp01(d.Float("sfxVolume", DefaultVolume))
	s.WorldPos = world.Position{X: d.Float("worldPosX", 0), Y: d.Float("worldPosY", 0)}
	s.Target = world.Position{X: d.Float("targetPosX", s.WorldPos.X), Y: d.Float("targetPosY", s.WorldPos.Y)}
	s.CurrentCity = d.String("currentCity", "")
	s.Clock.Frame = d.Uint64("frame", 0)

	s.Cargo = make([]int, s.catalog.Len())
	if cargo, ok := d.Ints("playerCargo"); ok {
		for g := 0; g < len(s.Cargo) && g < len(cargo); g++ {
			s.Cargo[g] = max(0, cargo[g])
		}
	}

	list, _ := m[keyQuests].([]any)
	s.Quests = quest.LogFromList(list)

	s.registry.Reset(s.FirstLoadSeed)
	for name, snap := range economies(m[keyEconomies]) {
		s.registry.Restore(name, snap)
	}
	slog.Info("session loaded", "session", s.ID, "gold", s.Gold, "cities", len(s.registry.Names()))
}

func economies(v any) map[string]market.Snapshot {
	out := make(map[string]market.Snapshot)
	switch e := v.(type) {
	case map[string]market.Snapshot:
		for name, snap := range e {
			out[name] = snap
		}
	case map[string]any:
		for name, raw := range e {
			switch snap := raw.(type) {
			case map[string]any:
				out[name] = snap
			case market.Snapshot:
				out[name] = snap
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
