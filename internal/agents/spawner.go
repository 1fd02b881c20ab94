// Agent spawning: samples the initial population of a city market.
package agents

// Sampler is the random stream the spawner draws attributes from.
type Sampler interface {
	Range(lo, hi float64) float64
	IntRange(lo, hi int) int
}

// SpawnConfig bounds the randomly sampled attributes of a new agent.
// Each pair is an inclusive [min, max] range.
type SpawnConfig struct {
	ValueMin       float64 `yaml:"value_min" json:"value_min"`
	ValueMax       float64 `yaml:"value_max" json:"value_max"`
	HalfUtilityMin float64 `yaml:"half_utility_min" json:"half_utility_min"`
	HalfUtilityMax float64 `yaml:"half_utility_max" json:"half_utility_max"`
	ExpectedMin    float64 `yaml:"expected_min" json:"expected_min"`
	ExpectedMax    float64 `yaml:"expected_max" json:"expected_max"`
	GoodsMin       int     `yaml:"goods_min" json:"goods_min"`
	GoodsMax       int     `yaml:"goods_max" json:"goods_max"`
	InitialMoney   int     `yaml:"initial_money" json:"initial_money"`
	VolatilityMin  float64 `yaml:"volatility_min" json:"volatility_min"`
	VolatilityMax  float64 `yaml:"volatility_max" json:"volatility_max"`
	WorkMin        float64 `yaml:"work_min" json:"work_min"`
	WorkMax        float64 `yaml:"work_max" json:"work_max"`
	LeisureMin     float64 `yaml:"leisure_min" json:"leisure_min"`
	LeisureMax     float64 `yaml:"leisure_max" json:"leisure_max"`
}

// DefaultSpawnConfig returns the ranges used when a city has no overrides.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		ValueMin:       1,
		ValueMax:       20,
		HalfUtilityMin: 2,
		HalfUtilityMax: 8,
		ExpectedMin:    1,
		ExpectedMax:    20,
		GoodsMin:       0,
		GoodsMax:       5,
		InitialMoney:   100,
		VolatilityMin:  0.1,
		VolatilityMax:  0.4,
		WorkMin:        1,
		WorkMax:        1,
		LeisureMin:     0.5,
		LeisureMax:     2,
	}
}

// Spawner creates agents for one market.
type Spawner struct {
	cfg      SpawnConfig
	numGoods int
	rng      Sampler
}

// NewSpawner creates a spawner for agents with numGoods goods.
func NewSpawner(cfg SpawnConfig, numGoods int, rng Sampler) *Spawner {
	return &Spawner{cfg: cfg, numGoods: numGoods, rng: rng}
}

// SpawnPopulation creates count agents. Sampling order is fixed so a seed
// always yields the same population.
func (s *Spawner) SpawnPopulation(count int) []*Agent {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.spawnOne())
	}
	return out
}

func (s *Spawner) spawnOne() *Agent {
	n := s.numGoods
	a := &Agent{
		Goods:       make([]int, n),
		Money:       s.cfg.InitialMoney,
		Expected:    make([]float64, n),
		BaseValue:   make([]float64, n),
		HalfUtility: make([]float64, n),
	}
	for g := 0; g < n; g++ {
		a.BaseValue[g] = s.rng.Range(s.cfg.ValueMin, s.cfg.ValueMax)
		a.HalfUtility[g] = s.rng.Range(s.cfg.HalfUtilityMin, s.cfg.HalfUtilityMax)
		a.Expected[g] = s.rng.Range(s.cfg.ExpectedMin, s.cfg.ExpectedMax)
		a.Goods[g] = s.rng.IntRange(s.cfg.GoodsMin, s.cfg.GoodsMax)
	}
	a.Volatility = s.rng.Range(s.cfg.VolatilityMin, s.cfg.VolatilityMax)
	a.BaseWork = s.rng.Range(s.cfg.WorkMin, s.cfg.WorkMax)
	a.BaseLeisure = s.rng.Range(s.cfg.LeisureMin, s.cfg.LeisureMax)
	if a.Money < 0 {
		a.Money = 0
	}
	for g := range a.Goods {
		if a.Goods[g] < 0 {
			a.Goods[g] = 0
		}
	}
	return a
}
