package world

// Intner is the random stream name generation draws from.
type Intner interface {
	IntN(n int) int
}

var (
	prefixes = []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes = []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}
)

// GenerateNames produces count distinct city names by combining syllables,
// skipping any name in taken. It stops early once every combination is used.
func GenerateNames(rng Intner, count int, taken map[string]bool) []string {
	used := make(map[string]bool, len(taken)+count)
	for name := range taken {
		used[name] = true
	}

	free := len(prefixes) * len(suffixes)
	for _, p := range prefixes {
		for _, s := range suffixes {
			if taken[p+s] {
				free--
			}
		}
	}
	if count > free {
		count = free
	}

	names := make([]string, 0, count)
	for len(names) < count {
		name := prefixes[rng.IntN(len(prefixes))] + suffixes[rng.IntN(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	return names
}
