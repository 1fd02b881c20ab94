package engine

// History is a bounded series of per-good price samples, oldest first.
// Once full, each new sample drops the oldest.
type History struct {
	limit  int
	points [][]float64
}

// NewHistory creates a history holding at most limit samples.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// Add records one sample. The slice is copied.
func (h *History) Add(prices []float64) {
	if len(h.points) == h.limit {
		copy(h.points, h.points[1:])
		h.points = h.points[:h.limit-1]
	}
	h.points = append(h.points, append([]float64(nil), prices...))
}

// Len returns the number of samples held.
func (h *History) Len() int { return len(h.points) }

// Limit returns the capacity.
func (h *History) Limit() int { return h.limit }

// Series returns the samples of one good, oldest first.
func (h *History) Series(good int) []float64 {
	out := make([]float64, 0, len(h.points))
	for _, p := range h.points {
		if good >= 0 && good < len(p) {
			out = append(out, p[good])
		}
	}
	return out
}

// Last returns the newest sample, or nil.
func (h *History) Last() []float64 {
	if len(h.points) == 0 {
		return nil
	}
	return append([]float64(nil), h.points[len(h.points)-1]...)
}

// Change returns the newest minus the oldest sample of good, or 0 with
// fewer than two samples.
func (h *History) Change(good int) float64 {
	s := h.Series(good)
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1] - s[0]
}
