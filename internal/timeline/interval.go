package timeline

// closed time range in seconds
type Interval struct {
	Start float64
	End   float64
}

func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Contains reports whether point lies in iv, both ends inclusive.
func Contains(point float64, iv Interval) bool {
	return iv.Start <= point && point <= iv.End
}

// Overlaps reports whether either endpoint of a lies inside b.
// It is one-directional: an a that strictly encloses b is not reported.
// Callers that need full coverage check both directions or use Intersects.
func Overlaps(a, b Interval) bool {
	return Contains(a.Start, b) || Contains(a.End, b)
}

// Intersects is the symmetric closed-interval intersection test.
func Intersects(a, b Interval) bool {
	return a.Start <= b.End && b.Start <= a.End
}
