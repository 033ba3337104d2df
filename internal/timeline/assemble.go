package timeline

// AssembleOptions are the tunables of the edit-list path.
type AssembleOptions struct {
	SpeedMultiplier      float64
	MinPauseBetweenShots float64
}

// Assemble parses edit-list lines, propagates blank-row delays and merges
// adjacent segments into the final cut list.
func Assemble(lines []Line, opts AssembleOptions, duration DurationFunc, warn Warner) ([]Segment, error) {
	rows, err := ParseEditList(lines, opts.SpeedMultiplier, warn)
	if err != nil {
		return nil, err
	}
	return AssembleRows(rows, opts, duration)
}

// AssembleRows runs the delay and merge passes over already parsed rows.
func AssembleRows(rows []Row, opts AssembleOptions, duration DurationFunc) ([]Segment, error) {
	delayed, err := PropagateDelays(rows, duration)
	if err != nil {
		return nil, err
	}
	return Merge(delayed, opts.MinPauseBetweenShots), nil
}

// PlayerPosition is the offset in the rendered output where targetLine
// begins: the summed length of segments from earlier lines divided by the
// clamped global speed.
func PlayerPosition(segments []Segment, targetLine int, speed float64) float64 {
	var total float64
	for _, seg := range segments {
		if seg.Line < targetLine {
			total += seg.Duration()
		}
	}
	return total / ClampSpeed(speed)
}

// WordsPerSecond averages caption density over the rendered length of each
// segment. Segments without positive rendered length are skipped.
func WordsPerSecond(segments []Segment) float64 {
	var sum float64
	n := 0
	for _, seg := range segments {
		if seg.Speed <= 0 || seg.Duration() <= 0 {
			continue
		}
		sum += float64(seg.Words) / RenderedDuration(seg)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RenderedDuration is the playback length of a segment after speed-up.
func RenderedDuration(seg Segment) float64 {
	if seg.Speed <= 0 {
		return seg.Duration()
	}
	return seg.Duration() / seg.Speed
}
