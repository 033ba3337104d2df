package timeline

// starts closer than this to zero are snapped to the clip start
const SnapToStart = 0.2

// Merge folds consecutive segments of the same source into one when the gap
// between them is below minPause or they overlap. A merged segment spans the
// union of both and plays at the higher speed; it keeps the metadata of the
// first segment of its group. Segments with Start >= End are dropped.
func Merge(segments []Segment, minPause float64) []Segment {
	acc := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if len(acc) == 0 {
			acc = append(acc, seg)
			continue
		}

		prev := &acc[len(acc)-1]
		dt := seg.Start - prev.End
		overlap := Overlaps(seg.Interval(), prev.Interval()) ||
			Overlaps(prev.Interval(), seg.Interval())
		if seg.Source != prev.Source || (dt >= minPause && !overlap) {
			acc = append(acc, seg)
			continue
		}

		prev.Start = min(seg.Start, prev.Start)
		if prev.Start < SnapToStart {
			prev.Start = 0.0
		}
		prev.End = max(seg.End, prev.End)
		prev.Speed = max(seg.Speed, prev.Speed)
		prev.Words += seg.Words
		prev.Caption = joinCaption(prev.Caption, seg.Caption)
	}

	out := acc[:0]
	for _, seg := range acc {
		if seg.Start < seg.End {
			out = append(out, seg)
		}
	}
	return out
}

func joinCaption(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
