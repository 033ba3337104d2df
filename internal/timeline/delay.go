package timeline

const (
	// hold added per consecutive blank row
	DelayTime = 1.0

	StartCorrection = 0.3
	EndCorrection   = 0.3
)

// DurationFunc resolves the duration in seconds of a source.
type DurationFunc func(source string) (float64, error)

// PropagateDelays extends the end of every segment by DelayTime for each
// blank row that immediately follows it, pads both bounds, and clamps them
// into [0, source duration]. Blank rows are consumed; leading blanks that
// follow no segment are dropped. Each source duration is looked up once.
func PropagateDelays(rows []Row, duration DurationFunc) ([]Segment, error) {
	type delayed struct {
		seg    Segment
		blanks int
	}

	// walk backwards so each segment sees the blank run that follows it
	pairs := make([]delayed, 0, len(rows))
	blanks := 0
	for i := len(rows) - 1; i >= 0; i-- {
		switch r := rows[i].(type) {
		case BlankRow:
			blanks++
		case TimedRow:
			pairs = append(pairs, delayed{seg: r.Segment, blanks: blanks})
			blanks = 0
		}
	}

	durations := make(map[string]float64)
	out := make([]Segment, 0, len(pairs))
	for i := len(pairs) - 1; i >= 0; i-- {
		p := pairs[i]
		d, ok := durations[p.seg.Source]
		if !ok {
			var err error
			d, err = duration(p.seg.Source)
			if err != nil {
				return nil, &DurationLookupError{Source: p.seg.Source, Err: err}
			}
			durations[p.seg.Source] = d
		}

		seg := p.seg
		seg.Start = max(seg.Start-StartCorrection, 0.0)
		seg.End = min(seg.End+float64(p.blanks)*DelayTime+EndCorrection, d)
		out = append(out, seg)
	}
	return out, nil
}
