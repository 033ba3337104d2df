// Package timeline turns edit lists and voice activity intervals into the
// ordered list of cut points that the render and playback stages consume.
package timeline

// Segment is a time range within one source file played at Speed.
type Segment struct {
	Source string
	Start  float64
	End    float64
	Speed  float64

	// edit-list metadata, zero for segments coming from VAD output
	Line    int
	Words   int
	Caption string
}

func (s Segment) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Row is one parsed edit-list line: either a BlankRow or a TimedRow.
type Row interface {
	LineNumber() int
	isRow()
}

// BlankRow marks an intended pause after the preceding segment.
type BlankRow struct {
	Line int
}

func (r BlankRow) LineNumber() int { return r.Line }
func (BlankRow) isRow()            {}

// TimedRow carries a real segment.
type TimedRow struct {
	Segment Segment
}

func (r TimedRow) LineNumber() int { return r.Segment.Line }
func (TimedRow) isRow()            {}

// Sources returns the distinct source ids of the timed rows in first-seen order.
func Sources(rows []Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		tr, ok := r.(TimedRow)
		if !ok || seen[tr.Segment.Source] {
			continue
		}
		seen[tr.Segment.Source] = true
		out = append(out, tr.Segment.Source)
	}
	return out
}
