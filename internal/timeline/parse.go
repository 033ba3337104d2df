package timeline

import (
	"math"
	"strconv"
	"strings"
)

// minimum speed accepted after the multiplier is applied
const MinRenderSpeed = 1.0

const editListColumns = 5

// Line is a non-comment edit-list line with its 1-based position in the file.
type Line struct {
	Number int
	Text   string
}

// Warner receives notices that must be surfaced without failing the run.
type Warner interface {
	Warnw(msg string, keysAndValues ...any)
}

type nopWarner struct{}

func (nopWarner) Warnw(string, ...any) {}

// ParseEditList turns tab-separated rows (source, speed, start, end, caption)
// into typed rows. Empty lines become BlankRow markers. The row speed is
// multiplied by speedMultiplier, clamped, and raised to MinRenderSpeed with a
// warning when it falls below it.
func ParseEditList(lines []Line, speedMultiplier float64, warn Warner) ([]Row, error) {
	if warn == nil {
		warn = nopWarner{}
	}

	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimRight(line.Text, "\r\n")
		if text == "" {
			rows = append(rows, BlankRow{Line: line.Number})
			continue
		}

		seg, err := parseRow(line.Number, text, speedMultiplier)
		if err != nil {
			return nil, err
		}
		if seg.Speed < MinRenderSpeed {
			warn.Warnw("segment speed below minimum, forcing minimum",
				"source", seg.Source,
				"line", seg.Line,
				"speed", seg.Speed,
				"forced", MinRenderSpeed,
			)
			seg.Speed = MinRenderSpeed
		}
		rows = append(rows, TimedRow{Segment: seg})
	}
	return rows, nil
}

func parseRow(number int, text string, speedMultiplier float64) (Segment, error) {
	cols := strings.SplitN(text, "\t", editListColumns)
	if len(cols) != editListColumns {
		return Segment{}, &ParseError{
			Line:   number,
			Reason: "expected " + strconv.Itoa(editListColumns) + " tab-separated columns, got " + strconv.Itoa(len(cols)),
		}
	}
	source, speedText, startText, endText, caption := cols[0], cols[1], cols[2], cols[3], cols[4]

	if strings.TrimSpace(source) == "" {
		return Segment{}, &ParseError{Line: number, Column: "source", Reason: "empty source"}
	}

	speed, err := parseFloat(number, "speed", speedText)
	if err != nil {
		return Segment{}, err
	}
	start, err := parseFloat(number, "start", startText)
	if err != nil {
		return Segment{}, err
	}
	if strings.TrimSpace(endText) == "" {
		return Segment{}, &ParseError{Line: number, Column: "end", Reason: "missing end position"}
	}
	end, err := parseFloat(number, "end", endText)
	if err != nil {
		return Segment{}, err
	}
	if end == 0 {
		return Segment{}, &ParseError{Line: number, Column: "end", Reason: "end position is zero"}
	}

	if i := strings.Index(caption, "#"); i >= 0 {
		caption = caption[:i]
	}
	caption = strings.TrimSpace(caption)

	return Segment{
		Source:  source,
		Start:   start,
		End:     end,
		Speed:   ClampSpeed(speed * speedMultiplier),
		Line:    number,
		Words:   len(strings.Fields(caption)),
		Caption: caption,
	}, nil
}

func parseFloat(number int, column, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, &ParseError{
			Line:   number,
			Column: column,
			Reason: "invalid number " + strconv.Quote(text),
			Err:    err,
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{
			Line:   number,
			Column: column,
			Reason: "non-finite number " + strconv.Quote(text),
		}
	}
	return v, nil
}
