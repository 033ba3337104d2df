package timeline

import (
	"fmt"
	"math"
	"sort"
)

// nudge applied to pause bounds when voice and pauses share one cut list
const PauseEpsilon = 0.001

// Mode selects which view of a VAD result is played or cut.
type Mode string

const (
	ModeVoice   Mode = "voice"
	ModeSilence Mode = "silence"
	ModeBoth    Mode = "both"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeVoice, ModeSilence, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want voice, silence or both)", ErrUnknownMode, s)
	}
}

// Kind tags a cut as speech or silence.
type Kind int

const (
	KindVoice Kind = iota
	KindPause
)

func (k Kind) String() string {
	if k == KindPause {
		return "pause"
	}
	return "voice"
}

// Cut is one interval of a VAD-derived cut list.
type Cut struct {
	Interval
	Kind Kind
}

// VoiceOptions configures how raw VAD intervals are padded and windowed.
type VoiceOptions struct {
	StartCorrection float64
	EndCorrection   float64
	// Window widens every output cut on both sides.
	Window float64
	// Duration is the length of the whole timeline; bounds are clamped to it.
	Duration float64
}

// PadVoice widens every raw speech interval by the corrections and clamps it
// into [0, duration].
func PadVoice(raw []Interval, startCorrection, endCorrection, duration float64) []Interval {
	out := make([]Interval, 0, len(raw))
	for _, iv := range raw {
		out = append(out, Interval{
			Start: clamp(iv.Start-startCorrection, 0, duration),
			End:   clamp(iv.End+endCorrection, 0, duration),
		})
	}
	return out
}

// Pauses returns the gaps strictly between consecutive voice intervals. The
// leading and trailing edges of the timeline are not pauses. Gaps closed by
// padding (end <= start) are skipped.
func Pauses(voice []Interval) []Interval {
	var out []Interval
	for i := 1; i < len(voice); i++ {
		p := Interval{Start: voice[i-1].End, End: voice[i].Start}
		if p.Start < p.End {
			out = append(out, p)
		}
	}
	return out
}

// SelectCuts pads raw VAD output and returns the view requested by mode.
// Silence cuts come longest first; both interleaves voice and pauses in
// chronological order.
func SelectCuts(raw []Interval, mode Mode, opts VoiceOptions) ([]Cut, error) {
	voice := PadVoice(raw, opts.StartCorrection, opts.EndCorrection, opts.Duration)

	var cuts []Cut
	switch mode {
	case ModeVoice:
		for _, iv := range voice {
			cuts = append(cuts, Cut{Interval: iv, Kind: KindVoice})
		}
	case ModeSilence:
		pauses := Pauses(voice)
		sort.SliceStable(pauses, func(i, j int) bool {
			return pauses[i].Duration() > pauses[j].Duration()
		})
		for _, iv := range pauses {
			cuts = append(cuts, Cut{Interval: iv, Kind: KindPause})
		}
	case ModeBoth:
		for i, iv := range voice {
			cuts = append(cuts, Cut{Interval: iv, Kind: KindVoice})
			if i+1 == len(voice) {
				break
			}
			p := Interval{Start: iv.End + PauseEpsilon, End: voice[i+1].Start + PauseEpsilon}
			if p.Start < p.End {
				cuts = append(cuts, Cut{Interval: p, Kind: KindPause})
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	for i := range cuts {
		cuts[i].Start = max(cuts[i].Start-opts.Window, 0)
		cuts[i].End = min(cuts[i].End+opts.Window, opts.Duration)
	}
	return cuts, nil
}

// PausePercentage is the share of duration taken by pauses, rounded to one
// decimal place.
func PausePercentage(pauses []Interval, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	var total float64
	for _, p := range pauses {
		total += p.Duration()
	}
	return math.Round(total/duration*100*10) / 10
}

// FitToBounds limits speech intervals to a clip's usable range: the first
// start is raised to bounds.Start and the last end lowered to bounds.End.
// Degenerate intervals are dropped. An empty result falls back to the whole
// bounds.
func FitToBounds(voice []Interval, bounds Interval) []Interval {
	out := make([]Interval, len(voice))
	copy(out, voice)
	if len(out) > 0 {
		out[0].Start = max(bounds.Start, out[0].Start)
		last := len(out) - 1
		out[last].End = min(bounds.End, out[last].End)
	}

	fitted := out[:0]
	for _, iv := range out {
		if iv.Start < iv.End {
			fitted = append(fitted, iv)
		}
	}
	if len(fitted) == 0 {
		return []Interval{bounds}
	}
	return fitted
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
