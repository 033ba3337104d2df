package playback

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/vlogtools/vlog/internal/player"
	"github.com/vlogtools/vlog/internal/timeline"
	"github.com/vlogtools/vlog/internal/vad"
)

type fakeDetector struct {
	segments []timeline.Interval
	params   vad.Params
}

func (f *fakeDetector) Detect(ctx context.Context, path string, p vad.Params) ([]timeline.Interval, error) {
	f.params = p
	return f.segments, nil
}

type fakePlayer struct {
	entries []player.Entry
}

func (f *fakePlayer) PlayFrom(ctx context.Context, file string, position float64) error {
	return nil
}

func (f *fakePlayer) PlayEntries(ctx context.Context, entries []player.Entry) error {
	f.entries = entries
	return nil
}

func duration(d float64) func(context.Context, string) (float64, error) {
	return func(context.Context, string) (float64, error) { return d, nil }
}

func baseOptions(mode timeline.Mode) Options {
	return Options{
		Mode:                 mode,
		Speed:                1.5,
		PauseSpeedFactor:     4,
		MinPauseBetweenShots: 0.5,
		Aggressiveness:       0.5,
		MinShotSize:          1,
		SpeechPad:            0.1,
	}
}

func TestPlayBoth(t *testing.T) {
	det := &fakeDetector{segments: []timeline.Interval{{Start: 1, End: 3}, {Start: 5, End: 8}}}
	pl := &fakePlayer{}
	s := New(det, duration(10), pl, nil)

	report, err := s.Play(context.Background(), "take.mp4", baseOptions(timeline.ModeBoth))
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	want := []player.Entry{
		{File: "take.mp4", Start: 1, End: 3, Speed: 1.5},
		{File: "take.mp4", Start: 3.001, End: 5.001, Speed: 6},
		{File: "take.mp4", Start: 5, End: 8, Speed: 1.5},
	}
	if len(pl.entries) != len(want) {
		t.Fatalf("played %d entries, want %d", len(pl.entries), len(want))
	}
	for i := range want {
		got := pl.entries[i]
		if got.File != want[i].File || got.Speed != want[i].Speed ||
			math.Abs(got.Start-want[i].Start) > 1e-9 || math.Abs(got.End-want[i].End) > 1e-9 {
			t.Errorf("entry %d = %+v, want %+v", i, got, want[i])
		}
	}
	if report.PausePercentage != 20 {
		t.Errorf("PausePercentage = %v, want 20", report.PausePercentage)
	}
	if det.params.MinPause != 0.5 || det.params.SpeechPad != 0.1 {
		t.Errorf("vad params = %+v", det.params)
	}
}

func TestPlanSilenceKeepsSpeed(t *testing.T) {
	det := &fakeDetector{segments: []timeline.Interval{{Start: 0, End: 1}, {Start: 2, End: 3}, {Start: 6, End: 7}}}
	s := New(det, duration(10), nil, nil)

	report, err := s.Plan(context.Background(), "take.mp4", baseOptions(timeline.ModeSilence))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(report.Entries))
	}
	// longest pause first
	if report.Entries[0].Start != 3 || report.Entries[0].End != 6 {
		t.Errorf("first entry = %+v, want 3..6", report.Entries[0])
	}
	for _, e := range report.Entries {
		if e.Speed != 1.5 {
			t.Errorf("silence entry speed = %v, want 1.5", e.Speed)
		}
	}
}

func TestPlanErrors(t *testing.T) {
	det := &fakeDetector{}

	s := New(det, duration(10), nil, nil)
	if _, err := s.Plan(context.Background(), "take.mp4", baseOptions(timeline.Mode("loud"))); !errors.Is(err, timeline.ErrUnknownMode) {
		t.Errorf("Plan() error = %v, want ErrUnknownMode", err)
	}

	failing := func(context.Context, string) (float64, error) { return 0, errors.New("missing") }
	s = New(det, failing, nil, nil)
	var lookupErr *timeline.DurationLookupError
	if _, err := s.Plan(context.Background(), "take.mp4", baseOptions(timeline.ModeVoice)); !errors.As(err, &lookupErr) {
		t.Errorf("Plan() error = %v, want *timeline.DurationLookupError", err)
	}
}
