package timeline

import (
	"errors"
	"testing"
)

func rawVoice() []Interval {
	return []Interval{{1, 3}, {4, 5}, {9, 10}, {10.5, 14}}
}

func TestPadVoiceClamps(t *testing.T) {
	got := PadVoice([]Interval{{0.05, 2}, {9, 10}}, 0.1, 0.5, 10)
	want := []Interval{{0, 2.5}, {8.9, 10}}
	for i := range want {
		if !approx(got[i].Start, want[i].Start) || !approx(got[i].End, want[i].End) {
			t.Errorf("interval %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPauses(t *testing.T) {
	got := Pauses(rawVoice())
	want := []Interval{{3, 4}, {5, 9}, {10, 10.5}}
	if len(got) != len(want) {
		t.Fatalf("Pauses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pause %d = %v, want %v", i, got[i], want[i])
		}
	}

	if got := Pauses([]Interval{{0, 1}}); len(got) != 0 {
		t.Errorf("single voice interval should give no pauses, got %v", got)
	}
	if got := Pauses([]Interval{{0, 2}, {1.5, 3}}); len(got) != 0 {
		t.Errorf("overlapping voice should give no pauses, got %v", got)
	}
}

func TestSelectCutsSilenceLongestFirst(t *testing.T) {
	cuts, err := SelectCuts(rawVoice(), ModeSilence, VoiceOptions{Duration: 20})
	if err != nil {
		t.Fatalf("SelectCuts: %v", err)
	}
	if len(cuts) != 3 {
		t.Fatalf("expected 3 pauses, got %v", cuts)
	}
	for i := 1; i < len(cuts); i++ {
		if cuts[i].Duration() > cuts[i-1].Duration() {
			t.Errorf("pauses not ordered by descending duration: %v", cuts)
		}
	}
	if cuts[0].Interval != (Interval{5, 9}) {
		t.Errorf("longest pause = %v, want {5 9}", cuts[0].Interval)
	}
	for _, c := range cuts {
		if c.Kind != KindPause {
			t.Errorf("cut %v has kind %v", c.Interval, c.Kind)
		}
	}
}

func TestSelectCutsVoiceWithWindow(t *testing.T) {
	cuts, err := SelectCuts([]Interval{{0.5, 3}, {12, 14}}, ModeVoice, VoiceOptions{
		StartCorrection: 0.1,
		EndCorrection:   0.1,
		Window:          1,
		Duration:        14.5,
	})
	if err != nil {
		t.Fatalf("SelectCuts: %v", err)
	}
	want := []Interval{{0, 4.1}, {10.9, 14.5}}
	for i := range want {
		if !approx(cuts[i].Start, want[i].Start) || !approx(cuts[i].End, want[i].End) {
			t.Errorf("cut %d = %v, want %v", i, cuts[i].Interval, want[i])
		}
	}
}

func TestSelectCutsBothInterleaves(t *testing.T) {
	cuts, err := SelectCuts(rawVoice(), ModeBoth, VoiceOptions{Duration: 20})
	if err != nil {
		t.Fatalf("SelectCuts: %v", err)
	}
	if len(cuts) != 7 {
		t.Fatalf("expected 7 cuts, got %v", cuts)
	}
	for i, c := range cuts {
		wantKind := KindVoice
		if i%2 == 1 {
			wantKind = KindPause
		}
		if c.Kind != wantKind {
			t.Errorf("cut %d kind = %v, want %v", i, c.Kind, wantKind)
		}
		if i > 0 && c.Start < cuts[i-1].Start {
			t.Errorf("cuts not chronological at %d: %v", i, cuts)
		}
	}
	if !approx(cuts[1].Start, 3.001) || !approx(cuts[1].End, 4.001) {
		t.Errorf("pause not nudged: %v", cuts[1].Interval)
	}
}

func TestSelectCutsUnknownMode(t *testing.T) {
	_, err := SelectCuts(rawVoice(), Mode("loud"), VoiceOptions{Duration: 20})
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"voice", "silence", "both"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("Voice"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("ParseMode(\"Voice\") = %v, want ErrUnknownMode", err)
	}
}

func TestPausePercentage(t *testing.T) {
	pauses := []Interval{{3, 4}, {5, 9}, {10, 10.5}}
	if got := PausePercentage(pauses, 20); got != 27.5 {
		t.Errorf("PausePercentage = %v, want 27.5", got)
	}
	if got := PausePercentage([]Interval{{0, 1}}, 3); got != 33.3 {
		t.Errorf("PausePercentage = %v, want 33.3", got)
	}
	if got := PausePercentage(pauses, 0); got != 0 {
		t.Errorf("PausePercentage with zero duration = %v", got)
	}
}

func TestFitToBounds(t *testing.T) {
	tests := []struct {
		name   string
		voice  []Interval
		bounds Interval
		want   []Interval
	}{
		{
			name:   "edges clipped",
			voice:  []Interval{{0.2, 3}, {5, 12}},
			bounds: Interval{1, 10},
			want:   []Interval{{1, 3}, {5, 10}},
		},
		{
			name:   "degenerate dropped",
			voice:  []Interval{{0.2, 0.8}, {2, 4}},
			bounds: Interval{1, 10},
			want:   []Interval{{2, 4}},
		},
		{
			name:   "empty falls back to bounds",
			voice:  nil,
			bounds: Interval{0.5, 8},
			want:   []Interval{{0.5, 8}},
		},
		{
			name:   "all degenerate falls back",
			voice:  []Interval{{9, 12}},
			bounds: Interval{0, 5},
			want:   []Interval{{0, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToBounds(tt.voice, tt.bounds)
			if len(got) != len(tt.want) {
				t.Fatalf("FitToBounds = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("interval %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
