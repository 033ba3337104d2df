package splitter

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/vlogtools/vlog/internal/timeline"
	"github.com/vlogtools/vlog/internal/vad"
)

type fakeRunner struct {
	mu   sync.Mutex
	runs [][]string
}

func (f *fakeRunner) Run(ctx context.Context, s *ffmpeg.Stream) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, s.GetArgs())
	return nil
}

type fakeDetector struct {
	segments []timeline.Interval
	err      error
}

func (f *fakeDetector) Detect(ctx context.Context, path string, p vad.Params) ([]timeline.Interval, error) {
	return f.segments, f.err
}

type fakeSyncer struct {
	offset float64
}

func (f fakeSyncer) Sync(ctx context.Context, sound, camera, out string) (float64, error) {
	return f.offset, nil
}

func probeMap(durations map[string]float64) func(context.Context, string) (float64, error) {
	return func(_ context.Context, path string) (float64, error) {
		for suffix, d := range durations {
			if strings.HasSuffix(path, suffix) {
				return d, nil
			}
		}
		return 0, errors.New("unknown file")
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func testOptions() Options {
	return Options{
		MinPauseBetweenShots: 2,
		Aggressiveness:       1,
		MinShotSize:          1,
		SpeechPad:            0.3,
		StartCorrection:      0.1,
		EndCorrection:        0.1,
		Rotation:             90,
		Workers:              2,
	}
}

func TestParseSyncOffset(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   float64
	}{
		{"present", "computing\noffset is 1.25 seconds\ndone\n", 1.25},
		{"negative", "offset is -0.4 seconds", -0.4},
		{"absent", "nothing useful", 0},
		{"garbage", "offset is many seconds", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSyncOffset(tt.output); got != tt.want {
				t.Errorf("ParseSyncOffset(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	got := OutputName("/p", 12, 3, 180)
	if want := filepath.Join("/p", "000012_000003_180.mp4"); got != want {
		t.Errorf("OutputName() = %q, want %q", got, want)
	}
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "input_000001.mp4"))

	runner := &fakeRunner{}
	det := &fakeDetector{segments: []timeline.Interval{{Start: 0.2, End: 3}, {Start: 5, End: 9.9}}}
	probe := probeMap(map[string]float64{".sync.wav": 10, ".mp4": 9})
	s := New(runner, det, fakeSyncer{offset: -0.5}, probe, nil)

	results, err := s.Split(context.Background(), dir, testOptions())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	res := results[0]
	if res.Clip != 1 || res.Skipped {
		t.Errorf("result = %+v", res)
	}
	want := []string{
		filepath.Join(dir, "000001_000000_90.mp4"),
		filepath.Join(dir, "000001_000001_90.mp4"),
	}
	if len(res.Outputs) != len(want) {
		t.Fatalf("outputs = %v, want %v", res.Outputs, want)
	}
	for i := range want {
		if res.Outputs[i] != want[i] {
			t.Errorf("output %d = %q, want %q", i, res.Outputs[i], want[i])
		}
	}

	// extract + (sound, video, mux) per subclip
	if len(runner.runs) != 7 {
		t.Fatalf("ffmpeg ran %d times, want 7", len(runner.runs))
	}
	// first subclip starts at the sync offset
	sound := strings.Join(runner.runs[1], " ")
	if !strings.Contains(sound, "0.500") {
		t.Errorf("first sound subclip args = %s, want start 0.500", sound)
	}
	// last subclip is cut short at the camera duration
	video := strings.Join(runner.runs[5], " ")
	if !strings.Contains(video, "4.900") || !strings.Contains(video, "4.100") {
		t.Errorf("last video subclip args = %s, want 4.900 + 4.100", video)
	}
}

func TestSplitUsesRecorderTrack(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "input_000002.mp4"))
	touch(t, filepath.Join(dir, "input_000002.wav"))

	runner := &fakeRunner{}
	det := &fakeDetector{segments: []timeline.Interval{{Start: 1, End: 4}}}
	s := New(runner, det, fakeSyncer{}, probeMap(map[string]float64{".wav": 5, ".mp4": 5}), nil)

	if _, err := s.Split(context.Background(), dir, testOptions()); err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(runner.runs) != 3 {
		t.Errorf("ffmpeg ran %d times, want 3 without extraction", len(runner.runs))
	}
}

func TestSplitSkipsShortClip(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "input_000003.mp4"))

	runner := &fakeRunner{}
	det := &fakeDetector{segments: []timeline.Interval{{Start: 0, End: 1}}}
	s := New(runner, det, fakeSyncer{offset: 1.5}, probeMap(map[string]float64{".sync.wav": 2, ".mp4": 2}), nil)

	results, err := s.Split(context.Background(), dir, testOptions())
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if !results[0].Skipped || len(results[0].Outputs) != 0 {
		t.Errorf("result = %+v, want skipped", results[0])
	}
	if len(runner.runs) != 1 {
		t.Errorf("ffmpeg ran %d times, want 1", len(runner.runs))
	}
}

func TestSplitErrors(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		s := New(&fakeRunner{}, &fakeDetector{}, fakeSyncer{}, probeMap(nil), nil)
		if _, err := s.Split(context.Background(), t.TempDir(), testOptions()); err == nil {
			t.Error("Split() error = nil, want error")
		}
	})

	t.Run("probe failure", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "input_000004.mp4"))
		s := New(&fakeRunner{}, &fakeDetector{}, fakeSyncer{}, probeMap(nil), nil)

		_, err := s.Split(context.Background(), dir, testOptions())
		var lookup *timeline.DurationLookupError
		if !errors.As(err, &lookup) {
			t.Fatalf("Split() error = %v, want DurationLookupError", err)
		}
	})

	t.Run("detector failure", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "input_000005.mp4"))
		boom := errors.New("vad crashed")
		s := New(&fakeRunner{}, &fakeDetector{err: boom}, fakeSyncer{}, probeMap(map[string]float64{".wav": 5, ".mp4": 5}), nil)

		if _, err := s.Split(context.Background(), dir, testOptions()); !errors.Is(err, boom) {
			t.Errorf("Split() error = %v, want %v", err, boom)
		}
	})
}

func TestDetectSegmentsBounds(t *testing.T) {
	s := New(&fakeRunner{}, &fakeDetector{segments: []timeline.Interval{{Start: 0, End: 2}, {Start: 2.5, End: 2.6}}},
		fakeSyncer{}, probeMap(map[string]float64{".sync.wav": 6, ".mp4": 8}), nil)

	got, err := s.detectSegments(context.Background(), "a.mp4", "a.wav.sync.wav", 1, Options{MinShotSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || math.Abs(got[0].Start-1) > 1e-9 || got[1].End > 6 {
		t.Errorf("detectSegments() = %v", got)
	}
}

func TestCopySyncer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.wav")
	out := filepath.Join(dir, "a.wav.sync.wav")
	if err := os.WriteFile(in, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	offset, err := CopySyncer{}.Sync(context.Background(), in, "a.mp4", out)
	if err != nil || offset != 0 {
		t.Fatalf("Sync() = %v, %v", offset, err)
	}
	if data, _ := os.ReadFile(out); string(data) != "RIFF" {
		t.Errorf("synced copy = %q", data)
	}
}
