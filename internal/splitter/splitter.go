// Package splitter cuts raw camera recordings into voiced subclips with a
// synced external sound track.
package splitter

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vlogtools/vlog/internal/editlist"
	"github.com/vlogtools/vlog/internal/logging"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/timeline"
	"github.com/vlogtools/vlog/internal/vad"
)

var inputPattern = regexp.MustCompile(`input_([0-9]+)\.mp4$`)

// Detector finds raw voiced intervals in a recording.
type Detector interface {
	Detect(ctx context.Context, soundPath string, p vad.Params) ([]timeline.Interval, error)
}

type Options struct {
	MinPauseBetweenShots float64
	Aggressiveness       float64
	MinShotSize          float64
	SpeechPad            float64
	StartCorrection      float64
	EndCorrection        float64
	Rotation             int
	Workers              int
}

// ClipResult lists the subclips written for one camera file.
type ClipResult struct {
	Camera  string
	Clip    int
	Skipped bool
	Outputs []string
}

type Splitter struct {
	runner   media.Runner
	detector Detector
	syncer   Syncer
	probe    media.ProbeFunc
	logger   *logging.Logger
}

func New(runner media.Runner, detector Detector, syncer Syncer, probe media.ProbeFunc, logger *logging.Logger) *Splitter {
	if logger == nil {
		logger = logging.NewNop()
	}
	if probe == nil {
		probe = media.GetDuration
	}
	return &Splitter{
		runner:   runner,
		detector: detector,
		syncer:   syncer,
		probe:    probe,
		logger:   logger,
	}
}

// CameraFiles returns the input_0*.mp4 recordings of projectDir in order.
func CameraFiles(projectDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(projectDir, "input_0*.mp4"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// OutputName is the subclip file name picked up by the conf step.
func OutputName(projectDir string, clip, subclip, rotation int) string {
	return filepath.Join(projectDir, fmt.Sprintf("%s_%s_%d.mp4",
		editlist.FormatClip(clip), editlist.FormatClip(subclip), rotation))
}

// Split processes every camera file of projectDir with at most
// opts.Workers clips in flight.
func (s *Splitter) Split(ctx context.Context, projectDir string, opts Options) ([]ClipResult, error) {
	cameras, err := CameraFiles(projectDir)
	if err != nil {
		return nil, err
	}
	if len(cameras) == 0 {
		return nil, fmt.Errorf("no input_0*.mp4 files in %s", projectDir)
	}
	if err := os.MkdirAll(filepath.Join(projectDir, "tmp"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		results  = make([]ClipResult, len(cameras))
		firstErr error
		wg       sync.WaitGroup
		done     int
	)
	sem := make(chan struct{}, workers)

	for i, camera := range cameras {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, camera string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			res, err := s.splitClip(ctx, projectDir, camera, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", filepath.Base(camera), err)
				}
				return
			}
			results[i] = res
			done++
			s.logger.Infow("clip ok",
				"file", filepath.Base(camera),
				"done", done,
				"total", len(cameras),
				"subclips", len(res.Outputs),
			)
		}(i, camera)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func clipNumber(camera string) (int, error) {
	m := inputPattern.FindStringSubmatch(camera)
	if m == nil {
		return 0, fmt.Errorf("invalid filename %s", camera)
	}
	return strconv.Atoi(m[1])
}

func (s *Splitter) splitClip(ctx context.Context, projectDir, camera string, opts Options) (ClipResult, error) {
	clip, err := clipNumber(camera)
	if err != nil {
		return ClipResult{}, err
	}
	res := ClipResult{Camera: camera, Clip: clip}

	offset, syncSound, err := s.prepareSound(ctx, camera)
	if err != nil {
		return res, err
	}
	temps := []string{syncSound}
	defer func() {
		for _, f := range temps {
			_ = os.Remove(f)
		}
	}()

	segments, err := s.detectSegments(ctx, camera, syncSound, offset, opts)
	if err != nil {
		return res, err
	}
	if len(segments) == 0 {
		res.Skipped = true
		return res, nil
	}
	s.logger.Debugw("detected segments", "clip", clip, "segments", segments)

	for k, seg := range segments {
		sound := fmt.Sprintf("%s_%d.flac", syncSound, k)
		video := fmt.Sprintf("%s_%d.processed.mp4", camera, k)
		temps = append(temps, sound, video)

		if err := s.runner.Run(ctx, media.SoundSubclip(syncSound, sound, seg.Start, seg.End)); err != nil {
			return res, fmt.Errorf("failed to process sound %d: %w", k, err)
		}
		if err := s.runner.Run(ctx, media.VideoSubclip(camera, video, seg.Start, seg.End)); err != nil {
			return res, fmt.Errorf("failed to process video %d: %w", k, err)
		}

		output := OutputName(projectDir, clip, k, opts.Rotation)
		if err := s.runner.Run(ctx, media.Mux(sound, video, output)); err != nil {
			return res, fmt.Errorf("failed to merge subclip %d: %w", k, err)
		}
		res.Outputs = append(res.Outputs, output)
	}
	return res, nil
}

// prepareSound uses a recorder track next to the camera file when present,
// otherwise the camera's own left channel, and syncs it.
func (s *Splitter) prepareSound(ctx context.Context, camera string) (float64, string, error) {
	sound := strings.TrimSuffix(camera, ".mp4") + ".wav"
	if _, err := os.Stat(sound); os.IsNotExist(err) {
		if err := s.runner.Run(ctx, media.ExtractSound(camera, sound)); err != nil {
			return 0, "", fmt.Errorf("failed to extract sound: %w", err)
		}
	}

	syncSound := sound + ".sync.wav"
	offset, err := s.syncer.Sync(ctx, sound, camera, syncSound)
	if err != nil {
		return 0, "", err
	}
	return offset, syncSound, nil
}

// detectSegments returns the voiced subclip bounds of a clip, or nothing
// when the synced part is shorter than the minimum shot.
func (s *Splitter) detectSegments(ctx context.Context, camera, syncSound string, offset float64, opts Options) ([]timeline.Interval, error) {
	soundDuration, err := s.probe(ctx, syncSound)
	if err != nil {
		return nil, &timeline.DurationLookupError{Source: syncSound, Err: err}
	}
	cameraDuration, err := s.probe(ctx, camera)
	if err != nil {
		return nil, &timeline.DurationLookupError{Source: camera, Err: err}
	}

	bounds := timeline.Interval{
		Start: math.Max(0, math.Abs(offset)),
		End:   math.Min(cameraDuration, soundDuration),
	}
	if bounds.Duration() < opts.MinShotSize {
		s.logger.Infow("skipping too short clip",
			"file", syncSound,
			"duration", bounds.End,
			"usable", bounds.Duration(),
		)
		return nil, nil
	}

	raw, err := s.detector.Detect(ctx, syncSound, vad.Params{
		Aggressiveness: opts.Aggressiveness,
		MinShotSize:    opts.MinShotSize,
		MinPause:       opts.MinPauseBetweenShots,
		SpeechPad:      opts.SpeechPad,
	})
	if err != nil {
		return nil, err
	}

	voice := timeline.PadVoice(raw, opts.StartCorrection, opts.EndCorrection, bounds.End)
	return timeline.FitToBounds(voice, bounds), nil
}
