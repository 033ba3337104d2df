// Package playback plays the voiced or silent parts of a recording so a
// take can be reviewed quickly.
package playback

import (
	"context"
	"fmt"

	"github.com/vlogtools/vlog/internal/logging"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/player"
	"github.com/vlogtools/vlog/internal/timeline"
	"github.com/vlogtools/vlog/internal/vad"
)

// Detector finds raw voiced intervals in a recording.
type Detector interface {
	Detect(ctx context.Context, soundPath string, p vad.Params) ([]timeline.Interval, error)
}

type Options struct {
	Mode                 timeline.Mode
	Speed                float64
	PauseSpeedFactor     float64
	MinPauseBetweenShots float64
	Window               float64
	Aggressiveness       float64
	MinShotSize          float64
	SpeechPad            float64
	StartCorrection      float64
	EndCorrection        float64
}

// Report describes a played cut list.
type Report struct {
	Duration        float64
	PausePercentage float64
	Entries         []player.Entry
}

type Service struct {
	detector Detector
	probe    media.ProbeFunc
	player   player.Player
	logger   *logging.Logger
}

func New(detector Detector, probe media.ProbeFunc, p player.Player, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if probe == nil {
		probe = media.GetDuration
	}
	return &Service{detector: detector, probe: probe, player: p, logger: logger}
}

// Plan detects speech in video and builds the playlist for opts.Mode.
func (s *Service) Plan(ctx context.Context, video string, opts Options) (*Report, error) {
	s.logger.Infow("detecting segments", "file", video, "mode", opts.Mode)

	duration, err := s.probe(ctx, video)
	if err != nil {
		return nil, &timeline.DurationLookupError{Source: video, Err: err}
	}

	raw, err := s.detector.Detect(ctx, video, vad.Params{
		Aggressiveness: opts.Aggressiveness,
		MinShotSize:    opts.MinShotSize,
		MinPause:       opts.MinPauseBetweenShots,
		SpeechPad:      opts.SpeechPad,
	})
	if err != nil {
		return nil, err
	}

	voice := timeline.PadVoice(raw, opts.StartCorrection, opts.EndCorrection, duration)
	report := &Report{
		Duration:        duration,
		PausePercentage: timeline.PausePercentage(timeline.Pauses(voice), duration),
	}
	s.logger.Infow("pauses take share of video", "percent", report.PausePercentage)

	cuts, err := timeline.SelectCuts(raw, opts.Mode, timeline.VoiceOptions{
		StartCorrection: opts.StartCorrection,
		EndCorrection:   opts.EndCorrection,
		Window:          opts.Window,
		Duration:        duration,
	})
	if err != nil {
		return nil, err
	}

	pauseSpeed := opts.Speed
	if opts.Mode == timeline.ModeBoth {
		pauseSpeed = opts.Speed * opts.PauseSpeedFactor
	}
	for _, c := range cuts {
		speed := opts.Speed
		if c.Kind == timeline.KindPause {
			speed = pauseSpeed
		}
		report.Entries = append(report.Entries, player.Entry{
			File:  video,
			Start: c.Start,
			End:   c.End,
			Speed: speed,
		})
	}
	return report, nil
}

// Play plans and then hands the playlist to the player.
func (s *Service) Play(ctx context.Context, video string, opts Options) (*Report, error) {
	report, err := s.Plan(ctx, video, opts)
	if err != nil {
		return nil, err
	}
	if s.player == nil {
		return report, fmt.Errorf("no player configured")
	}
	s.logger.Infow("playing", "cuts", len(report.Entries))
	return report, s.player.PlayEntries(ctx, report.Entries)
}
