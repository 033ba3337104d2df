// Package vad runs the external speech segmentation script and reads the
// voiced intervals it reports.
package vad

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vlogtools/vlog/internal/logging"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/timeline"
)

// Params are passed to the script positionally.
type Params struct {
	Aggressiveness float64
	MinShotSize    float64
	MinPause       float64
	SpeechPad      float64
}

func (p Params) args() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{f(p.Aggressiveness), f(p.MinShotSize), f(p.MinPause), f(p.SpeechPad)}
}

// ExecFunc runs name with args and returns its stdout.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execScript(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Detector prepares audio for the script and runs it.
type Detector struct {
	script string
	runner media.Runner
	exec   ExecFunc
	logger *logging.Logger
}

type Option func(*Detector)

// WithExec replaces process execution, mainly for tests.
func WithExec(fn ExecFunc) Option {
	return func(d *Detector) { d.exec = fn }
}

func NewDetector(script string, runner media.Runner, logger *logging.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Detector{
		script: script,
		runner: runner,
		exec:   execScript,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the raw voiced intervals of soundPath.
func (d *Detector) Detect(ctx context.Context, soundPath string, p Params) ([]timeline.Interval, error) {
	if _, err := os.Stat(soundPath); err != nil {
		return nil, fmt.Errorf("sound file not found: %s", soundPath)
	}

	vadPath := soundPath + ".vad.wav"
	if err := d.runner.Run(ctx, media.VADAudio(soundPath, vadPath)); err != nil {
		return nil, fmt.Errorf("failed to prepare audio for vad: %w", err)
	}
	defer os.Remove(vadPath)

	args := append([]string{vadPath}, p.args()...)
	d.logger.Debugw("running vad", "script", d.script, "args", args)

	out, err := d.exec(ctx, d.script, args...)
	if err != nil {
		return nil, fmt.Errorf("vad: %w", err)
	}

	segments, err := ParseOutput(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	d.logger.Debugw("vad finished", "file", soundPath, "segments", len(segments))
	return segments, nil
}

// ParseOutput reads one "start end" pair per line. Lines without exactly
// two numeric fields are skipped.
func ParseOutput(r io.Reader) ([]timeline.Interval, error) {
	var segments []timeline.Interval

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		segments = append(segments, timeline.Interval{Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vad output: %w", err)
	}
	return segments, nil
}
