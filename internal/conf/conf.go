// Package conf builds the render.conf edit list of a project by transcribing
// its split clips.
package conf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vlogtools/vlog/internal/editlist"
	"github.com/vlogtools/vlog/internal/logging"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/transcribe"
)

// Summary of a Generate run.
type Summary struct {
	Path    string
	Clips   int
	Failed  int
	Entries int
}

type Generator struct {
	runner      media.Runner
	transcriber transcribe.Transcriber
	logger      *logging.Logger
}

func NewGenerator(runner media.Runner, t transcribe.Transcriber, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{runner: runner, transcriber: t, logger: logger}
}

// Clips returns the split clips of projectDir in order.
func Clips(projectDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(projectDir, "0*.mp4"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Pending drops the clips already recorded in the edit list at confPath.
func Pending(clips []string, confPath string) ([]string, error) {
	if _, err := os.Stat(confPath); os.IsNotExist(err) {
		return clips, nil
	}

	last, ok, err := editlist.LastRecordedClip(confPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return clips, nil
	}

	var pending []string
	for _, c := range clips {
		n, err := editlist.ClipNumber(c)
		if err != nil {
			return nil, err
		}
		if n > last {
			pending = append(pending, c)
		}
	}
	return pending, nil
}

// Generate transcribes the pending clips of projectDir and appends one row
// per caption to its render.conf. A clip that fails to transcribe is logged
// and left out.
func (g *Generator) Generate(ctx context.Context, projectDir string, concurrency int) (*Summary, error) {
	confPath := editlist.Path(projectDir)
	clips, err := Clips(projectDir)
	if err != nil {
		return nil, err
	}
	pending, err := Pending(clips, confPath)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Path: confPath, Clips: len(pending)}
	if len(pending) == 0 {
		g.logger.Infow("no new clips", "conf", confPath)
		return summary, nil
	}

	tmpDir := filepath.Join(projectDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	audio := make([]string, len(pending))
	for i, clip := range pending {
		base := strings.TrimSuffix(filepath.Base(clip), filepath.Ext(clip))
		audio[i] = filepath.Join(tmpDir, base+".transcribe.mp3")
		if err := g.runner.Run(ctx, media.TranscriptionAudio(clip, audio[i])); err != nil {
			return nil, fmt.Errorf("failed to extract audio from %s: %w", clip, err)
		}
	}
	defer func() {
		for _, a := range audio {
			_ = os.Remove(a)
		}
	}()

	lenient := &skipFailures{t: g.transcriber, logger: g.logger}
	results, err := transcribe.TranscribeFiles(ctx, lenient, audio, concurrency)
	if err != nil {
		return nil, err
	}

	var entries []editlist.Entry
	for i, res := range results {
		if res == nil {
			summary.Failed++
			continue
		}
		source := filepath.Base(pending[i])
		for _, c := range res.Captions {
			entries = append(entries, editlist.Entry{
				Source: source,
				Speed:  1.0,
				Start:  c.Start,
				End:    c.End,
				Text:   c.Text,
			})
		}
		g.logger.Infow("processed clip",
			"file", source,
			"done", i+1,
			"total", len(pending),
			"captions", len(res.Captions),
		)
	}

	if err := editlist.Append(confPath, entries); err != nil {
		return nil, err
	}
	summary.Entries = len(entries)
	return summary, nil
}

// skipFailures turns a per-file transcription error into an empty result.
type skipFailures struct {
	t      transcribe.Transcriber
	logger *logging.Logger
}

func (s *skipFailures) Transcribe(ctx context.Context, path string) (*transcribe.Result, error) {
	res, err := s.t.Transcribe(ctx, path)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.logger.Warnw("failed to process clip", "file", path, "error", err)
	return nil, nil
}
