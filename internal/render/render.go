// Package render turns a project's render.conf into the final (or preview)
// video: it assembles the timeline, renders each segment and concatenates
// them.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vlogtools/vlog/internal/captions"
	"github.com/vlogtools/vlog/internal/editlist"
	"github.com/vlogtools/vlog/internal/logging"
	"github.com/vlogtools/vlog/internal/media"
	"github.com/vlogtools/vlog/internal/player"
	"github.com/vlogtools/vlog/internal/timeline"
)

type Options struct {
	Speed                float64
	FPS                  int
	VideoFilters         string
	MinPauseBetweenShots float64
	Preview              bool
	PreviewWidth         int
	Cleanup              bool
	Subtitles            bool
	// Line is the render.conf line the preview player starts at.
	Line    int
	Play    bool
	Workers int
}

// Summary reports what a render produced.
type Summary struct {
	Output         string
	Captions       string
	Segments       int
	Reused         int
	WordsPerSecond float64
	PlayerPosition float64
}

// Renderer wires the external tools used by a render.
type Renderer struct {
	runner media.Runner
	probe  media.ProbeFunc
	player player.Player
	codec  func(ctx context.Context) media.VideoCodec
	logger *logging.Logger
}

type Option func(*Renderer)

func WithProbe(probe media.ProbeFunc) Option {
	return func(r *Renderer) { r.probe = probe }
}

func WithPlayer(p player.Player) Option {
	return func(r *Renderer) { r.player = p }
}

func WithCodec(codec media.VideoCodec) Option {
	return func(r *Renderer) {
		r.codec = func(context.Context) media.VideoCodec { return codec }
	}
}

func New(runner media.Runner, logger *logging.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Renderer{
		runner: runner,
		probe:  media.GetDuration,
		logger: logger,
	}
	r.codec = func(ctx context.Context) media.VideoCodec {
		return media.PickVideoCodec(ctx, r.logger)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeline reads and assembles the edit list of projectDir.
func (r *Renderer) Timeline(ctx context.Context, projectDir string, opts Options) ([]timeline.Segment, error) {
	lines, err := editlist.ReadFile(editlist.Path(projectDir))
	if err != nil {
		return nil, err
	}

	rows, err := timeline.ParseEditList(lines, opts.Speed, r.logger)
	if err != nil {
		return nil, err
	}

	cache := media.NewDurationCache(r.probe, func(source string) string {
		return sourcePath(projectDir, source)
	})
	sources := timeline.Sources(rows)
	r.logger.Infow("computing delays", "sources", len(sources))
	if err := cache.Prefetch(ctx, sources, opts.Workers); err != nil {
		return nil, err
	}

	return timeline.AssembleRows(rows, timeline.AssembleOptions{
		SpeedMultiplier:      opts.Speed,
		MinPauseBetweenShots: opts.MinPauseBetweenShots,
	}, cache.Func(ctx))
}

// Render runs the whole pipeline for projectDir.
func (r *Renderer) Render(ctx context.Context, projectDir string, opts Options) (*Summary, error) {
	segments, err := r.Timeline(ctx, projectDir, opts)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments in %s", editlist.Path(projectDir))
	}

	outputDir := filepath.Join(projectDir, "output")
	tempDir := filepath.Join(projectDir, "tmp")
	for _, dir := range []string{outputDir, tempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	segmentDir := outputDir
	if opts.Preview {
		segmentDir = tempDir
	}

	r.logger.Infow("processing video clips", "segments", len(segments), "preview", opts.Preview)
	files, reused, err := r.renderSegments(ctx, projectDir, segmentDir, tempDir, segments, opts)
	if err != nil {
		return nil, err
	}

	name := "output"
	if opts.Preview {
		name += "_preview"
	}
	summary := &Summary{
		Output:   filepath.Join(projectDir, name+".mp4"),
		Segments: len(segments),
		Reused:   reused,
	}

	r.logger.Infow("rendering", "output", summary.Output)
	if err := r.concat(ctx, tempDir, files, summary.Output); err != nil {
		return nil, err
	}

	if opts.Subtitles {
		summary.Captions = filepath.Join(projectDir, name+".srt")
		if err := captions.Write(captions.FromTimeline(segments), captions.FormatSRT, summary.Captions); err != nil {
			return nil, fmt.Errorf("failed to write captions: %w", err)
		}
	}

	summary.WordsPerSecond = timeline.WordsPerSecond(segments)
	r.logger.Infow("average words per second", "value", summary.WordsPerSecond)

	if opts.Preview {
		summary.PlayerPosition = timeline.PlayerPosition(segments, opts.Line, opts.Speed)
		r.logger.Infow("player position", "line", opts.Line, "seconds", summary.PlayerPosition)
		if opts.Play && r.player != nil {
			if err := r.player.PlayFrom(ctx, summary.Output, summary.PlayerPosition); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

type segmentJob struct {
	index   int
	segment timeline.Segment
	output  string
	cut     string
}

func (r *Renderer) renderSegments(
	ctx context.Context,
	projectDir, segmentDir, tempDir string,
	segments []timeline.Segment,
	opts Options,
) ([]string, int, error) {
	codec := r.codec(ctx)

	jobs := make([]segmentJob, len(segments))
	files := make([]string, len(segments))
	for i, seg := range segments {
		base := SegmentName(i, seg, opts, codec)
		jobs[i] = segmentJob{
			index:   i,
			segment: seg,
			output:  filepath.Join(segmentDir, base+".mp4"),
			cut:     filepath.Join(tempDir, base+".cut.mp4"),
		}
		files[i] = jobs[i].output
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		firstErr error
		reused   int
		wg       sync.WaitGroup
	)

	// semaphore to limit concurrency
	sem := make(chan struct{}, workers)

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		mu.Lock()
		hasErr := firstErr != nil
		mu.Unlock()
		if hasErr {
			break
		}

		wg.Add(1)
		go func(j segmentJob) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			ok, err := r.renderSegment(ctx, projectDir, j, opts, codec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("segment %d (%s line %d): %w", j.index, j.segment.Source, j.segment.Line, err)
				}
				return
			}
			if ok {
				reused++
			}
		}(job)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, 0, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return files, reused, nil
}

// renderSegment reports true when an existing file was reused.
func (r *Renderer) renderSegment(
	ctx context.Context,
	projectDir string,
	j segmentJob,
	opts Options,
	codec media.VideoCodec,
) (bool, error) {
	if !opts.Cleanup {
		if _, err := os.Stat(j.output); err == nil {
			r.logger.Debugw("reusing segment", "file", j.output)
			return true, nil
		}
	}

	seg := j.segment
	source := sourcePath(projectDir, seg.Source)
	if err := r.runner.Run(ctx, media.Cut(source, j.cut, seg.Start, seg.End)); err != nil {
		return false, fmt.Errorf("cut failed: %w", err)
	}

	err := r.runner.Run(ctx, media.Transcode(j.cut, j.output, media.TranscodeOptions{
		Speed:        seg.Speed,
		FPS:          opts.FPS,
		VideoFilters: opts.VideoFilters,
		Codec:        codec,
		Preview:      opts.Preview,
		PreviewWidth: opts.PreviewWidth,
		Label:        fmt.Sprintf("%s/L%d", filepath.Base(seg.Source), seg.Line),
	}))
	if opts.Cleanup {
		_ = os.Remove(j.cut)
	}
	if err != nil {
		_ = os.Remove(j.output)
		return false, fmt.Errorf("transcode failed: %w", err)
	}
	return false, nil
}

func (r *Renderer) concat(ctx context.Context, tempDir string, files []string, output string) error {
	listPath, err := media.WriteConcatList(tempDir, files)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	if err := r.runner.Run(ctx, media.Concat(listPath, output)); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}
	return nil
}

// segmentNamespace scopes the name-based UUIDs of rendered segments.
var segmentNamespace = uuid.MustParse("6f2b0c4e-7a51-4d3e-9b8a-1c2d3e4f5a6b")

// SegmentName is a stable file name for a rendered segment. It changes
// whenever anything that affects the encoded output changes, so reruns can
// reuse files safely.
func SegmentName(index int, seg timeline.Segment, opts Options, codec media.VideoCodec) string {
	key := strings.Join([]string{
		seg.Source,
		fmt.Sprintf("%.3f", seg.Start),
		fmt.Sprintf("%.3f", seg.End),
		fmt.Sprintf("%.3f", seg.Speed),
		fmt.Sprintf("fps=%d", opts.FPS),
		opts.VideoFilters,
		fmt.Sprintf("preview=%t/%d/L%d", opts.Preview, opts.PreviewWidth, seg.Line),
		codec.Name,
	}, "\x00")

	id := uuid.NewSHA1(segmentNamespace, []byte(key))
	return fmt.Sprintf("%s_%s", editlist.FormatClip(index), id.String()[:13])
}

func sourcePath(projectDir, source string) string {
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(projectDir, source)
}
