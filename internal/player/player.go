// Package player drives mpv for previews and segment playlists.
package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	ffmpegbin "github.com/vlogtools/vlog/internal/ffmpeg"
	"github.com/vlogtools/vlog/internal/logging"
)

// Entry is one playlist item.
type Entry struct {
	File  string
	Start float64
	End   float64
	Speed float64
}

// Player shows rendered output or a list of cuts.
type Player interface {
	PlayFrom(ctx context.Context, file string, position float64) error
	PlayEntries(ctx context.Context, entries []Entry) error
}

// CommandFunc starts the player process and waits for it.
type CommandFunc func(ctx context.Context, name string, args ...string) error

func runAttached(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// MPV plays through the mpv binary.
type MPV struct {
	run    CommandFunc
	logger *logging.Logger
}

func NewMPV(logger *logging.Logger, run CommandFunc) *MPV {
	if logger == nil {
		logger = logging.NewNop()
	}
	if run == nil {
		run = runAttached
	}
	return &MPV{run: run, logger: logger}
}

var previewArgs = []string{
	"--no-config",
	"--really-quiet",
	"--no-resume-playback",
	"--af=scaletempo2",
	"--fs",
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FromArgs are the mpv arguments to open file at position.
func FromArgs(file string, position float64) []string {
	args := append([]string{}, previewArgs...)
	return append(args, "--start="+formatSeconds(position), file)
}

// PlaylistArgs renders entries as mpv per-file option groups.
func PlaylistArgs(entries []Entry) []string {
	args := []string{"--really-quiet", "--hr-seek=yes"}
	for _, e := range entries {
		args = append(args,
			"--{",
			"--start="+formatSeconds(e.Start),
			"--end="+formatSeconds(e.End),
			"--speed="+strconv.FormatFloat(e.Speed, 'f', -1, 64),
			e.File,
			"--}",
		)
	}
	return args
}

func (p *MPV) PlayFrom(ctx context.Context, file string, position float64) error {
	return p.exec(ctx, FromArgs(file, position))
}

func (p *MPV) PlayEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		p.logger.Infow("nothing to play")
		return nil
	}
	return p.exec(ctx, PlaylistArgs(entries))
}

func (p *MPV) exec(ctx context.Context, args []string) error {
	mpvPath, err := ffmpegbin.MPVPath()
	if err != nil {
		return err
	}
	p.logger.Debugw("starting player", "path", mpvPath, "args", args)
	if err := p.run(ctx, mpvPath, args...); err != nil {
		return fmt.Errorf("mpv failed: %w", err)
	}
	return nil
}
