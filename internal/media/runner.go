package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/vlogtools/vlog/internal/ffmpeg"
	"github.com/vlogtools/vlog/internal/logging"
)

// Runner executes a compiled ffmpeg stream.
type Runner interface {
	Run(ctx context.Context, stream *ffmpeg.Stream) error
}

// ExecRunner runs ffmpeg as a child process bound to ctx.
type ExecRunner struct {
	logger *logging.Logger
}

func NewExecRunner(logger *logging.Logger) *ExecRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, stream *ffmpeg.Stream) error {
	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	args := stream.GetArgs()
	r.logger.Debugw("running ffmpeg", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(out, 5))
	}
	return nil
}

func lastLines(out []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}

// PickVideoCodec prefers hevc_nvenc when ffmpeg was built with it and an
// nvidia device is present.
func PickVideoCodec(ctx context.Context, logger *logging.Logger) VideoCodec {
	if logger == nil {
		logger = logging.NewNop()
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return CodecX265
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-h", "encoder=hevc_nvenc")
	cmd.Stdout = &out
	cmd.Stderr = &out
	_ = cmd.Run()

	switch {
	case strings.Contains(out.String(), "is not recognized"):
		logger.Debugw("ffmpeg was built without hevc_nvenc support")
		return CodecX265
	case !fileExists("/dev/nvidia0"):
		logger.Debugw("nvidia module is not loaded")
		return CodecX265
	}
	return CodecHEVCNVENC
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
