// Package ffmpeg locates the external media binaries vlog shells out to.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

const (
	envFFmpeg  = "VLOG_FFMPEG_PATH"
	envFFprobe = "VLOG_FFPROBE_PATH"
	envMPV     = "VLOG_MPV_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves ffmpeg and ffprobe once per process.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = ensure()
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

// MPVPath resolves the player; it is only needed by preview and play.
func MPVPath() (string, error) {
	return resolve(envMPV, "mpv")
}

func ensure() (BinaryPaths, error) {
	ffmpegPath, err := resolve(envFFmpeg, "ffmpeg")
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := resolve(envFFprobe, "ffprobe")
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

// resolve prefers the env override, then PATH.
func resolve(envKey, name string) (string, error) {
	if p := os.Getenv(envKey); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", envKey, p, err)
		}
		return p, nil
	}
	found, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH (install it or set %s): %w", name, envKey, err)
	}
	return found, nil
}
