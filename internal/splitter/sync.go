package splitter

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Syncer aligns an external sound track to the camera track and writes the
// aligned copy to outputPath.
type Syncer interface {
	Sync(ctx context.Context, soundPath, cameraPath, outputPath string) (offset float64, err error)
}

// CommandSyncer runs a sync-audio-tracks.sh compatible command:
// <command> <sound> <camera> <output>.
type CommandSyncer struct {
	Command string
}

func (s CommandSyncer) Sync(ctx context.Context, soundPath, cameraPath, outputPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.Command, soundPath, cameraPath, outputPath)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", s.Command, err)
	}
	return ParseSyncOffset(string(out)), nil
}

// ParseSyncOffset reads the first "offset is X seconds" line; 0 when absent.
func ParseSyncOffset(output string) float64 {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "offset is ") {
			continue
		}
		value := strings.TrimSuffix(strings.TrimPrefix(line, "offset is "), " seconds")
		offset, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		return offset
	}
	return 0
}

// CopySyncer is used when no sync command is configured: the sound track is
// taken as already aligned.
type CopySyncer struct{}

func (CopySyncer) Sync(ctx context.Context, soundPath, cameraPath, outputPath string) (float64, error) {
	data, err := os.ReadFile(soundPath)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return 0, err
	}
	return 0, nil
}
