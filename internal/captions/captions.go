// Package captions builds a caption track aligned to the rendered output and
// writes it as SubRip or WebVTT.
package captions

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vlogtools/vlog/internal/timeline"
)

// single cue on the output timeline
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Track is an ordered list of cues.
type Track struct {
	Cues []Cue
}

type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// FromTimeline places every captioned segment at its offset in the
// concatenated output. Rendered lengths account for segment speed.
func FromTimeline(segments []timeline.Segment) *Track {
	track := &Track{}
	var cursor float64
	for _, seg := range segments {
		length := timeline.RenderedDuration(seg)
		if length <= 0 {
			continue
		}
		start := cursor
		cursor += length
		if seg.Caption == "" {
			continue
		}
		track.Cues = append(track.Cues, Cue{
			Start: toDuration(start),
			End:   toDuration(cursor),
			Text:  seg.Caption,
		})
	}
	return track
}

func toDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * 1000)) * time.Millisecond
}

// Write encodes track in format to path.
func Write(track *Track, format Format, path string) error {
	var body string
	switch format {
	case FormatSRT:
		body = EncodeSRT(track)
	case FormatVTT:
		body = EncodeVTT(track)
	default:
		return fmt.Errorf("unsupported caption format: %s", format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create caption directory: %w", err)
	}
	return os.WriteFile(path, []byte(body), 0644)
}

// EncodeSRT renders a SubRip document.
func EncodeSRT(track *Track) string {
	var sb strings.Builder
	for i, cue := range track.Cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTime(cue.Start, ','),
			formatTime(cue.End, ','),
			cue.Text)
	}
	return sb.String()
}

// EncodeVTT renders a WebVTT document.
func EncodeVTT(track *Track) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, cue := range track.Cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTime(cue.Start, '.'),
			formatTime(cue.End, '.'),
			cue.Text)
	}
	return sb.String()
}

func formatTime(d time.Duration, sep byte) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}

// FormatFromExtension picks the format for a file name, SubRip by default.
func FormatFromExtension(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".vtt") {
		return FormatVTT
	}
	return FormatSRT
}
