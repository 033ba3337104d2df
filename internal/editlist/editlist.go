// Package editlist reads and writes render.conf, the tab-separated edit list
// of a vlog project.
package editlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vlogtools/vlog/internal/timeline"
)

const (
	FileName = "render.conf"
	Header   = "#filename\tspeed\tstart\tend\ttext"
)

// Path is the edit list of a project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, FileName)
}

// Read returns every non-comment line with its 1-based position in r.
func Read(r io.Reader) ([]timeline.Line, error) {
	var lines []timeline.Line

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	number := 0
	for scanner.Scan() {
		number++
		text := scanner.Text()
		if strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, timeline.Line{Number: number, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edit list: %w", err)
	}
	return lines, nil
}

// ReadFile reads a render.conf from disk.
func ReadFile(path string) ([]timeline.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edit list: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Entry is one timed row as written by the transcription step.
type Entry struct {
	Source string
	Speed  float64
	Start  float64
	End    float64
	Text   string
}

func (e Entry) String() string {
	text := strings.Join(strings.Fields(e.Text), " ")
	return strings.Join([]string{
		e.Source,
		strconv.FormatFloat(e.Speed, 'f', 1, 64),
		strconv.FormatFloat(e.Start, 'f', 3, 64),
		strconv.FormatFloat(e.End, 'f', 3, 64),
		text,
	}, "\t")
}

// Append adds entries to the edit list at path, creating it with a header
// when it does not exist yet.
func Append(path string, entries []Entry) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open edit list: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if isNew {
		fmt.Fprintln(w, Header)
	}
	for _, e := range entries {
		fmt.Fprintln(w, e.String())
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write edit list: %w", err)
	}
	return nil
}

// ClipNumber parses the leading number of a clip file name such as
// 000012_000003_90.mp4.
func ClipNumber(name string) (int, error) {
	base := filepath.Base(name)
	prefix, _, _ := strings.Cut(base, "_")
	prefix = strings.TrimSuffix(prefix, filepath.Ext(prefix))
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("no clip number in %q", name)
	}
	return n, nil
}

// LastRecordedClip returns the clip number of the last row in the edit list
// at path. Commented rows count, so a disabled trailing row is not
// transcribed again. ok is false when the file has no rows.
func LastRecordedClip(path string) (clip int, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read edit list: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || line == Header {
			continue
		}
		first, _, _ := strings.Cut(line, "\t")
		first = strings.TrimSpace(strings.TrimLeft(first, "#"))
		n, err := ClipNumber(first)
		if err != nil {
			continue
		}
		return n, true, nil
	}
	return 0, false, nil
}

// FormatClip renders a clip or subclip number the way file names carry it.
func FormatClip(n int) string {
	return fmt.Sprintf("%06d", n)
}

// SplitCaption separates a timed row into its timing columns and caption.
// Comments, blank rows and rows with fewer than five columns report false.
func SplitCaption(line string) (columns, caption string, ok bool) {
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	idx := 0
	for i := 0; i < 4; i++ {
		j := strings.IndexByte(line[idx:], '\t')
		if j < 0 {
			return "", "", false
		}
		idx += j + 1
	}
	return line[:idx], line[idx:], true
}

// ReplaceCaption swaps the caption of a timed row, keeping an inline
// "# note" after it.
func ReplaceCaption(line, caption string) string {
	columns, old, ok := SplitCaption(line)
	if !ok {
		return line
	}
	note := ""
	if i := strings.Index(old, "#"); i >= 0 {
		note = " " + old[i:]
	}
	return columns + strings.Join(strings.Fields(caption), " ") + note
}
