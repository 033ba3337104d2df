package translate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vlogtools/vlog/internal/editlist"
)

// CaptionItems collects the caption of every timed row, indexed by line.
// Inline "# notes" are not sent for translation.
func CaptionItems(lines []string) []Item {
	var items []Item
	for i, line := range lines {
		_, caption, ok := editlist.SplitCaption(line)
		if !ok {
			continue
		}
		if j := strings.Index(caption, "#"); j >= 0 {
			caption = caption[:j]
		}
		caption = strings.TrimSpace(caption)
		if caption == "" {
			continue
		}
		items = append(items, Item{Index: i, Text: caption})
	}
	return items
}

// Captions translates the caption column of lines. Comments, blank rows and
// timing columns are returned unchanged. The second result counts rewritten
// rows.
func Captions(ctx context.Context, tr Translator, lines []string) ([]string, int, error) {
	items := CaptionItems(lines)
	out := append([]string(nil), lines...)
	if len(items) == 0 {
		return out, 0, nil
	}

	results, err := tr.Translate(ctx, items)
	if err != nil {
		return nil, 0, err
	}

	wanted := make(map[int]bool, len(items))
	for _, it := range items {
		wanted[it.Index] = true
	}

	n := 0
	for _, r := range results {
		if !wanted[r.Index] || strings.TrimSpace(r.Text) == "" {
			continue
		}
		out[r.Index] = editlist.ReplaceCaption(lines[r.Index], r.Text)
		delete(wanted, r.Index)
		n++
	}
	return out, n, nil
}

// File translates the edit list at inPath and writes it to outPath.
func File(ctx context.Context, tr Translator, inPath, outPath string) (int, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read edit list: %w", err)
	}

	text := string(data)
	trailing := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	out, n, err := Captions(ctx, tr, lines)
	if err != nil {
		return 0, err
	}

	result := strings.Join(out, "\n")
	if trailing {
		result += "\n"
	}
	if err := os.WriteFile(outPath, []byte(result), 0644); err != nil {
		return 0, fmt.Errorf("failed to write edit list: %w", err)
	}
	return n, nil
}
