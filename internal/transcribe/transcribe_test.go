package transcribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	calls    []string
	failPath string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if path == f.failPath {
		return nil, errors.New("quota exceeded")
	}
	// finish out of order
	if strings.HasSuffix(path, "1.mp3") {
		time.Sleep(10 * time.Millisecond)
	}
	return &Result{Captions: []Caption{{Start: 0, End: 1, Text: path}}}, nil
}

func TestTranscribeFilesKeepsOrder(t *testing.T) {
	paths := []string{"000001.mp3", "000002.mp3", "000003.mp3", "000004.mp3"}
	fake := &fakeTranscriber{}

	results, err := TranscribeFiles(context.Background(), fake, paths, 3)
	if err != nil {
		t.Fatalf("TranscribeFiles() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, r := range results {
		if r.Captions[0].Text != paths[i] {
			t.Errorf("result %d = %q, want %q", i, r.Captions[0].Text, paths[i])
		}
	}
}

func TestTranscribeFilesError(t *testing.T) {
	fake := &fakeTranscriber{failPath: "000002.mp3"}

	_, err := TranscribeFiles(context.Background(), fake, []string{"000001.mp3", "000002.mp3"}, 1)
	if err == nil {
		t.Fatal("TranscribeFiles() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "000002.mp3") {
		t.Errorf("error %q does not name the failed file", err)
	}
}

func TestTranscribeFilesEmpty(t *testing.T) {
	results, err := TranscribeFiles(context.Background(), &fakeTranscriber{}, nil, 2)
	if err != nil || results != nil {
		t.Errorf("TranscribeFiles(nil) = %v, %v, want nil, nil", results, err)
	}
}

func TestFactoryUnsupported(t *testing.T) {
	if _, err := Factory(context.Background(), Provider("whisper-local"), "key", Options{}); err == nil {
		t.Error("Factory() error = nil, want error")
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAITranscriber(context.Background(), "", Options{}); err == nil {
		t.Error("NewOpenAITranscriber() error = nil, want error")
	}
}
