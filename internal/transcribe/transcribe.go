// Package transcribe turns recorded clips into timed captions through a
// speech-to-text provider.
package transcribe

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Caption is a transcribed phrase with positions in seconds.
type Caption struct {
	Start float64
	End   float64
	Text  string
}

// transcription result
type Result struct {
	Captions []Caption
	Language string
	Duration float64
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// transcription options
type Options struct {
	Language           string // spoken language, empty to detect
	TranscriptLanguage string // output language, "native" keeps the spoken one
	Model              string
	Prompt             string
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type fileResult struct {
	index  int
	result *Result
	err    error
}

// TranscribeFiles transcribes paths with at most concurrency requests in
// flight. Results keep the order of paths; the first failure cancels the
// remaining work.
func TranscribeFiles(
	ctx context.Context,
	t Transcriber,
	paths []string,
	concurrency int,
) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		path  string
	}
	workChan := make(chan job)
	resultChan := make(chan fileResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workChan {
				if ctx.Err() != nil {
					return
				}
				res, err := t.Transcribe(ctx, j.path)
				if err != nil {
					err = fmt.Errorf("%s: %w", j.path, err)
					cancel()
				}
				resultChan <- fileResult{index: j.index, result: res, err: err}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i, p := range paths {
			select {
			case <-ctx.Done():
				return
			case workChan <- job{index: i, path: p}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := make([]fileResult, 0, len(paths))
	var firstErr error
	for r := range resultChan {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		collected = append(collected, r)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if len(collected) != len(paths) {
		return nil, ctx.Err()
	}

	// sort by index to maintain order
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})

	results := make([]*Result, len(collected))
	for i, r := range collected {
		results[i] = r.result
	}
	return results, nil
}
