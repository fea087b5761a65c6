package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// AudiobookPage is the JSON artifact stored for one narrated page: the
// provider payload plus the page text and the page count of the unit.
type AudiobookPage struct {
	SpeechResult
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// AudiobookSynthesizer turns the text pages of a unit into AudiobookPages.
type AudiobookSynthesizer struct {
	synth       Synthesizer
	voices      VoiceTable
	concurrency int
}

// NewAudiobookSynthesizer creates a synthesizer over a speech provider.
// concurrency bounds the provider calls in flight; values below 1 mean 1.
func NewAudiobookSynthesizer(synth Synthesizer, voices VoiceTable, concurrency int) *AudiobookSynthesizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AudiobookSynthesizer{synth: synth, voices: voices, concurrency: concurrency}
}

// SynthesizePages voices every page of folder. It is all-or-nothing: on any
// failure no page is returned.
func (a *AudiobookSynthesizer) SynthesizePages(ctx context.Context, folder *Folder, lang Language) ([]AudiobookPage, error) {
	texts := make([]string, len(folder.Pages))
	for i, p := range folder.Pages {
		data, err := os.ReadFile(p.Path)
		if err != nil {
			return nil, &ValidationError{Path: p.Path, Err: err}
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, &ValidationError{Path: p.Path, Err: ErrEmptyText}
		}
		texts[i] = string(data)
	}

	voice := a.voices.VoiceFor(lang)
	out := make([]AudiobookPage, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			res, err := a.synth.Synthesize(gctx, SpeechRequest{Text: text, VoiceID: voice})
			if err != nil {
				return pageSynthesisError(i, err)
			}
			out[i] = AudiobookPage{SpeechResult: *res, Text: text, Pages: len(texts)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func pageSynthesisError(page int, err error) error {
	var se *SynthesisError
	if errors.As(err, &se) {
		cp := *se
		cp.Page = page
		return &cp
	}
	return &SynthesisError{Page: page, Err: err}
}

// WriteAudiobookPages stores pages in dir as page0.json, page1.json, ...
func WriteAudiobookPages(dir string, pages []AudiobookPage) error {
	for i, p := range pages {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("encode page %d: %w", i, err)
		}
		if err := os.WriteFile(filepath.Join(dir, PageName(i, ".json")), data, 0o644); err != nil {
			return fmt.Errorf("write page %d: %w", i, err)
		}
	}
	return nil
}

// ReadAudiobookPage loads a previously generated page JSON file
func ReadAudiobookPage(path string) (*AudiobookPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var page AudiobookPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &page, nil
}
