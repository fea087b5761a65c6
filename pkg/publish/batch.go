package publish

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PublishBatch publishes items with at most batchConcurrency units in flight.
// Results are returned in item order.
func (s *service) PublishBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	limit := s.batchConcurrency
	if limit < 1 {
		limit = 1
	}

	// failures are recorded per item and never cancel siblings
	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			res, err := s.publishItem(ctx, item)
			results[i] = BatchResult{Item: item, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *service) publishItem(ctx context.Context, item BatchItem) (*Result, error) {
	switch item.Type {
	case ContentTypeStory:
		return s.PublishStory(ctx, StoryRequest{UnitRequest: item.UnitRequest, RequirePreview: item.RequirePreview})
	case ContentTypeNews:
		return s.PublishNews(ctx, NewsRequest{UnitRequest: item.UnitRequest})
	case ContentTypeAudiobook:
		return s.PublishAudiobook(ctx, AudiobookRequest{
			UnitRequest:   item.UnitRequest,
			SourceType:    item.SourceType,
			Tier:          item.Tier,
			SkipSynthesis: item.SkipSynthesis,
		})
	case ContentTypeFlashcardDeck:
		return s.PublishDeck(ctx, DeckRequest{
			Dir:      item.Dir,
			Language: item.Language,
			Level:    item.Level,
			Owner:    item.Owner,
			Date:     item.Date,
		})
	}
	return nil, &UnitError{
		Unit:  item.Dir,
		Stage: StageValidating,
		Err:   &ValidationError{Path: item.Dir, Err: fmt.Errorf("%w: %q", ErrUnsupportedContentType, item.Type)},
	}
}

// Failed counts the batch results that carry an error
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
