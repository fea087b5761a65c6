package publish

import "context"

// Service publishes content units from staging folders.
type Service interface {
	// PublishStory uploads context.txt and page*.mdx and inserts a stories row
	PublishStory(ctx context.Context, req StoryRequest) (*Result, error)

	// PublishNews uploads page*.md and inserts a news row unless one already
	// exists for the same topic, language, level and date
	PublishNews(ctx context.Context, req NewsRequest) (*Result, error)

	// PublishAudiobook voices page*.md (or reuses page*.json), uploads the
	// page JSON and inserts an audiobooks row
	PublishAudiobook(ctx context.Context, req AudiobookRequest) (*Result, error)

	// PublishDeck replaces the cards of a system flashcard deck
	PublishDeck(ctx context.Context, req DeckRequest) (*Result, error)

	// Synthesize writes page*.json next to page*.md without publishing
	Synthesize(ctx context.Context, req SynthesizeRequest) (int, error)

	// PublishBatch publishes independent units concurrently. A failing unit
	// does not stop the others.
	PublishBatch(ctx context.Context, items []BatchItem) []BatchResult
}
