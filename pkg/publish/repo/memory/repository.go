package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/publish"
)

// state is everything a transaction can change
type state struct {
	stories    []publish.StoryRecord
	news       []publish.NewsRecord
	audiobooks []publish.AudiobookRecord
	decks      []publish.Deck
	flashcards []publish.Flashcard
	nextDeckID int64
	nextCardID int64
}

func (s *state) clone() *state {
	return &state{
		stories:    append([]publish.StoryRecord(nil), s.stories...),
		news:       append([]publish.NewsRecord(nil), s.news...),
		audiobooks: append([]publish.AudiobookRecord(nil), s.audiobooks...),
		decks:      append([]publish.Deck(nil), s.decks...),
		flashcards: append([]publish.Flashcard(nil), s.flashcards...),
		nextDeckID: s.nextDeckID,
		nextCardID: s.nextCardID,
	}
}

// Repository implements publish.Repository using in-memory storage.
// Transactions work on a copy that replaces the committed state on success.
type Repository struct {
	mu    sync.Mutex
	state *state
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{state: &state{nextDeckID: 1, nextCardID: 1}}
}

// WithinTx runs fn against a private copy of the data and commits it when fn
// returns nil. Transactions are serialized.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx publish.MetadataTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &tx{state: r.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.state = tx.state
	return nil
}

// Stories returns a copy of the committed story rows
func (r *Repository) Stories() []publish.StoryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.StoryRecord(nil), r.state.stories...)
}

// News returns a copy of the committed news rows
func (r *Repository) News() []publish.NewsRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.NewsRecord(nil), r.state.news...)
}

// Audiobooks returns a copy of the committed audiobook rows
func (r *Repository) Audiobooks() []publish.AudiobookRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.AudiobookRecord(nil), r.state.audiobooks...)
}

// Decks returns a copy of the committed deck rows
func (r *Repository) Decks() []publish.Deck {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.Deck(nil), r.state.decks...)
}

// Flashcards returns the committed cards of a deck in insertion order
func (r *Repository) Flashcards(deckID int64) []publish.Flashcard {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []publish.Flashcard
	for _, c := range r.state.flashcards {
		if c.DeckID == deckID {
			out = append(out, c)
		}
	}
	return out
}

type tx struct {
	state *state
}

func (t *tx) InsertStory(ctx context.Context, rec *publish.StoryRecord) error {
	t.state.stories = append(t.state.stories, *rec)
	return nil
}

func (t *tx) InsertAudiobook(ctx context.Context, rec *publish.AudiobookRecord) error {
	t.state.audiobooks = append(t.state.audiobooks, *rec)
	return nil
}

func (t *tx) UpsertNews(ctx context.Context, rec *publish.NewsRecord) (bool, error) {
	for _, n := range t.state.news {
		if n.Topic == rec.Topic && n.Language == rec.Language && n.Level == rec.Level && n.DateCreated.Equal(rec.DateCreated) {
			return false, nil
		}
	}
	t.state.news = append(t.state.news, *rec)
	return true, nil
}

func (t *tx) FindDeck(ctx context.Context, name string, userID uuid.UUID) (*publish.Deck, error) {
	for _, d := range t.state.decks {
		if d.Name == name && d.UserID == userID {
			deck := d
			return &deck, nil
		}
	}
	return nil, publish.ErrDeckNotFound
}

func (t *tx) CreateDeck(ctx context.Context, deck *publish.Deck) error {
	for _, d := range t.state.decks {
		if d.Name == deck.Name && d.UserID == deck.UserID {
			return publish.ErrDuplicate
		}
	}
	deck.ID = t.state.nextDeckID
	t.state.nextDeckID++
	t.state.decks = append(t.state.decks, *deck)
	return nil
}

func (t *tx) DeleteFlashcards(ctx context.Context, deckID int64) (int64, error) {
	kept := t.state.flashcards[:0:0]
	var deleted int64
	for _, c := range t.state.flashcards {
		if c.DeckID == deckID {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	t.state.flashcards = kept
	return deleted, nil
}

func (t *tx) InsertFlashcards(ctx context.Context, deckID int64, cards []publish.Flashcard) error {
	found := false
	for _, d := range t.state.decks {
		if d.ID == deckID {
			found = true
			break
		}
	}
	if !found {
		return publish.ErrReferenceNotFound
	}
	for _, c := range cards {
		c.ID = t.state.nextCardID
		c.DeckID = deckID
		t.state.nextCardID++
		t.state.flashcards = append(t.state.flashcards, c)
	}
	return nil
}
