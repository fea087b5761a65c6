package publish

import (
	"context"
	"errors"
	"time"
)

// MetadataWriter records published units in the relational store. Each
// method runs in exactly one transaction.
type MetadataWriter struct {
	repo Repository
	now  func() time.Time
}

// NewMetadataWriter creates a writer over repo
func NewMetadataWriter(repo Repository) *MetadataWriter {
	return &MetadataWriter{repo: repo, now: time.Now}
}

// WriteStory inserts a story row. Re-publishing the same story inserts a
// second row.
func (w *MetadataWriter) WriteStory(ctx context.Context, rec *StoryRecord) error {
	err := w.repo.WithinTx(ctx, func(ctx context.Context, tx MetadataTx) error {
		return tx.InsertStory(ctx, rec)
	})
	return metadataError("stories", "insert", err)
}

// WriteNews inserts a news row unless one already exists for the same
// (topic, language, level, date). It reports whether a row was inserted.
func (w *MetadataWriter) WriteNews(ctx context.Context, rec *NewsRecord) (bool, error) {
	var inserted bool
	err := w.repo.WithinTx(ctx, func(ctx context.Context, tx MetadataTx) error {
		var err error
		inserted, err = tx.UpsertNews(ctx, rec)
		return err
	})
	if err != nil {
		return false, metadataError("news", "upsert", err)
	}
	return inserted, nil
}

// WriteAudiobook inserts an audiobook row referencing its source unit
func (w *MetadataWriter) WriteAudiobook(ctx context.Context, rec *AudiobookRecord) error {
	if rec.SourceType != ContentTypeStory && rec.SourceType != ContentTypeNews {
		return &MetadataError{Table: "audiobooks", Op: "insert", Err: ErrUnsupportedContentType}
	}
	err := w.repo.WithinTx(ctx, func(ctx context.Context, tx MetadataTx) error {
		return tx.InsertAudiobook(ctx, rec)
	})
	return metadataError("audiobooks", "insert", err)
}

// WriteDeck replaces the cards of the deck identified by (Name, UserID),
// creating the deck when it does not exist. An existing deck keeps its id.
// The deck row is updated in place with the stored id and timestamps.
func (w *MetadataWriter) WriteDeck(ctx context.Context, deck *Deck, cards []Flashcard) error {
	table, op := "decks", "find"
	err := w.repo.WithinTx(ctx, func(ctx context.Context, tx MetadataTx) error {
		existing, err := tx.FindDeck(ctx, deck.Name, deck.UserID)
		switch {
		case err == nil:
			table, op = "flashcards", "delete"
			if _, err := tx.DeleteFlashcards(ctx, existing.ID); err != nil {
				return err
			}
			*deck = *existing
		case errors.Is(err, ErrDeckNotFound):
			table, op = "decks", "insert"
			now := w.now().UTC()
			if deck.CreatedAt.IsZero() {
				deck.CreatedAt = now
			}
			deck.UpdatedAt = now
			if err := tx.CreateDeck(ctx, deck); err != nil {
				return err
			}
		default:
			return err
		}
		table, op = "flashcards", "insert"
		return tx.InsertFlashcards(ctx, deck.ID, cards)
	})
	return metadataError(table, op, err)
}

func metadataError(table, op string, err error) error {
	if err == nil {
		return nil
	}
	var me *MetadataError
	if errors.As(err, &me) {
		return err
	}
	return &MetadataError{Table: table, Op: op, Err: err}
}
