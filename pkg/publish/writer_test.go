package publish_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/publish"
	"github.com/tendant/simple-publish/pkg/publish/repo/memory"
)

func TestMetadataWriter_WriteAudiobookRejectsSource(t *testing.T) {
	repo := memory.New()
	w := publish.NewMetadataWriter(repo)

	err := w.WriteAudiobook(context.Background(), &publish.AudiobookRecord{SourceType: publish.ContentTypeFlashcardDeck, SourceID: 1})
	var me *publish.MetadataError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "audiobooks", me.Table)
	assert.ErrorIs(t, err, publish.ErrUnsupportedContentType)
	assert.Empty(t, repo.Audiobooks())
}

func TestMetadataWriter_WriteDeck(t *testing.T) {
	repo := memory.New()
	w := publish.NewMetadataWriter(repo)
	owner := uuid.New()
	ctx := context.Background()

	deck := &publish.Deck{UserID: owner, Name: "Spanish B2 Vocabulary", Description: "first", IsSystem: true}
	require.NoError(t, w.WriteDeck(ctx, deck, []publish.Flashcard{{Front: "el gato", Back: "the cat"}}))
	assert.NotZero(t, deck.ID)
	assert.False(t, deck.CreatedAt.IsZero())
	assert.False(t, deck.UpdatedAt.IsZero())

	again := &publish.Deck{UserID: owner, Name: "Spanish B2 Vocabulary", Description: "second"}
	require.NoError(t, w.WriteDeck(ctx, again, []publish.Flashcard{{Front: "el perro", Back: "the dog"}}))
	assert.Equal(t, deck.ID, again.ID)
	assert.Equal(t, "first", again.Description, "an existing deck row is kept as is")

	cards := repo.Flashcards(deck.ID)
	require.Len(t, cards, 1)
	assert.Equal(t, "el perro", cards[0].Front)

	other := &publish.Deck{UserID: uuid.New(), Name: "Spanish B2 Vocabulary"}
	require.NoError(t, w.WriteDeck(ctx, other, []publish.Flashcard{{Front: "a", Back: "b"}}))
	assert.NotEqual(t, deck.ID, other.ID)
	assert.Len(t, repo.Decks(), 2)
}

func TestMetadataWriter_FailureIsMetadataError(t *testing.T) {
	w := publish.NewMetadataWriter(failingRepository{err: errConnectionRefused})

	_, err := w.WriteNews(context.Background(), &publish.NewsRecord{ID: 1})
	var me *publish.MetadataError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "news", me.Table)
	assert.Equal(t, "upsert", me.Op)
	assert.ErrorIs(t, err, errConnectionRefused)

	err = w.WriteStory(context.Background(), &publish.StoryRecord{ID: 1})
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "stories", me.Table)
}
