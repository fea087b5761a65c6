//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tendant/simple-publish/pkg/publish"
	"github.com/tendant/simple-publish/pkg/publish/repo/postgres"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		tcpostgres.WithDatabase("publish_test"),
		tcpostgres.WithUsername("publish"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Skipping: postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.MigrateUp(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresRepository(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewWithPool(pool)
	writer := publish.NewMetadataWriter(repo)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("StoryDuplicatesAreInserted", func(t *testing.T) {
		rec := &publish.StoryRecord{ID: 7, Title: "Un voyage", Language: "French", Topic: "Travel", Level: publish.LevelA1, PreviewText: "p", DateCreated: date, Pages: 2}
		require.NoError(t, writer.WriteStory(ctx, rec))
		require.NoError(t, writer.WriteStory(ctx, rec))

		var n int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM stories WHERE id = 7`).Scan(&n))
		assert.Equal(t, 2, n)

		var lang, level, topic string
		require.NoError(t, pool.QueryRow(ctx, `SELECT language, cefr_level, topic FROM stories WHERE id = 7 LIMIT 1`).Scan(&lang, &level, &topic))
		assert.Equal(t, "French", lang)
		assert.Equal(t, "A1", level)
		assert.Equal(t, "Travel", topic)
	})

	t.Run("NewsRepublishIsNoop", func(t *testing.T) {
		rec := &publish.NewsRecord{ID: 3, Title: "first", Language: "French", Topic: "Sports", Level: publish.LevelB1, PreviewText: "p", DateCreated: date, Pages: 1}
		inserted, err := writer.WriteNews(ctx, rec)
		require.NoError(t, err)
		assert.True(t, inserted)

		rec.Title = "second"
		inserted, err = writer.WriteNews(ctx, rec)
		require.NoError(t, err)
		assert.False(t, inserted)

		var title string
		require.NoError(t, pool.QueryRow(ctx, `SELECT title FROM news WHERE id = 3`).Scan(&title))
		assert.Equal(t, "first", title)
	})

	t.Run("AudiobookReferencesSource", func(t *testing.T) {
		rec := &publish.AudiobookRecord{SourceType: publish.ContentTypeNews, SourceID: 3, Tier: publish.TierPremium, Pages: 1, CreatedAt: date}
		require.NoError(t, writer.WriteAudiobook(ctx, rec))

		var newsID int64
		require.NoError(t, pool.QueryRow(ctx, `SELECT news_id FROM audiobooks WHERE story_id IS NULL`).Scan(&newsID))
		assert.Equal(t, int64(3), newsID)
	})

	t.Run("DeckReplacePreservesID", func(t *testing.T) {
		owner := uuid.New()
		deck := &publish.Deck{UserID: owner, Name: "French A1 Vocabulary", IsPublic: true, IsSystem: true}
		require.NoError(t, writer.WriteDeck(ctx, deck, []publish.Flashcard{{Front: "le chat", Back: "the cat"}}))
		firstID := deck.ID

		again := &publish.Deck{UserID: owner, Name: "French A1 Vocabulary", IsPublic: true, IsSystem: true}
		require.NoError(t, writer.WriteDeck(ctx, again, []publish.Flashcard{{Front: "le chien", Back: "the dog"}, {Front: "la maison", Back: "the house"}}))
		assert.Equal(t, firstID, again.ID)

		var n int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM flashcards WHERE deck_id = $1`, firstID).Scan(&n))
		assert.Equal(t, 2, n)
	})

	t.Run("MigrateIsIdempotent", func(t *testing.T) {
		// a second run reports no change and succeeds
		dsn := pool.Config().ConnString()
		assert.NoError(t, postgres.MigrateUp(dsn))
	})
}
