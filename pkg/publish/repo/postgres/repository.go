package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/publish"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxStarter is satisfied by *pgxpool.Pool and *pgx.Conn
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements publish.Repository using PostgreSQL
type Repository struct {
	db TxStarter
}

// New creates a new PostgreSQL repository
func New(db TxStarter) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// WithinTx runs fn in a transaction that commits when fn returns nil
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx publish.MetadataTx) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{db: tx})
	})
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", publish.ErrDuplicate, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", publish.ErrReferenceNotFound, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: %s", publish.ErrMissingField, pgErr.ColumnName)
		case "42P01": // undefined_table
			return publish.ErrSchemaMissing
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// txRepository implements publish.MetadataTx on one transaction
type txRepository struct {
	db DBTX
}

func (r *txRepository) InsertStory(ctx context.Context, rec *publish.StoryRecord) error {
	query := `
		INSERT INTO stories (
			id, title, language, topic, cefr_level, preview_text, date_created, pages
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.Title, rec.Language, rec.Topic, string(rec.Level),
		rec.PreviewText, rec.DateCreated, rec.Pages,
	)
	if err != nil {
		return handlePostgresError("insert story", err)
	}
	return nil
}

func (r *txRepository) UpsertNews(ctx context.Context, rec *publish.NewsRecord) (bool, error) {
	query := `
		INSERT INTO news (
			id, title, language, topic, cefr_level, preview_text, date_created, pages
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (topic, language, cefr_level, date_created) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		rec.ID, rec.Title, rec.Language, rec.Topic, string(rec.Level),
		rec.PreviewText, rec.DateCreated, rec.Pages,
	)
	if err != nil {
		return false, handlePostgresError("upsert news", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepository) InsertAudiobook(ctx context.Context, rec *publish.AudiobookRecord) error {
	var storyID, newsID *int64
	switch rec.SourceType {
	case publish.ContentTypeStory:
		storyID = &rec.SourceID
	case publish.ContentTypeNews:
		newsID = &rec.SourceID
	default:
		return fmt.Errorf("%w: audiobook source %q", publish.ErrUnsupportedContentType, rec.SourceType)
	}

	query := `
		INSERT INTO audiobooks (story_id, news_id, tier, pages, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, storyID, newsID, string(rec.Tier), rec.Pages, rec.CreatedAt)
	if err != nil {
		return handlePostgresError("insert audiobook", err)
	}
	return nil
}

func (r *txRepository) FindDeck(ctx context.Context, name string, userID uuid.UUID) (*publish.Deck, error) {
	query := `
		SELECT id, user_id, name, description, is_public, is_system, created_at, updated_at
		FROM decks
		WHERE name = $1 AND user_id = $2`

	var d publish.Deck
	err := r.db.QueryRow(ctx, query, name, userID).Scan(
		&d.ID, &d.UserID, &d.Name, &d.Description, &d.IsPublic, &d.IsSystem, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, publish.ErrDeckNotFound
	}
	if err != nil {
		return nil, handlePostgresError("find deck", err)
	}
	return &d, nil
}

func (r *txRepository) CreateDeck(ctx context.Context, deck *publish.Deck) error {
	query := `
		INSERT INTO decks (user_id, name, description, is_public, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		deck.UserID, deck.Name, deck.Description, deck.IsPublic, deck.IsSystem, deck.CreatedAt, deck.UpdatedAt,
	).Scan(&deck.ID)
	if err != nil {
		return handlePostgresError("create deck", err)
	}
	return nil
}

func (r *txRepository) DeleteFlashcards(ctx context.Context, deckID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM flashcards WHERE deck_id = $1`, deckID)
	if err != nil {
		return 0, handlePostgresError("delete flashcards", err)
	}
	return tag.RowsAffected(), nil
}

func (r *txRepository) InsertFlashcards(ctx context.Context, deckID int64, cards []publish.Flashcard) error {
	query := `
		INSERT INTO flashcards (deck_id, front_content, back_content, source_url)
		VALUES ($1, $2, $3, $4)`

	for _, c := range cards {
		if _, err := r.db.Exec(ctx, query, deckID, c.Front, c.Back, c.SourceURL); err != nil {
			return handlePostgresError("insert flashcards", err)
		}
	}
	return nil
}
