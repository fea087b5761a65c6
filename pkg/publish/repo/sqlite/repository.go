package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tendant/simple-publish/pkg/publish"
)

const timestampLayout = time.RFC3339Nano

// Repository implements publish.Repository on a database/sql handle opened
// with the modernc.org/sqlite driver. It is meant for local development.
type Repository struct {
	db *sql.DB
}

// New creates a repository over an open database
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Repository, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one connection: an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// DB returns the underlying handle
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the underlying handle
func (r *Repository) Close() error {
	return r.db.Close()
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// WithinTx runs fn in a transaction that commits when fn returns nil
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx publish.MetadataTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return handleSQLiteError("begin", err)
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return handleSQLiteError("commit", err)
	}
	return nil
}

func handleSQLiteError(operation string, err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", publish.ErrDuplicate, sqlErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", publish.ErrReferenceNotFound, sqlErr.Error())
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %s", publish.ErrMissingField, sqlErr.Error())
		}
		// without extended result codes only the primary code is set
		msg := sqlErr.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return fmt.Errorf("%w: %s", publish.ErrDuplicate, msg)
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return fmt.Errorf("%w: %s", publish.ErrReferenceNotFound, msg)
		case strings.Contains(msg, "NOT NULL constraint failed"):
			return fmt.Errorf("%w: %s", publish.ErrMissingField, msg)
		case strings.Contains(msg, "no such table"):
			return publish.ErrSchemaMissing
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// txRepository implements publish.MetadataTx on one transaction
type txRepository struct {
	tx *sql.Tx
}

func (r *txRepository) InsertStory(ctx context.Context, rec *publish.StoryRecord) error {
	query := `
		INSERT INTO stories (
			id, title, language, topic, cefr_level, preview_text, date_created, pages
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.tx.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Language, rec.Topic, string(rec.Level),
		rec.PreviewText, rec.DateCreated.Format(publish.DateLayout), rec.Pages,
	)
	if err != nil {
		return handleSQLiteError("insert story", err)
	}
	return nil
}

func (r *txRepository) UpsertNews(ctx context.Context, rec *publish.NewsRecord) (bool, error) {
	query := `
		INSERT INTO news (
			id, title, language, topic, cefr_level, preview_text, date_created, pages
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (topic, language, cefr_level, date_created) DO NOTHING`

	res, err := r.tx.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Language, rec.Topic, string(rec.Level),
		rec.PreviewText, rec.DateCreated.Format(publish.DateLayout), rec.Pages,
	)
	if err != nil {
		return false, handleSQLiteError("upsert news", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, handleSQLiteError("upsert news", err)
	}
	return n == 1, nil
}

func (r *txRepository) InsertAudiobook(ctx context.Context, rec *publish.AudiobookRecord) error {
	var storyID, newsID sql.NullInt64
	switch rec.SourceType {
	case publish.ContentTypeStory:
		storyID = sql.NullInt64{Int64: rec.SourceID, Valid: true}
	case publish.ContentTypeNews:
		newsID = sql.NullInt64{Int64: rec.SourceID, Valid: true}
	default:
		return fmt.Errorf("%w: audiobook source %q", publish.ErrUnsupportedContentType, rec.SourceType)
	}

	query := `
		INSERT INTO audiobooks (story_id, news_id, tier, pages, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.tx.ExecContext(ctx, query, storyID, newsID, string(rec.Tier), rec.Pages, rec.CreatedAt.Format(publish.DateLayout))
	if err != nil {
		return handleSQLiteError("insert audiobook", err)
	}
	return nil
}

func (r *txRepository) FindDeck(ctx context.Context, name string, userID uuid.UUID) (*publish.Deck, error) {
	query := `
		SELECT id, user_id, name, description, is_public, is_system, created_at, updated_at
		FROM decks
		WHERE name = ? AND user_id = ?`

	var (
		d                    publish.Deck
		owner                string
		createdAt, updatedAt string
	)
	err := r.tx.QueryRowContext(ctx, query, name, userID.String()).Scan(
		&d.ID, &owner, &d.Name, &d.Description, &d.IsPublic, &d.IsSystem, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, publish.ErrDeckNotFound
	}
	if err != nil {
		return nil, handleSQLiteError("find deck", err)
	}

	if d.UserID, err = uuid.Parse(owner); err != nil {
		return nil, fmt.Errorf("deck %d has invalid owner %q: %w", d.ID, owner, err)
	}
	if d.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("deck %d has invalid created_at: %w", d.ID, err)
	}
	if d.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("deck %d has invalid updated_at: %w", d.ID, err)
	}
	return &d, nil
}

func (r *txRepository) CreateDeck(ctx context.Context, deck *publish.Deck) error {
	query := `
		INSERT INTO decks (user_id, name, description, is_public, is_system, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.tx.ExecContext(ctx, query,
		deck.UserID.String(), deck.Name, deck.Description, deck.IsPublic, deck.IsSystem,
		deck.CreatedAt.UTC().Format(timestampLayout), deck.UpdatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return handleSQLiteError("create deck", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return handleSQLiteError("create deck", err)
	}
	deck.ID = id
	return nil
}

func (r *txRepository) DeleteFlashcards(ctx context.Context, deckID int64) (int64, error) {
	res, err := r.tx.ExecContext(ctx, `DELETE FROM flashcards WHERE deck_id = ?`, deckID)
	if err != nil {
		return 0, handleSQLiteError("delete flashcards", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, handleSQLiteError("delete flashcards", err)
	}
	return n, nil
}

func (r *txRepository) InsertFlashcards(ctx context.Context, deckID int64, cards []publish.Flashcard) error {
	query := `
		INSERT INTO flashcards (deck_id, front_content, back_content, source_url)
		VALUES (?, ?, ?, ?)`

	for _, c := range cards {
		if _, err := r.tx.ExecContext(ctx, query, deckID, c.Front, c.Back, c.SourceURL); err != nil {
			return handleSQLiteError("insert flashcards", err)
		}
	}
	return nil
}
