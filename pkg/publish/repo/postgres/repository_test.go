package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-publish/pkg/publish"
)

func TestHandlePostgresError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "decks_name_user_id_key"}, publish.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "flashcards_deck_id_fkey"}, publish.ErrReferenceNotFound},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "title"}, publish.ErrMissingField},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, publish.ErrSchemaMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handlePostgresError("op", tt.err)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("other code", func(t *testing.T) {
		err := handlePostgresError("insert story", &pgconn.PgError{Code: "22001", Message: "value too long"})
		assert.Contains(t, err.Error(), "insert story")
		assert.Contains(t, err.Error(), "22001")
	})

	t.Run("non postgres error", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := handlePostgresError("insert story", cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/postgres?sslmode=require", migrateURL("postgres://u:p@h:5432/postgres?sslmode=require"))
	assert.Equal(t, "pgx5://u@h/db", migrateURL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://u@h/db", migrateURL("pgx5://u@h/db"))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}
