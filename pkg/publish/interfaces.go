package publish

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends. The pipeline only
// ever puts objects.
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Repository defines the interface for metadata persistence. Every write
// happens inside WithinTx; the transaction commits when fn returns nil and
// rolls back otherwise.
type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx MetadataTx) error) error
}

// MetadataTx is the set of writes available inside one transaction
type MetadataTx interface {
	// Story and audiobook rows are plain inserts
	InsertStory(ctx context.Context, rec *StoryRecord) error
	InsertAudiobook(ctx context.Context, rec *AudiobookRecord) error

	// UpsertNews inserts rec unless a row with the same
	// (topic, language, cefr_level, date_created) exists. It reports whether a
	// row was written.
	UpsertNews(ctx context.Context, rec *NewsRecord) (bool, error)

	// Deck operations
	FindDeck(ctx context.Context, name string, userID uuid.UUID) (*Deck, error)
	CreateDeck(ctx context.Context, deck *Deck) error
	DeleteFlashcards(ctx context.Context, deckID int64) (int64, error)
	InsertFlashcards(ctx context.Context, deckID int64, cards []Flashcard) error
}

// Synthesizer converts text to speech with per-character timings
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}

// SpeechRequest is one page of text to be voiced
type SpeechRequest struct {
	Text    string
	VoiceID string
}

// SpeechResult is the provider payload for one page
type SpeechResult struct {
	AudioBase64         string     `json:"audio_base64"`
	Alignment           *Alignment `json:"alignment,omitempty"`
	NormalizedAlignment *Alignment `json:"normalized_alignment,omitempty"`
}

// Alignment maps each character of the voiced text to its time span
type Alignment struct {
	Characters                 []string  `json:"characters"`
	CharacterStartTimesSeconds []float64 `json:"character_start_times_seconds"`
	CharacterEndTimesSeconds   []float64 `json:"character_end_times_seconds"`
}
