package publish

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/publish/objectkey"
)

// DateLayout is the layout of every date accepted or stored by the pipeline.
const DateLayout = "2006-01-02"

// ContentType is the domain type for the kinds of publishable content.
type ContentType string

// Content type constants (typed).
const (
	ContentTypeStory         ContentType = "Story"
	ContentTypeNews          ContentType = "News"
	ContentTypeAudiobook     ContentType = "Audiobook"
	ContentTypeFlashcardDeck ContentType = "FlashcardDeck"
)

// ParseContentType accepts any casing of a known content type.
func ParseContentType(s string) (ContentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "story":
		return ContentTypeStory, nil
	case "news":
		return ContentTypeNews, nil
	case "audiobook":
		return ContentTypeAudiobook, nil
	case "flashcarddeck", "deck":
		return ContentTypeFlashcardDeck, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// CEFRLevel is a Common European Framework of Reference proficiency tier.
type CEFRLevel string

// CEFR level constants (typed), lowest to highest.
const (
	LevelA1 CEFRLevel = "A1"
	LevelA2 CEFRLevel = "A2"
	LevelB1 CEFRLevel = "B1"
	LevelB2 CEFRLevel = "B2"
	LevelC1 CEFRLevel = "C1"
	LevelC2 CEFRLevel = "C2"
)

// Levels lists every CEFR level in ascending order.
var Levels = []CEFRLevel{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

var levelDescriptions = map[CEFRLevel]string{
	LevelA1: "Basic vocabulary and phrases for absolute beginners",
	LevelA2: "Elementary vocabulary for simple, everyday situations",
	LevelB1: "Intermediate vocabulary for everyday interactions",
	LevelB2: "Upper intermediate vocabulary for clear, detailed expression",
	LevelC1: "Advanced vocabulary for fluent, spontaneous communication",
	LevelC2: "Mastery-level vocabulary for complex, nuanced expression",
}

// ParseCEFRLevel accepts a level in any casing.
func ParseCEFRLevel(s string) (CEFRLevel, error) {
	level := CEFRLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelDescriptions[level]; !ok {
		return "", fmt.Errorf("unknown CEFR level %q", s)
	}
	return level, nil
}

// Description returns the vocabulary description used for system decks.
func (l CEFRLevel) Description() string {
	if d, ok := levelDescriptions[l]; ok {
		return d
	}
	return "Language vocabulary"
}

// Tier is the subscription tier an audiobook is released under.
type Tier string

// Tier constants (typed).
const (
	TierFree    Tier = "FREE"
	TierBasic   Tier = "BASIC"
	TierPremium Tier = "PREMIUM"
)

// ParseTier accepts a tier in any casing.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToUpper(strings.TrimSpace(s))); t {
	case TierFree, TierBasic, TierPremium:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q, expected FREE, BASIC or PREMIUM", s)
}

// Language is a language name in canonical lower-case form, e.g. "french".
type Language string

// Languages with a dedicated voice.
const (
	LanguageFrench  Language = "french"
	LanguageSpanish Language = "spanish"
)

// ParseLanguage lower-cases s and rejects anything that is not a plain name.
func ParseLanguage(s string) (Language, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return "", fmt.Errorf("language is required")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != '-' {
			return "", fmt.Errorf("invalid language %q", s)
		}
	}
	return Language(name), nil
}

// Display returns the capitalized name stored in the relational store.
func (l Language) Display() string {
	return objectkey.TitleCase(string(l))
}

// ContentUnit is one publishable item: a staging folder bound to its
// semantic coordinates.
type ContentUnit struct {
	Type       ContentType
	ID         Identifier
	Language   Language
	Level      CEFRLevel
	Topic      string // canonical title case
	Tier       Tier        // audiobooks only
	SourceType ContentType // audiobooks only: Story or News
	CreatedAt  time.Time
	Dir        string
}

// Coordinates returns the key coordinates of the unit. Audiobook artifacts are
// stored next to the story or news item they narrate.
func (u ContentUnit) Coordinates() objectkey.Coordinates {
	ct := u.Type
	if u.Type == ContentTypeAudiobook {
		ct = u.SourceType
	}
	return objectkey.Coordinates{
		Language:    string(u.Language),
		Level:       string(u.Level),
		Topic:       u.Topic,
		ContentType: string(ct),
		Identifier:  uint64(u.ID),
	}
}

func (u ContentUnit) String() string {
	if u.Type == "" {
		return u.Dir
	}
	if u.Type == ContentTypeAudiobook {
		return fmt.Sprintf("Audiobook of %s %d (%s/%s/%s)", u.SourceType, u.ID, u.Language, u.Level, u.Topic)
	}
	return fmt.Sprintf("%s %d (%s/%s/%s)", u.Type, u.ID, u.Language, u.Level, u.Topic)
}

// Page is one ordered page file of a content unit.
type Page struct {
	Index int
	Name  string
	Path  string
}

// StoryRecord is a row of the stories table.
type StoryRecord struct {
	ID          int64
	Title       string
	Language    string
	Topic       string
	Level       CEFRLevel
	PreviewText string
	DateCreated time.Time
	Pages       int
}

// NewsRecord is a row of the news table. (Topic, Language, Level, DateCreated)
// is unique.
type NewsRecord struct {
	ID          int64
	Title       string
	Language    string
	Topic       string
	Level       CEFRLevel
	PreviewText string
	DateCreated time.Time
	Pages       int
}

// AudiobookRecord is a row of the audiobooks table. SourceType selects the
// story_id or news_id column.
type AudiobookRecord struct {
	SourceType ContentType
	SourceID   int64
	Tier       Tier
	Pages      int
	CreatedAt  time.Time
}

// Deck is a row of the decks table. (Name, UserID) is unique.
type Deck struct {
	ID          int64
	UserID      uuid.UUID
	Name        string
	Description string
	IsPublic    bool
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Flashcard is a row of the flashcards table.
type Flashcard struct {
	ID        int64
	DeckID    int64
	Front     string
	Back      string
	SourceURL string
}

// Stage is the position of a content unit in the publishing state machine.
type Stage string

// Stage constants (typed).
const (
	StageValidating         Stage = "validating"
	StageSynthesizing       Stage = "synthesizing"
	StageUploading          Stage = "uploading"
	StageCommittingMetadata Stage = "committing_metadata"
	StagePublished          Stage = "published"
	StageFailed             Stage = "failed"
)

// Result describes a successfully published unit.
type Result struct {
	Unit ContentUnit
	Keys []string
	// Inserted is false when a News upsert hit an existing row.
	Inserted bool
	// DeckID is set for flashcard decks.
	DeckID int64
	Cards  int
}
