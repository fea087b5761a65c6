package publish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	for in, want := range map[string]ContentType{
		"story":         ContentTypeStory,
		"News":          ContentTypeNews,
		"AUDIOBOOK":     ContentTypeAudiobook,
		"deck":          ContentTypeFlashcardDeck,
		"FlashcardDeck": ContentTypeFlashcardDeck,
	} {
		got, err := ParseContentType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseContentType("podcast")
	assert.Error(t, err)
}

func TestParseCEFRLevel(t *testing.T) {
	level, err := ParseCEFRLevel(" b2 ")
	require.NoError(t, err)
	assert.Equal(t, LevelB2, level)

	_, err = ParseCEFRLevel("D1")
	assert.Error(t, err)

	assert.Equal(t, "Basic vocabulary and phrases for absolute beginners", LevelA1.Description())
	assert.Equal(t, "Language vocabulary", CEFRLevel("Z9").Description())
	assert.Len(t, Levels, 6)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("premium")
	require.NoError(t, err)
	assert.Equal(t, TierPremium, tier)

	_, err = ParseTier("gold")
	assert.Error(t, err)
}

func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage("French")
	require.NoError(t, err)
	assert.Equal(t, LanguageFrench, lang)
	assert.Equal(t, "French", lang.Display())

	lang, err = ParseLanguage("brazilian-portuguese")
	require.NoError(t, err)
	assert.Equal(t, Language("brazilian-portuguese"), lang)

	for _, bad := range []string{"", "  ", "fr3nch", "french/a1"} {
		_, err := ParseLanguage(bad)
		assert.Error(t, err, bad)
	}
}

func TestContentUnit(t *testing.T) {
	story := ContentUnit{
		Type:      ContentTypeStory,
		ID:        7,
		Language:  LanguageFrench,
		Level:     LevelA1,
		Topic:     "Travel",
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	coords := story.Coordinates()
	assert.Equal(t, "Story", coords.ContentType)
	assert.Equal(t, uint64(7), coords.Identifier)
	assert.Equal(t, "Story 7 (french/A1/Travel)", story.String())

	audio := story
	audio.Type = ContentTypeAudiobook
	audio.SourceType = ContentTypeNews
	assert.Equal(t, "News", audio.Coordinates().ContentType)
	assert.Equal(t, "Audiobook of News 7 (french/A1/Travel)", audio.String())

	assert.Equal(t, "staging/9", ContentUnit{Dir: "staging/9"}.String())
}
