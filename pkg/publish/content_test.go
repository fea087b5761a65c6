package publish

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUnit() ContentUnit {
	return ContentUnit{
		Type:      ContentTypeStory,
		ID:        7,
		Language:  LanguageFrench,
		Level:     LevelA2,
		Topic:     "Daily Life",
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStoryTitle(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "title file",
			files: map[string]string{"context.txt": "c", "title.txt": "  Le marché \n", "page0.mdx": "# Ignored"},
			want:  "Le marché",
		},
		{
			name:  "first heading",
			files: map[string]string{"context.txt": "c", "page0.mdx": "intro\n## Sub\n# Au marché\ntext"},
			want:  "Au marché",
		},
		{
			name:  "blank title file falls through",
			files: map[string]string{"context.txt": "c", "title.txt": "\n", "page0.mdx": "# Au marché"},
			want:  "Au marché",
		},
		{
			name:  "heading after a long line",
			files: map[string]string{"context.txt": "c", "page0.mdx": strings.Repeat("x", 70*1024) + "\n# Au marché\n"},
			want:  "Au marché",
		},
		{
			name:  "heading on a last line without newline",
			files: map[string]string{"context.txt": "c", "page0.mdx": "intro\n# Au marché"},
			want:  "Au marché",
		},
		{
			name:  "long line without heading",
			files: map[string]string{"context.txt": "c", "page0.mdx": strings.Repeat("y", 70*1024)},
			want:  "Daily Life Story for A2 Level - 2025-03-01",
		},
		{
			name:  "generated",
			files: map[string]string{"context.txt": "c", "page0.mdx": "no heading here"},
			want:  "Daily Life Story for A2 Level - 2025-03-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder, err := ValidateFolder(writeFolder(t, "7", tt.files), StoryLayout, 0)
			require.NoError(t, err)

			got, err := storyTitle(testUnit(), folder)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoryPreview(t *testing.T) {
	folder, err := ValidateFolder(writeFolder(t, "7", map[string]string{"context.txt": "c", "page0.mdx": "a"}), StoryLayout, 0)
	require.NoError(t, err)
	got, err := storyPreview(testUnit(), folder)
	require.NoError(t, err)
	assert.Equal(t, "A story about daily life for A2 level learners", got)

	folder, err = ValidateFolder(writeFolder(t, "7", map[string]string{"context.txt": "c", "preview.txt": "Au marché.", "page0.mdx": "a"}), StoryLayout, 0)
	require.NoError(t, err)
	got, err = storyPreview(testUnit(), folder)
	require.NoError(t, err)
	assert.Equal(t, "Au marché.", got)
}

func TestDeckName(t *testing.T) {
	assert.Equal(t, "French A1 Vocabulary", DeckName(LanguageFrench, LevelA1))
	assert.Equal(t, "Spanish C2 Vocabulary", DeckName(LanguageSpanish, LevelC2))
}

func TestLoadDeck_Defaults(t *testing.T) {
	folder, err := ValidateFolder(writeFolder(t, "5", map[string]string{"page0.toml": ""}), DeckLayout, 0)
	require.NoError(t, err)

	owner := uuid.New()
	unit := testUnit()
	unit.Language = LanguageSpanish
	deck, err := loadDeck(folder, unit, owner)
	require.NoError(t, err)
	assert.Equal(t, "Spanish A2 Vocabulary", deck.Name)
	assert.Equal(t, "Elementary vocabulary for simple, everyday situations in Spanish", deck.Description)
	assert.Equal(t, owner, deck.UserID)
	assert.True(t, deck.IsPublic)
	assert.True(t, deck.IsSystem)
}

func TestLoadDeck_InvalidManifest(t *testing.T) {
	folder, err := ValidateFolder(writeFolder(t, "5", map[string]string{"page0.toml": "", "deck.toml": "name = "}), DeckLayout, 0)
	require.NoError(t, err)

	_, err = loadDeck(folder, testUnit(), uuid.New())
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLoadCards_TrimsAndOrders(t *testing.T) {
	folder, err := ValidateFolder(writeFolder(t, "5", map[string]string{
		"page0.toml": "[[cards]]\nfront = \" un \"\nback = \" one \"\n",
		"page1.toml": "[[cards]]\nfront = \"deux\"\nback = \"two\"\n",
	}), DeckLayout, 0)
	require.NoError(t, err)

	cards, err := loadCards(folder)
	require.NoError(t, err)
	assert.Equal(t, []Flashcard{{Front: "un", Back: "one"}, {Front: "deux", Back: "two"}}, cards)
}
