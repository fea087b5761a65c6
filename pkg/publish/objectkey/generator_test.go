package objectkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		coords   Coordinates
		artifact string
		expected string
	}{
		{
			name:     "story page",
			coords:   Coordinates{Language: "french", Level: "A1", Topic: "Travel", ContentType: "Story", Identifier: 7},
			artifact: "page0.mdx",
			expected: "french/A1/Travel/Story/7/page0.mdx",
		},
		{
			name:     "case normalization",
			coords:   Coordinates{Language: "FRENCH", Level: "b2", Topic: "film and TV", ContentType: "news", Identifier: 12},
			artifact: "page0.md",
			expected: "french/B2/Film And Tv/News/12/page0.md",
		},
		{
			name:     "whitespace collapsed",
			coords:   Coordinates{Language: " spanish ", Level: " c1", Topic: "  food   and drink ", ContentType: "Story", Identifier: 0},
			artifact: "context.txt",
			expected: "spanish/C1/Food And Drink/Story/0/context.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Derive(tt.coords, tt.artifact)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	coords := Coordinates{Language: "French", Level: "a2", Topic: "food", ContentType: "Story", Identifier: 42}
	first, err := Derive(coords, "page3.mdx")
	require.NoError(t, err)
	second, err := Derive(coords, "page3.mdx")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDerive_EachCoordinateChangesKey(t *testing.T) {
	base := Coordinates{Language: "french", Level: "A1", Topic: "Travel", ContentType: "Story", Identifier: 7}
	baseKey, err := Derive(base, "page0.mdx")
	require.NoError(t, err)

	variants := map[string]Coordinates{
		"language":     {Language: "spanish", Level: "A1", Topic: "Travel", ContentType: "Story", Identifier: 7},
		"level":        {Language: "french", Level: "A2", Topic: "Travel", ContentType: "Story", Identifier: 7},
		"topic":        {Language: "french", Level: "A1", Topic: "Food", ContentType: "Story", Identifier: 7},
		"content type": {Language: "french", Level: "A1", Topic: "Travel", ContentType: "News", Identifier: 7},
		"identifier":   {Language: "french", Level: "A1", Topic: "Travel", ContentType: "Story", Identifier: 70},
	}
	for name, coords := range variants {
		t.Run(name, func(t *testing.T) {
			key, err := Derive(coords, "page0.mdx")
			require.NoError(t, err)
			assert.NotEqual(t, baseKey, key)
		})
	}

	otherArtifact, err := Derive(base, "page1.mdx")
	require.NoError(t, err)
	assert.NotEqual(t, baseKey, otherArtifact)
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []Coordinates{
		{Language: "French", Level: "a1", Topic: "travel", ContentType: "story", Identifier: 7},
		{Language: "spanish", Level: "C2", Topic: "Film and TV", ContentType: "News", Identifier: 1234},
		{Language: "german", Level: "B1", Topic: "NBA", ContentType: "Story", Identifier: 0},
	}
	for _, in := range inputs {
		key, err := Derive(in, "page1.mdx")
		require.NoError(t, err)

		coords, artifact, err := Parse(key)
		require.NoError(t, err)

		norm, err := Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, norm, coords)
		assert.Equal(t, "page1.mdx", artifact)
	}
}

func TestParse_Rejects(t *testing.T) {
	keys := []string{
		"french/A1/Travel/Story/7",
		"french/A1/Travel/Story/007/page0.mdx",
		"French/A1/Travel/Story/7/page0.mdx",
		"french/a1/Travel/Story/7/page0.mdx",
		"french/A1/travel/Story/7/page0.mdx",
		"french/A1/Travel/Story/x/page0.mdx",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			_, _, err := Parse(key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedKey))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once, err := Normalize(Coordinates{Language: "FRENCH", Level: "b1", Topic: "film and TV", ContentType: "story", Identifier: 3})
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestDerive_InvalidSegments(t *testing.T) {
	tests := []struct {
		name     string
		coords   Coordinates
		artifact string
		target   error
	}{
		{"empty topic", Coordinates{Language: "french", Level: "A1", Topic: "  ", ContentType: "Story"}, "page0.mdx", ErrEmptySegment},
		{"slash in topic", Coordinates{Language: "french", Level: "A1", Topic: "Food/Drink", ContentType: "Story"}, "page0.mdx", ErrInvalidSegment},
		{"dot dot language", Coordinates{Language: "..", Level: "A1", Topic: "Food", ContentType: "Story"}, "page0.mdx", ErrInvalidSegment},
		{"empty artifact", Coordinates{Language: "french", Level: "A1", Topic: "Food", ContentType: "Story"}, "", ErrEmptySegment},
		{"nested artifact", Coordinates{Language: "french", Level: "A1", Topic: "Food", ContentType: "Story"}, "a/b.txt", ErrInvalidSegment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.coords, tt.artifact)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestCustomFuncGenerator(t *testing.T) {
	gen := NewCustomFuncGenerator(func(coords Coordinates, artifact string) (string, error) {
		key, err := Derive(coords, artifact)
		if err != nil {
			return "", err
		}
		return "staging/" + key, nil
	})
	key, err := gen.GenerateKey(Coordinates{Language: "french", Level: "A1", Topic: "Travel", ContentType: "Story", Identifier: 1}, "page0.mdx")
	require.NoError(t, err)
	assert.Equal(t, "staging/french/A1/Travel/Story/1/page0.mdx", key)
}
