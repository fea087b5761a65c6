package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-publish/pkg/publish"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[[items]]
type = "story"
dir = "stories/007"
language = "French"
cefr = "A1"
topic = "Travel"
date = "2025-03-01"
pages = 2
require_preview = true

[[items]]
type = "Audiobook"
dir = "/abs/5"
source_type = "News"
tier = "BASIC"

[[items]]
type = "deck"
dir = "decks/3"

[[items]]
type = "Podcast"
dir = "9"
`)

	items, n, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, publish.ContentTypeStory, items[0].Type)
	assert.Equal(t, filepath.Join(dir, "stories", "007"), items[0].Dir)
	assert.Equal(t, 2, items[0].Pages)
	assert.True(t, items[0].RequirePreview)

	assert.Equal(t, "/abs/5", items[1].Dir)
	assert.Equal(t, "News", items[1].SourceType)
	assert.Equal(t, publish.ContentTypeFlashcardDeck, items[2].Type)
	assert.Equal(t, publish.ContentType("Podcast"), items[3].Type)

	assert.Equal(t, needs{store: true, repository: true, synthesizer: true, deckOwner: true}, n)
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty", content: "", wantErr: "lists no items"},
		{name: "missing dir", content: "[[items]]\ntype = \"Story\"\n", wantErr: "manifest item 1 has no dir"},
		{name: "malformed", content: "[[items]\n", wantErr: "parse manifest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, _, err := loadManifest(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, _, err := loadManifest(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read manifest")
}

func TestBatchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	writeFolder(t, env.baseDir, "007", storyFiles)
	writeFolder(t, env.baseDir, "12", map[string]string{
		"title.txt":   "Le match",
		"preview.txt": "Résumé",
		"page0.md":    "Texte",
	})
	path := writeManifest(t, env.baseDir, `
[[items]]
type = "Story"
dir = "007"
language = "French"
cefr = "A1"
topic = "Travel"
date = "2025-03-01"

[[items]]
type = "News"
dir = "12"
language = "Spanish"
cefr = "B1"
topic = "Sports"
date = "2025-03-02"

[[items]]
type = "Podcast"
dir = "13"
`)

	out, _, err := runCLI(t, "batch", path)
	require.Error(t, err)
	assert.Equal(t, "1 of 3 units failed", err.Error())

	assert.Contains(t, out, "Podcast")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "3 objects")
	assert.Equal(t, 1, env.count(t, "stories"))
	assert.Equal(t, 1, env.count(t, "news"))
}

func TestRenderBatchSummary(t *testing.T) {
	results := []publish.BatchResult{
		{
			Item:   publish.BatchItem{Type: publish.ContentTypeNews, UnitRequest: publish.UnitRequest{Dir: "/staging/12"}},
			Result: &publish.Result{Keys: []string{"a", "b"}},
		},
		{
			Item:   publish.BatchItem{Type: publish.ContentTypeFlashcardDeck, UnitRequest: publish.UnitRequest{Dir: "/staging/3"}},
			Result: &publish.Result{Inserted: true, DeckID: 4, Cards: 10},
		},
	}

	out := renderBatchSummary(results)
	assert.Contains(t, out, "unchanged")
	assert.Contains(t, out, "2 objects, row exists")
	assert.Contains(t, out, "deck 4, 10 cards")
	assert.Contains(t, out, "12")
	assert.NotContains(t, out, "/staging")
}
