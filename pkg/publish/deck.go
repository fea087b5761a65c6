package publish

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// deckManifest is the optional deck.toml of a deck folder
type deckManifest struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	IsPublic    *bool  `toml:"is_public"`
	IsSystem    *bool  `toml:"is_system"`
}

// cardPage is one page*.toml of a deck folder:
//
//	[[cards]]
//	front = "le chat"
//	back = "the cat"
type cardPage struct {
	Cards []struct {
		Front     string `toml:"front"`
		Back      string `toml:"back"`
		SourceURL string `toml:"source_url"`
	} `toml:"cards"`
}

// DeckName is the name of the system deck for a language and level
func DeckName(lang Language, level CEFRLevel) string {
	return fmt.Sprintf("%s %s Vocabulary", lang.Display(), level)
}

func loadDeck(folder *Folder, unit ContentUnit, owner uuid.UUID) (*Deck, error) {
	deck := &Deck{
		UserID:      owner,
		Name:        DeckName(unit.Language, unit.Level),
		Description: fmt.Sprintf("%s in %s", unit.Level.Description(), unit.Language.Display()),
		IsPublic:    true,
		IsSystem:    true,
		CreatedAt:   unit.CreatedAt,
	}
	if !folder.Has("deck.toml") {
		return deck, nil
	}

	data, err := os.ReadFile(folder.Path("deck.toml"))
	if err != nil {
		return nil, &ValidationError{Path: folder.Path("deck.toml"), Err: err}
	}
	var m deckManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{Path: folder.Path("deck.toml"), Err: err}
	}
	if name := strings.TrimSpace(m.Name); name != "" {
		deck.Name = name
	}
	if desc := strings.TrimSpace(m.Description); desc != "" {
		deck.Description = desc
	}
	if m.IsPublic != nil {
		deck.IsPublic = *m.IsPublic
	}
	if m.IsSystem != nil {
		deck.IsSystem = *m.IsSystem
	}
	return deck, nil
}

func loadCards(folder *Folder) ([]Flashcard, error) {
	var cards []Flashcard
	for _, pg := range folder.Pages {
		data, err := os.ReadFile(pg.Path)
		if err != nil {
			return nil, &ValidationError{Path: pg.Path, Err: err}
		}
		var page cardPage
		if err := toml.Unmarshal(data, &page); err != nil {
			return nil, &ValidationError{Path: pg.Path, Err: err}
		}
		for i, c := range page.Cards {
			front, back := strings.TrimSpace(c.Front), strings.TrimSpace(c.Back)
			if front == "" || back == "" {
				return nil, &ValidationError{Path: pg.Path, Err: fmt.Errorf("%w: card %d needs a front and a back", ErrInvalidArgument, i)}
			}
			cards = append(cards, Flashcard{Front: front, Back: back, SourceURL: strings.TrimSpace(c.SourceURL)})
		}
	}
	if len(cards) == 0 {
		return nil, &ValidationError{Path: folder.Dir, Err: fmt.Errorf("%w: deck has no cards", ErrNoPages)}
	}
	return cards, nil
}
