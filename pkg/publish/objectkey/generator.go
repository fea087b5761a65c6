package objectkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Error values returned for coordinates that cannot be turned into a key.
var (
	ErrEmptySegment   = errors.New("empty key segment")
	ErrInvalidSegment = errors.New("invalid key segment")
	ErrMalformedKey   = errors.New("malformed object key")
)

// Coordinates are the semantic coordinates of one content unit.
type Coordinates struct {
	Language    string
	Level       string
	Topic       string
	ContentType string
	Identifier  uint64
}

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates the object key for one artifact of a content unit
	GenerateKey(coords Coordinates, artifact string) (string, error)
}

// HierarchicalGenerator lays keys out as
// {language}/{LEVEL}/{Topic}/{ContentType}/{identifier}/{artifact}
type HierarchicalGenerator struct{}

func NewHierarchicalGenerator() *HierarchicalGenerator {
	return &HierarchicalGenerator{}
}

func (g *HierarchicalGenerator) GenerateKey(coords Coordinates, artifact string) (string, error) {
	return Derive(coords, artifact)
}

// CustomFuncGenerator allows callers to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(coords Coordinates, artifact string) (string, error)
}

func NewCustomFuncGenerator(fn func(coords Coordinates, artifact string) (string, error)) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(coords Coordinates, artifact string) (string, error) {
	return g.GenerateFunc(coords, artifact)
}

// NewRecommendedGenerator returns the generator used by the publishing service
func NewRecommendedGenerator() Generator {
	return NewHierarchicalGenerator()
}

// Derive computes the storage key for artifact under coords.
func Derive(coords Coordinates, artifact string) (string, error) {
	norm, err := Normalize(coords)
	if err != nil {
		return "", err
	}
	if err := checkSegment("artifact", artifact); err != nil {
		return "", err
	}
	return strings.Join([]string{
		norm.Language,
		norm.Level,
		norm.Topic,
		norm.ContentType,
		strconv.FormatUint(norm.Identifier, 10),
		artifact,
	}, "/"), nil
}

// Normalize returns the canonical form of coords. It is idempotent.
func Normalize(coords Coordinates) (Coordinates, error) {
	out := Coordinates{
		Language:    strings.ToLower(strings.TrimSpace(coords.Language)),
		Level:       strings.ToUpper(strings.TrimSpace(coords.Level)),
		Topic:       TitleCase(coords.Topic),
		ContentType: TitleCase(coords.ContentType),
		Identifier:  coords.Identifier,
	}
	for _, seg := range []struct{ name, value string }{
		{"language", out.Language},
		{"level", out.Level},
		{"topic", out.Topic},
		{"content type", out.ContentType},
	} {
		if err := checkSegment(seg.name, seg.value); err != nil {
			return Coordinates{}, err
		}
	}
	return out, nil
}

// Parse splits a key produced by Derive back into canonical coordinates and
// the artifact name.
func Parse(key string) (Coordinates, string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 6 {
		return Coordinates{}, "", fmt.Errorf("%w: %q has %d segments", ErrMalformedKey, key, len(parts))
	}
	id, err := strconv.ParseUint(parts[4], 10, 64)
	if err != nil || strconv.FormatUint(id, 10) != parts[4] {
		return Coordinates{}, "", fmt.Errorf("%w: identifier %q", ErrMalformedKey, parts[4])
	}
	coords := Coordinates{
		Language:    parts[0],
		Level:       parts[1],
		Topic:       parts[2],
		ContentType: parts[3],
		Identifier:  id,
	}
	norm, err := Normalize(coords)
	if err != nil {
		return Coordinates{}, "", err
	}
	if norm != coords {
		return Coordinates{}, "", fmt.Errorf("%w: %q is not in canonical form", ErrMalformedKey, key)
	}
	if err := checkSegment("artifact", parts[5]); err != nil {
		return Coordinates{}, "", err
	}
	return norm, parts[5], nil
}

// TitleCase collapses inner whitespace and title-cases every word.
func TitleCase(s string) string {
	// a Caser keeps state between calls and must not be shared
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}

func checkSegment(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrEmptySegment, name)
	}
	if value == "." || value == ".." {
		return fmt.Errorf("%w: %s %q", ErrInvalidSegment, name, value)
	}
	for _, r := range value {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return fmt.Errorf("%w: %s %q", ErrInvalidSegment, name, value)
		}
	}
	return nil
}
