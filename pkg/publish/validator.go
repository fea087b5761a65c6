package publish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Layout describes the files a staging folder must (and may) contain.
type Layout struct {
	Name string
	// Extension of page files, including the dot: page0.mdx, page1.mdx, ...
	Extension string
	Required  []string
	Optional  []string
}

// Predefined layouts
var (
	StoryLayout = Layout{
		Name:      "story",
		Extension: ".mdx",
		Required:  []string{"context.txt"},
		Optional:  []string{"title.txt", "preview.txt"},
	}
	NewsLayout = Layout{
		Name:      "news",
		Extension: ".md",
		Required:  []string{"title.txt", "preview.txt"},
		Optional:  []string{"sources.json", "dictionary.json"},
	}
	AudiobookTextLayout = Layout{
		Name:      "audiobook text",
		Extension: ".md",
	}
	AudiobookLayout = Layout{
		Name:      "audiobook",
		Extension: ".json",
	}
	DeckLayout = Layout{
		Name:      "deck",
		Extension: ".toml",
		Optional:  []string{"deck.toml"},
	}
)

// PagePattern returns the glob matched by the layout's page files
func (l Layout) PagePattern() string {
	return "page*" + l.Extension
}

// Folder is a validated staging folder
type Folder struct {
	Dir   string
	ID    Identifier
	Pages []Page
	files map[string]string
}

// Has reports whether the named non-page file is present
func (f *Folder) Has(name string) bool {
	_, ok := f.files[name]
	return ok
}

// Path returns the path of a named non-page file, or "" when absent
func (f *Folder) Path(name string) string {
	return f.files[name]
}

// ValidateFolder checks dir against layout before anything is uploaded.
// Pages are returned sorted by numeric index. A declaredPages value greater
// than zero must equal the number of page files found. Every failure is a
// *ValidationError.
func ValidateFolder(dir string, layout Layout, declaredPages int) (*Folder, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ValidationError{Path: dir, Err: ErrFolderNotFound}
		}
		return nil, &ValidationError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ValidationError{Path: dir, Err: ErrNotADirectory}
	}

	id, err := ParseIdentifier(dir)
	if err != nil {
		return nil, &ValidationError{Path: dir, Err: err}
	}

	folder := &Folder{Dir: dir, ID: id, files: make(map[string]string)}
	for _, name := range layout.Required {
		p := filepath.Join(dir, name)
		if !isRegularFile(p) {
			return nil, &ValidationError{Path: p, Err: fmt.Errorf("%w: %s", ErrMissingFile, name)}
		}
		folder.files[name] = p
	}
	for _, name := range layout.Optional {
		p := filepath.Join(dir, name)
		if isRegularFile(p) {
			folder.files[name] = p
		}
	}

	pages, err := listPages(dir, layout.Extension)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, &ValidationError{Path: dir, Err: fmt.Errorf("%w matching %s", ErrNoPages, layout.PagePattern())}
	}
	if declaredPages > 0 && declaredPages != len(pages) {
		return nil, &ValidationError{Path: dir, Err: fmt.Errorf("%w: declared %d, found %d", ErrPageCountMismatch, declaredPages, len(pages))}
	}
	for i, p := range pages {
		if p.Index != i {
			return nil, &ValidationError{Path: dir, Err: fmt.Errorf("%w: expected page%d%s, found %s", ErrPageGap, i, layout.Extension, p.Name)}
		}
	}
	folder.Pages = pages
	return folder, nil
}

func listPages(dir, ext string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ValidationError{Path: dir, Err: err}
	}
	var pages []Page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "page") || !strings.HasSuffix(name, ext) {
			continue
		}
		idx, err := PageIndex(name, ext)
		if err != nil {
			return nil, &ValidationError{Path: filepath.Join(dir, name), Err: err}
		}
		pages = append(pages, Page{Index: idx, Name: name, Path: filepath.Join(dir, name)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages, nil
}

// PageIndex extracts N from "pageN<ext>". N must be a canonical decimal
// integer, so "page01.md" and "page_a.md" are rejected.
func PageIndex(name, ext string) (int, error) {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "page"), ext)
	if digits == "" || len(digits)+len("page")+len(ext) != len(name) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPageName, name)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || strconv.Itoa(n) != digits {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPageName, name)
	}
	return n, nil
}

// PageName returns the canonical file name of page n
func PageName(n int, ext string) string {
	return "page" + strconv.Itoa(n) + ext
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
