package publish

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// storyTitle reads title.txt, falling back to the first "# " heading of the
// first page and then to a title generated from the coordinates.
func storyTitle(unit ContentUnit, folder *Folder) (string, error) {
	if folder.Has("title.txt") {
		title, err := readTrimmed(folder.Path("title.txt"))
		if err != nil {
			return "", err
		}
		if title != "" {
			return title, nil
		}
	}
	if len(folder.Pages) > 0 {
		heading, err := firstHeading(folder.Pages[0].Path)
		if err != nil {
			return "", &ValidationError{Path: folder.Pages[0].Path, Err: err}
		}
		if heading != "" {
			return heading, nil
		}
	}
	return fmt.Sprintf("%s Story for %s Level - %s", unit.Topic, unit.Level, unit.CreatedAt.Format(DateLayout)), nil
}

// storyPreview reads preview.txt or generates a short description.
func storyPreview(unit ContentUnit, folder *Folder) (string, error) {
	if folder.Has("preview.txt") {
		preview, err := readTrimmed(folder.Path("preview.txt"))
		if err != nil {
			return "", err
		}
		if preview != "" {
			return preview, nil
		}
	}
	return fmt.Sprintf("A story about %s for %s level learners", strings.ToLower(unit.Topic), unit.Level), nil
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ValidationError{Path: path, Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

func firstHeading(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// no line length limit
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# ")), nil
		}
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
	}
}
