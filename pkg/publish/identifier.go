package publish

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
)

// Identifier is the numeric id of a content unit, taken from its folder name.
type Identifier uint64

func (id Identifier) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Int64 returns the id as stored in the relational store.
func (id Identifier) Int64() int64 {
	return int64(id)
}

// ParseIdentifier parses a staging folder name (or path) into an Identifier.
// Leading zeros are accepted and dropped, so "007" yields 7. The returned
// error is always an *InvalidIdentifierError.
func ParseIdentifier(folder string) (Identifier, error) {
	name := filepath.Base(filepath.Clean(strings.TrimSpace(folder)))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return 0, &InvalidIdentifierError{Name: folder, Err: errors.New("empty name")}
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, &InvalidIdentifierError{Name: name, Err: errors.New("must contain only decimal digits")}
		}
	}
	// ids are stored as BIGINT
	n, err := strconv.ParseUint(name, 10, 63)
	if err != nil {
		return 0, &InvalidIdentifierError{Name: name, Err: errors.New("out of range")}
	}
	return Identifier(n), nil
}
