package publish

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrFolderNotFound indicates the staging folder does not exist
	ErrFolderNotFound = errors.New("folder not found")

	// ErrNotADirectory indicates the staging path is not a directory
	ErrNotADirectory = errors.New("not a directory")

	// ErrMissingFile indicates a file required by the layout is absent
	ErrMissingFile = errors.New("required file missing")

	// ErrNoPages indicates the folder holds no page files
	ErrNoPages = errors.New("no page files found")

	// ErrInvalidPageName indicates a page file name carries no usable index
	ErrInvalidPageName = errors.New("invalid page file name")

	// ErrPageGap indicates page indices are not contiguous from 0
	ErrPageGap = errors.New("page indices are not contiguous")

	// ErrPageCountMismatch indicates the declared page count differs from the files found
	ErrPageCountMismatch = errors.New("page count mismatch")

	// ErrInvalidArgument indicates a malformed command argument
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedContentType indicates an operation was asked for a content type it cannot handle
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrEmptyText indicates a page has no text to synthesize
	ErrEmptyText = errors.New("page has no text")

	// ErrDeckNotFound indicates no deck matched the lookup
	ErrDeckNotFound = errors.New("deck not found")

	// ErrDuplicate indicates a unique constraint rejected the write
	ErrDuplicate = errors.New("duplicate entry")

	// ErrReferenceNotFound indicates a foreign key rejected the write
	ErrReferenceNotFound = errors.New("referenced record not found")

	// ErrMissingField indicates a not-null constraint rejected the write
	ErrMissingField = errors.New("required field missing")

	// ErrSchemaMissing indicates the schema has not been migrated
	ErrSchemaMissing = errors.New("table does not exist - database migration required")
)

// ValidationError represents a content unit that failed pre-flight checks.
// It is always returned before any network call.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("validation failed for %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// InvalidIdentifierError represents a folder name that is not a non-negative integer
type InvalidIdentifierError struct {
	Name string
	Err  error
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("folder name %q is not a valid identifier: %v", e.Name, e.Err)
}

func (e *InvalidIdentifierError) Unwrap() error {
	return e.Err
}

// SynthesisError represents a failed call to the speech provider
type SynthesisError struct {
	Page    int
	Status  int
	Message string
	Err     error
}

func (e *SynthesisError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("synthesis failed for page %d: status %d: %s", e.Page, e.Status, e.Message)
	}
	return fmt.Sprintf("synthesis failed for page %d: %v", e.Page, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// MetadataError represents a failed write to the relational store
type MetadataError struct {
	Table string
	Op    string
	Err   error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata operation %s failed on table %s: %v", e.Op, e.Table, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// UnitError records the stage at which a content unit failed
type UnitError struct {
	Unit  string
	Stage Stage
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s failed while %s: %v", e.Unit, e.Stage, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
