package publish

// Request types carry raw command arguments. They are parsed and checked
// during the validating stage, before any I/O beyond reading the staging
// folder.

// UnitRequest holds the arguments shared by every content type
type UnitRequest struct {
	Dir      string
	Language string
	Level    string
	Topic    string
	// Date is YYYY-MM-DD
	Date string
	// Pages is the declared page count; 0 means "not declared"
	Pages int
}

// StoryRequest contains parameters for publishing a story
type StoryRequest struct {
	UnitRequest
	// RequirePreview fails validation when preview.txt is absent instead of
	// generating a preview text
	RequirePreview bool
}

// NewsRequest contains parameters for publishing a news digest
type NewsRequest struct {
	UnitRequest
}

// AudiobookRequest contains parameters for publishing an audiobook
type AudiobookRequest struct {
	UnitRequest
	// SourceType is Story or News: the unit the audiobook narrates
	SourceType string
	Tier       string
	// SkipSynthesis publishes existing page*.json files instead of voicing page*.md
	SkipSynthesis bool
}

// DeckRequest contains parameters for publishing a flashcard deck
type DeckRequest struct {
	Dir      string
	Language string
	Level    string
	// Owner is the deck owner's UUID; empty uses the service default
	Owner string
	// Date is optional for decks
	Date string
}

// SynthesizeRequest contains parameters for generating audiobook pages only
type SynthesizeRequest struct {
	Dir      string
	Language string
}

// BatchItem is one unit of a batch. Type selects which of the fields apply.
type BatchItem struct {
	Type ContentType
	UnitRequest
	SourceType     string
	Tier           string
	Owner          string
	SkipSynthesis  bool
	RequirePreview bool
}

// BatchResult is the outcome of one batch item
type BatchResult struct {
	Item   BatchItem
	Result *Result
	Err    error
}
