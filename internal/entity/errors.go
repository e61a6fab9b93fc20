package entity

import "errors"

// Domain errors for word entries and the search index.
var (
	ErrWordEntryNotFound   = errors.New("word entry not found")
	ErrInvalidWord         = errors.New("invalid word")
	ErrDuplicateWordEntry  = errors.New("given word already exists in the index")
	ErrWordExistsAsVariant = errors.New("given word already exists as a variant entry")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidFilter       = errors.New("invalid filter")

	ErrEngineUnavailable = errors.New("search index is unavailable")
	ErrNotIndexed        = errors.New("word is not in the search index")
	ErrEmptyBatch        = errors.New("empty batch")

	ErrImportInProgress  = errors.New("an import is already running")
	ErrMissingWordColumn = errors.New("import file has no word column")
	ErrImportTooLarge    = errors.New("import file too large")
)
