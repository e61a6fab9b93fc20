package entity

import (
	"fmt"
	"strings"
)

// State is the publication lifecycle stage of a word entry.
type State string

const (
	StateNew         State = "NEW"
	StateModified    State = "MODIFIED"
	StatePublished   State = "PUBLISHED"
	StateUnpublished State = "UNPUBLISHED"
	StateSuggested   State = "SUGGESTED"
)

// StateAfterRemoval is the state an entry takes once it leaves the index.
const StateAfterRemoval = StateUnpublished

// Indexed reports whether entries in this state are held by the search index.
func (s State) Indexed() bool {
	return s == StatePublished || s == StateModified
}

func (s State) String() string { return string(s) }

// ParseState converts a case-insensitive name into a State.
func ParseState(raw string) (State, error) {
	switch State(strings.ToUpper(strings.TrimSpace(raw))) {
	case StateNew:
		return StateNew, nil
	case StateModified:
		return StateModified, nil
	case StatePublished:
		return StatePublished, nil
	case StateUnpublished:
		return StateUnpublished, nil
	case StateSuggested:
		return StateSuggested, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
}
