// Package outline converts a flat, ordered list of document headings into
// a section tree and answers structural queries against it: which node
// contains a given document offset, and which nodes survive a text filter.
package outline

import (
	"errors"
	"fmt"
)

// ErrInvalidEntry reports a heading list that violates the input contract:
// a non-positive level, an empty section range, or out-of-order positions.
var ErrInvalidEntry = errors.New("invalid outline entry")

// Entry is a single document heading with the character range of the
// section it owns. SectionEnd is the position of the next heading at the
// same or shallower level, or the end of the document.
type Entry struct {
	Level      int    `json:"level"`
	Text       string `json:"text"`
	Pos        int    `json:"pos"`
	SectionEnd int    `json:"section_end"`
}

func validate(entries []Entry) error {
	for i, e := range entries {
		if e.Level < 1 {
			return fmt.Errorf("entry %d: level %d: %w", i, e.Level, ErrInvalidEntry)
		}
		if e.SectionEnd <= e.Pos {
			return fmt.Errorf("entry %d: empty range [%d,%d): %w", i, e.Pos, e.SectionEnd, ErrInvalidEntry)
		}
		if i > 0 && e.Pos <= entries[i-1].Pos {
			return fmt.Errorf("entry %d: pos %d not after previous %d: %w", i, e.Pos, entries[i-1].Pos, ErrInvalidEntry)
		}
	}
	return nil
}
