package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for a mode outside the known set.
var ErrInvalidMode = errors.New("quiz mode must only be learn/review/preview/difficult")

// Mode selects how a deck is turned into a quiz sequence. Items only ever
// carry Preview or Review.
type Mode int

const (
	Preview Mode = iota + 1
	Learn
	Review
	Difficult
)

var modeNames = map[Mode]string{
	Preview:   "preview",
	Learn:     "learn",
	Review:    "review",
	Difficult: "difficult",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode parses a mode name, ignoring case and surrounding whitespace.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
