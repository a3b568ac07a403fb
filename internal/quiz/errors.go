package quiz

import (
	"errors"

	"github.com/conorfennell/knolquiz/internal/domain"
)

// Sentinel errors for the quiz package. Check with errors.Is.
var (
	ErrNilDeck         = errors.New("quiz: deck is nil")
	ErrInvalidMode     = domain.ErrInvalidMode
	ErrNotStarted      = errors.New("quiz: no current card, call Advance first")
	ErrNoItemsLeft     = errors.New("quiz: no cards left")
	ErrIndexOutOfRange = errors.New("quiz: card index out of range")
	ErrQuizDone        = errors.New("quiz: quiz is already done")
)
