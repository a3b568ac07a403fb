package quiz

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/conorfennell/knolquiz/internal/domain"
)

// Quiz iterates a generated sequence for one study run. It owns a private
// copy of the deck for its lifetime; statistics are only changed through
// Grade and ToggleDifficult. A Quiz is not safe for concurrent use.
type Quiz struct {
	cards      []domain.Card
	items      []domain.Item
	mode       domain.Mode
	cursor     int
	done       bool
	attempts   int
	correct    int
	ignoreCase bool
	logger     *slog.Logger
}

// Option configures a Quiz.
type Option func(*Quiz)

// WithIgnoreCase makes answer comparison case-insensitive.
func WithIgnoreCase(ignore bool) Option {
	return func(q *Quiz) {
		q.ignoreCase = ignore
	}
}

// WithLogger sets the logger used for grading events.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Quiz) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// GradeResult is the feedback for one submitted answer.
type GradeResult struct {
	// Graded is false for preview items, which never count as attempts.
	Graded   bool
	Correct  bool
	Expected string
	Next     *domain.Item
	Done     bool
	Summary  *domain.Summary
}

// New creates a quiz over cards. Each card's Index is set to its position.
func New(cards []domain.Card, mode domain.Mode, opts ...Option) (*Quiz, error) {
	if cards == nil {
		return nil, ErrNilDeck
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	owned := make([]domain.Card, len(cards))
	for i, card := range cards {
		card.Index = i
		card.Options = append([]string(nil), card.Options...)
		owned[i] = card
	}

	items, err := Generate(owned, mode)
	if err != nil {
		return nil, err
	}

	q := &Quiz{
		cards:  owned,
		items:  items,
		mode:   mode,
		cursor: -1,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger.Debug("Quiz generated", "mode", mode, "cards", len(owned), "items", len(items))
	return q, nil
}

// Mode returns the mode the quiz was built with.
func (q *Quiz) Mode() domain.Mode { return q.mode }

// IsDone reports whether Finish has been called.
func (q *Quiz) IsDone() bool { return q.done }

// TotalAttempts returns the number of graded answers in this session.
func (q *Quiz) TotalAttempts() int { return q.attempts }

// TotalCorrect returns the number of correct graded answers in this session.
func (q *Quiz) TotalCorrect() int { return q.correct }

// Progress returns the 1-based position of the current item and the sequence
// length. Position is 0 before the first Advance.
func (q *Quiz) Progress() (int, int) {
	return q.cursor + 1, len(q.items)
}

// Items returns a copy of the generated sequence.
func (q *Quiz) Items() []domain.Item {
	out := make([]domain.Item, len(q.items))
	for i := range q.items {
		out[i] = q.item(i)
	}
	return out
}

// item returns the i-th item with its own copy of the options.
func (q *Quiz) item(i int) domain.Item {
	item := q.items[i]
	item.Options = append([]string(nil), item.Options...)
	return item
}

// Cards returns a copy of the session's cards with their current statistics.
func (q *Quiz) Cards() []domain.Card {
	out := make([]domain.Card, len(q.cards))
	for i, card := range q.cards {
		card.Options = append([]string(nil), card.Options...)
		out[i] = card
	}
	return out
}

// HasNext reports whether Advance can be called.
func (q *Quiz) HasNext() bool {
	return q.cursor < len(q.items)-1
}

// Advance moves to the next item and returns it.
func (q *Quiz) Advance() (domain.Item, error) {
	if !q.HasNext() {
		return domain.Item{}, ErrNoItemsLeft
	}
	q.cursor++
	return q.item(q.cursor), nil
}

// Current returns the item under the cursor.
func (q *Quiz) Current() (domain.Item, error) {
	if q.cursor < 0 {
		return domain.Item{}, ErrNotStarted
	}
	return q.item(q.cursor), nil
}

// Grade checks answer against the current item, updates statistics for
// graded items and moves on. When the last item has been answered the quiz
// is finished and the result carries the summary.
func (q *Quiz) Grade(answer string) (GradeResult, error) {
	if q.done {
		return GradeResult{}, ErrQuizDone
	}
	item, err := q.Current()
	if err != nil {
		return GradeResult{}, err
	}

	result := GradeResult{Expected: item.Answer}
	if item.IsGraded() {
		result.Graded = true
		result.Correct = q.matches(answer, item.Answer)
		if err := q.record(item.CardIndex, result.Correct); err != nil {
			return GradeResult{}, err
		}
		q.logger.Debug("Answer graded",
			"card", item.CardIndex,
			"flipped", item.Flipped,
			"correct", result.Correct,
		)
	}

	if q.HasNext() {
		next, err := q.Advance()
		if err != nil {
			return GradeResult{}, err
		}
		result.Next = &next
		return result, nil
	}

	summary := q.Finish()
	result.Done = true
	result.Summary = &summary
	return result, nil
}

// matches compares trimmed text; case is significant unless ignoreCase is set.
func (q *Quiz) matches(answer, expected string) bool {
	a := strings.TrimSpace(answer)
	e := strings.TrimSpace(expected)
	if q.ignoreCase {
		return strings.EqualFold(a, e)
	}
	return a == e
}

func (q *Quiz) record(index int, correct bool) error {
	card, err := q.card(index)
	if err != nil {
		return err
	}
	card.TotalAttempts++
	q.attempts++
	if correct {
		card.Streak++
		q.correct++
	} else {
		card.Streak = 0
	}
	return nil
}

func (q *Quiz) card(index int) (*domain.Card, error) {
	if index < 0 || index >= len(q.cards) {
		return nil, fmt.Errorf("%w: %d (deck has %d cards)", ErrIndexOutOfRange, index, len(q.cards))
	}
	return &q.cards[index], nil
}

// ToggleDifficult flips the difficult flag of the card at index and returns
// the new value.
func (q *Quiz) ToggleDifficult(index int) (bool, error) {
	card, err := q.card(index)
	if err != nil {
		return false, err
	}
	card.IsDifficult = !card.IsDifficult
	return card.IsDifficult, nil
}

// Finish marks the quiz done and returns a snapshot of every card with a
// nonzero streak. Calling it again returns an equivalent snapshot.
func (q *Quiz) Finish() domain.Summary {
	if !q.done {
		q.done = true
		q.logger.Info("Quiz finished",
			"mode", q.mode,
			"attempts", q.attempts,
			"correct", q.correct,
		)
	}

	summary := domain.Summary{
		Mode:          q.mode,
		TotalAttempts: q.attempts,
		TotalCorrect:  q.correct,
		Outcomes:      []domain.Outcome{},
	}
	for _, card := range q.cards {
		if card.Streak == 0 {
			continue
		}
		summary.Outcomes = append(summary.Outcomes, domain.Outcome{
			Index:         card.Index,
			TotalAttempts: card.TotalAttempts,
			Streak:        card.Streak,
			IsDifficult:   card.IsDifficult,
		})
	}
	return summary
}
