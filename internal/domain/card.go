package domain

// Card represents a single question-answer-context entry together with the
// learning statistics accumulated for it.
type Card struct {
	Index    int
	Question string `validate:"required"`
	Answer   string `validate:"required"`
	Context  string
	Options  []string
	Hash     string

	TotalAttempts int
	Streak        int
	IsDifficult   bool
}

// Item is one presentation-ready slot in a quiz sequence. It points back at
// its source card by index and never carries statistics.
type Item struct {
	CardIndex int
	Mode      Mode
	Flipped   bool
	Question  string
	Answer    string
	Options   []string
}

// NewItem derives an item from card. A flipped item swaps question and answer
// and drops the options, which are distractors for the original answer.
func NewItem(card Card, mode Mode, flipped bool) Item {
	item := Item{
		CardIndex: card.Index,
		Mode:      mode,
		Flipped:   flipped,
		Question:  card.Question,
		Answer:    card.Answer,
	}
	if flipped {
		item.Question, item.Answer = card.Answer, card.Question
		return item
	}
	if len(card.Options) > 0 {
		item.Options = append([]string(nil), card.Options...)
	}
	return item
}

// IsGraded reports whether answering the item counts as an attempt.
func (i Item) IsGraded() bool {
	return i.Mode != Preview
}

// Outcome is the persisted result for one card at the end of a session.
type Outcome struct {
	Index         int
	TotalAttempts int
	Streak        int
	IsDifficult   bool
}

// Summary is the end-of-session snapshot handed to storage.
type Summary struct {
	Mode          Mode
	TotalAttempts int
	TotalCorrect  int
	Outcomes      []Outcome
}
