package domain

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{input: "preview", expected: Preview},
		{input: "LEARN", expected: Learn},
		{input: "  Review ", expected: Review},
		{input: "difficult", expected: Difficult},
		{input: "cram", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			mode, err := ParseMode(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Fatalf("Expected ErrInvalidMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) returned an unexpected error: %v", tc.input, err)
			}
			if mode != tc.expected {
				t.Errorf("Expected %v, but got %v", tc.expected, mode)
			}
		})
	}
}

func TestModeValid(t *testing.T) {
	if Mode(0).Valid() {
		t.Error("Expected zero mode to be invalid")
	}
	if !Difficult.Valid() {
		t.Error("Expected Difficult to be valid")
	}
	if Mode(42).String() != "mode(42)" {
		t.Errorf("Unexpected String() for unknown mode: %s", Mode(42))
	}
}

func TestNewItem(t *testing.T) {
	card := Card{Index: 3, Question: "capital of France?", Answer: "Paris", Options: []string{"Lyon", "Nice"}}

	t.Run("unflipped keeps options", func(t *testing.T) {
		item := NewItem(card, Review, false)
		if item.Question != card.Question || item.Answer != card.Answer {
			t.Errorf("Expected question/answer to match card, got %q/%q", item.Question, item.Answer)
		}
		if len(item.Options) != 2 {
			t.Fatalf("Expected 2 options, got %d", len(item.Options))
		}
		item.Options[0] = "changed"
		if card.Options[0] != "Lyon" {
			t.Error("Expected item options to be a copy of the card's options")
		}
	})

	t.Run("flipped swaps and drops options", func(t *testing.T) {
		item := NewItem(card, Review, true)
		if item.Question != "Paris" || item.Answer != "capital of France?" {
			t.Errorf("Expected swapped question/answer, got %q/%q", item.Question, item.Answer)
		}
		if item.Options != nil {
			t.Errorf("Expected no options on flipped item, got %v", item.Options)
		}
		if item.CardIndex != 3 {
			t.Errorf("Expected card index 3, got %d", item.CardIndex)
		}
	})

	t.Run("preview is not graded", func(t *testing.T) {
		if NewItem(card, Preview, false).IsGraded() {
			t.Error("Expected preview items to be ungraded")
		}
		if !NewItem(card, Review, false).IsGraded() {
			t.Error("Expected review items to be graded")
		}
	})
}
