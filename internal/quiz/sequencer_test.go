package quiz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/conorfennell/knolquiz/internal/domain"
)

func makeDeck(n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range cards {
		cards[i] = domain.Card{
			Question: fmt.Sprintf("Q%d", i),
			Answer:   fmt.Sprintf("A%d", i),
		}
	}
	return cards
}

func checkPass(t *testing.T, items []domain.Item, mode domain.Mode, flipped bool) {
	t.Helper()
	for i, item := range items {
		if item.CardIndex != i {
			t.Errorf("Item %d: expected card index %d, got %d", i, i, item.CardIndex)
		}
		if item.Mode != mode {
			t.Errorf("Item %d: expected mode %v, got %v", i, mode, item.Mode)
		}
		if item.Flipped != flipped {
			t.Errorf("Item %d: expected flipped=%v", i, flipped)
		}
	}
}

func TestGenerate(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		cards := makeDeck(n)

		t.Run(fmt.Sprintf("preview and difficult n=%d", n), func(t *testing.T) {
			for _, mode := range []domain.Mode{domain.Preview, domain.Difficult} {
				items, err := Generate(cards, mode)
				if err != nil {
					t.Fatalf("Generate() returned an unexpected error: %v", err)
				}
				if len(items) != n {
					t.Fatalf("Expected %d items, got %d", n, len(items))
				}
				checkPass(t, items, domain.Preview, false)
			}
		})

		t.Run(fmt.Sprintf("review n=%d", n), func(t *testing.T) {
			items, err := Generate(cards, domain.Review)
			if err != nil {
				t.Fatalf("Generate() returned an unexpected error: %v", err)
			}
			if len(items) != 2*n {
				t.Fatalf("Expected %d items, got %d", 2*n, len(items))
			}
			checkPass(t, items[:n], domain.Review, false)
			checkPass(t, items[n:], domain.Review, true)
		})

		t.Run(fmt.Sprintf("learn n=%d", n), func(t *testing.T) {
			items, err := Generate(cards, domain.Learn)
			if err != nil {
				t.Fatalf("Generate() returned an unexpected error: %v", err)
			}
			if len(items) != 3*n {
				t.Fatalf("Expected %d items, got %d", 3*n, len(items))
			}
			preview, _ := Generate(cards, domain.Preview)
			review, _ := Generate(cards, domain.Review)
			for i := range preview {
				if items[i].CardIndex != preview[i].CardIndex || items[i].Mode != preview[i].Mode {
					t.Errorf("Item %d does not match the preview sequence", i)
				}
			}
			for i := range review {
				got := items[n+i]
				if got.CardIndex != review[i].CardIndex || got.Flipped != review[i].Flipped || got.Mode != domain.Review {
					t.Errorf("Item %d does not match the review sequence", n+i)
				}
			}
		})
	}
}

func TestGenerateFlippedText(t *testing.T) {
	cards := []domain.Card{{Question: "2+2", Answer: "4"}}
	items, err := Generate(cards, domain.Review)
	if err != nil {
		t.Fatalf("Generate() returned an unexpected error: %v", err)
	}
	if items[1].Question != "4" || items[1].Answer != "2+2" {
		t.Errorf("Expected flipped item to swap text, got %q/%q", items[1].Question, items[1].Answer)
	}
	if cards[0].TotalAttempts != 0 || cards[0].Index != 0 {
		t.Error("Expected Generate to leave the input cards untouched")
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Run("nil deck", func(t *testing.T) {
		if _, err := Generate(nil, domain.Preview); !errors.Is(err, ErrNilDeck) {
			t.Errorf("Expected ErrNilDeck, got %v", err)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		items, err := Generate(makeDeck(3), domain.Mode(99))
		if !errors.Is(err, ErrInvalidMode) {
			t.Errorf("Expected ErrInvalidMode, got %v", err)
		}
		if items != nil {
			t.Errorf("Expected no items for an invalid mode, got %d", len(items))
		}
	})
}
