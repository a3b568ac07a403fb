package quiz

import (
	"fmt"

	"github.com/conorfennell/knolquiz/internal/domain"
)

// Generate builds the ordered quiz sequence for cards in the given mode.
// Cards are addressed by their position in the slice. The result is
// deterministic and never partially built: an invalid mode yields no items.
func Generate(cards []domain.Card, mode domain.Mode) ([]domain.Item, error) {
	if cards == nil {
		return nil, ErrNilDeck
	}

	var items []domain.Item
	switch mode {
	case domain.Preview, domain.Difficult:
		// Difficult decks are filtered by the caller.
		items = appendPreview(items, cards)
	case domain.Review:
		items = appendReview(items, cards)
	case domain.Learn:
		items = appendPreview(items, cards)
		items = appendReview(items, cards)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

func appendPreview(items []domain.Item, cards []domain.Card) []domain.Item {
	for i, card := range cards {
		card.Index = i
		items = append(items, domain.NewItem(card, domain.Preview, false))
	}
	return items
}

// appendReview adds one forward pass followed by one flipped pass.
func appendReview(items []domain.Item, cards []domain.Card) []domain.Item {
	for _, flipped := range []bool{false, true} {
		for i, card := range cards {
			card.Index = i
			items = append(items, domain.NewItem(card, domain.Review, flipped))
		}
	}
	return items
}
