package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/knolquiz/internal/domain"
)

func normalizePart(part string) string {
	p := strings.ToLower(part)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return strings.TrimSpace(p)
}

// Normalize concatenates the card's content fields after cleaning each part.
// Options follow the context in their original order. Statistics and the
// session index do not take part in a card's identity.
func Normalize(card domain.Card) string {
	parts := []string{
		normalizePart(card.Question),
		normalizePart(card.Answer),
		normalizePart(card.Context),
	}
	for _, opt := range card.Options {
		parts = append(parts, normalizePart(opt))
	}
	// Newline-joined so adjacent fields never run together.
	return strings.Join(parts, "\n")
}

// Hash returns the hex SHA-256 of the normalized card. It is the storage key
// under which a card's statistics are kept.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
