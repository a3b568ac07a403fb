package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knolquiz/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	optionPrefix   = "O:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
	readingOption
)

var prefixes = []struct {
	prefix string
	state  state
}{
	{questionPrefix, readingQuestion},
	{answerPrefix, readingAnswer},
	{contextPrefix, readingContext},
	{optionPrefix, readingOption},
}

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Each "O:" line adds
// one multiple-choice option to the current card.
func Parse(r io.Reader) ([]domain.Card, error) {
	p := &deckParser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	p.finishCard() // the last card has no separator

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.cards, nil
}

type deckParser struct {
	cards   []domain.Card
	current domain.Card
	block   []string
	state   state
}

func (p *deckParser) line(line string) {
	if line == separator {
		p.finishCard()
		return
	}

	for _, pf := range prefixes {
		if !strings.HasPrefix(line, pf.prefix) {
			continue
		}
		p.flushBlock()
		if pf.state == readingQuestion && p.state != seeking {
			p.finishCard()
		}
		p.state = pf.state
		content := strings.TrimPrefix(line[len(pf.prefix):], " ")
		p.block = append(p.block, content)
		return
	}

	if p.state != seeking {
		p.block = append(p.block, line)
	}
}

// flushBlock stores the lines collected so far into the field being read.
func (p *deckParser) flushBlock() {
	if len(p.block) == 0 {
		return
	}
	content := strings.Join(p.block, "\n")
	switch p.state {
	case readingQuestion:
		p.current.Question = content
	case readingAnswer:
		p.current.Answer = content
	case readingContext:
		p.current.Context = content
	case readingOption:
		p.current.Options = append(p.current.Options, strings.TrimSpace(content))
	}
	p.block = nil
}

func (p *deckParser) finishCard() {
	p.flushBlock()
	if p.current.Question != "" {
		p.current.Question = strings.TrimRight(p.current.Question, "\n")
		p.current.Answer = strings.TrimRight(p.current.Answer, "\n")
		p.current.Context = strings.TrimRight(p.current.Context, "\n")
		p.cards = append(p.cards, p.current)
	}
	p.current = domain.Card{}
	p.state = seeking
}
