// Package shell runs a quiz as a line-oriented terminal conversation.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/conorfennell/knolquiz/internal/domain"
	"github.com/conorfennell/knolquiz/internal/quiz"
)

const (
	MessageQuestion       = "Question: %s\n"
	MessageQuestionAnswer = "Question: %s\nAnswer: %s\n"
	MessageOption         = "  - %s\n"
	MessageCorrect        = "Your answer is correct.\n"
	MessageWrong          = "The correct answer is %s.\n"
	MessageComplete       = "You have completed all the questions in this quiz.\n"
	MessageEndedEarly     = "Quiz ended before all questions were answered.\n"
	MessageDifficult      = "Card marked as difficult.\n"
	MessageNotDifficult   = "Card no longer marked as difficult.\n"
	MessageProgress       = "Progress: %d/%d\n"
	MessageUnknown        = "Unknown command: %s\n"
	MessageUsage          = `Type your answer and press enter. Preview cards accept any input.
\help        show this help
\difficult   toggle the difficult flag of the current card
\progress    show how far into the quiz you are
\quit        end the quiz now
`
)

const commandPrefix = `\`

// Shell drives one quiz over an input and output stream.
type Shell struct {
	quiz   *quiz.Quiz
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger
}

// New returns a shell for q reading answers from in and writing to out.
func New(q *quiz.Quiz, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		quiz:   q,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: slog.Default(),
	}
}

// Run plays the quiz until it is complete, the user quits, input ends or ctx
// is cancelled, and returns the session summary. Cancellation is noticed
// while waiting for input.
func (s *Shell) Run(ctx context.Context) (domain.Summary, error) {
	if !s.quiz.HasNext() {
		s.print(MessageComplete)
		return s.quiz.Finish(), nil
	}
	item, err := s.quiz.Advance()
	if err != nil {
		return domain.Summary{}, err
	}
	s.show(item)

	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines, readErr := s.readLines(readCtx)

	for {
		if err := ctx.Err(); err != nil {
			return s.interrupted(err)
		}

		var line string
		select {
		case <-ctx.Done():
			return s.interrupted(ctx.Err())
		case l, ok := <-lines:
			if !ok {
				return s.inputClosed(<-readErr)
			}
			line = l
		}

		if strings.HasPrefix(line, commandPrefix) {
			quit, err := s.command(strings.TrimSpace(line))
			if err != nil {
				return domain.Summary{}, err
			}
			if quit {
				s.print(MessageEndedEarly)
				return s.quiz.Finish(), nil
			}
			continue
		}

		res, err := s.quiz.Grade(line)
		if err != nil {
			return domain.Summary{}, err
		}
		if res.Graded {
			if res.Correct {
				s.print(MessageCorrect)
			} else {
				s.printf(MessageWrong, res.Expected)
			}
		}
		if res.Done {
			s.print(MessageComplete)
			return *res.Summary, nil
		}
		s.show(*res.Next)
	}
}

// readLines scans input on its own goroutine so a blocked read never holds
// up cancellation. readErr receives exactly one value before lines is closed.
func (s *Shell) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for s.in.Scan() {
			select {
			case lines <- s.in.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- s.in.Err()
	}()
	return lines, readErr
}

func (s *Shell) interrupted(err error) (domain.Summary, error) {
	s.logger.Debug("Quiz interrupted", "error", err)
	s.print(MessageEndedEarly)
	return s.quiz.Finish(), err
}

func (s *Shell) inputClosed(err error) (domain.Summary, error) {
	if err != nil {
		return s.quiz.Finish(), fmt.Errorf("failed to read answer: %w", err)
	}
	s.logger.Debug("Input closed before the quiz was complete")
	s.print(MessageEndedEarly)
	return s.quiz.Finish(), nil
}

func (s *Shell) command(line string) (quit bool, err error) {
	name := strings.ToLower(strings.Fields(line)[0])
	switch name {
	case `\help`:
		s.print(MessageUsage)
	case `\difficult`:
		item, err := s.quiz.Current()
		if err != nil {
			return false, err
		}
		difficult, err := s.quiz.ToggleDifficult(item.CardIndex)
		if err != nil {
			return false, err
		}
		if difficult {
			s.print(MessageDifficult)
		} else {
			s.print(MessageNotDifficult)
		}
	case `\progress`:
		pos, total := s.quiz.Progress()
		s.printf(MessageProgress, pos, total)
	case `\quit`:
		return true, nil
	default:
		s.printf(MessageUnknown, name)
		s.print(MessageUsage)
	}
	return false, nil
}

// show prints an item. Preview items reveal their answer; multiple-choice
// items list the answer among the options in alphabetical order.
func (s *Shell) show(item domain.Item) {
	if !item.IsGraded() {
		s.printf(MessageQuestionAnswer, item.Question, item.Answer)
		return
	}
	s.printf(MessageQuestion, item.Question)
	if len(item.Options) == 0 {
		return
	}
	choices := append([]string{item.Answer}, item.Options...)
	slices.Sort(choices)
	for _, c := range slices.Compact(choices) {
		s.printf(MessageOption, c)
	}
}

func (s *Shell) print(msg string) {
	fmt.Fprint(s.out, msg)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
