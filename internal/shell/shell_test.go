package shell_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/conorfennell/knolquiz/internal/domain"
	"github.com/conorfennell/knolquiz/internal/quiz"
	"github.com/conorfennell/knolquiz/internal/shell"
)

var _ = Describe("Shell", func() {
	var (
		ctx   context.Context
		out   *bytes.Buffer
		cards []domain.Card
	)

	run := func(mode domain.Mode, input string) (domain.Summary, *quiz.Quiz) {
		q, err := quiz.New(cards, mode)
		Expect(err).NotTo(HaveOccurred())
		summary, err := shell.New(q, strings.NewReader(input), out).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		return summary, q
	}

	BeforeEach(func() {
		ctx = context.Background()
		out = &bytes.Buffer{}
		cards = []domain.Card{
			{Question: "2+2", Answer: "4"},
			{Question: "3+3", Answer: "6"},
		}
	})

	Context("with an empty deck", func() {
		It("should complete immediately", func() {
			cards = []domain.Card{}
			summary, q := run(domain.Learn, "")

			Expect(out.String()).To(Equal(shell.MessageComplete))
			Expect(summary.Outcomes).To(BeEmpty())
			Expect(q.IsDone()).To(BeTrue())
		})
	})

	Context("in preview mode", func() {
		It("should reveal answers and never grade", func() {
			summary, q := run(domain.Preview, "anything\n\n")

			Expect(out.String()).To(Equal(
				"Question: 2+2\nAnswer: 4\n" +
					"Question: 3+3\nAnswer: 6\n" +
					shell.MessageComplete))
			Expect(summary.TotalAttempts).To(BeZero())
			Expect(q.TotalCorrect()).To(BeZero())
		})
	})

	Context("in review mode", func() {
		It("should grade forward and flipped cards", func() {
			summary, _ := run(domain.Review, "4\nx\n2+2\n3+3\n")

			Expect(out.String()).To(Equal(
				"Question: 2+2\n" +
					shell.MessageCorrect +
					"Question: 3+3\n" +
					"The correct answer is 6.\n" +
					"Question: 4\n" +
					shell.MessageCorrect +
					"Question: 6\n" +
					shell.MessageCorrect +
					shell.MessageComplete))
			Expect(summary.TotalAttempts).To(Equal(4))
			Expect(summary.TotalCorrect).To(Equal(3))
			Expect(summary.Outcomes).To(ConsistOf(
				domain.Outcome{Index: 0, TotalAttempts: 2, Streak: 2},
				domain.Outcome{Index: 1, TotalAttempts: 2, Streak: 1},
			))
		})

		It("should list multiple-choice options with the answer", func() {
			cards = []domain.Card{{Question: "Largest planet?", Answer: "Jupiter", Options: []string{"Saturn", "Earth"}}}
			run(domain.Review, "Jupiter\nLargest planet?\n")

			Expect(out.String()).To(HavePrefix(
				"Question: Largest planet?\n  - Earth\n  - Jupiter\n  - Saturn\n" + shell.MessageCorrect))
			Expect(out.String()).To(ContainSubstring("Question: Jupiter\n" + shell.MessageCorrect))
		})
	})

	Context("with commands", func() {
		It("should toggle the current card as difficult", func() {
			summary, q := run(domain.Review, "\\difficult\n4\n6\n2+2\n3+3\n")

			Expect(out.String()).To(ContainSubstring(shell.MessageDifficult))
			Expect(q.Cards()[0].IsDifficult).To(BeTrue())
			Expect(summary.Outcomes[0].IsDifficult).To(BeTrue())
			Expect(summary.TotalAttempts).To(Equal(4))
		})

		It("should report progress and help", func() {
			run(domain.Learn, "\\progress\n\\help\n")

			Expect(out.String()).To(ContainSubstring("Progress: 1/6\n"))
			Expect(out.String()).To(ContainSubstring(shell.MessageUsage))
		})

		It("should reject unknown commands without grading", func() {
			_, q := run(domain.Review, "\\skip\n")

			Expect(out.String()).To(ContainSubstring("Unknown command: \\skip\n"))
			Expect(q.TotalAttempts()).To(BeZero())
		})

		It("should finish early on quit", func() {
			summary, q := run(domain.Review, "4\n\\quit\n6\n")

			Expect(out.String()).To(HaveSuffix(shell.MessageEndedEarly))
			Expect(q.IsDone()).To(BeTrue())
			Expect(summary.TotalAttempts).To(Equal(1))
			Expect(summary.Outcomes).To(HaveLen(1))
		})
	})

	Context("when input ends early", func() {
		It("should finish with what was answered", func() {
			summary, q := run(domain.Review, "4\n")

			Expect(q.IsDone()).To(BeTrue())
			Expect(summary.TotalCorrect).To(Equal(1))
			Expect(out.String()).To(HaveSuffix(shell.MessageEndedEarly))
		})
	})

	Context("when the context is cancelled", func() {
		It("should stop and return the partial summary", func() {
			q, err := quiz.New(cards, domain.Review)
			Expect(err).NotTo(HaveOccurred())

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			summary, err := shell.New(q, strings.NewReader("4\n6\n"), out).Run(cancelled)

			Expect(err).To(MatchError(context.Canceled))
			Expect(summary.TotalAttempts).To(BeZero())
			Expect(q.IsDone()).To(BeTrue())
		})

		It("should stop while waiting for an answer", func() {
			q, err := quiz.New(cards, domain.Review)
			Expect(err).NotTo(HaveOccurred())

			pr, pw := io.Pipe()
			DeferCleanup(pw.Close)

			type result struct {
				summary domain.Summary
				err     error
			}
			screen := gbytes.NewBuffer()
			cancelled, cancel := context.WithCancel(ctx)
			done := make(chan result, 1)
			go func() {
				summary, err := shell.New(q, pr, screen).Run(cancelled)
				done <- result{summary, err}
			}()

			_, err = pw.Write([]byte("4\n"))
			Expect(err).NotTo(HaveOccurred())
			Eventually(screen).Should(gbytes.Say("Question: 3\\+3\n"))
			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())
			cancel()

			var res result
			Eventually(done).WithTimeout(time.Second).Should(Receive(&res))
			Expect(res.err).To(MatchError(context.Canceled))
			Expect(res.summary.TotalAttempts).To(Equal(1))
			Expect(q.IsDone()).To(BeTrue())
			Expect(screen).To(gbytes.Say(shell.MessageEndedEarly))
		})
	})
})
