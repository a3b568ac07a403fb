package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/knolquiz/internal/config"
	"github.com/conorfennell/knolquiz/internal/domain"
	"github.com/conorfennell/knolquiz/internal/quiz"
	"github.com/conorfennell/knolquiz/internal/shell"
	"github.com/conorfennell/knolquiz/internal/storage"
	"github.com/conorfennell/knolquiz/internal/sync"
)

var cfg *config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "knolquiz",
		Short:        "Study markdown flashcard decks from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))
			return nil
		},
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSourceCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newQuizCmd())
	rootCmd.AddCommand(newHistoryCmd())
	return rootCmd
}

func openDB() (*storage.DB, error) {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	slog.Debug("Database opened", "path", cfg.DB)
	return db, nil
}

func closeDB(db *storage.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func newSourceCmd() *cobra.Command {
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Manage deck sources",
	}

	sourceCmd.AddCommand(&cobra.Command{
		Use:   "add <path/or/url.git>",
		Short: "Add a local directory or git repository of markdown decks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			path := args[0]
			existing, err := db.FindSourceByPath(path)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("source %s already exists with ID %d", path, existing.ID)
			}
			sourceType := sync.SourceType(path)
			id, err := db.InsertSource(path, sourceType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s\nRun 'knolquiz sync' to import its cards.\n", sourceType, id, path)
			return nil
		},
	})

	sourceCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List deck sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			sources, err := db.GetAllSources()
			if err != nil {
				return err
			}
			for _, s := range sources {
				scanned := "never"
				if s.LastScanned.Valid {
					scanned = s.LastScanned.Time.Format(time.DateTime)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", s.ID, s.Type, s.Path, scanned)
			}
			return nil
		},
	})

	sourceCmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a deck source and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source ID %q: %w", args[0], err)
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := db.DeleteSource(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d\n", id)
			return nil
		},
	})

	return sourceCmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import cards from every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			reports, err := sync.New(db, cfg.ReposDir).WithProgress(cmd.ErrOrStderr()).RunSync(ctx)
			if err != nil {
				return err
			}
			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "Found %d cards in %s (%d skipped, %d removed, %d errors).\n",
					r.Parsed, r.Path, r.Skipped, r.Orphaned, len(r.Errors))
				for _, e := range r.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", e)
				}
			}
			return nil
		},
	}
}

func newQuizCmd() *cobra.Command {
	quizCmd := &cobra.Command{
		Use:   "quiz",
		Short: "Start a study session",
		Long: `Start a study session over the imported cards.

Modes:
  preview    show each card with its answer
  review     answer each card, then answer each card flipped
  learn      preview followed by review
  difficult  preview only the cards marked difficult`,
		Args: cobra.NoArgs,
		RunE: runQuiz,
	}
	quizCmd.Flags().String("mode", domain.Learn.String(), "quiz mode: preview, learn, review or difficult")
	quizCmd.Flags().String("source", "", "only use cards from this source path")
	quizCmd.Flags().Bool("ignore-case", false, "accept answers that differ only in letter case")
	return quizCmd
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	mode, err := domain.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	filter := storage.DeckFilter{DifficultOnly: mode == domain.Difficult}
	if cfg.Source != "" {
		src, err := db.FindSourceByPath(cfg.Source)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("unknown source %s", cfg.Source)
		}
		filter.SourceID = src.ID
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	deck, err := db.LoadDeck(ctx, filter)
	if err != nil {
		return err
	}
	slog.Info("Deck loaded", "cards", len(deck), "mode", mode)

	q, err := quiz.New(deck, mode, quiz.WithIgnoreCase(cfg.IgnoreCase))
	if err != nil {
		return err
	}

	started := time.Now()
	summary, runErr := shell.New(q, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}

	// Saved even when interrupted so answered cards are not lost.
	id, err := db.SaveSession(context.Background(), storage.SessionRecord{
		StartedAt: started,
		EndedAt:   time.Now(),
	}, q.Cards(), summary)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	slog.Info("Session saved", "id", id, "attempts", summary.TotalAttempts, "correct", summary.TotalCorrect)
	fmt.Fprintf(cmd.OutOrStdout(), "Score: %d/%d\n", summary.TotalCorrect, summary.TotalAttempts)
	return nil
}

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent study sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			sessions, err := db.RecentSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d/%d\n",
					s.EndedAt.Format(time.DateTime), s.Mode, s.ID, s.TotalCorrect, s.TotalAttempts)
			}
			return nil
		},
	}
	historyCmd.Flags().Int("limit", 10, "number of sessions to show")
	return historyCmd
}
