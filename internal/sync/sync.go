package sync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/knolquiz/internal/gitsource"
	"github.com/conorfennell/knolquiz/internal/knol"
	"github.com/conorfennell/knolquiz/internal/parser"
	"github.com/conorfennell/knolquiz/internal/storage"
)

const (
	TypeLocal = "local"
	TypeGit   = "git"
)

// SourceType classifies a source path as a local directory or a git remote.
func SourceType(path string) string {
	if gitsource.IsGitURL(path) {
		return TypeGit
	}
	return TypeLocal
}

// Syncer imports deck sources into the database.
type Syncer struct {
	db       *storage.DB
	reposDir string
	validate *validator.Validate
	progress io.Writer
}

// New returns a Syncer that checks out git sources under reposDir.
func New(db *storage.DB, reposDir string) *Syncer {
	return &Syncer{
		db:       db,
		reposDir: reposDir,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithProgress sets where git clone/pull progress is written.
func (s *Syncer) WithProgress(w io.Writer) *Syncer {
	s.progress = w
	return s
}

// Report summarizes the reconciliation of one source.
type Report struct {
	SourceID int64
	Path     string
	Parsed   int
	Skipped  int
	Orphaned int
	Errors   []error
}

// RunSync iterates over all sources and reconciles them. A failing source is
// logged and does not stop the others.
func (s *Syncer) RunSync(ctx context.Context) ([]Report, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.db.GetAllSources()
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with: knolquiz source add <path/or/url.git>")
		return nil, nil
	}

	var reports []Report
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		report, err := s.SyncSource(ctx, source)
		if err != nil {
			slog.Error("Failed to sync source", "id", source.ID, "path", source.Path, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	slog.Info("Sync process complete.")
	return reports, nil
}

// SyncSource reconciles a single source, checking out git sources first.
func (s *Syncer) SyncSource(ctx context.Context, source storage.Source) (Report, error) {
	if source.Type == TypeGit {
		if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
			return Report{}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return Report{}, err
		}
		if err := gitsource.Sync(ctx, source.Path, localRepoPath, s.progress); err != nil {
			return Report{}, err
		}
		return s.reconcile(source.ID, localRepoPath)
	}
	return s.reconcile(source.ID, source.Path)
}

func (s *Syncer) reconcile(sourceID int64, root string) (Report, error) {
	report := Report{SourceID: sourceID, Path: root}
	found := make(map[string]bool)
	position := 0

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range fileCards {
			if err := s.validate.Struct(card); err != nil {
				slog.Warn("Skipping invalid card", "file", path, "question", card.Question, "error", err)
				report.Skipped++
				continue
			}
			card.Hash = knol.Hash(card)
			if found[card.Hash] {
				report.Skipped++
				continue
			}
			found[card.Hash] = true
			report.Parsed++

			if err := s.db.UpsertCard(card, sourceID, position); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("db upsert for %s: %w", card.Hash, err))
			}
			position++
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking directory %s: %w", root, walkErr)
	}

	dbCards, err := s.db.GetCardsBySourceID(sourceID)
	if err != nil {
		return report, fmt.Errorf("error getting cards for source %d: %w", sourceID, err)
	}
	for _, dbCard := range dbCards {
		if found[dbCard.Hash] {
			continue
		}
		slog.Info("Orphaned card, deleting", "hash", dbCard.Hash)
		report.Orphaned++
		if err := s.db.DeleteCardByHash(dbCard.Hash); err != nil {
			slog.Warn("Failed to delete orphaned card", "hash", dbCard.Hash, "error", err)
		}
	}

	if err := s.db.UpdateSourceLastScanned(sourceID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", root,
		"parsed_cards", report.Parsed,
		"skipped_cards", report.Skipped,
		"orphaned_deleted", report.Orphaned,
		"errors", len(report.Errors),
	)
	return report, nil
}
