// Package indexer walks a directory tree and chunks every eligible source
// file, fanning the work out across a bounded worker pool. When the tree is
// a Git repository, results are cached keyed by the HEAD commit so unchanged
// trees are not re-parsed.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tildaslashalef/chisel/internal/cache"
	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/config"
	"github.com/tildaslashalef/chisel/internal/git"
	"github.com/tildaslashalef/chisel/internal/language"
	"github.com/tildaslashalef/chisel/internal/loggy"
)

// Stats summarizes one indexing run
type Stats struct {
	Files   int           `json:"files"`
	Chunked int           `json:"chunked"`
	Cached  int           `json:"cached"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Chunks  int           `json:"chunks"`
	Elapsed time.Duration `json:"elapsed"`
}

// FileResult is the outcome of chunking one file
type FileResult struct {
	Path   string
	Result *chunker.Result
	Cached bool
}

// Service indexes directories
type Service struct {
	cfg      *config.Config
	chunker  *chunker.Service
	detector *language.Detector
	repo     cache.Repository
	git      *git.Service
	logger   *loggy.Logger
}

// NewService creates an indexer. The cache repository and git service are
// optional; without them every file is chunked from scratch.
func NewService(
	cfg *config.Config,
	chunkSvc *chunker.Service,
	detector *language.Detector,
	repo cache.Repository,
	gitSvc *git.Service,
	logger *loggy.Logger,
) *Service {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Service{
		cfg:      cfg,
		chunker:  chunkSvc,
		detector: detector,
		repo:     repo,
		git:      gitSvc,
		logger:   logger,
	}
}

// IndexDirectory chunks every eligible file under root and returns run
// statistics. Results are reported through the callback, which may be nil;
// the callback is invoked from worker goroutines.
func (s *Service) IndexDirectory(ctx context.Context, root string, onFile func(FileResult)) (*Stats, error) {
	start := time.Now()

	commitHash := s.headCommitHash(root)

	paths, skipped, err := s.collectFiles(root)
	if err != nil {
		return nil, fmt.Errorf("collecting files: %w", err)
	}

	stats := &Stats{
		Files:   len(paths),
		Skipped: skipped,
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Indexer.Workers)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			result, cached, err := s.indexFile(gctx, root, path, commitHash)

			mu.Lock()
			switch {
			case err != nil:
				stats.Failed++
			case cached:
				stats.Cached++
				stats.Chunks += len(result.Chunks)
			default:
				stats.Chunked++
				stats.Chunks += len(result.Chunks)
			}
			mu.Unlock()

			if err != nil {
				s.logger.Warn("failed to index file", "path", path, "error", err)
				return nil
			}

			if onFile != nil {
				onFile(FileResult{Path: path, Result: result, Cached: cached})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Elapsed = time.Since(start)
	s.logger.Info("indexing complete",
		"files", stats.Files,
		"chunked", stats.Chunked,
		"cached", stats.Cached,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"chunks", stats.Chunks,
		"elapsed", stats.Elapsed,
	)

	return stats, nil
}

// collectFiles walks the tree and returns the files worth chunking plus a
// count of those skipped by the filters.
func (s *Service) collectFiles(root string) ([]string, int, error) {
	var paths []string
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			skipped++
			return nil
		}

		if skip, reason := s.detector.ShouldSkip(path); skip {
			s.logger.Debug("skipping file", "path", path, "reason", reason)
			skipped++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > s.cfg.Indexer.MaxFileSize {
			s.logger.Debug("skipping oversized file", "path", path, "size", info.Size())
			skipped++
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return paths, skipped, nil
}

// indexFile chunks a single file, consulting and updating the cache when
// a commit hash is available.
func (s *Service) indexFile(ctx context.Context, root, path, commitHash string) (*chunker.Result, bool, error) {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}

	if s.repo != nil && commitHash != "" {
		doc, err := s.repo.GetDocument(ctx, relPath, commitHash)
		if err == nil {
			return doc.Result(), true, nil
		}
		if err != cache.ErrDocumentNotFound {
			s.logger.Warn("cache lookup failed", "path", relPath, "error", err)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading file: %w", err)
	}

	if lang, err := s.detector.DetectLanguage(path); err == nil && lang == language.LanguageBinary {
		return nil, false, fmt.Errorf("binary file")
	}

	result := s.chunker.ChunkDocument(ctx, chunker.Document{
		Text: string(content),
		Ext:  filepath.Ext(path),
	})

	if s.repo != nil && commitHash != "" {
		doc := cache.NewDocument(relPath, commitHash, result)
		if err := s.repo.SaveDocument(ctx, doc); err != nil {
			s.logger.Warn("cache save failed", "path", relPath, "error", err)
		}
	}

	return result, false, nil
}

// headCommitHash resolves the HEAD commit of the repository containing
// root, or returns "" when root is not under version control.
func (s *Service) headCommitHash(root string) string {
	if s.git == nil || !s.git.HasGitRepo(root) {
		return ""
	}
	if err := s.git.InitRepo(root); err != nil {
		s.logger.Debug("opening repository failed", "path", root, "error", err)
		return ""
	}
	hash, err := s.git.HeadCommitHash()
	if err != nil {
		s.logger.Debug("resolving HEAD failed", "path", root, "error", err)
		return ""
	}
	return hash
}
