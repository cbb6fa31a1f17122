// Package git provides the Git integration the chunk cache needs: detecting
// a repository and resolving its HEAD commit, which keys cache entries.
package git

import (
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/tildaslashalef/chisel/internal/loggy"
)

// Service provides Git operations
type Service struct {
	logger *loggy.Logger
	repo   *git.Repository
}

// NewService creates a new Git service
func NewService(logger *loggy.Logger) *Service {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Service{
		logger: logger,
	}
}

// InitRepo opens the git repository at the given path
func (s *Service) InitRepo(repoPath string) error {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return fmt.Errorf("opening git repo: %w", err)
	}

	s.repo = repo
	return nil
}

// HasGitRepo checks if the provided path is inside a valid Git repository
func (s *Service) HasGitRepo(path string) bool {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		s.logger.Debug("not a valid git repository", "path", path, "error", err)
		return false
	}

	return true
}

// HeadCommitHash returns the full hash of the current HEAD commit
func (s *Service) HeadCommitHash() (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	head, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// CurrentBranch returns the short name of the branch HEAD points at
func (s *Service) CurrentBranch() (string, error) {
	if err := s.ensureRepo(); err != nil {
		return "", err
	}

	head, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached")
	}

	return head.Name().Short(), nil
}

// ensureRepo ensures the repository is initialized before performing operations
func (s *Service) ensureRepo() error {
	if s.repo == nil {
		return fmt.Errorf("git repository not initialized")
	}
	return nil
}
