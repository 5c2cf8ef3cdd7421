package search

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository indicates the workspace is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// TrackedFiles lists the slash-separated paths tracked at HEAD of the
// repository containing root. Callers fall back to a filesystem scan when
// this returns ErrNotRepository.
func TrackedFiles(root string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("open repository at %s: %w", root, err)
	}

	head, err := repo.Head()
	if err != nil {
		// Empty repository with no commits yet.
		return nil, ErrNotRepository
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD tree: %w", err)
	}

	var paths []string
	err = tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk HEAD tree: %w", err)
	}

	return paths, nil
}
