// Package vcs looks up source-control metadata recorded in generated
// artifacts. Lookups are best effort: a project outside a repository is not
// an error.
package vcs

import (
	"github.com/go-git/go-git/v5"
)

// HeadRevision returns the hex commit hash of HEAD for the repository
// containing path, searching parent directories. Returns "" when path is
// not inside a repository or HEAD cannot be resolved.
func HeadRevision(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
