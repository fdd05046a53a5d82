package service

import (
	"context"

	"github.com/ZebulonRouseFrantzich/unapt/internal/github"
)

// Fetcher downloads package files from the file host.
type Fetcher interface {
	FetchTemp(ctx context.Context, name, destDir string) (string, error)
	Fetch(ctx context.Context, name, destDir string) (string, error)
}

// BinaryStore places package files into the binary directory.
type BinaryStore interface {
	BinDir() string
	Path(name string) string
	IsInstalled(name string) (bool, error)
	PrepareDir() (int, error)
	Backup(name string) (string, error)
	Restore(backupPath, name string) error
	Place(tmpPath, name string) error
	SetExecutable(name string) error
	Delete(name string) error
	Discard(path string) error
}

// History records installed package names.
type History interface {
	Entries() ([]string, error)
	Add(ctx context.Context, name string) error
	Replace(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) (bool, error)
}

// Publisher publishes files to the source repository.
type Publisher interface {
	HasToken() bool
	BranchSHA(ctx context.Context, branch string) (string, error)
	CreateBranch(ctx context.Context, branch, sha string) error
	CreateFile(ctx context.Context, path, branch, message string, content []byte) (*github.File, error)
	CreatePullRequest(ctx context.Context, title, body, head, base string) (*github.PullRequest, error)
}
