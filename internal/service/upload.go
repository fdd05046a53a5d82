package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/unapt/internal/binary"
	"github.com/ZebulonRouseFrantzich/unapt/internal/github"
	"github.com/ZebulonRouseFrantzich/unapt/internal/logger"
)

var (
	// ErrNoToken is returned when no API token is available for publishing.
	ErrNoToken = errors.New("no API token: set UNAPT_TOKEN or GITHUB_TOKEN")

	// ErrSameBranch is returned when the upload branch is the base branch.
	ErrSameBranch = errors.New("upload branch must differ from the base branch")
)

// UploadBranchPrefix prefixes the default upload branch name.
const UploadBranchPrefix = "upload/"

// UploadService publishes a local file to the source repository and opens a
// pull request for it.
type UploadService struct {
	publisher Publisher
	dir       string
	base      string
	log       *logger.Logger
}

// NewUploadService creates an upload service. Files are committed under dir
// and pull requests target base.
func NewUploadService(publisher Publisher, dir, base string, log *logger.Logger) *UploadService {
	if log == nil {
		log = logger.Nop()
	}
	return &UploadService{
		publisher: publisher,
		dir:       strings.Trim(dir, "/"),
		base:      base,
		log:       log.Component("upload"),
	}
}

// UploadRequest contains the parameters for an upload.
type UploadRequest struct {
	// Path is the local file. Its base name is the package name.
	Path string
	// Branch is the head branch; empty means UploadBranchPrefix + name.
	Branch string
}

// UploadResult describes an upload. File is set once the upload succeeded;
// PullRequest or PullRequestErr is set once a pull request was attempted.
type UploadResult struct {
	Name           string
	RemotePath     string
	Branch         string
	Base           string
	BranchExisted  bool
	File           *github.File
	PullRequest    *github.PullRequest
	PullRequestErr error
}

// Upload commits the file to a branch and opens a pull request against the
// base branch. A failed pull request is reported in the result without
// undoing the upload.
func (s *UploadService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	name := filepath.Base(req.Path)
	if err := binary.ValidateName(name); err != nil {
		return nil, err
	}

	head := strings.TrimSpace(req.Branch)
	if head == "" {
		head = UploadBranchPrefix + name
	}
	if head == s.base {
		return nil, fmt.Errorf("%w: %s", ErrSameBranch, head)
	}

	content, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if !s.publisher.HasToken() {
		return nil, ErrNoToken
	}

	result := &UploadResult{
		Name:       name,
		RemotePath: path.Join(s.dir, name),
		Branch:     head,
		Base:       s.base,
	}
	log := s.log.With().Str("name", name).Str("branch", head).Logger()

	sha, err := s.publisher.BranchSHA(ctx, s.base)
	if err != nil {
		return result, err
	}

	if err := s.publisher.CreateBranch(ctx, head, sha); err != nil {
		if !errors.Is(err, github.ErrBranchExists) {
			return result, err
		}
		result.BranchExisted = true
		log.Debug().Msg("reusing existing branch")
	}

	file, err := s.publisher.CreateFile(ctx, result.RemotePath, head, "Upload "+name, content)
	if err != nil {
		return result, err
	}
	result.File = file

	pr, err := s.publisher.CreatePullRequest(ctx,
		"Add "+name,
		"Add "+name+" to the repository",
		head,
		s.base,
	)
	if err != nil {
		log.Debug().Err(err).Msg("pull request failed")
		result.PullRequestErr = err
		return result, nil
	}
	result.PullRequest = pr

	log.Debug().Int("pr", pr.Number).Msg("uploaded")
	return result, nil
}
