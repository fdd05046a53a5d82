// Package github talks to the hosting service's REST API to publish a
// package file: it creates a branch, commits the file through the contents
// API and opens a pull request against the base branch.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ZebulonRouseFrantzich/unapt/internal/logger"
)

const (
	// AcceptHeader selects the v3 REST API.
	AcceptHeader = "application/vnd.github.v3+json"

	defaultTimeout = 60 * time.Second
)

// ErrBranchExists is returned by CreateBranch when the ref already exists.
var ErrBranchExists = errors.New("branch already exists")

// APIError is a non-success answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	// APIURL is the repository API base, e.g.
	// https://api.github.com/repos/<owner>/<repo>.
	APIURL    string
	Token     string
	Timeout   time.Duration
	UserAgent string
}

// Client is a minimal repository API client.
type Client struct {
	client   *resty.Client
	hasToken bool
	log      *logger.Logger
}

// NewClient creates a client for the configured repository.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "unapt"
	}
	if log == nil {
		log = logger.Nop()
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", AcceptHeader).
		SetHeader("User-Agent", cfg.UserAgent)
	token := strings.TrimSpace(cfg.Token)
	if token != "" {
		cli.SetAuthToken(token)
	}

	return &Client{client: cli, hasToken: token != "", log: log.Component("github")}
}

// HasToken reports whether requests are authenticated.
func (c *Client) HasToken() bool {
	return c.hasToken
}

type refResponse struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type contentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
}

type contentResponse struct {
	Content struct {
		Path    string `json:"path"`
		HTMLURL string `json:"html_url"`
	} `json:"content"`
}

type pullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// PullRequest is a created pull request.
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// File is a file committed through the contents API.
type File struct {
	Path    string
	HTMLURL string
}

type errorResponse struct {
	Message string `json:"message"`
}

// BranchSHA returns the commit SHA the branch points to.
func (c *Client) BranchSHA(ctx context.Context, branch string) (string, error) {
	var out refResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/git/ref/heads/" + branch)
	if err != nil {
		return "", fmt.Errorf("get branch %s: %w", branch, err)
	}
	if err := mapHTTPError(resp); err != nil {
		return "", fmt.Errorf("get branch %s: %w", branch, err)
	}
	if out.Object.SHA == "" {
		return "", fmt.Errorf("get branch %s: response has no sha", branch)
	}
	return out.Object.SHA, nil
}

// CreateBranch creates branch at sha. An existing branch yields
// ErrBranchExists.
func (c *Client) CreateBranch(ctx context.Context, branch, sha string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(createRefRequest{Ref: "refs/heads/" + branch, SHA: sha}).
		SetError(&errorResponse{}).
		Post("/git/refs")
	if err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	if err := mapHTTPError(resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity &&
			strings.Contains(strings.ToLower(apiErr.Message), "already exists") {
			return ErrBranchExists
		}
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	c.log.Debug().Str("branch", branch).Msg("branch created")
	return nil
}

// CreateFile commits content at path on branch. The API answers 201 for a
// new file; anything else is an *APIError.
func (c *Client) CreateFile(ctx context.Context, path, branch, message string, content []byte) (*File, error) {
	var out contentResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(contentRequest{
			Message: message,
			Content: base64.StdEncoding.EncodeToString(content),
			Branch:  branch,
		}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Put("/contents/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, apiError(resp)
	}
	c.log.Debug().Str("path", path).Str("branch", branch).Int("bytes", len(content)).Msg("file uploaded")
	return &File{Path: out.Content.Path, HTMLURL: out.Content.HTMLURL}, nil
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, title, body, head, base string) (*PullRequest, error) {
	var out PullRequest
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(pullRequest{Title: title, Body: body, Head: head, Base: base}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/pulls")
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, apiError(resp)
	}
	return &out, nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	return apiError(resp)
}

// apiError builds an *APIError from the response's "message" field, falling
// back to "Unknown error".
func apiError(resp *resty.Response) *APIError {
	msg := ""
	if e, ok := resp.Error().(*errorResponse); ok && e != nil {
		msg = strings.TrimSpace(e.Message)
	}
	if msg == "" {
		msg = "Unknown error"
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
