package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/unapt/internal/github"
	"github.com/ZebulonRouseFrantzich/unapt/internal/service"
)

func newUploadCommand(opts *rootOptions, d *deps) *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "upload <filename>",
		Short: "Publish a local file to the repository and open a pull request",
		Long: `Upload commits a local file to a branch of the source repository and
opens a pull request against the base branch.

The API token is read from UNAPT_TOKEN, the config file's source.token or
GITHUB_TOKEN. When none is set and stdin is a terminal, unapt asks for it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, cmd, opts, d)
			if err != nil {
				return err
			}

			token := a.cfg.Source.AuthToken()
			if token == "" && d.stdinIsTTY() {
				fmt.Fprint(cmd.ErrOrStderr(), "API token: ")
				token, err = d.readPassword()
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
			}

			res, err := a.uploadService(token).Upload(ctx, service.UploadRequest{
				Path:   args[0],
				Branch: branch,
			})
			return printUpload(cmd, args[0], res, err)
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch to upload to (default upload/<filename>)")
	return cmd
}

// printUpload reports the outcome of an upload and returns the command error.
func printUpload(cmd *cobra.Command, path string, res *service.UploadResult, err error) error {
	out := cmd.OutOrStdout()
	name := filepath.Base(path)

	var apiErr *github.APIError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintln(out, styleWarning.Render(fmt.Sprintf("File '%s' not found.", name)))
		return errReported
	case res != nil && res.File == nil && errors.As(err, &apiErr):
		fmt.Fprintln(out, styleError.Render(fmt.Sprintf("Failed to upload file. Status Code: %d", apiErr.StatusCode)))
		fmt.Fprintf(out, "Error reason: %s\n", apiErr.Message)
		return errReported
	case err != nil:
		return err
	}

	fmt.Fprintln(out, styleSuccess.Render(fmt.Sprintf(
		"File '%s' uploaded successfully. Now you can wait 24 hours for Linux developers to verify this.", res.Name)))

	if res.PullRequestErr != nil {
		fmt.Fprintln(out, styleError.Render("Failed to create pull request."))
		reason := res.PullRequestErr.Error()
		if errors.As(res.PullRequestErr, &apiErr) {
			reason = apiErr.Message
		}
		fmt.Fprintf(out, "Error reason: %s\n", reason)
		return errReported
	}

	fmt.Fprintln(out, styleSuccess.Render("Pull request created successfully."))
	if res.PullRequest != nil && res.PullRequest.HTMLURL != "" {
		fmt.Fprintln(out, styleHint.Render(res.PullRequest.HTMLURL))
	}
	return nil
}
