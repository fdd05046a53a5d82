package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCommand(opts *rootOptions, d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "download <filename>",
		Short: "Download a package into the current directory without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, cmd, opts, d)
			if err != nil {
				return err
			}

			svc, err := a.packageService()
			if err != nil {
				return err
			}

			dir, err := d.getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			if _, err := svc.Download(ctx, args[0], dir); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("Downloaded %s successfully.", args[0])))
			return nil
		},
	}
}
