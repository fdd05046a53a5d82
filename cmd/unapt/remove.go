package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCommand(opts *rootOptions, d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <filename>",
		Short: "Delete an installed package",
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

			res, err := svc.Remove(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.NotFound {
				fmt.Fprintln(out, styleWarning.Render(fmt.Sprintf("File '%s' not found.", res.Name)))
				return nil
			}
			fmt.Fprintln(out, styleSuccess.Render(fmt.Sprintf("File '%s' has been removed successfully.", res.Name)))
			return nil
		},
	}
}
