package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/unapt/internal/service"
)

func newInstallCommand(opts *rootOptions, d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "install <filename>",
		Short: "Download a package into the binary directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts, d, args[0], false)
		},
	}
}

func newUpdateCommand(opts *rootOptions, d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "update <filename>",
		Short: "Re-download a package, replacing the installed copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts, d, args[0], true)
		},
	}
}

// runInstall handles both install and update; they differ only in how the
// history is recorded.
func runInstall(cmd *cobra.Command, opts *rootOptions, d *deps, name string, update bool) error {
	ctx := cmd.Context()
	a, err := setup(ctx, cmd, opts, d)
	if err != nil {
		return err
	}

	svc, err := a.packageService()
	if err != nil {
		return err
	}

	op, verb := svc.Install, "downloaded"
	if update {
		op, verb = svc.Update, "updated"
	}

	res, err := op(ctx, name)
	if err != nil {
		return err
	}

	printInstalled(cmd, res, verb)
	return nil
}

func printInstalled(cmd *cobra.Command, res *service.InstallResult, verb string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styleSuccess.Render(fmt.Sprintf("Downloaded %s successfully.", res.Name)))
	fmt.Fprintf(out, "File '%s' has been %s and moved to '%s' directory.\n", res.Name, verb, res.BinDir)
}
