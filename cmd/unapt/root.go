package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ZebulonRouseFrantzich/unapt/internal/platform"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Verbose    bool
}

// deps are the process-level collaborators, swapped out in tests.
type deps struct {
	detector     platform.Detector
	stdinIsTTY   func() bool
	readPassword func() (string, error)
	getwd        func() (string, error)
}

func defaultDeps() *deps {
	fd := int(os.Stdin.Fd())
	return &deps{
		detector:   platform.NewDetector(),
		stdinIsTTY: func() bool { return term.IsTerminal(fd) },
		readPassword: func() (string, error) {
			b, err := term.ReadPassword(fd)
			return strings.TrimSpace(string(b)), err
		},
		getwd: os.Getwd,
	}
}

// newRootCommand creates the unapt command tree.
func newRootCommand(opts *rootOptions, d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unapt",
		Short: "Install single-file packages from the unapt repository",
		Long: `unapt downloads executable files from a remote file host into the
platform binary directory (/usr/local/bin on Linux, $PREFIX/bin on Termux)
and keeps a history of what it installed.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a Lua config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newInstallCommand(opts, d))
	cmd.AddCommand(newUpdateCommand(opts, d))
	cmd.AddCommand(newRemoveCommand(opts, d))
	cmd.AddCommand(newListCommand(opts, d))
	cmd.AddCommand(newUploadCommand(opts, d))
	cmd.AddCommand(newDownloadCommand(opts, d))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
