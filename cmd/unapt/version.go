package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the unapt version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				styleBrand.Render("unapt"),
				styleVersion.Render(Version),
				styleHint.Render(fmt.Sprintf("(%s/%s)", runtime.GOOS, runtime.GOARCH)),
			)
		},
	}
}
