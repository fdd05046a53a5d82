package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/unapt/internal/history"
)

// listFormats are the accepted --format values.
var listFormats = []string{"text", "json", "yaml"}

// packageList is the machine-readable form of `unapt list`.
type packageList struct {
	Packages []string `json:"packages" yaml:"packages"`
}

func newListCommand(opts *rootOptions, d *deps) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the packages recorded in the history",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(format) {
				return fmt.Errorf("invalid format %q: must be one of %v", format, listFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), cmd, opts, d)
			if err != nil {
				return err
			}

			svc, err := a.packageService()
			if err != nil {
				return err
			}

			names, err := svc.List()
			if err != nil && !errors.Is(err, history.ErrNoHistory) {
				return err
			}

			return writeList(cmd.OutOrStdout(), format, names)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json|yaml)")
	return cmd
}

// writeList renders names. An empty list is "No history found." in text and
// an empty array otherwise.
func writeList(w io.Writer, format string, names []string) error {
	list := packageList{Packages: names}
	if list.Packages == nil {
		list.Packages = []string{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	if len(names) == 0 {
		fmt.Fprintln(w, styleHint.Render("No history found."))
		return nil
	}
	fmt.Fprintln(w, styleHeader.Render("List of downloaded files:"))
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range listFormats {
		if f == format {
			return true
		}
	}
	return false
}
