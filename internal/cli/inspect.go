package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/pkg/metadata"
)

// inspection is one line of inspect output.
type inspection struct {
	Path    string `json:"path" yaml:"path"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		opts   mirrorOpts
		format string
	)

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Recover the project name and version of source archives",
		Long: `Read PKG-INFO from each archive, falling back to running its setup.py
with the configured interpreter.`,
		Example: `  pkgmirror inspect download.tar.gz
  pkgmirror inspect --python python3.12 -o json *.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := c.config(cmd, &opts)
			if err != nil {
				return err
			}
			store, err := c.newCache()
			if err != nil {
				return err
			}
			defer store.Close()

			insp := c.newInspector(cfg, store)
			results := make([]inspection, 0, len(args))
			for _, path := range args {
				md, err := insp.ExtractNameVersion(cmd.Context(), path)
				results = append(results, newInspection(path, md, err))
			}
			return writeInspections(cmd.OutOrStdout(), results, format)
		},
	}

	opts.registerInspect(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json, yaml")
	return cmd
}

func newInspection(path string, md metadata.Metadata, err error) inspection {
	in := inspection{Path: path, Name: md.Name, Version: md.Version}
	if err != nil {
		in.Error = err.Error()
	}
	return in
}

func writeInspections(w io.Writer, results []inspection, format string) error {
	if format != formatText {
		return encode(w, results, format)
	}
	for _, in := range results {
		var status string
		switch {
		case in.Error != "":
			status = markFail + " " + warnStyle.Render(in.Error)
		case in.Name == "":
			status = dimStyle.Render("no metadata")
		default:
			status = markOK + " " + valueStyle.Render(in.Name+" "+in.Version)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", nameStyle.Render(in.Path), status); err != nil {
			return err
		}
	}
	return nil
}
