package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/mirror"
)

// Output formats understood by --output.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// showCommand creates the show command, which reports what a mirror build
// would accept without downloading anything.
func (c *CLI) showCommand() *cobra.Command {
	var (
		opts   mirrorOpts
		format string
	)

	cmd := &cobra.Command{
		Use:   "show [requirement...]",
		Short: "List the distributions that satisfy the requirements",
		Long: `Query every configured index for each requirement and list the
distributions the policy accepts, grouped by index.`,
		Example: `  pkgmirror show "requests>=2.31" urllib3
  pkgmirror show -r requirements.txt --binaries -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := c.config(cmd, &opts)
			if err != nil {
				return err
			}
			report, err := c.build(cmd.Context(), cfg, &opts, args)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}

	opts.registerQuery(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", formatText, "output format: text, json, yaml")
	return cmd
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return errs.New(errs.ErrCodeInvalidInput, "unknown output format %q", format)
}

// writeReport renders report to w in the given format.
func writeReport(w io.Writer, report *mirror.Report, format string) error {
	if format == formatText {
		return writeReportText(w, report)
	}
	return encode(w, report, format)
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return checkFormat(format)
}

func writeReportText(w io.Writer, report *mirror.Report) error {
	source := ""
	for _, res := range report.Results {
		if res.Source != source {
			source = res.Source
			if _, err := fmt.Fprintln(w, titleStyle.Render(source)); err != nil {
				return err
			}
		}
		if res.Err != nil || res.Error != "" {
			fmt.Fprintf(w, "  %s %s %s\n", markFail, res.Requirement, warnStyle.Render(res.Error))
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", nameStyle.Render(res.Requirement),
			dimStyle.Render(fmt.Sprintf("(%s)", plural(res.Candidates, "candidate", "candidates"))))
		for _, d := range res.Accepted {
			fmt.Fprintf(w, "    %s %s %s %s\n",
				markOK,
				valueStyle.Render(d.Filename()),
				dimStyle.Render(d.Precedence.String()),
				linkStyle.Render(d.Location))
		}
	}

	accepted := len(report.Accepted())
	failed := len(report.Failures())
	summary := fmt.Sprintf("%s accepted", plural(accepted, "distribution", "distributions"))
	if failed > 0 {
		summary += fmt.Sprintf(", %s failed", plural(failed, "query", "queries"))
	}
	_, err := fmt.Fprintln(w, countStyle.Render(summary))
	return err
}
