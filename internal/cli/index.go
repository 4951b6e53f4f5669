package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/pkg/simpleindex"
)

// indexCommand creates the index command.
func (c *CLI) indexCommand() *cobra.Command {
	var opts mirrorOpts

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the simple index of the mirror directory",
		Long: `Scan the mirror directory and write a PEP 503 simple index under
<path>/simple. Archives whose file name does not reveal the project are
inspected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, &opts)
			if err != nil {
				return err
			}
			store, err := c.newCache()
			if err != nil {
				return err
			}
			defer store.Close()

			idx, err := simpleindex.New(cfg.Path, c.newInspector(cfg, store), c.Logger)
			if err != nil {
				return err
			}
			prog := newProgress(c.Logger)
			projects, err := idx.Write(cmd.Context())
			if err != nil {
				return err
			}
			prog.done("Indexed " + plural(len(projects), "project", "projects"))
			for _, p := range projects {
				keyValue(cmd.OutOrStdout(), p.Name, plural(len(p.Files), "file", "files"))
			}
			nextStep(cmd.OutOrStdout(), "Serve it", "pkgmirror serve -p "+cfg.Path)
			return nil
		},
	}

	opts.registerPath(cmd)
	opts.registerInspect(cmd)
	return cmd
}
