package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/pkg/server"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts mirrorOpts
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mirror directory over HTTP",
		Long: `Serve the mirror directory and its simple index so pip can install from it:

  pip install --index-url http://127.0.0.1:8080/simple/ <project>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, &opts)
			if err != nil {
				return err
			}
			srv := server.New(addr, cfg.Path, c.Logger)
			return runServer(cmd.Context(), srv)
		},
	}

	opts.registerPath(cmd)
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *server.Server) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
