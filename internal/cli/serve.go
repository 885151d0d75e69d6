package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/internal/server"
	"github.com/matzehuels/popmap/pkg/webpart"
)

// pinger is implemented by caches with a remote backend.
type pinger interface {
	Ping(ctx context.Context) error
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags mapFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map and the web part API over HTTP",
		Long: `Serve renders the map on request.

Routes:
  /              panel page
  /map.svg       SVG map (query: width, height, scale, legend, mesh, tooltips, refresh)
  /api/map.json  joined map data
  /api/schema    property pane schema
  /api/properties  POST new web part properties
  /healthz       health check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			base := baseOptions(cfg)
			flags.apply(cmd, &base)
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			store, err := newCache(ctx, cfg.Cache, flags.noCache)
			if err != nil {
				return err
			}
			runner := c.newRunner(store, cfg.Cache)
			defer runner.Close()

			opts := []server.Option{server.WithLogger(logger), server.WithConfig(cfg.Server)}
			if p, ok := store.(pinger); ok {
				opts = append(opts, server.WithPinger(p.Ping))
			}
			props := webpart.Properties{Description: base.Description}
			srv := server.New(runner, base, props, opts...)

			out := newPrinter(cmd)
			out.keyValue("Address", cfg.Server.Addr)
			out.keyValue("Cache", cfg.Cache.Backend)
			out.next("Open", "http://"+displayAddr(cfg.Server.Addr)+"/")
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	return cmd
}

// displayAddr turns a listen address into something a browser can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
