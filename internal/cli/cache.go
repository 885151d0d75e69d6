package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/internal/config"
	"github.com/matzehuels/popmap/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached sources and maps",
		Long: `The cache holds fetched geometry and population payloads and rendered
maps. The file backend lives under the user cache directory; the redis
backend is shared between server instances.`,
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry of the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newPrinter(cmd)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			var where string
			switch cfg.Cache.Backend {
			case config.BackendNone:
				out.info("Caching is disabled")
				return nil
			case config.BackendRedis:
				where = "redis " + cfg.Cache.Redis.Addr + " prefix " + cfg.Cache.Redis.Prefix
			default:
				dir, err := fileCacheDir(cfg.Cache)
				if err != nil {
					return fmt.Errorf("cache dir: %w", err)
				}
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					out.info("Cache is empty")
					return nil
				}
				where = dir
			}

			store, err := newCache(cmd.Context(), cfg.Cache, false)
			if err != nil {
				return err
			}
			defer store.Close()
			clearer, ok := store.(cache.Clearer)
			if !ok {
				out.warn("This cache backend cannot be cleared")
				return nil
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return err
			}
			out.success("Cleared %d cached entries", n)
			out.detail("%s", where)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := fileCacheDir(cfg.Cache)
			if err != nil {
				return fmt.Errorf("cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// fileCacheDir is the configured directory, or the XDG default.
func fileCacheDir(cfg config.Cache) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cacheDir()
}
