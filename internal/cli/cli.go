package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/internal/config"
	"github.com/matzehuels/popmap/pkg/buildinfo"
	"github.com/matzehuels/popmap/pkg/cache"
	"github.com/matzehuels/popmap/pkg/pipeline"
	"github.com/matzehuels/popmap/pkg/source"
)

// appName names the config and cache directories.
const appName = "popmap"

// Levels for [New] and [CLI.SetLogLevel].
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI carries what every command shares: the logger and the --config path.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New returns a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand is the popmap command with every subcommand attached. Its
// pre-run installs the log hooks and puts the logger on the context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "popmap draws world population choropleths",
		Long:         `popmap joins country shapes with population figures and draws them as a shaded world map, as files, over HTTP, or in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			registerHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/popmap/config.toml)")

	root.AddCommand(
		c.renderCommand(),
		c.serveCommand(),
		c.previewCommand(),
		c.schemaCommand(),
		c.cacheCommand(),
		c.completionCommand(),
	)

	return root
}

// loadConfig reads the --config file, or the default file when present.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// newRunner creates a pipeline runner backed by store.
func (c *CLI) newRunner(store cache.Cache, cfg config.Cache) *pipeline.Runner {
	store = cache.Instrument(store)

	keyer := cache.NewDefaultKeyer()
	if cfg.Scope != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Scope+":")
	}

	opts := []source.Option{
		source.WithCache(store),
		source.WithKeyer(keyer),
		source.WithLogger(c.Logger),
	}
	if cfg.TTL.Duration > 0 {
		opts = append(opts, source.WithTTL(cfg.TTL.Duration))
	}
	return pipeline.NewRunner(source.NewLoader(opts...), store, keyer, c.Logger)
}

// newCache opens the configured backend. noCache wins over the config.
func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}
	dir, err := fileCacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir is $XDG_CACHE_HOME/popmap, or ~/.cache/popmap when unset.
func cacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, appName), nil
}

// baseOptions returns pipeline options with the config file applied. Flags
// are applied on top by each command.
func baseOptions(cfg config.Config) pipeline.Options {
	var opts pipeline.Options
	cfg.Apply(&opts)
	return opts
}
