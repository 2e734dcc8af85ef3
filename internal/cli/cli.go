// Package cli implements the qadash command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qadash/internal/config"
	"github.com/matzehuels/qadash/pkg/buildinfo"
	"github.com/matzehuels/qadash/pkg/cache"
	"github.com/matzehuels/qadash/pkg/observability"
	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/report"
)

const (
	// appName names the cache and config directories.
	appName = "qadash"

	// defaultSource is the dataset source label of the embedded report.
	defaultSource = "embedded"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	dataPath   string
	cfg        *config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "qadash renders moderation accuracy reports as diagrams",
		Long: `qadash turns a moderation accuracy report into an error-flow diagram,
an error heatmap and a market status table. Charts render to SVG, JSON,
Graphviz DOT, PNG or PDF, in the terminal or through the dashboard server.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./qadash.toml)")
	root.PersistentFlags().StringVarP(&c.dataPath, "data", "d", "", "dataset TOML file (default: embedded report)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.marketsCommand())
	root.AddCommand(c.summaryCommand())
	root.AddCommand(c.issuesCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and registers log hooks. A config log
// level only applies when --verbose has not already lowered the level.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if c.Logger.GetLevel() == LogInfo {
		c.Logger.SetLevel(cfg.LogLevel())
	}

	hooks := observability.LogHooks{Logger: c.Logger}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// settings returns the loaded configuration, or defaults before setup ran.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// loadDataset reads --data, then the configured dataset, then the
// embedded report.
func (c *CLI) loadDataset(ctx context.Context) (*report.Dataset, string, error) {
	path := c.dataPath
	if path == "" {
		path = c.settings().Dataset
	}

	hooks := observability.Pipeline()
	if path == "" {
		ds, err := report.Default()
		hooks.OnDatasetLoad(ctx, defaultSource, len(report.DefaultBytes()), err)
		return ds, defaultSource, err
	}

	size := 0
	if fi, err := os.Stat(path); err == nil {
		size = int(fi.Size())
	}
	ds, err := report.Load(path)
	hooks.OnDatasetLoad(ctx, path, size, err)
	return ds, path, err
}

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.Version+":")
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.settings()
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.settings().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cacheDir()
}

// cacheDir returns the XDG cache directory (~/.cache/qadash/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats splits a comma-separated format list. Empty means SVG.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// closeRunner closes r and logs a failure.
func (c *CLI) closeRunner(r *pipeline.Runner) {
	if err := r.Close(); err != nil {
		c.Logger.Warn("close cache", "err", err)
	}
}
