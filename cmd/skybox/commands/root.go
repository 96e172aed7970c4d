// Package commands implements the CLI commands for skybox.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/skybox/internal/adapters/detector"
	"go.trai.ch/skybox/internal/adapters/watcher"
	"go.trai.ch/skybox/internal/app"
	"go.trai.ch/skybox/internal/build"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/zerr"
)

// shutdownTimeout bounds the release of resources when a command ends.
const shutdownTimeout = 5 * time.Second

// CLI represents the command line interface for skybox.
type CLI struct {
	opener     Opener
	logger     ports.Logger
	newWatcher WatcherFactory
	stdin      io.Reader
	rootCmd    *cobra.Command

	opts      app.OpenOptions
	logFormat string
}

// Opener assembles resource managers from the configuration file.
type Opener interface {
	Open(opts app.OpenOptions) (*app.App, *domain.Config, error)
	Reload(opts app.OpenOptions, table *domain.DefinitionTable) (domain.Options, error)
}

// WatcherFactory creates the configuration watcher used by the watch command.
type WatcherFactory func(logger ports.Logger) (ports.ConfigWatcher, error)

// Option configures a CLI.
type Option func(*CLI)

// WithWatcherFactory replaces the fsnotify watcher.
func WithWatcherFactory(fn WatcherFactory) Option {
	return func(c *CLI) {
		c.newWatcher = fn
	}
}

// WithInput sets the reader the watch command reads keys from.
func WithInput(r io.Reader) Option {
	return func(c *CLI) {
		c.stdin = r
	}
}

// logConfigurer is implemented by loggers whose format and destination can
// be changed after construction.
type logConfigurer interface {
	SetJSON(enable bool)
	SetOutput(w io.Writer)
}

// New creates a new CLI instance.
func New(opener Opener, logger ports.Logger, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "skybox",
		Short:         "Load, cache and apply cubemap environments",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		opener:  opener,
		logger:  logger,
		stdin:   os.Stdin,
		rootCmd: rootCmd,
		newWatcher: func(l ports.Logger) (ports.ConfigWatcher, error) {
			return watcher.NewWatcher(watcher.DefaultWindow, l)
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.opts.ConfigPath, "config", "c", "", "Path to skybox.yaml (default: discovered from the working directory)")
	flags.IntVar(&c.opts.Capacity, "capacity", 0, "Override the cache capacity")
	flags.BoolVar(&c.opts.Prefetch, "prefetch", false, "Warm the cache in the background after each apply")
	flags.BoolVar(&c.opts.NoCache, "no-cache", false, "Disable the resource cache")
	flags.BoolVar(&c.opts.Verbose, "verbose", false, "Log every completed load")
	flags.StringVar(&c.logFormat, "log-format", "auto", "Log format: auto, pretty, or json")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return c.configureLogger(cmd.ErrOrStderr())
	}

	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newLoadCmd())
	rootCmd.AddCommand(c.newPreviewCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) configureLogger(w io.Writer) error {
	switch c.logFormat {
	case "", "auto", "pretty", "text", "json":
	default:
		return zerr.With(zerr.New("invalid log format"), "format", c.logFormat)
	}

	lc, ok := c.logger.(logConfigurer)
	if !ok {
		return nil
	}
	lc.SetOutput(w)
	format := detector.ResolveFormat(detector.DetectLogFormat(w), c.logFormat)
	lc.SetJSON(format == detector.FormatJSON)
	return nil
}

// open assembles a resource manager and returns a function disposing it.
func (c *CLI) open() (*app.App, *domain.Config, func(), error) {
	a, cfg, err := c.opener.Open(c.opts)
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Dispose(ctx); err != nil {
			c.logger.Error(zerr.Wrap(err, "failed to release resources"))
		}
	}
	return a, cfg, closeFn, nil
}
