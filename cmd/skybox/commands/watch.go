package commands

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/skybox/internal/app"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Apply environments read from stdin, reloading options when the configuration changes",
		Long: `Reads one environment key per line from stdin and applies it.

Lines starting with a colon are commands:
  :list   print the configured environments
  :stats  print cache statistics
  :quit   exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cfg, closeFn, err := c.open()
			if err != nil {
				return err
			}
			defer closeFn()

			w, err := c.newWatcher(c.logger)
			if err != nil {
				return zerr.Wrap(err, "failed to start configuration watcher")
			}
			defer func() {
				_ = w.Close()
			}()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			changes, err := w.Watch(ctx, cfg.Path)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to watch configuration"), "path", cfg.Path)
			}

			s := &session{cli: c, cmd: cmd, app: a, table: cfg.Table}
			return s.run(ctx, changes, readLines(ctx, c.stdin))
		},
	}
}

// session is one interactive watch run.
type session struct {
	cli   *CLI
	cmd   *cobra.Command
	app   *app.App
	table *domain.DefinitionTable
}

func (s *session) run(ctx context.Context, changes <-chan struct{}, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.reload()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := s.handle(line); quit {
				return nil
			}
		}
	}
}

func (s *session) reload() {
	opts, err := s.cli.opener.Reload(s.cli.opts, s.table)
	if err != nil {
		s.cli.logger.Error(err)
		return
	}
	s.app.Configure(opts)
	s.cli.logger.Info("configuration reloaded")
}

func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	out := s.cmd.OutOrStdout()

	switch line {
	case "":
		return false
	case ":quit", ":q":
		return true
	case ":list":
		if err := writeOptions(out, s.table); err != nil {
			s.cli.logger.Error(err)
		}
		return false
	case ":stats":
		if err := writeStats(out, s.app.Stats(), s.app.Settings()); err != nil {
			s.cli.logger.Error(err)
		}
		return false
	}

	if strings.HasPrefix(line, ":") {
		s.cli.logger.Warn("unknown command " + line)
		return false
	}
	if err := applyKey(s.cmd, s.app, line); err != nil {
		s.cli.logger.Error(err)
	}
	return false
}

// readLines streams lines from r until EOF or ctx ends.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
