package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/skybox/internal/app"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/ui/style"
	"go.trai.ch/zerr"
)

func (c *CLI) newLoadCmd() *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:   "load <key>...",
		Short: "Load and apply environments in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, closeFn, err := c.open()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for _, key := range args {
				if err := applyKey(cmd, a, key); err != nil {
					return err
				}
			}

			if a.Settings().EnablePrefetch {
				if err := a.Settle(ctx); err != nil {
					return zerr.Wrap(err, "prefetch interrupted")
				}
			}

			if showStats {
				return writeStats(out, a.Stats(), a.Settings())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showStats, "stats", "s", false, "Print cache statistics when done")
	return cmd
}

// applyKey applies key and reports it on the command's output.
func applyKey(cmd *cobra.Command, a *app.App, key string) error {
	if err := a.RequestAndApply(cmd.Context(), key); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to apply environment"), "key", key)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", style.Check, displayName(a, key), key)
	return nil
}

func displayName(a *app.App, key string) string {
	for _, opt := range a.Options() {
		if opt.Key == key {
			return opt.DisplayName
		}
	}
	return key
}

// writeStats prints a snapshot of cache activity.
func writeStats(w io.Writer, st domain.Stats, opts domain.Options) error {
	cached := "-"
	if len(st.CachedKeys) > 0 {
		keys := slices.Clone(st.CachedKeys)
		slices.Sort(keys)
		cached = strings.Join(keys, ", ")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "current\t%s\n", st.CurrentKey)
	_, _ = fmt.Fprintf(tw, "cache\t%s, capacity %d, prefetch %s\n",
		onOff(opts.EnableCache), opts.Capacity, onOff(opts.EnablePrefetch))
	_, _ = fmt.Fprintf(tw, "cached\t%d (%s)\n", st.CachedCount, cached)
	_, _ = fmt.Fprintf(tw, "hit rate\t%.1f%% (%d hits, %d misses)\n", st.CacheHitRate*100, st.Hits, st.Misses)
	_, _ = fmt.Fprintf(tw, "loads\t%d (%d failed)\n", st.Loads, st.Failures)
	_, _ = fmt.Fprintf(tw, "evictions\t%d\n", st.Evictions)

	keys := make([]string, 0, len(st.PerKeyLoadLatency))
	for key := range st.PerKeyLoadLatency {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		_, _ = fmt.Fprintf(tw, "latency\t%s %s\n", key, st.PerKeyLoadLatency[key].Round(time.Millisecond))
	}
	return tw.Flush()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
