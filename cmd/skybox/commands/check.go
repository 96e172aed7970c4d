package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/skybox/internal/adapters/cas"
	"go.trai.ch/skybox/internal/adapters/fs"
	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/ui/style"
	"go.trai.ch/zerr"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	var update, frozen bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify local face files and compare their digests with skybox.lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, closeFn, err := c.open()
			if err != nil {
				return err
			}
			defer closeFn()

			lock, err := cas.NewStore(filepath.Join(filepath.Dir(cfg.Path), cas.LockFileName))
			if err != nil {
				return err
			}

			reports, err := inspectAll(fs.NewInspector(), cfg.Table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := writeReports(out, reports, lock); err != nil {
				return err
			}

			missing, stale := 0, 0
			for _, r := range reports {
				missing += len(r.Missing)
				if r.Digest != "" && lock.Compare(r.Key, r.Digest) != cas.StatusUnchanged {
					stale++
				}
			}

			switch {
			case missing > 0:
				return zerr.With(zerr.New("missing face files"), "count", missing)
			case frozen && stale > 0:
				return zerr.With(zerr.New("lock file is out of date"), "environments", stale)
			case update:
				if err := writeLock(lock, reports, cfg.Table.Keys()); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s updated %s\n", style.Check, lock.Path())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "Write the current digests to skybox.lock")
	cmd.Flags().BoolVar(&frozen, "frozen", false, "Fail when a digest differs from skybox.lock")
	cmd.MarkFlagsMutuallyExclusive("update", "frozen")
	return cmd
}

func inspectAll(inspector *fs.Inspector, table *domain.DefinitionTable) ([]fs.Report, error) {
	reports := make([]fs.Report, 0, table.Len())
	for _, key := range table.Keys() {
		def, _ := table.Lookup(key)
		if def.IsNone() {
			continue
		}
		report, err := inspector.Inspect(def)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func writeReports(w io.Writer, reports []fs.Report, lock *cas.Store) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = io.WriteString(tw, "\tKEY\tLOCAL\tREMOTE\tDIGEST\tLOCK\n")
	for _, r := range reports {
		icon, digest, status := style.Check, r.Digest, "-"
		switch {
		case !r.OK():
			icon, digest = style.Cross, "missing "+strings.Join(r.Missing, ", ")
		case digest == "":
			digest = "-"
		default:
			status = string(lock.Compare(r.Key, r.Digest))
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", icon, r.Key, r.Local, r.Remote, digest, status)
	}
	return tw.Flush()
}

func writeLock(lock *cas.Store, reports []fs.Report, keys []string) error {
	now := time.Now().UTC()
	records := make([]cas.Record, 0, len(reports))
	for _, r := range reports {
		if r.Digest == "" {
			continue
		}
		records = append(records, cas.Record{Key: r.Key, Digest: r.Digest, LockedAt: now})
	}
	lock.Prune(keys)
	return lock.Put(records...)
}
