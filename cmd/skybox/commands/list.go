package commands

import (
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.trai.ch/skybox/internal/core/domain"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, closeFn, err := c.open()
			if err != nil {
				return err
			}
			defer closeFn()

			return writeOptions(cmd.OutOrStdout(), cfg.Table)
		},
	}
}

// writeOptions prints the selectable environments in declaration order.
func writeOptions(w io.Writer, table *domain.DefinitionTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = io.WriteString(tw, "KEY\tNAME\tPRIORITY\n")
	for _, opt := range table.Options() {
		priority := "-"
		if def, ok := table.Lookup(opt.Key); ok && !def.IsNone() {
			priority = strconv.Itoa(def.Priority)
		}
		_, _ = io.WriteString(tw, opt.Key+"\t"+opt.DisplayName+"\t"+priority+"\n")
	}
	return tw.Flush()
}
