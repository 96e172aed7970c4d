package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/skybox/internal/adapters/preview"
	"go.trai.ch/skybox/internal/ui/style"
	"go.trai.ch/zerr"
)

func (c *CLI) newPreviewCmd() *cobra.Command {
	var (
		output string
		size   int
	)

	cmd := &cobra.Command{
		Use:   "preview <key>",
		Short: "Render an environment as a WebP cross layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if output == "" {
				output = key + ".webp"
			}

			a, _, closeFn, err := c.open()
			if err != nil {
				return err
			}
			defer closeFn()

			if output == "-" {
				return a.Preview(cmd.Context(), key, cmd.OutOrStdout(), size)
			}

			if err := writePreview(output, func(w io.Writer) error {
				return a.Preview(cmd.Context(), key, w, size)
			}); err != nil {
				return zerr.With(err, "key", key)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", style.Check, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default: <key>.webp)")
	cmd.Flags().IntVar(&size, "size", preview.DefaultTileSize, "Edge length of each face in pixels")
	return cmd
}

// writePreview renders into path and removes the file when rendering fails.
func writePreview(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create preview file"), "path", path)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close preview file"), "path", path)
		}
		if err != nil {
			err = errors.Join(err, removeIfExists(path))
		}
	}()

	return render(f)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
