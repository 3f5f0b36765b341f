package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sieve/internal/config"
	"sieve/internal/contentdb"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <manifest>",
		Short: "Load a YAML project manifest into the content database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve manifest path: %w", err)
			}
			manifest, err := contentdb.LoadManifest(path)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *contentdb.Store, _ *slog.Logger) error {
				result, err := store.Import(cmd.Context(), manifest)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entities, %d references, %d content blobs into %s\n",
					result.Entities, result.References, result.Contents, store.Path())
				return nil
			})
		},
	}
}
