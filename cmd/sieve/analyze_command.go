package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sieve/internal/analysis"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <name>",
		Short: "Run a named analysis and print its result",
		Long: "Run a named analysis against the content database.\n\n" +
			"Available analyses: " + strings.Join(analysis.Names(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := analysis.CheckName(name); err != nil {
				return err
			}
			return ctx.withFacade(cmd, func(facade *analysis.Facade) error {
				result, err := facade.Get(cmd.Context(), name, refresh)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, toJSONView(name, result))
				}
				fmt.Fprint(cmd.OutOrStdout(), renderResult(name, result))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Recompute even when a cached result is valid")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newAnalysesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "analyses",
		Short:       "List the available analyses",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(col("Name"), col("Title"), col("Description"))
			for _, name := range analysis.Names() {
				t.row(name, analysisTitle(name), analysis.Describe(name))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
}
