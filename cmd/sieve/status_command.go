package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sieve/internal/asset"
	"sieve/internal/config"
	"sieve/internal/contentdb"
	"sieve/internal/preflight"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"
)

type checkState int

const (
	stateInfo checkState = iota
	stateOK
	stateError
)

var checkStates = map[checkState]struct{ tag, color string }{
	stateInfo:  {"INFO", ansiBlue},
	stateOK:    {"OK", ansiGreen},
	stateError: {"ERROR", ansiRed},
}

// statusWriter prints sectioned "label: [STATE] detail" lines, colored when
// the output is a terminal.
type statusWriter struct {
	out   io.Writer
	color bool
	wrote bool
}

func (s *statusWriter) paint(color, line string) string {
	if !s.color {
		return line
	}
	return color + line + ansiReset
}

func (s *statusWriter) section(title string) {
	if s.wrote {
		fmt.Fprintln(s.out)
	}
	s.wrote = true
	heading := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(s.out, s.paint(ansiBlue, heading))
	fmt.Fprintln(s.out, s.paint(ansiBlue, strings.Repeat("-", len(heading))))
}

func (s *statusWriter) line(label string, state checkState, detail string) {
	st := checkStates[state]
	text := "[" + st.tag + "]"
	if detail != "" {
		text += " " + detail
	}
	fmt.Fprintln(s.out, s.paint(st.color, fmt.Sprintf("  %-28s %s", label+":", text)))
}

func (s *statusWriter) info(label, detail string) { s.line(label, stateInfo, detail) }

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show path checks and content database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sw := &statusWriter{out: out, color: isTerminal(out)}

			sw.section("Configuration")
			configPath := ctx.configPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			sw.info("Config file", configPath)

			sw.section("Preflight")
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				state := stateOK
				if !r.Passed {
					state = stateError
				}
				sw.line(r.Name, state, r.Detail)
			}

			return ctx.withStore(func(_ *config.Config, store *contentdb.Store, _ *slog.Logger) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				sw.section("Content")
				sw.info("Entities", strconv.Itoa(stats.Entities()))
				sw.info("Anchors", strconv.Itoa(stats.Anchors))
				sw.info("Groups", strconv.Itoa(stats.Groups))
				sw.info("References", strconv.Itoa(stats.References))
				sw.info("Total size", formatBytes(stats.TotalBytes))

				kinds := newTable(col("Kind"), num("Entities"))
				listed := false
				for _, kind := range asset.Kinds() {
					if n := stats.EntitiesByKind[kind]; n > 0 {
						kinds.row(string(kind), strconv.Itoa(n))
						listed = true
					}
				}
				if listed {
					fmt.Fprintf(out, "\n%s\n", kinds)
				}
				return nil
			})
		},
	}
}
