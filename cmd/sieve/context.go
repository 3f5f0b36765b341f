package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"sieve/internal/analysis"
	"sieve/internal/apply"
	"sieve/internal/config"
	"sieve/internal/contentdb"
	"sieve/internal/logging"
	"sieve/internal/progress"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the content database for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *contentdb.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	store, err := contentdb.Open(cfg.Paths.ContentDB, logger)
	if err != nil {
		return fmt.Errorf("open content database: %w", err)
	}
	defer store.Close()
	return fn(cfg, store, logger)
}

// withFacade builds an analysis facade over the content database. Progress
// goes to a terminal bar when stderr is a terminal and to the log otherwise.
func (c *commandContext) withFacade(cmd *cobra.Command, fn func(*analysis.Facade) error) error {
	return c.withStore(func(cfg *config.Config, store *contentdb.Store, logger *slog.Logger) error {
		reporter, finish := newReporter(cmd.ErrOrStderr(), logger)
		defer finish()

		facade := analysis.New(store, analysis.SettingsFromConfig(cfg),
			analysis.WithLogger(logger),
			analysis.WithProgress(reporter),
			analysis.WithLock(apply.NewLock(cfg.Paths.LockPath)),
		)
		return fn(facade)
	})
}

func newReporter(w io.Writer, logger *slog.Logger) (progress.Reporter, func()) {
	if isTerminal(w) {
		bar := progress.NewBar(w)
		return bar, bar.Finish
	}
	return progress.NewLogReporter(logger), func() {}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
