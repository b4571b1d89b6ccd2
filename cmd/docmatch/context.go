package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"docmatch/internal/api"
	"docmatch/internal/config"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
	"docmatch/internal/workflow"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
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
		c.configExists = exists
	})
	return c.config, c.configErr
}

// cliLogger writes to stderr. Without --verbose only warnings and errors are
// shown so command output stays readable.
func (c *commandContext) cliLogger(cfg *config.Config) *slog.Logger {
	level := "warn"
	if c.verbose != nil && *c.verbose {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// services bundles the components a one-shot command works with. The store
// doubles as the queue repository so listings always reflect the database.
type services struct {
	cfg      *config.Config
	store    *queue.Store
	queue    *api.QueueService
	actions  *api.ActionService
	workflow *workflow.Manager
}

func (c *commandContext) withServices(fn func(*services) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	logger := c.cliLogger(cfg)
	wf := workflow.NewManager(cfg, store, nil, logger)
	return fn(&services{
		cfg:      cfg,
		store:    store,
		queue:    api.NewQueueService(store, cfg.Queue.PageSize),
		actions:  api.NewActionService(store, nil, wf, logger),
		workflow: wf,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
