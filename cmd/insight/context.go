package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kapu/creator-insight-go/internal/app"
	"github.com/kapu/creator-insight-go/internal/config"
	"github.com/kapu/creator-insight-go/internal/util"
	"go.uber.org/zap"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type commandOptions struct {
	output   string
	logLevel string
}

func (o *commandOptions) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.output)) {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table or json)", o.output)
	}
}

func (o *commandOptions) wantsJSON() bool {
	return strings.EqualFold(strings.TrimSpace(o.output), outputJSON)
}

// commandContext builds the service container lazily so that commands which
// fail flag validation never touch Postgres or the network.
type commandContext struct {
	opts *commandOptions

	once      sync.Once
	container *app.Container
	logger    *zap.Logger
	err       error
}

func newCommandContext(opts *commandOptions) *commandContext {
	return &commandContext{opts: opts}
}

func (c *commandContext) ensureContainer(ctx context.Context) (*app.Container, error) {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		if c.opts.logLevel != "" {
			cfg.Logging.Level = c.opts.logLevel
		}

		logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
		if err != nil {
			c.err = fmt.Errorf("failed to initialize logger: %w", err)
			return
		}
		c.logger = logger

		buildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		container, err := app.Build(buildCtx, cfg, logger)
		if err != nil {
			logger.Error("Failed to assemble application services", zap.Error(err))
			c.err = err
			return
		}
		c.container = container
	})
	return c.container, c.err
}

// withContainer validates shared flags, builds the container and releases it
// once fn returns.
func (c *commandContext) withContainer(ctx context.Context, fn func(*app.Container) error) error {
	if err := c.opts.validate(); err != nil {
		return err
	}
	container, err := c.ensureContainer(ctx)
	if err != nil {
		return err
	}
	defer c.close()
	return fn(container)
}

// close flushes background writes before the process exits.
func (c *commandContext) close() {
	if c.container != nil {
		c.container.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
