package loom

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/loom/pkg/fiber"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/scheduler"
)

// Scheduling defaults used when Config leaves them zero.
const (
	// DefaultFrameInterval is the slice cadence of the default source.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultSliceBudget is the time granted per slice by the default source.
	DefaultSliceBudget = 5 * time.Millisecond
)

// Config configures a Runtime.
type Config struct {
	// Adapter applies mutations to the render surface. Required.
	Adapter host.Adapter

	// Source grants time slices. If nil, a FrameSource with
	// DefaultFrameInterval and DefaultSliceBudget is used and stopped when
	// Run returns.
	Source scheduler.IdleSource

	// YieldThreshold is the minimum remaining slice time needed to start
	// another unit of work. Default: fiber.DefaultYieldThreshold.
	YieldThreshold time.Duration

	// Observer receives generation events from every root.
	Observer fiber.Observer

	// Name labels the root created for a container. Default: "root-N" in
	// creation order.
	Name func(container host.Node, n int) string

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.YieldThreshold <= 0 {
		c.YieldThreshold = fiber.DefaultYieldThreshold
	}
	if c.Observer == nil {
		c.Observer = fiber.NopObserver{}
	}
	if c.Name == nil {
		c.Name = func(_ host.Node, n int) string { return fmt.Sprintf("root-%d", n) }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
