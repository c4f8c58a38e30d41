package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/internal/config"
	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/internal/live"
	"github.com/vango-dev/loom/pkg/element"
)

type serveOptions struct {
	addr      string
	noMetrics bool
	noWatch   bool
	poll      time.Duration
}

func serveCmd(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Serve an element document as a live page",
		Long: `Serve an element document to browsers.

GET / returns the document rendered to HTML. Clients connected to /ws
receive the tree as wire mutations and send events back; when the file
changes, every client is re-rendered and only the changed nodes are
sent. Render metrics are exposed on /metrics.

Examples:
  loom serve page.yaml
  loom serve page.yaml --addr :8080
  loom serve page.yaml --no-watch --no-metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.addr, "addr", "a", "", "Listen address (default: serve.addr, "+config.DefaultAddr+")")
	flags.BoolVar(&opts.noMetrics, "no-metrics", false, "Do not expose /metrics")
	flags.BoolVar(&opts.noWatch, "no-watch", false, "Do not re-render when the file changes")
	flags.DurationVar(&opts.poll, "poll", live.DefaultPollInterval, "File poll interval")

	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, opts *serveOptions, path string) error {
	cfg, err := g.loadConfig(func(c *config.Config) {
		if opts.addr != "" {
			c.Serve.Addr = opts.addr
		}
		if opts.noMetrics {
			c.Metrics.Enabled = false
		}
	})
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	doc, err := live.OpenDocument(path, nil, logger)
	if err != nil {
		if stderrors.Is(err, element.ErrInvalidDocument) {
			return documentError(path, err)
		}
		return errors.New("E201").WithDetail("Cannot open " + path).Wrap(err)
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	srv, err := live.NewServer(live.Config{
		Addr:           cfg.Serve.Addr,
		Document:       doc,
		FrameInterval:  cfg.FrameInterval(),
		SliceBudget:    cfg.SliceBudget(),
		YieldThreshold: cfg.YieldThreshold(),
		Registry:       registry,
		Namespace:      cfg.Metrics.Namespace,
		Logger:         logger,
	})
	if err != nil {
		return errors.New("E301").Wrap(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !opts.noWatch {
		w := live.NewWatcher(opts.poll, doc.Path())
		w.OnChange(func(string) {
			// Failures are logged and keep the last good tree.
			_ = doc.Reload()
		})
		go w.Start(ctx)
	}

	out := cmd.ErrOrStderr()
	printBanner(out)
	success(out, "Serving %s", path)
	info(out, "Page:    http://%s%s", cfg.Serve.Addr, live.PathShell)
	info(out, "Socket:  ws://%s%s", cfg.Serve.Addr, live.PathSocket)
	if registry != nil {
		info(out, "Metrics: http://%s%s", cfg.Serve.Addr, live.PathMetrics)
	}

	if err := srv.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return errors.New("E301").WithDetail("Listening on " + cfg.Serve.Addr).Wrap(err)
	}
	return nil
}
