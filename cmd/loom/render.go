package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom"
	"github.com/vango-dev/loom/internal/config"
	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/internal/snapshot"
	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/fiber"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/host/memhost"
	"github.com/vango-dev/loom/pkg/scheduler"
)

// newS3API connects snapshot uploads to S3. Tests replace it.
var newS3API = func(ctx context.Context, region string) (snapshot.PutObjectAPI, error) {
	return snapshot.NewS3Client(ctx, region)
}

type renderOptions struct {
	stats    bool
	quiet    bool
	snapshot bool
	name     string
	out      string
	bucket   string
	prefix   string
	region   string
	timeout  time.Duration
}

func renderCmd(g *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render an element document to HTML",
		Long: `Render an element document (YAML or JSON) through the fiber engine
and print the committed HTML.

Use "-" to read the document from stdin. With --snapshot, --out or
--bucket the result is also published as a snapshot: to a local
directory, or to S3 when a bucket is configured.

Examples:
  loom render page.yaml
  loom render page.yaml --stats
  loom render page.yaml --out dist/snapshots
  loom render page.yaml --bucket my-snapshots --prefix pages/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.stats, "stats", false, "Print render statistics to stderr")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the HTML")
	flags.BoolVar(&opts.snapshot, "snapshot", false, "Publish a snapshot using the configured store")
	flags.StringVar(&opts.name, "name", "", "Snapshot name (default: the file name without extension)")
	flags.StringVarP(&opts.out, "out", "o", "", "Write the snapshot to this directory")
	flags.StringVar(&opts.bucket, "bucket", "", "Upload the snapshot to this S3 bucket")
	flags.StringVar(&opts.prefix, "prefix", "", "S3 key prefix")
	flags.StringVar(&opts.region, "region", "", "AWS region (default: from the AWS configuration)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Abort the render after this long")

	return cmd
}

func runRender(cmd *cobra.Command, g *globalOptions, opts *renderOptions, path string) error {
	cfg, err := g.loadConfig(func(c *config.Config) {
		if opts.out != "" {
			// Relative to the working directory, not the config file.
			if abs, err := filepath.Abs(opts.out); err == nil {
				c.Snapshot.Dir = abs
			}
			c.Snapshot.Bucket = ""
		}
		if opts.bucket != "" {
			c.Snapshot.Bucket = opts.bucket
		}
		if opts.prefix != "" {
			c.Snapshot.Prefix = opts.prefix
		}
		if opts.region != "" {
			c.Snapshot.Region = opts.region
		}
	})
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	el, err := readDocument(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	name := opts.name
	if name == "" {
		name = "stdin"
		if path != "-" {
			name = snapshot.NameFor(path)
		}
	}

	ctx := cmd.Context()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	result, err := renderDocument(ctx, cfg, logger, name, el)
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), result.html)
	}
	if opts.stats {
		printStats(cmd.ErrOrStderr(), result.report)
	}

	if opts.snapshot || opts.out != "" || opts.bucket != "" {
		snap := snapshot.New(name, []byte(result.html))
		snap.Root = result.report.Root
		snap.Generation = result.report.ID

		location, err := publish(ctx, cfg, snap)
		if err != nil {
			return err
		}
		success(cmd.ErrOrStderr(), "Snapshot %s written to %s", snap.ID, location)
	}
	return nil
}

// readDocument decodes the element document at path, or stdin for "-".
func readDocument(path string, stdin io.Reader) (*element.Element, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.New("E201").WithDetail("Cannot open " + path).Wrap(err)
		}
		defer f.Close()
		r = f
	}

	el, err := element.Decode(r, nil)
	if err != nil {
		return nil, documentError(path, err)
	}
	return el, nil
}

// documentError converts a decode failure into E202, pointing at the
// offending line when known.
func documentError(path string, err error) *errors.Error {
	e := errors.New("E202").Wrap(err)
	var de *element.DecodeError
	if stderrors.As(err, &de) {
		e = e.WithDetail(de.Msg + " at " + de.Path)
		if de.Line > 0 && path != "-" {
			e = e.WithLocation(path, de.Line, de.Column)
		}
	}
	return e
}

type renderResult struct {
	html   string
	report fiber.CommitReport
}

// reportRecorder keeps the last commit report.
type reportRecorder struct {
	fiber.NopObserver
	report fiber.CommitReport
}

func (r *reportRecorder) GenerationCommitted(report fiber.CommitReport) {
	r.report = report
}

// renderDocument renders el onto an in-memory surface in slices of the
// configured budget.
func renderDocument(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string, el *element.Element) (*renderResult, error) {
	doc := memhost.New()
	recorder := &reportRecorder{}

	rt, err := loom.New(loom.Config{
		Adapter:        host.NewAdapter(doc),
		Source:         scheduler.ImmediateSource{Budget: cfg.SliceBudget()},
		YieldThreshold: cfg.YieldThreshold(),
		Observer:       recorder,
		Name:           func(host.Node, int) string { return name },
		Logger:         logger,
	})
	if err != nil {
		return nil, errors.New("E203").Wrap(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		rt.Run(runCtx)
	}()

	err = rt.Render(el, doc.Root()).Wait(ctx)
	cancel()
	<-stopped

	if err != nil {
		code := "E203"
		if stderrors.Is(err, fiber.ErrCommitFailed) {
			code = "E204"
		}
		return nil, errors.New(code).Wrap(err)
	}
	return &renderResult{html: doc.Root().InnerHTML(), report: recorder.report}, nil
}

// publish writes snap to S3 when a bucket is configured, else to the
// snapshot directory.
func publish(ctx context.Context, cfg *config.Config, snap *snapshot.Snapshot) (string, error) {
	if cfg.Snapshot.Bucket != "" {
		client, err := newS3API(ctx, cfg.Snapshot.Region)
		if err != nil {
			return "", errors.New("E311").Wrap(err)
		}
		location, err := snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix).Put(ctx, snap)
		if err != nil {
			return "", errors.New("E311").
				WithDetail("Bucket " + cfg.Snapshot.Bucket).
				Wrap(err)
		}
		return location, nil
	}

	store, err := snapshot.NewFileStore(cfg.SnapshotPath())
	if err != nil {
		return "", errors.New("E310").Wrap(err)
	}
	location, err := store.Put(ctx, snap)
	if err != nil {
		return "", errors.New("E310").Wrap(err)
	}
	return location, nil
}

func printStats(w io.Writer, r fiber.CommitReport) {
	info(w, "Root:       %s (generation %d)", r.Root, r.ID)
	info(w, "Units:      %d in %d slices", r.Units, r.Slices)
	info(w, "Effects:    %d placements, %d updates, %d deletions", r.Placements, r.Updates, r.Deletions)
	info(w, "Build:      %s", r.BuildDuration)
	info(w, "Commit:     %s", r.CommitDuration)
}
