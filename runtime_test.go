package loom

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/fiber"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/host/memhost"
	"github.com/vango-dev/loom/pkg/scheduler"
)

func newTestRuntime(t *testing.T, mutate func(*Config)) (*Runtime, *memhost.Document) {
	t.Helper()
	doc := memhost.New()
	config := Config{
		Adapter: host.NewAdapter(doc),
		Source:  scheduler.NewManualSource(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&config)
	}
	rt, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return rt, doc
}

// drive steps rt with one unit per root per slice until it is idle and
// returns the number of slices used.
func drive(t *testing.T, rt *Runtime) int {
	t.Helper()
	for i := 1; i <= 1000; i++ {
		if !rt.Step(scheduler.NewUnitDeadline(0)) {
			return i
		}
	}
	t.Fatal("runtime never went idle")
	return 0
}

func resolved(t *testing.T, p *Pending) error {
	t.Helper()
	select {
	case <-p.Done():
		return p.Err()
	default:
		t.Fatal("request not resolved")
		return nil
	}
}

func TestNewRequiresAdapter(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("New() error = %v, want ErrNoAdapter", err)
	}
}

func TestRenderCommits(t *testing.T) {
	rt, doc := newTestRuntime(t, nil)

	p := rt.Render(element.Div(element.ID("app"), "hi"), doc.Root())
	if p.Err() != nil {
		t.Fatal("unresolved request reports an error")
	}
	if rt.Step(scheduler.Unbounded) {
		t.Error("Step() reported more work after an unbounded slice")
	}
	if err := resolved(t, p); err != nil {
		t.Fatalf("render error = %v", err)
	}
	if got, want := doc.Root().InnerHTML(), `<div id="app">hi</div>`; got != want {
		t.Errorf("HTML = %s, want %s", got, want)
	}
}

func TestNoSurfaceMutationBeforeCommit(t *testing.T) {
	rt, doc := newTestRuntime(t, nil)
	p := rt.Render(element.Ul(element.Li("a"), element.Li("b")), doc.Root())

	for rt.Step(scheduler.NewUnitDeadline(0)) {
		if doc.Root().InnerHTML() != "" {
			t.Fatal("surface mutated while building")
		}
	}
	if err := resolved(t, p); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Root().InnerHTML(), `<ul><li>a</li><li>b</li></ul>`; got != want {
		t.Errorf("HTML = %s, want %s", got, want)
	}
}

func TestSupersededRender(t *testing.T) {
	t.Run("in flight", func(t *testing.T) {
		rt, doc := newTestRuntime(t, nil)
		p1 := rt.Render(element.Ul(element.Li("a"), element.Li("b")), doc.Root())
		if !rt.Step(scheduler.NewUnitDeadline(2)) {
			t.Fatal("first render finished in one short slice")
		}

		p2 := rt.Render(element.P("x"), doc.Root())
		rt.Step(scheduler.Unbounded)

		if err := resolved(t, p1); !errors.Is(err, ErrSuperseded) {
			t.Errorf("first render error = %v, want ErrSuperseded", err)
		}
		if err := resolved(t, p2); err != nil {
			t.Errorf("second render error = %v", err)
		}
		if got := doc.Stats().Released; got == 0 {
			t.Error("nodes of the superseded render were not released")
		}
		if got, want := doc.Root().InnerHTML(), `<p>x</p>`; got != want {
			t.Errorf("HTML = %s, want %s", got, want)
		}
	})

	t.Run("queued", func(t *testing.T) {
		rt, doc := newTestRuntime(t, nil)
		p1 := rt.Render(element.Div("one"), doc.Root())
		p2 := rt.Render(element.Div("two"), doc.Root())
		rt.Step(scheduler.Unbounded)

		if err := resolved(t, p1); !errors.Is(err, ErrSuperseded) {
			t.Errorf("first render error = %v, want ErrSuperseded", err)
		}
		if err := resolved(t, p2); err != nil {
			t.Errorf("second render error = %v", err)
		}
		if got := doc.Stats().Created; got != 2 {
			t.Errorf("created %d nodes, want 2", got)
		}
	})
}

func TestRenderFailureKeepsCommittedTree(t *testing.T) {
	rt, doc := newTestRuntime(t, nil)
	boom := element.Component("Boom", func(element.Props) *element.Element { panic("boom") })

	rt.Render(element.Div("ok"), doc.Root())
	rt.Step(scheduler.Unbounded)

	p := rt.Render(element.Div(element.New(boom)), doc.Root())
	rt.Step(scheduler.Unbounded)

	err := resolved(t, p)
	if !errors.Is(err, fiber.ErrComponentPanic) {
		t.Fatalf("render error = %v, want ErrComponentPanic", err)
	}
	var rerr *fiber.RenderError
	if !errors.As(err, &rerr) || rerr.Phase != fiber.PhaseBuild {
		t.Errorf("render error = %#v, want a build-phase RenderError", err)
	}
	if got, want := doc.Root().InnerHTML(), `<div>ok</div>`; got != want {
		t.Errorf("HTML = %s, want %s", got, want)
	}

	p = rt.Render(element.Div("again"), doc.Root())
	rt.Step(scheduler.Unbounded)
	if err := resolved(t, p); err != nil {
		t.Errorf("render after failure error = %v", err)
	}
}

func TestMultipleContainers(t *testing.T) {
	doc := memhost.New()
	left, _ := doc.CreateElement("aside")
	right, _ := doc.CreateElement("main")
	names := map[host.Node]string{left: "left", right: "right"}

	rt, err := New(Config{
		Adapter: host.NewAdapter(doc),
		Source:  scheduler.NewManualSource(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Name:    func(c host.Node, _ int) string { return names[c] },
	})
	if err != nil {
		t.Fatal(err)
	}

	pl := rt.Render(element.Ul(element.Li("1"), element.Li("2"), element.Li("3")), left)
	pr := rt.Render(element.P("x"), right)

	var got []string
	rt.Do(func() {
		got = append(got, rt.Root(left).Name(), rt.Root(right).Name())
	})
	drive(t, rt)

	if err := resolved(t, pl); err != nil {
		t.Errorf("left render error = %v", err)
	}
	if err := resolved(t, pr); err != nil {
		t.Errorf("right render error = %v", err)
	}
	if len(got) != 2 || got[0] != "left" || got[1] != "right" {
		t.Errorf("root names = %v", got)
	}
	if html := left.(*memhost.Node).InnerHTML(); html != `<ul><li>1</li><li>2</li><li>3</li></ul>` {
		t.Errorf("left HTML = %s", html)
	}
	if html := right.(*memhost.Node).InnerHTML(); html != `<p>x</p>` {
		t.Errorf("right HTML = %s", html)
	}
}

func TestRootsShareSlices(t *testing.T) {
	doc := memhost.New()
	a, _ := doc.CreateElement("section")
	b, _ := doc.CreateElement("section")
	rt, err := New(Config{
		Adapter: host.NewAdapter(doc),
		Source:  scheduler.NewManualSource(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	big := element.Ul(element.Li("1"), element.Li("2"), element.Li("3"), element.Li("4"))
	pa := rt.Render(big, a)
	pb := rt.Render(element.P("x"), b)

	// With one unit per slice the small tree finishes long before the big
	// one.
	for i := 0; i < 6; i++ {
		rt.Step(scheduler.NewUnitDeadline(0))
	}
	if err := resolved(t, pb); err != nil {
		t.Fatalf("small render error = %v", err)
	}
	select {
	case <-pa.Done():
		t.Fatal("big render finished before the small one had its turns")
	default:
	}
	drive(t, rt)
	if err := resolved(t, pa); err != nil {
		t.Errorf("big render error = %v", err)
	}
}

func TestDoRunsOnLoop(t *testing.T) {
	rt, doc := newTestRuntime(t, nil)

	rt.Render(element.Div(), doc.Root())
	var building bool
	p := rt.Do(func() {
		building = rt.Root(doc.Root()).Building()
	})
	rt.Step(scheduler.Unbounded)

	if err := resolved(t, p); err != nil {
		t.Fatal(err)
	}
	if !building {
		t.Error("Do ran before the preceding render request was applied")
	}
	if rt.Root(memhost.New().Root()) != nil {
		t.Error("Root() returned a root for an unknown container")
	}
}

func TestDoRecoversPanic(t *testing.T) {
	rt, doc := newTestRuntime(t, nil)

	bad := rt.Do(func() { panic("handler boom") })
	var ran bool
	good := rt.Do(func() { ran = true })
	render := rt.Render(element.P("after"), doc.Root())

	if rt.Step(scheduler.Unbounded) {
		t.Error("Step() reported more work after an unbounded slice")
	}

	err := resolved(t, bad)
	if !errors.Is(err, ErrDoPanicked) || !strings.Contains(err.Error(), "handler boom") {
		t.Errorf("panicking Do error = %v, want ErrDoPanicked with the panic value", err)
	}
	if err := resolved(t, good); err != nil || !ran {
		t.Errorf("later Do error = %v, ran = %v", err, ran)
	}
	if err := resolved(t, render); err != nil {
		t.Fatalf("later render error = %v", err)
	}
	if got := doc.Root().InnerHTML(); got != "<p>after</p>" {
		t.Errorf("HTML = %s", got)
	}
}

func TestRunAndStop(t *testing.T) {
	doc := memhost.New()
	rt, err := New(Config{
		Adapter: host.NewAdapter(doc),
		Source:  scheduler.ImmediateSource{Budget: time.Millisecond * 5},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Queued before the loop starts.
	early := rt.Render(element.Span("early"), doc.Root())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- rt.Run(ctx) }()

	wctx, wcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer wcancel()
	if err := early.Wait(wctx); err != nil {
		t.Fatalf("early render error = %v", err)
	}
	if err := rt.Render(element.Div("live"), doc.Root()).Wait(wctx); err != nil {
		t.Fatalf("render error = %v", err)
	}

	var html string
	if err := rt.Do(func() { html = doc.Root().InnerHTML() }).Wait(wctx); err != nil {
		t.Fatal(err)
	}
	if html != `<div>live</div>` {
		t.Errorf("HTML = %s", html)
	}

	if err := rt.Run(ctx); !errors.Is(err, ErrRunning) {
		t.Errorf("second Run() error = %v, want ErrRunning", err)
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if err := rt.Render(element.Div(), doc.Root()).Wait(wctx); !errors.Is(err, ErrStopped) {
		t.Errorf("render after stop error = %v, want ErrStopped", err)
	}
}

func TestPendingWaitHonorsContext(t *testing.T) {
	p := newPending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}

	p.resolve(ErrSuperseded)
	p.resolve(nil)
	if err := p.Wait(context.Background()); !errors.Is(err, ErrSuperseded) {
		t.Errorf("Wait() error = %v, want the first resolution", err)
	}
}
