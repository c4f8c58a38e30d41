package fiber

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
	"github.com/vango-dev/loom/pkg/host/memhost"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRoot(t *testing.T, opts ...Option) (*Root, *memhost.Document) {
	t.Helper()
	doc := memhost.New()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return NewRoot(host.NewAdapter(doc), doc.Root(), opts...), doc
}

func mustRender(t *testing.T, r *Root, el *element.Element) {
	t.Helper()
	if err := r.RenderSync(el); err != nil {
		t.Fatalf("RenderSync() error = %v", err)
	}
}

func journal(doc *memhost.Document) []string {
	var out []string
	for _, op := range doc.Journal() {
		out = append(out, op.String())
	}
	return out
}

func connectedOps(doc *memhost.Document) []string {
	var out []string
	for _, op := range doc.Journal() {
		if op.Connected {
			out = append(out, op.String())
		}
	}
	return out
}

// shape is a comparable summary of a fiber subtree.
type shape struct {
	Type     string
	Effect   string
	Props    map[string]any
	Children []shape
}

func shapeOf(f *Fiber) shape {
	s := shape{Type: f.Type.String(), Effect: f.Effect.String(), Props: map[string]any{}}
	for k, v := range f.Props {
		if k != element.ChildrenKey {
			s.Props[k] = v
		}
	}
	for c := f.Child; c != nil; c = c.Sibling {
		s.Children = append(s.Children, shapeOf(c))
	}
	return s
}

func childEffects(f *Fiber) []string {
	var out []string
	for _, c := range f.Children() {
		out = append(out, c.Effect.String())
	}
	return out
}

func deletionTypes(r *Root) []string {
	var out []string
	for _, f := range r.deletions {
		out = append(out, f.Type.String())
	}
	sort.Strings(out)
	return out
}

// recordingObserver records lifecycle events by name.
type recordingObserver struct {
	events  []string
	commits []CommitReport
	aborts  []error
}

func (o *recordingObserver) GenerationStarted(Generation) { o.events = append(o.events, "started") }
func (o *recordingObserver) SliceYielded(Generation)      { o.events = append(o.events, "yielded") }

func (o *recordingObserver) GenerationCommitted(r CommitReport) {
	o.events = append(o.events, "committed")
	o.commits = append(o.commits, r)
}

func (o *recordingObserver) GenerationAborted(_ Generation, err error) {
	o.events = append(o.events, "aborted")
	o.aborts = append(o.aborts, err)
}

var errInjected = errors.New("injected failure")

// failingSurface wraps a memhost document and fails InsertBefore once armed.
type failingSurface struct {
	*memhost.Document
	failInsert bool
}

func (s *failingSurface) InsertBefore(parent, child, before host.Node) error {
	if s.failInsert {
		return errInjected
	}
	return s.Document.InsertBefore(parent, child, before)
}
