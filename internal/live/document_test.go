package live

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/loom/pkg/element"
)

func TestOpenDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenDocument(filepath.Join(dir, "missing.yaml"), nil, discardLogger()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, `props: {id: a}`)
	if _, err := OpenDocument(bad, nil, discardLogger()); !errors.Is(err, element.ErrInvalidDocument) {
		t.Errorf("invalid file error = %v, want ErrInvalidDocument", err)
	}
}

func TestDocumentReload(t *testing.T) {
	doc := openTestDocument(t, listDoc, nil)
	updates, unsubscribe := doc.Subscribe()
	defer unsubscribe()

	el, version := doc.Current()
	if version != 1 || el.Type != element.Host("ul") {
		t.Fatalf("Current() = %v, %d", el.Type, version)
	}

	writeFile(t, doc.Path(), `{type: p, children: [two]}`)
	if err := doc.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	select {
	case <-updates:
	default:
		t.Fatal("subscriber not notified")
	}
	if el, version = doc.Current(); version != 2 || el.Type != element.Host("p") {
		t.Errorf("Current() = %v, %d; want p, 2", el.Type, version)
	}

	writeFile(t, doc.Path(), `{type: div, children: [[a]]}`)
	if err := doc.Reload(); !errors.Is(err, element.ErrInvalidDocument) {
		t.Fatalf("Reload() error = %v, want ErrInvalidDocument", err)
	}
	if doc.Err() == nil {
		t.Error("Err() = nil after a failed reload")
	}
	select {
	case <-updates:
		t.Error("subscriber notified of a failed reload")
	default:
	}
	if el, version = doc.Current(); version != 2 || el.Type != element.Host("p") {
		t.Errorf("failed reload replaced the tree: %v, %d", el.Type, version)
	}
}

func TestDocumentSignalsCoalesce(t *testing.T) {
	doc := openTestDocument(t, listDoc, nil)
	updates, unsubscribe := doc.Subscribe()

	for i := 0; i < 3; i++ {
		if err := doc.Reload(); err != nil {
			t.Fatal(err)
		}
	}
	<-updates
	select {
	case <-updates:
		t.Error("got a second signal for coalesced reloads")
	default:
	}

	unsubscribe()
	unsubscribe()
	if err := doc.Reload(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-updates:
		t.Error("signal delivered after unsubscribe")
	default:
	}
}

func TestWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.yaml")
	writeFile(t, path, listDoc)

	changes := make(chan string, 16)
	w := NewWatcher(5*time.Millisecond, path)
	w.OnChange(func(p string) { changes <- p })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()
	eventually(t, "watcher to start", w.IsRunning)

	// Keep moving the modification time until a poll sees it; the first
	// touch may land before the initial scan.
	base := time.Now().Add(time.Hour)
	for i := 0; ; i++ {
		if err := os.Chtimes(path, base, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
		select {
		case p := <-changes:
			if p != path {
				t.Errorf("changed path = %q, want %q", p, path)
			}
		case <-time.After(20 * time.Millisecond):
			if i > 250 {
				t.Fatal("modification never reported")
			}
			continue
		}
		break
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	for removed := false; !removed; {
		select {
		case p := <-changes:
			_, err := os.Stat(p)
			removed = errors.Is(err, os.ErrNotExist)
		case <-deadline:
			t.Fatal("removal never reported")
		}
	}

	w.Stop()
	if err := <-errc; err != nil {
		t.Errorf("Start() error = %v after Stop", err)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}
