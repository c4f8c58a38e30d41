// Package loom is an incremental rendering engine.
//
// Applications describe their interface as element trees (package
// element). A Runtime turns each requested tree into the minimal set of
// mutations on a render surface (package host), doing the work in small
// slices so a long render never blocks the host for longer than one slice.
//
// Basic usage:
//
//	doc := memhost.New()
//	rt, err := loom.New(loom.Config{Adapter: host.NewAdapter(doc)})
//	if err != nil {
//	    return err
//	}
//	go rt.Run(ctx)
//
//	p := rt.Render(element.Div(element.ID("app"), "hello"), doc.Root())
//	if err := p.Wait(ctx); err != nil {
//	    return err
//	}
//
// Render may be called from any goroutine. Requests are applied by the
// Runtime's loop between units of work; a request for a container that is
// still building replaces the in-flight tree, and the replaced request
// resolves with ErrSuperseded.
//
// For single-threaded embedding without a loop goroutine, use fiber.Root
// directly.
package loom
