// Package memhost is an in-memory render surface.
//
// A Document is a small DOM: element and text nodes with properties,
// listeners and ordered children. Every primitive call is appended to a
// journal so callers can see exactly which mutations a commit produced, and
// the tree can be serialized to HTML.
//
//	doc := memhost.New()
//	root := fiber.NewRoot(host.NewAdapter(doc), doc.Root())
//	root.Render(app)
//	...
//	fmt.Println(doc.Root().InnerHTML())
//
// Document is not safe for concurrent use; the engine drives it from a
// single goroutine.
package memhost
