// Package live serves an element document to browsers over websockets.
//
// Each connection gets a Session with its own runtime rendering onto a
// wire surface, so the client receives protocol mutation frames and sends
// event frames back. Reloading the Document re-renders every session;
// only the changed nodes cross the wire.
//
//	doc, _ := live.OpenDocument("page.yaml", nil, logger)
//	w := live.NewWatcher(0, doc.Path())
//	w.OnChange(func(string) { doc.Reload() })
//	go w.Start(ctx)
//
//	srv, _ := live.NewServer(live.Config{Addr: ":3000", Document: doc})
//	srv.Start(ctx)
package live
