// Package fiber implements loom's reconciliation engine.
//
// A Root binds an element tree to one container node on a host surface.
// Rendering happens in two phases:
//
//   - Building. Render seeds a work-in-progress root fiber. WorkLoop expands
//     one fiber per unit of work: a component fiber calls its render
//     function, a host fiber creates its (unattached) surface node. Each
//     expansion reconciles the fiber's children against the previous
//     generation, tagging new fibers Placement or Update and queueing
//     orphans for Deletion. WorkLoop yields whenever the slice deadline runs
//     low and resumes at the next fiber on the following call.
//
//   - Committing. Once no work remains, the accumulated effects are applied
//     to the surface in one uninterrupted pass and the work-in-progress tree
//     becomes the current tree.
//
// Children are matched by position only. Fibers form a left-child /
// right-sibling tree so the walk can resume from any fiber using just the
// Child, Sibling and Parent links.
//
// A Root is not safe for concurrent use. The loom package runs roots on a
// single scheduling goroutine.
package fiber
