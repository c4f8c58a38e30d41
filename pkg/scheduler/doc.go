// Package scheduler provides the idle-time primitive loom's work loop runs
// on.
//
// An IdleSource hands out slices. Each slice comes with a Deadline the
// worker polls between units of work; when the remaining time drops below
// its threshold the worker yields and asks for another slice.
//
// Sources:
//
//   - FrameSource grants one slice per tick with a fixed budget.
//   - ImmediateSource grants a slice as soon as one is requested.
//   - ManualSource grants slices only when the caller supplies them, which
//     makes interleavings reproducible in tests.
//
// Loop ties a source to a Worker and runs it on one goroutine.
package scheduler
