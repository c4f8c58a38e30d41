// Package host defines the contract between the fiber engine and a render
// surface.
//
// The engine only talks to an Adapter. NewAdapter builds one from a Surface,
// which exposes the primitive node operations a concrete surface provides
// (create, set property, subscribe, insert, remove). The adapter owns the
// property diff: which props are events, which are plain attributes, and the
// order in which a prop change is applied.
//
// Surfaces may also implement Releaser, to free nodes that were created for
// an abandoned render, and Flusher, to receive one call per committed
// generation.
package host
