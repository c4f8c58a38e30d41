// Package wirehost renders onto a remote surface.
//
// Surface implements host.Surface by assigning every node a numeric ID and
// queueing a protocol.Mutation per call. Flush, which the commit engine
// calls once per commit, encodes the queue as mutation frames and writes
// them to a Sink. Events coming back from the client are routed to the
// registered handlers with Dispatch.
//
// Replica is the receiving side: it applies mutation frames to any other
// host.Surface, such as a memhost.Document, and turns that surface's events
// back into protocol events.
package wirehost
