package element

import "strings"

// Event is delivered to handlers when a surface dispatches an event.
type Event struct {
	Type   string // "click", "input"
	Value  string // Payload, e.g. an input's value
	Target any    // Surface node the event fired on
}

// Handler is an event handler prop value. Handlers compare by pointer, so
// a render that builds a new Handler causes the surface to re-subscribe.
type Handler struct {
	fn func(Event)
}

// NewHandler wraps fn as a Handler.
func NewHandler(fn func(Event)) *Handler {
	return &Handler{fn: fn}
}

// Invoke calls the handler. A nil Handler is a no-op.
func (h *Handler) Invoke(ev Event) {
	if h == nil || h.fn == nil {
		return
	}
	h.fn(ev)
}

// Invoke calls a handler prop value of any supported shape: *Handler,
// func(Event) or func(). It reports whether v was callable.
func Invoke(v any, ev Event) bool {
	switch h := v.(type) {
	case *Handler:
		h.Invoke(ev)
		return h != nil
	case func(Event):
		h(ev)
		return true
	case func():
		h()
		return true
	}
	return false
}

// IsEventKey reports whether a prop key names an event subscription.
// Matching is case-insensitive: onclick, onClick and ONCLICK all qualify.
func IsEventKey(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// EventType derives the event type from an event prop key:
// the "on" prefix is stripped and the rest lower-cased.
func EventType(key string) string {
	if !IsEventKey(key) {
		return ""
	}
	return strings.ToLower(key[2:])
}

// IsPropertyKey reports whether key is a plain attribute: neither an event
// nor the reserved child list.
func IsPropertyKey(key string) bool {
	return key != ChildrenKey && !IsEventKey(key)
}
