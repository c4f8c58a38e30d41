package element

// EventHandler pairs an event prop key with its handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler *Handler
}

// On creates an EventHandler for the named event ("click" → "onclick").
func On(name string, fn func(Event)) EventHandler {
	return EventHandler{Event: "on" + name, Handler: NewHandler(fn)}
}

// Mouse events

// OnClick handles click events.
func OnClick(fn func(Event)) EventHandler { return On("click", fn) }

// OnDblClick handles double-click events.
func OnDblClick(fn func(Event)) EventHandler { return On("dblclick", fn) }

// OnMouseEnter handles mouseenter events.
func OnMouseEnter(fn func(Event)) EventHandler { return On("mouseenter", fn) }

// OnMouseLeave handles mouseleave events.
func OnMouseLeave(fn func(Event)) EventHandler { return On("mouseleave", fn) }

// Keyboard events

// OnKeyDown handles keydown events.
func OnKeyDown(fn func(Event)) EventHandler { return On("keydown", fn) }

// OnKeyUp handles keyup events.
func OnKeyUp(fn func(Event)) EventHandler { return On("keyup", fn) }

// Form events

// OnInput handles input events (fired when value changes).
func OnInput(fn func(Event)) EventHandler { return On("input", fn) }

// OnChange handles change events (fired when value is committed).
func OnChange(fn func(Event)) EventHandler { return On("change", fn) }

// OnSubmit handles form submit events.
func OnSubmit(fn func(Event)) EventHandler { return On("submit", fn) }

// OnFocus handles focus events.
func OnFocus(fn func(Event)) EventHandler { return On("focus", fn) }

// OnBlur handles blur events.
func OnBlur(fn func(Event)) EventHandler { return On("blur", fn) }
