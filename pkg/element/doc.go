// Package element provides the immutable Element model rendered by loom.
//
// An Element describes one node of the tree to render: a Type and a Props
// bag. The reserved "children" prop holds the ordered child list. Position
// in that list is the only diff key; explicit keys are not supported.
//
// # Types
//
// Type is a tagged variant with three cases:
//
//	element.Host("div")                      // a surface node type
//	element.TextType                         // the reserved text marker
//	element.Component("Greeting", renderFn)  // a render function
//
// Two component Types are equal only when they come from the same
// Component call, so define components once at package level.
//
// # Authoring
//
// CreateElement is the low-level constructor. The factory helpers wrap it:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    Button(OnClick(func(element.Event) { ... }), "Save"),
//	)
//
// Decode reads the same tree from YAML or JSON.
package element
