package element

import (
	"fmt"
	"maps"
)

// Reserved prop keys.
const (
	ChildrenKey  = "children"
	NodeValueKey = "nodeValue"
)

// TextTag is the tag reported by TextType.
const TextTag = "#text"

// Kind is the Type discriminator.
type Kind uint8

const (
	KindHost      Kind = iota // Surface node type ("div", "span")
	KindText                  // Text marker
	KindComponent             // Render function
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindHost:
		return "Host"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// RenderFunc renders a component's props into a single Element.
type RenderFunc func(props Props) *Element

// ComponentDef is the identity of a component Type.
type ComponentDef struct {
	Name   string
	Render RenderFunc
}

// Type identifies what an Element renders to. Types are comparable.
type Type struct {
	kind Kind
	tag  string
	comp *ComponentDef
}

// TextType is the reserved text marker type.
var TextType = Type{kind: KindText, tag: TextTag}

// Host returns the Type for a surface node with the given tag.
func Host(tag string) Type {
	return Type{kind: KindHost, tag: tag}
}

// Component defines a component Type. Each call returns a distinct Type.
func Component(name string, render RenderFunc) Type {
	return Type{kind: KindComponent, comp: &ComponentDef{Name: name, Render: render}}
}

// Kind returns the variant of the Type.
func (t Type) Kind() Kind { return t.kind }

// Tag returns the surface tag for host and text Types.
func (t Type) Tag() string { return t.tag }

// IsZero reports whether t is the zero Type.
func (t Type) IsZero() bool { return t == Type{} }

// Def returns the component definition, or nil for non-component Types.
func (t Type) Def() *ComponentDef { return t.comp }

// String returns a readable form of the Type.
func (t Type) String() string {
	switch t.kind {
	case KindHost:
		if t.tag == "" {
			return "<invalid>"
		}
		return t.tag
	case KindText:
		return TextTag
	case KindComponent:
		if t.comp == nil || t.comp.Name == "" {
			return "<component>"
		}
		return "<" + t.comp.Name + ">"
	default:
		return "<unknown>"
	}
}

// Props holds attributes, event handlers and the reserved child list.
type Props map[string]any

// Children returns the child list stored under ChildrenKey.
func (p Props) Children() []*Element {
	children, _ := p[ChildrenKey].([]*Element)
	return children
}

// Element is an immutable description of a node to render.
type Element struct {
	Type  Type
	Props Props
}

// Children returns the element's ordered child list.
func (e *Element) Children() []*Element {
	if e == nil {
		return nil
	}
	return e.Props.Children()
}

// CreateElement creates an Element of type t.
// Children that are not *Element are wrapped with CreateTextElement, nil
// children are skipped and []*Element arguments are flattened. props is
// copied; t is not validated.
func CreateElement(t Type, props Props, children ...any) *Element {
	p := make(Props, len(props)+1)
	maps.Copy(p, props)

	list := make([]*Element, 0, len(children))
	for _, child := range children {
		switch v := child.(type) {
		case nil:
			continue
		case *Element:
			if v != nil {
				list = append(list, v)
			}
		case []*Element:
			for _, c := range v {
				if c != nil {
					list = append(list, c)
				}
			}
		default:
			list = append(list, CreateTextElement(v))
		}
	}
	p[ChildrenKey] = list

	return &Element{Type: t, Props: p}
}

// CreateTextElement creates a text Element holding value.
func CreateTextElement(value any) *Element {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	return &Element{
		Type: TextType,
		Props: Props{
			NodeValueKey: s,
			ChildrenKey:  []*Element{},
		},
	}
}
