package element

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when an element document cannot be decoded.
var ErrInvalidDocument = errors.New("element: invalid document")

// DecodeError reports where in a document decoding failed. It matches
// ErrInvalidDocument with errors.Is.
type DecodeError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s: %s (line %d)", ErrInvalidDocument, e.Path, e.Msg, e.Line)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidDocument, e.Path, e.Msg)
}

func (e *DecodeError) Unwrap() error { return ErrInvalidDocument }

func decodeError(node *yaml.Node, path, format string, args ...any) error {
	return &DecodeError{Path: path, Line: node.Line, Column: node.Column, Msg: fmt.Sprintf(format, args...)}
}

// document is the on-disk form of an Element.
type document struct {
	Type     string         `yaml:"type"`
	Props    map[string]any `yaml:"props"`
	Children []yaml.Node    `yaml:"children"`
}

// Decode reads an element tree from YAML or JSON:
//
//	type: div
//	props: {id: main}
//	children:
//	  - type: h1
//	    children: [Hello]
//	  - plain text child
//
// A scalar child becomes a text element. Type names found in components
// resolve to those component Types; every other name is a host tag.
// Event props cannot be expressed in a document and are rejected.
func Decode(r io.Reader, components map[string]Type) (*Element, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, decodeError(node, "$", "root must be a mapping")
	}
	return decodeNode(node, components, "$")
}

func decodeNode(node *yaml.Node, components map[string]Type, path string) (*Element, error) {
	if node.Kind == yaml.ScalarNode {
		return CreateTextElement(node.Value), nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, decodeError(node, path, "expected mapping or scalar")
	}

	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, decodeError(node, path, "%v", err)
	}
	if doc.Type == "" {
		return nil, decodeError(node, path, "missing type")
	}

	t, ok := components[doc.Type]
	if !ok {
		t = Host(doc.Type)
	}

	props := make(Props, len(doc.Props))
	for k, v := range doc.Props {
		if IsEventKey(k) {
			return nil, decodeError(node, path, "event prop %q is not supported in documents", k)
		}
		if k == ChildrenKey {
			continue
		}
		props[k] = v
	}

	children := make([]any, 0, len(doc.Children))
	for i := range doc.Children {
		child, err := decodeNode(&doc.Children[i], components, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return CreateElement(t, props, children...), nil
}
