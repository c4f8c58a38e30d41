package host

import (
	"fmt"
	"sort"

	"github.com/vango-dev/loom/pkg/element"
)

// SurfaceAdapter implements Adapter over a Surface.
type SurfaceAdapter struct {
	surface Surface
}

// NewAdapter creates an Adapter for surface.
func NewAdapter(surface Surface) *SurfaceAdapter {
	return &SurfaceAdapter{surface: surface}
}

// Surface returns the wrapped surface.
func (a *SurfaceAdapter) Surface() Surface {
	return a.surface
}

// CreateNode implements Adapter.
// Text nodes are created from their nodeValue and skip the property path;
// host nodes get their initial props through ApplyPropertyDiff.
func (a *SurfaceAdapter) CreateNode(t element.Type, props element.Props) (Node, error) {
	switch t.Kind() {
	case element.KindText:
		return a.surface.CreateText(textValue(props))
	case element.KindHost:
		if t.Tag() == "" {
			return nil, fmt.Errorf("%w: empty host tag", ErrInvalidElementType)
		}
		node, err := a.surface.CreateElement(t.Tag())
		if err != nil {
			return nil, err
		}
		if err := a.ApplyPropertyDiff(node, nil, props); err != nil {
			return nil, err
		}
		return node, nil
	default:
		return nil, fmt.Errorf("%w: %s owns no surface node", ErrInvalidElementType, t)
	}
}

// ApplyPropertyDiff implements Adapter. Changes are applied in four passes:
// stale listeners are removed, new listeners added, vanished attributes reset
// to "" and new or changed attributes assigned. Keys are visited in sorted
// order so surfaces see a deterministic mutation sequence.
func (a *SurfaceAdapter) ApplyPropertyDiff(node Node, prev, next element.Props) error {
	prevKeys := sortedKeys(prev)
	nextKeys := sortedKeys(next)

	// Remove old or changed event listeners
	for _, key := range prevKeys {
		if !element.IsEventKey(key) {
			continue
		}
		nextVal, ok := next[key]
		if ok && Equal(prev[key], nextVal) {
			continue
		}
		if err := a.surface.RemoveListener(node, element.EventType(key), prev[key]); err != nil {
			return err
		}
	}

	// Add new or changed event listeners
	for _, key := range nextKeys {
		if !element.IsEventKey(key) {
			continue
		}
		prevVal, ok := prev[key]
		if ok && Equal(prevVal, next[key]) {
			continue
		}
		if err := a.surface.AddListener(node, element.EventType(key), next[key]); err != nil {
			return err
		}
	}

	// Reset removed properties
	for _, key := range prevKeys {
		if !element.IsPropertyKey(key) {
			continue
		}
		if _, ok := next[key]; ok {
			continue
		}
		if err := a.surface.SetProperty(node, key, ""); err != nil {
			return err
		}
	}

	// Set new or changed properties
	for _, key := range nextKeys {
		if !element.IsPropertyKey(key) {
			continue
		}
		prevVal, ok := prev[key]
		if ok && Equal(prevVal, next[key]) {
			continue
		}
		if err := a.surface.SetProperty(node, key, next[key]); err != nil {
			return err
		}
	}

	return nil
}

// Attach implements Adapter.
func (a *SurfaceAdapter) Attach(parent, child, before Node) error {
	return a.surface.InsertBefore(parent, child, before)
}

// Detach implements Adapter.
func (a *SurfaceAdapter) Detach(parent, child Node) error {
	return a.surface.RemoveChild(parent, child)
}

// Release forwards to the surface when it implements Releaser.
func (a *SurfaceAdapter) Release(node Node) {
	if r, ok := a.surface.(Releaser); ok {
		r.Release(node)
	}
}

// Flush forwards to the surface when it implements Flusher.
func (a *SurfaceAdapter) Flush() error {
	if f, ok := a.surface.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

func textValue(props element.Props) string {
	switch v := props[element.NodeValueKey].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func sortedKeys(p element.Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
