package memhost

import (
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/loom/pkg/element"
	"github.com/vango-dev/loom/pkg/host"
)

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// HTML returns the node serialized as HTML.
func (n *Node) HTML() string {
	var b strings.Builder
	_ = n.WriteHTML(&b)
	return b.String()
}

// InnerHTML returns the node's children serialized as HTML.
func (n *Node) InnerHTML() string {
	var b strings.Builder
	for _, c := range n.Children {
		_ = c.WriteHTML(&b)
	}
	return b.String()
}

// WriteHTML streams the node as HTML to w. Attributes are written in sorted
// order; empty and false values are omitted, true values are written bare.
func (n *Node) WriteHTML(w io.Writer) error {
	if n.IsText() {
		_, err := io.WriteString(w, escapeHTML(n.Text))
		return err
	}

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag)
	writeAttrs(&b, n.Props)
	b.WriteByte('>')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if voidElements[n.Tag] {
		return nil
	}

	for _, c := range n.Children {
		if err := c.WriteHTML(w); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</"+n.Tag+">")
	return err
}

func writeAttrs(b *strings.Builder, props map[string]any) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !element.IsPropertyKey(key) {
			continue
		}
		switch v := props[key].(type) {
		case bool:
			if v {
				b.WriteByte(' ')
				b.WriteString(key)
			}
			continue
		case nil:
			continue
		}
		value := host.String(props[key])
		if value == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(value))
		b.WriteByte('"')
	}
}
