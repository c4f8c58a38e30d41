package element

import "strings"

// Attr is a single prop passed to a factory helper.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// A returns an arbitrary attribute.
func A(key string, value any) Attr { return Attr{Key: key, Value: value} }

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return A("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return A("style", style) }

// Title sets the title attribute.
func Title(title string) Attr { return A("title", title) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return A("data-"+key, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return A("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return A("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return A("aria-hidden", hidden) }

// Form attributes

// Name sets the name attribute.
func Name(name string) Attr { return A("name", name) }

// Value sets the value attribute.
func Value(value string) Attr { return A("value", value) }

// TypeAttr sets the type attribute.
func TypeAttr(t string) Attr { return A("type", t) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return A("placeholder", text) }

// Disabled sets the disabled attribute.
func Disabled(disabled bool) Attr { return A("disabled", disabled) }

// Checked sets the checked attribute.
func Checked(checked bool) Attr { return A("checked", checked) }

// Links and media

// Href sets the href attribute.
func Href(url string) Attr { return A("href", url) }

// Src sets the src attribute.
func Src(url string) Attr { return A("src", url) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return A("alt", text) }
