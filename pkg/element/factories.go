package element

// build creates an Element of type t from factory arguments.
// Arguments can be: nil, Attr, []Attr, EventHandler, Props, *Element,
// []*Element, or any other value, which becomes a text child.
func build(t Type, args []any) *Element {
	props := make(Props)
	children := make([]any, 0, len(args))

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue
		case Attr:
			if !v.IsEmpty() {
				props[v.Key] = v.Value
			}
		case []Attr:
			for _, a := range v {
				if !a.IsEmpty() {
					props[a.Key] = a.Value
				}
			}
		case EventHandler:
			props[v.Event] = v.Handler
		case Props:
			for k, val := range v {
				if k != ChildrenKey {
					props[k] = val
				}
			}
		default:
			children = append(children, v)
		}
	}

	return CreateElement(t, props, children...)
}

// New creates an Element of any Type using factory arguments.
// It is how components are placed in a tree:
//
//	element.New(Greeting, element.A("name", "Ada"))
func New(t Type, args ...any) *Element { return build(t, args) }

// Text creates a text Element.
func Text(value any) *Element { return CreateTextElement(value) }

// Custom creates an element with a custom tag name.
func Custom(tag string, args ...any) *Element { return build(Host(tag), args) }

// Content sectioning elements

func Header(args ...any) *Element  { return build(Host("header"), args) }
func Footer(args ...any) *Element  { return build(Host("footer"), args) }
func Main(args ...any) *Element    { return build(Host("main"), args) }
func Nav(args ...any) *Element     { return build(Host("nav"), args) }
func Section(args ...any) *Element { return build(Host("section"), args) }
func Article(args ...any) *Element { return build(Host("article"), args) }
func H1(args ...any) *Element      { return build(Host("h1"), args) }
func H2(args ...any) *Element      { return build(Host("h2"), args) }
func H3(args ...any) *Element      { return build(Host("h3"), args) }

// Text content elements

func Div(args ...any) *Element  { return build(Host("div"), args) }
func P(args ...any) *Element    { return build(Host("p"), args) }
func Span(args ...any) *Element { return build(Host("span"), args) }
func Pre(args ...any) *Element  { return build(Host("pre"), args) }
func Ul(args ...any) *Element   { return build(Host("ul"), args) }
func Ol(args ...any) *Element   { return build(Host("ol"), args) }
func Li(args ...any) *Element   { return build(Host("li"), args) }
func Hr(args ...any) *Element   { return build(Host("hr"), args) }

// Inline text semantics

func Link(args ...any) *Element   { return build(Host("a"), args) }
func Strong(args ...any) *Element { return build(Host("strong"), args) }
func Em(args ...any) *Element     { return build(Host("em"), args) }
func Code(args ...any) *Element   { return build(Host("code"), args) }
func Br(args ...any) *Element     { return build(Host("br"), args) }

// Form elements

func Form(args ...any) *Element     { return build(Host("form"), args) }
func Input(args ...any) *Element    { return build(Host("input"), args) }
func Textarea(args ...any) *Element { return build(Host("textarea"), args) }
func Button(args ...any) *Element   { return build(Host("button"), args) }
func Label(args ...any) *Element    { return build(Host("label"), args) }

// Table elements

func Table(args ...any) *Element { return build(Host("table"), args) }
func Tr(args ...any) *Element    { return build(Host("tr"), args) }
func Td(args ...any) *Element    { return build(Host("td"), args) }
func Th(args ...any) *Element    { return build(Host("th"), args) }

// Media elements

func Img(args ...any) *Element { return build(Host("img"), args) }
