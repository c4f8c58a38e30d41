package element

import "testing"

func TestCreateElement(t *testing.T) {
	t.Run("wraps scalar children as text", func(t *testing.T) {
		el := CreateElement(Host("p"), nil, "Hi ", 42)
		children := el.Children()
		if len(children) != 2 {
			t.Fatalf("Children len = %d, want 2", len(children))
		}
		if children[0].Type != TextType {
			t.Errorf("child 0 type = %v, want text", children[0].Type)
		}
		if children[1].Props[NodeValueKey] != "42" {
			t.Errorf("child 1 nodeValue = %v, want 42", children[1].Props[NodeValueKey])
		}
	})

	t.Run("keeps element children and order", func(t *testing.T) {
		a := CreateElement(Host("a"), nil)
		b := CreateElement(Host("b"), nil)
		el := CreateElement(Host("div"), nil, a, nil, []*Element{b})
		children := el.Children()
		if len(children) != 2 || children[0] != a || children[1] != b {
			t.Fatalf("children = %v, want [a b]", children)
		}
	})

	t.Run("copies props", func(t *testing.T) {
		props := Props{"id": "x"}
		el := CreateElement(Host("div"), props)
		props["id"] = "y"
		if el.Props["id"] != "x" {
			t.Errorf("id = %v, want x", el.Props["id"])
		}
		if _, ok := props[ChildrenKey]; ok {
			t.Error("caller props gained a children key")
		}
	})

	t.Run("empty child list is never nil", func(t *testing.T) {
		el := CreateElement(Host("br"), nil)
		if el.Props[ChildrenKey] == nil {
			t.Fatal("children prop missing")
		}
		if len(el.Children()) != 0 {
			t.Errorf("Children len = %d, want 0", len(el.Children()))
		}
	})
}

func TestCreateTextElement(t *testing.T) {
	el := CreateTextElement("hello")
	if el.Type != TextType {
		t.Errorf("Type = %v, want text", el.Type)
	}
	if el.Props[NodeValueKey] != "hello" {
		t.Errorf("nodeValue = %v, want hello", el.Props[NodeValueKey])
	}
	if el.Children() == nil || len(el.Children()) != 0 {
		t.Errorf("children = %v, want empty list", el.Children())
	}
}

func TestTypeIdentity(t *testing.T) {
	render := func(Props) *Element { return nil }
	c1 := Component("C", render)
	c2 := Component("C", render)

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same host tag", Host("div"), Host("div"), true},
		{"different host tag", Host("div"), Host("span"), false},
		{"text markers", TextType, TextType, true},
		{"text vs host", TextType, Host(TextTag), false},
		{"same component", c1, c1, true},
		{"distinct definitions", c1, c2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a == tt.b; got != tt.want {
				t.Errorf("%v == %v is %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{Host("div"), "div"},
		{TextType, TextTag},
		{Component("Greeting", nil), "<Greeting>"},
		{Type{}, "<invalid>"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if !(Type{}).IsZero() {
		t.Error("zero Type should report IsZero")
	}
}

func TestFactories(t *testing.T) {
	clicked := false
	el := Div(Class("card"), ID("main"),
		H1("Title"),
		Button(OnClick(func(Event) { clicked = true }), "Go"),
		nil,
	)

	if el.Type != Host("div") {
		t.Fatalf("Type = %v, want div", el.Type)
	}
	if el.Props["class"] != "card" || el.Props["id"] != "main" {
		t.Errorf("props = %v", el.Props)
	}
	children := el.Children()
	if len(children) != 2 {
		t.Fatalf("Children len = %d, want 2", len(children))
	}
	btn := children[1]
	h, ok := btn.Props["onclick"].(*Handler)
	if !ok {
		t.Fatalf("onclick = %T, want *Handler", btn.Props["onclick"])
	}
	h.Invoke(Event{Type: "click"})
	if !clicked {
		t.Error("handler was not invoked")
	}
}

func TestNewComponent(t *testing.T) {
	greeting := Component("Greeting", func(p Props) *Element {
		return H1("Hi ", p["name"])
	})
	el := New(greeting, A("name", "Ada"))
	if el.Type != greeting {
		t.Fatalf("Type = %v, want Greeting", el.Type)
	}
	out := el.Type.Def().Render(el.Props)
	if got := out.Children()[1].Props[NodeValueKey]; got != "Ada" {
		t.Errorf("rendered name = %v, want Ada", got)
	}
}
