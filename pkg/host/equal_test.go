package host

import (
	"testing"

	"github.com/vango-dev/loom/pkg/element"
)

func TestEqual(t *testing.T) {
	h := element.NewHandler(nil)
	fn := func() {}
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"int vs int64", 1, int64(1), false},
		{"floats", 1.5, 1.5, true},
		{"bools", true, false, false},
		{"nils", nil, nil, true},
		{"value vs nil", []string{"a"}, nil, false},
		{"same handler", h, h, true},
		{"distinct handlers", h, element.NewHandler(nil), false},
		{"same func", fn, fn, true},
		{"slices deep", []string{"a"}, []string{"a"}, true},
		{"maps deep", map[string]int{"a": 1}, map[string]int{"a": 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{int64(-7), "-7"},
		{2.5, "2.5"},
		{nil, ""},
		{[]int{1}, "[1]"},
	}
	for _, tt := range tests {
		if got := String(tt.in); got != tt.want {
			t.Errorf("String(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
