package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config error", "E101", "Config file not found", CategoryConfig},
		{"render error", "E202", "Invalid element document", CategoryRender},
		{"serve error", "E301", "Server failed", CategoryServe},
		{"snapshot error", "E311", "Snapshot upload failed", CategorySnapshot},
		{"unknown error code", "E999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "page.yaml")
	if err.Message != `file "page.yaml" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Error() != err.Message {
		t.Errorf("Error() = %q, want the bare message", err.Error())
	}
}

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("open loom.json: permission denied")
	tests := []struct {
		err  *Error
		want string
	}{
		{New("E102"), "E102: Invalid config file"},
		{New("E102").Wrap(cause), "E102: Invalid config file: open loom.json: permission denied"},
		{&Error{Message: "plain"}, "plain"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapAndFromError(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("E203").Wrap(fmt.Errorf("build: %w", sentinel))
	if !stderrors.Is(err, sentinel) {
		t.Error("wrapped error not reachable through errors.Is")
	}

	if FromError(nil, "E201") != nil {
		t.Error("FromError(nil) should return nil")
	}
	if got := FromError(fmt.Errorf("ctx: %w", err), "E201"); got != err {
		t.Errorf("FromError() = %v, want the *Error in the chain", got)
	}
	if got := FromError(sentinel, "E201"); got.Code != "E201" || got.Wrapped != sentinel {
		t.Errorf("FromError(plain) = %#v", got)
	}
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.yaml")
	content := "type: div\nchildren:\n  - type: p\n  - props: {}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWithLocation(t *testing.T) {
	path := writeInput(t)
	err := New("E202").WithLocation(path, 4, 5)

	if err.Location.String() != path+":4:5" {
		t.Errorf("Location = %s", err.Location)
	}
	want := []string{"  - type: p", "  - props: {}"}
	if len(err.Context) != len(want) || err.Context[0] != want[0] || err.Context[1] != want[1] {
		t.Errorf("Context = %q, want %q", err.Context, want)
	}

	first := New("E202").WithLocation(path, 1, 0)
	if first.contextStart() != 1 || first.Context[0] != "type: div" {
		t.Errorf("first line context = %q from %d", first.Context, first.contextStart())
	}

	missing := New("E202").WithLocation(filepath.Join(t.TempDir(), "nope.yaml"), 3, 1)
	if missing.Context != nil {
		t.Errorf("Context for missing file = %q", missing.Context)
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "a.yaml", Line: 10, Column: 5}, "a.yaml:10:5"},
		{"without column", &Location{File: "a.yaml", Line: 10}, "a.yaml:10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	path := writeInput(t)
	formatted := New("E202").
		WithLocation(path, 4, 5).
		WithSuggestion("Every mapping needs a type key").
		Wrap(stderrors.New("missing type")).
		Format()

	for _, want := range []string{
		"ERROR E202: Invalid element document",
		path + ":4:5",
		"→    4 │   - props: {}",
		"       3 │   - type: p",
		"│     ^",
		"Cause: missing type",
		"Hint: Every mapping needs a type key",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q in:\n%s", want, formatted)
		}
	}
	if strings.Contains(formatted, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E202")
	err.Location = &Location{File: "page.yaml", Line: 10, Column: 5}
	want := "page.yaml:10:5: E202: Invalid element document"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E202").Wrap(stderrors.New("bad"))
	err.Location = &Location{File: "page.yaml", Line: 10, Column: 5}
	got := err.FormatJSON()

	for _, want := range []string{
		`"code":"E202"`,
		`"category":"render"`,
		`"message":"Invalid element document"`,
		`"location":{"file":"page.yaml","line":10,"column":5}`,
		`"cause":"bad"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatJSON() = %s, missing %s", got, want)
		}
	}
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Print(&b, fmt.Errorf("run: %w", New("E301")))
	if !strings.Contains(b.String(), "ERROR E301: Server failed") {
		t.Errorf("Print(coded) = %q", b.String())
	}

	b.Reset()
	Print(&b, stderrors.New("boom"))
	if got := b.String(); got != "\nERROR: boom\n\n" {
		t.Errorf("Print(plain) = %q", got)
	}
}

func TestRegistry(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("Codes() is empty")
	}
	for _, code := range codes {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s = %+v", code, tmpl)
		}
		if len(code) != 4 || code[0] != 'E' {
			t.Errorf("malformed code %q", code)
		}
	}

	Register("E999", Template{Category: CategoryCLI, Message: "Custom test error"})
	defer delete(registry, "E999")
	if err := New("E999"); err.Message != "Custom test error" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestWrapText(t *testing.T) {
	if got := wrapText("short text", 100); len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText(short) = %v", got)
	}
	if got := wrapText("this is a longer text that should be wrapped", 20); len(got) != 3 {
		t.Errorf("wrapText(long) = %d lines: %v", len(got), got)
	}
	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText(empty) = %v", got)
	}
}

func TestColors(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("x"), "\033[31m") {
		t.Error("red() without ANSI code when colors enabled")
	}
	DisableColors()
	if strings.Contains(red("x"), "\033[") {
		t.Error("red() with ANSI code when colors disabled")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	EnableColors()
	DetectColors(f)
	if colorEnabled {
		t.Error("colors enabled for a regular file")
	}
	EnableColors()
}
