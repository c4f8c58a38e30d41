package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sebdah/goldie/v2"

	"github.com/vango-dev/loom/internal/config"
	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/internal/snapshot"
)

// execute runs the CLI with args against a default loom.json in a temp
// directory unless args name a config.
func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	hasConfig := false
	for _, a := range args {
		if a == "--config" || a == "-c" {
			hasConfig = true
		}
	}
	if !hasConfig {
		args = append([]string{"--config", writeConfig(t, nil)}, args...)
	}

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.New()
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	return path
}

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != "dev\n" {
		t.Errorf("version --short = %q", out)
	}

	out, _, err = execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Version:    dev") || !strings.Contains(out, "Go version:") {
		t.Errorf("version output:\n%s", out)
	}
}

func TestRender(t *testing.T) {
	out, _, err := execute(t, "", "render", "testdata/page.yaml")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	g := goldie.New(t)
	g.Assert(t, "render", []byte(out))
}

func TestRenderStdin(t *testing.T) {
	out, _, err := execute(t, `{"type": "p", "children": ["hi"]}`, "render", "-")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if out != "<p>hi</p>\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRenderStats(t *testing.T) {
	_, stderr, err := execute(t, "", "render", "testdata/page.yaml", "--quiet", "--stats")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	for _, want := range []string{
		"Root:       page (generation 1)",
		"0 updates, 0 deletions",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stats missing %q:\n%s", want, stderr)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing file", []string{"render", "testdata/missing.yaml"}, "E201"},
		{"invalid document", []string{"render", "testdata/broken.yaml"}, "E202"},
		{"missing config", []string{"--config", "testdata/none.json", "render", "testdata/page.yaml"}, "E101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			if got := errorCode(err); got != tt.code {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRenderErrorLocation(t *testing.T) {
	_, _, err := execute(t, "", "render", "testdata/broken.yaml")
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error = %v, want *errors.Error", err)
	}
	if e.Location == nil || e.Location.Line != 4 || e.Location.Column != 5 {
		t.Errorf("Location = %+v, want line 4 column 5", e.Location)
	}
	if !strings.Contains(e.Detail, "$.children[1]") {
		t.Errorf("Detail = %q", e.Detail)
	}
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) {
		c.Scheduler.SliceBudget = "50ms"
	})
	_, _, err := execute(t, "", "--config", path, "render", "testdata/page.yaml")
	if got := errorCode(err); got != "E104" {
		t.Errorf("error = %v, want E104", err)
	}

	_, _, err = execute(t, "", "--log-level", "loud", "render", "testdata/page.yaml")
	if got := errorCode(err); got != "E105" {
		t.Errorf("error = %v, want E105", err)
	}
}

func TestRenderSnapshotToDirectory(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := execute(t, "", "render", "testdata/page.yaml", "--quiet", "--out", dir, "--name", "home")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(stderr, "written to") {
		t.Errorf("stderr = %q", stderr)
	}

	html, err := os.ReadFile(filepath.Join(dir, "home.html"))
	if err != nil {
		t.Fatal(err)
	}
	golden, err := os.ReadFile("testdata/render.golden")
	if err != nil {
		t.Fatal(err)
	}
	if string(html)+"\n" != string(golden) {
		t.Errorf("snapshot HTML = %s", html)
	}

	store, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := store.Meta("home")
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	if meta.Root != "home" || meta.Generation != 1 {
		t.Errorf("meta = %+v", meta)
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func useFakeS3(t *testing.T, fake *fakeS3) *string {
	t.Helper()
	var region string
	orig := newS3API
	newS3API = func(_ context.Context, r string) (snapshot.PutObjectAPI, error) {
		region = r
		return fake, nil
	}
	t.Cleanup(func() { newS3API = orig })
	return &region
}

func TestRenderSnapshotToS3(t *testing.T) {
	fake := &fakeS3{}
	region := useFakeS3(t, fake)

	_, stderr, err := execute(t, "", "render", "testdata/page.yaml", "--quiet",
		"--bucket", "snaps", "--prefix", "pages/", "--region", "eu-west-1")
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if *region != "eu-west-1" {
		t.Errorf("region = %q", *region)
	}
	if fake.input == nil {
		t.Fatal("PutObject not called")
	}
	if got := aws.ToString(fake.input.Bucket); got != "snaps" {
		t.Errorf("Bucket = %q", got)
	}
	if got := aws.ToString(fake.input.Key); got != "pages/page.html" {
		t.Errorf("Key = %q", got)
	}
	if !bytes.Contains(fake.body, []byte(`<main id="app">`)) {
		t.Errorf("body = %s", fake.body)
	}
	if !strings.Contains(stderr, "s3://snaps/pages/page.html") {
		t.Errorf("stderr = %q", stderr)
	}

	fake.err = stderrors.New("access denied")
	_, _, err = execute(t, "", "render", "testdata/page.yaml", "--quiet", "--bucket", "snaps")
	if got := errorCode(err); got != "E311" {
		t.Errorf("error = %v, want E311", err)
	}
}
