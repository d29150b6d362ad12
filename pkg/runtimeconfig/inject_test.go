package runtimeconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testIndex = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <!-- keep </head> in comments alone -->
  <title>demo</title>
</head>
<body><script src="/assets/app.js"></script></body>
</html>
`

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unset", map[string]string{}, DefaultAPIBase},
		{"blank", map[string]string{EnvAPIBase: "  "}, DefaultAPIBase},
		{"set", map[string]string{EnvAPIBase: "https://api.example.com"}, "https://api.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromEnv(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			if got.APIBase != tt.want {
				t.Fatalf("APIBase = %q, want %q", got.APIBase, tt.want)
			}
		})
	}
}

func TestRenderEscapesValue(t *testing.T) {
	got := New(`http://x/"a"`).Script()
	want := `globalThis.RUNTIME_CONFIG = { API_BASE: "http://x/\"a\"" };` + "\n"
	if got != want {
		t.Fatalf("Script() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderShortPlaceholder(t *testing.T) {
	got := New("http://api").Render("window.base='$API_BASE';")
	if got != "window.base='http://api';" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestInjectSynthesizesTemplateAndPatchesIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, IndexFile), testIndex)

	res, err := Inject(InjectOptions{Root: root, Config: New("https://api.example.com")})
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if !res.TemplateSynthesized || !res.ScriptInserted {
		t.Fatalf("unexpected result: %+v", res)
	}

	if got := readFile(t, filepath.Join(root, TemplateFile)); got != DefaultTemplate {
		t.Fatalf("template = %q", got)
	}
	cfg := readFile(t, filepath.Join(root, ConfigFile))
	if !strings.Contains(cfg, `API_BASE: "https://api.example.com"`) {
		t.Fatalf("config.js missing value: %q", cfg)
	}

	index := readFile(t, filepath.Join(root, IndexFile))
	want := strings.Replace(testIndex, "</head>\n<body>", `<script src="/config.js"></script></head>`+"\n<body>", 1)
	if index != want {
		t.Fatalf("index.html =\n%s\nwant\n%s", index, want)
	}
}

func TestInjectIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, IndexFile), testIndex)

	if _, err := Inject(InjectOptions{Root: root}); err != nil {
		t.Fatalf("first Inject: %v", err)
	}
	first := readFile(t, filepath.Join(root, IndexFile))

	res, err := Inject(InjectOptions{Root: root})
	if err != nil {
		t.Fatalf("second Inject: %v", err)
	}
	if res.ScriptInserted || res.TemplateSynthesized {
		t.Fatalf("second run should be a no-op: %+v", res)
	}
	if got := readFile(t, filepath.Join(root, IndexFile)); got != first {
		t.Fatalf("index changed on second run:\n%s", got)
	}
	if n := strings.Count(first, "config.js"); n != 1 {
		t.Fatalf("expected one config.js reference, got %d", n)
	}
}

func TestInjectUsesExistingTemplate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, IndexFile), testIndex)
	writeFile(t, filepath.Join(root, TemplateFile), `globalThis.RUNTIME_CONFIG = { API_BASE: "${API_BASE}", THEME: "dark" };`)

	if _, err := Inject(InjectOptions{Root: root, Config: New("http://svc:9000")}); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	got := readFile(t, filepath.Join(root, ConfigFile))
	want := `globalThis.RUNTIME_CONFIG = { API_BASE: "http://svc:9000", THEME: "dark" };`
	if got != want {
		t.Fatalf("config.js = %q, want %q", got, want)
	}
}

func TestInjectMissingIndexStillWritesConfig(t *testing.T) {
	root := t.TempDir()

	res, err := Inject(InjectOptions{Root: root})
	if err == nil {
		t.Fatal("expected an error for the missing index.html")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if res.ScriptInserted {
		t.Fatal("nothing should have been inserted")
	}
	if got := readFile(t, res.ConfigPath); !strings.Contains(got, DefaultAPIBase) {
		t.Fatalf("config.js should fall back to the default, got %q", got)
	}
}

func TestInsertScriptTag(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		want     string
		inserted bool
		err      error
	}{
		{
			name:     "before closing head",
			doc:      "<html><head><title>x</title></head><body></body></html>",
			want:     `<html><head><title>x</title><script src="/config.js"></script></head><body></body></html>`,
			inserted: true,
		},
		{
			name:     "uppercase head",
			doc:      "<HTML><HEAD></HEAD></HTML>",
			want:     `<HTML><HEAD><script src="/config.js"></script></HEAD></HTML>`,
			inserted: true,
		},
		{
			name:     "ignores head text inside script",
			doc:      `<html><head><script>var s = "</head>";</script></head></html>`,
			want:     `<html><head><script>var s = "</head>";</script><script src="/config.js"></script></head></html>`,
			inserted: true,
		},
		{
			name: "already present with relative src",
			doc:  `<html><head><script src="config.js?v=2"></script></head></html>`,
			want: `<html><head><script src="config.js?v=2"></script></head></html>`,
		},
		{
			name: "no head",
			doc:  "<p>fragment</p>",
			want: "<p>fragment</p>",
			err:  ErrNoHead,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, inserted, err := InsertScriptTag([]byte(tt.doc), ScriptSrc)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if inserted != tt.inserted {
				t.Fatalf("inserted = %v, want %v", inserted, tt.inserted)
			}
			if string(out) != tt.want {
				t.Fatalf("out =\n%s\nwant\n%s", out, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
