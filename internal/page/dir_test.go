package page

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const singleBlock = `<div class="picture-link"><div><div><img src="/d.jpg" alt="D"></div></div></div>`

// TestDecorateDir_WritesHTMLFilesOnly verifies only .html/.htm files are
// decorated and written, subdirectories and other files are ignored, and the
// stats cover every page.
func TestDecorateDir_WritesHTMLFilesOnly(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")

	writeFile(t, in, "b.html", singleBlock)
	writeFile(t, in, "a.HTM", `<div class="picture-link"></div>`)
	writeFile(t, in, "notes.txt", singleBlock)
	if err := os.Mkdir(filepath.Join(in, "sub.html"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	stats, err := DecorateDir(in, out, Options{}, zap.NewNop())
	if err != nil {
		t.Fatalf("DecorateDir: %v", err)
	}

	want := Stats{Pages: 2, Blocks: 2, Pictures: 1, Missing: 1}
	if stats != want {
		t.Fatalf("stats=%+v, want %+v", stats, want)
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read out: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "a.HTM,b.html" {
		t.Fatalf("output files=%v", names)
	}

	b, err := os.ReadFile(filepath.Join(out, "b.html"))
	if err != nil {
		t.Fatalf("read b.html: %v", err)
	}
	if !strings.Contains(string(b), `<picture><img src="/d.jpg" alt="D" loading="lazy"/></picture>`) {
		t.Fatalf("b.html not decorated: %s", b)
	}
}

// TestDecorateDir_UnreadableFileIsSkipped verifies a file that cannot be read
// is logged and skipped while the rest of the directory is still processed.
func TestDecorateDir_UnreadableFileIsSkipped(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("root can read mode 000 files")
	}

	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, in, "bad.html", singleBlock)
	writeFile(t, in, "good.html", singleBlock)
	if err := os.Chmod(filepath.Join(in, "bad.html"), 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	stats, err := DecorateDir(in, out, Options{}, zap.New(core))
	if err != nil {
		t.Fatalf("DecorateDir: %v", err)
	}
	if stats.Pages != 1 {
		t.Fatalf("pages=%d, want 1", stats.Pages)
	}

	skipped := logs.FilterMessage("Skipping unreadable page").All()
	if len(skipped) != 1 {
		t.Fatalf("warnings=%d, want 1", len(skipped))
	}
	if got := skipped[0].ContextMap()["file"]; got != "bad.html" {
		t.Fatalf("warned file=%v", got)
	}
}

// TestDecorateDir_NaturalOrder verifies numbered pages are processed in
// natural order rather than byte order.
func TestDecorateDir_NaturalOrder(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	for _, name := range []string{"page10.html", "page2.html", "page1.html"} {
		writeFile(t, in, name, singleBlock)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	if _, err := DecorateDir(in, t.TempDir(), Options{}, zap.New(core)); err != nil {
		t.Fatalf("DecorateDir: %v", err)
	}

	var order []string
	for _, e := range logs.FilterMessage("Decorated page").All() {
		order = append(order, e.ContextMap()["file"].(string))
	}
	if got := strings.Join(order, ","); got != "page1.html,page2.html,page10.html" {
		t.Fatalf("order=%s", got)
	}
}

// TestDecorateDir_Errors covers the fail-fast paths.
func TestDecorateDir_Errors(t *testing.T) {
	t.Parallel()

	if _, err := DecorateDir(filepath.Join(t.TempDir(), "missing"), t.TempDir(), Options{}, nil); err == nil ||
		!strings.Contains(err.Error(), "read dir") {
		t.Fatalf("missing dir: err=%v", err)
	}

	if _, err := DecorateDir(t.TempDir(), t.TempDir(), Options{Selector: "div[["}, nil); err == nil ||
		!strings.Contains(err.Error(), "compile selector") {
		t.Fatalf("bad selector: err=%v", err)
	}
}
