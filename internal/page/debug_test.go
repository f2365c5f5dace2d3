package page

import (
	"bytes"
	"testing"
)

// TestDebugPrintRows verifies every block's slots are printed in order and
// the page itself is left alone.
func TestDebugPrintRows(t *testing.T) {
	t.Parallel()

	src := `<div class="picture-link">` +
		`<div><div><img src="/d.jpg" alt="Dog"></div></div>` +
		`<div><div></div></div>` +
		`<div><div>A cat</div></div>` +
		`<div><div><a href="https://x" title="Go">Go</a></div></div>` +
		`<div><div>_blank</div></div>` +
		`</div>` +
		`<div class="picture-link"></div>`

	var buf bytes.Buffer
	if err := DebugPrintRows(&buf, src, ""); err != nil {
		t.Fatalf("DebugPrintRows: %v", err)
	}

	want := "block 1:\n" +
		"  desktop: /d.jpg (alt \"Dog\")\n" +
		"  mobile:  -\n" +
		"  alt:     \"A cat\"\n" +
		"  link:    \"https://x\" (title \"Go\")\n" +
		"  target:  _blank\n" +
		"\n" +
		"block 2:\n" +
		"  desktop: -\n" +
		"  mobile:  -\n" +
		"  alt:     \"\"\n" +
		"  link:    -\n" +
		"  target:  _self\n" +
		"\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\nwant=%q\ngot =%q", want, buf.String())
	}
}

// TestDebugPrintRows_InvalidSelector verifies selector errors surface.
func TestDebugPrintRows_InvalidSelector(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := DebugPrintRows(&buf, `<p></p>`, "a[["); err == nil {
		t.Fatalf("expected error")
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
