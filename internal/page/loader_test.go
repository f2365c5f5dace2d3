package page

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoad_Stdin verifies stdin input is read and returned as string.
//
// This is the most common mode when piping a rendered page through the command.
func TestLoad_Stdin(t *testing.T) {
	t.Parallel()

	html, err := Load(Input{Stdin: bytes.NewBufferString("<p>x</p>")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if html != "<p>x</p>" {
		t.Fatalf("unexpected html: %q", html)
	}
}

// TestLoad_FileWinsOverStdin verifies Path takes precedence over Stdin.
func TestLoad_FileWinsOverStdin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "p.html", "<p>file</p>")

	html, err := Load(Input{Path: filepath.Join(dir, "p.html"), Stdin: bytes.NewBufferString("stdin")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if html != "<p>file</p>" {
		t.Fatalf("unexpected html: %q", html)
	}
}

// TestLoad_EmptyAndMissing covers nil stdin and a missing file.
func TestLoad_EmptyAndMissing(t *testing.T) {
	t.Parallel()

	html, err := Load(Input{})
	if err != nil || html != "" {
		t.Fatalf("nil stdin: html=%q err=%v", html, err)
	}

	_, err = Load(Input{Path: filepath.Join(t.TempDir(), "nope.html")})
	if err == nil || !strings.Contains(err.Error(), "nope.html") {
		t.Fatalf("missing file: err=%v", err)
	}
}
