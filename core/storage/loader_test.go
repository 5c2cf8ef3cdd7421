package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	loader, err := NewDefaultLoader()
	if err != nil {
		t.Fatalf("NewDefaultLoader() error = %v", err)
	}
	defer loader.Close()

	path := writeFile(t, t.TempDir(), "a.go", "package a\n")

	content, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if content != "package a\n" {
		t.Errorf("unexpected content %q", content)
	}

	// Second load returns identical content (possibly cached).
	again, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if again != content {
		t.Error("expected identical content on reload")
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader, err := NewDefaultLoader()
	if err != nil {
		t.Fatalf("NewDefaultLoader() error = %v", err)
	}
	defer loader.Close()

	if _, err := loader.Load(filepath.Join(t.TempDir(), "absent.go")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoader_Load_TooLarge(t *testing.T) {
	loader, err := NewLoader(LoaderConfig{MaxFileBytes: 8})
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	defer loader.Close()

	path := writeFile(t, t.TempDir(), "big.txt", strings.Repeat("x", 64))

	_, err = loader.Load(path)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, "hello"},
		{"", 5, ""},
		// The cut never lands inside a multi-byte rune.
		{"héllo", 2, "h"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
	}
	for _, tt := range tests {
		got := Truncate(tt.s, tt.max)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.s, tt.max)
		}
	}
}

func TestLineWindow(t *testing.T) {
	content := "l0\nl1\nl2\nl3\nl4\nl5"

	tests := []struct {
		name   string
		line   int
		radius int
		want   string
	}{
		{"middle", 2, 1, "l1\nl2\nl3"},
		{"clamped start", 0, 2, "l0\nl1\nl2"},
		{"clamped end", 5, 2, "l3\nl4\nl5"},
		{"zero radius", 3, 0, "l3"},
		{"past end", 99, 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineWindow(content, tt.line, tt.radius); got != tt.want {
				t.Errorf("LineWindow(line=%d, radius=%d) = %q, want %q", tt.line, tt.radius, got, tt.want)
			}
		})
	}
}

func TestLoader_Window(t *testing.T) {
	loader, err := NewDefaultLoader()
	if err != nil {
		t.Fatalf("NewDefaultLoader() error = %v", err)
	}
	defer loader.Close()

	path := writeFile(t, t.TempDir(), "w.txt", "a\nb\nc\nd\ne")

	window, err := loader.Window(path, 2, 2)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if window != "a\nb\nc\nd\ne" {
		t.Errorf("unexpected window %q", window)
	}
}

func TestProjectHash_Stable(t *testing.T) {
	a := ProjectHash("/tmp/project")
	b := ProjectHash("/tmp/project")
	if a != b {
		t.Error("expected stable hash for same path")
	}
	if len(a) != 16 {
		t.Errorf("expected 16-char hash, got %d chars", len(a))
	}
	if a == ProjectHash("/tmp/other") {
		t.Error("expected distinct hashes for distinct paths")
	}
}
