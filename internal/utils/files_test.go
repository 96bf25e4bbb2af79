package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SafeWriteFile(path, []byte("a: 1\n")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := SafeWriteFile(path, []byte("a: 2\n")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "a: 2\n" {
		t.Fatalf("unexpected content: %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSafeWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.yaml")
	if err := SafeWriteFile(path, []byte("x")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]any{"answer": "42"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"answer\": \"42\"\n}" {
		t.Fatalf("unexpected json: %s", b)
	}
	if _, err := PrettyJSON(make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}
