package ioin

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLocalBackendListPlainGlob(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "a.txt", "a")
	writeTemp(t, dir, "b.txt", "b")
	writeTemp(t, dir, "c.csv", "c")

	matches, err := LocalBackend{}.List(context.Background(), filepath.Join(dir, "*.txt"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %v", len(matches), matches)
	}
}

func TestLocalBackendListDoubleStarGlob(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "sub1/x.txt", "x")
	writeTemp(t, dir, "sub2/deep/y.txt", "y")
	writeTemp(t, dir, "sub2/deep/z.csv", "z")

	matches, err := LocalBackend{}.List(context.Background(), filepath.Join(dir, "**", "*.txt"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %v", len(matches), matches)
	}
}

func TestLocalBackendOpenAndSize(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "f.txt", "hello world")

	size, err := LocalBackend{}.Size(context.Background(), path)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len("hello world")) {
		t.Errorf("Size = %d, want %d", size, len("hello world"))
	}

	rc, err := LocalBackend{}.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	buf := make([]byte, size)
	if _, err := rc.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "hello world" {
		t.Errorf("content = %q", buf)
	}
}

func TestLocalBackendSizeMissingFile(t *testing.T) {
	if _, err := (LocalBackend{}).Size(context.Background(), "/no/such/file"); err == nil {
		t.Error("expected error for missing file")
	}
}

type stubBackend struct{ scheme string }

func (s stubBackend) Scheme() string { return s.scheme }
func (s stubBackend) List(context.Context, string) ([]string, error) { return nil, nil }
func (s stubBackend) Open(context.Context, string) (io.ReadCloser, error) { return nil, nil }
func (s stubBackend) Size(context.Context, string) (int64, error) { return -1, nil }

func TestRegistryResolveRecognizedScheme(t *testing.T) {
	reg := NewRegistry(LocalBackend{})
	s3 := stubBackend{scheme: "s3"}
	reg.Register(s3)

	b, path := reg.Resolve("s3://bucket/prefix/*.txt")
	if b != Backend(s3) {
		t.Errorf("Resolve returned wrong backend")
	}
	if path != "bucket/prefix/*.txt" {
		t.Errorf("path = %q, want stripped scheme", path)
	}
}

func TestRegistryResolveFallsBackToLocal(t *testing.T) {
	reg := NewRegistry(LocalBackend{})
	b, path := reg.Resolve("/data/*.txt")
	if _, ok := b.(LocalBackend); !ok {
		t.Errorf("expected LocalBackend fallback, got %T", b)
	}
	if path != "/data/*.txt" {
		t.Errorf("path = %q, want unchanged", path)
	}
}
