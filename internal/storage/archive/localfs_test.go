package archive

import (
	"context"
	"errors"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`[{"id":1}]`)

	if err := fs.Write(ctx, "signals/2026/01/02/BTCUSDT.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "signals/2026/01/02/BTCUSDT.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	if _, err := fs.Read(context.Background(), "nope.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalFS_RejectsEscapingPaths(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	if err := fs.Write(context.Background(), "../outside.json", []byte("x")); err == nil {
		t.Error("expected error for path outside base directory")
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.json")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.json", []byte("[]"))
	exists, _ = fs.Exists(ctx, "exists.json")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "signals/2026/01/02/BTCUSDT.json", []byte("a"))
	fs.Write(ctx, "signals/2026/01/02/ETHUSDT.json", []byte("b"))
	fs.Write(ctx, "signals/2026/01/03/BTCUSDT.json", []byte("c"))

	paths, err := fs.List(ctx, "signals/2026/01/02")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"signals/2026/01/02/BTCUSDT.json", "signals/2026/01/02/ETHUSDT.json"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	empty, err := fs.List(ctx, "signals/1999")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty listing, got %v, %v", empty, err)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "delete.json", []byte("[]"))
	if err := fs.Delete(ctx, "delete.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if exists, _ := fs.Exists(ctx, "delete.json"); exists {
		t.Error("file should be deleted")
	}
	if err := fs.Delete(ctx, "delete.json"); err != nil {
		t.Errorf("deleting a missing file should succeed, got %v", err)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(Config{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected *LocalFS, got %T", s)
	}

	if _, err := New(Config{Type: "tape"}); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := New(Config{Type: "s3"}); err == nil {
		t.Error("expected error for s3 without bucket")
	}
}
