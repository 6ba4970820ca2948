package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestStore_ReadWrite(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = afero.WriteFile(mem, "/site/catalog.html", []byte("<html></html>\n"), 0o600)
	s := New(mem)

	text, err := s.Read("/site/catalog.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if text != "<html></html>\n" {
		t.Errorf("text = %q", text)
	}

	if err := s.Write("/site/catalog.html", "<html><body/></html>\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _ := afero.ReadFile(mem, "/site/catalog.html")
	if string(data) != "<html><body/></html>\n" {
		t.Errorf("written = %q", data)
	}
	info, _ := mem.Stat("/site/catalog.html")
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestStore_WriteOverwritesShorter(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = afero.WriteFile(mem, "doc.html", []byte("a long original document"), 0o644)
	s := New(mem)

	if err := s.Write("doc.html", "short"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Read("doc.html")
	if got != "short" {
		t.Errorf("got %q, want whole-file overwrite", got)
	}
}

func TestStore_WriteNewFile(t *testing.T) {
	mem := afero.NewMemMapFs()
	s := New(mem)
	if err := s.Write("new.html", "x"); err != nil {
		t.Fatal(err)
	}
	info, err := mem.Stat("new.html")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != defaultMode {
		t.Errorf("mode = %v, want %v", info.Mode().Perm(), defaultMode)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s := New(afero.NewMemMapFs())
	_, err := s.Read("catalog.html")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist: %v", err)
	}
}

func TestStore_WriteDirectory(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = mem.MkdirAll("catalog.html", 0o755)
	if err := New(mem).Write("catalog.html", "x"); err == nil {
		t.Error("expected error writing over a directory")
	}
}

func TestStore_WriteReadOnlyFs(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = afero.WriteFile(mem, "catalog.html", []byte("x"), 0o644)
	s := New(afero.NewReadOnlyFs(mem))
	if _, err := s.Read("catalog.html"); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := s.Write("catalog.html", "y"); err == nil {
		t.Error("expected write failure on a read-only filesystem")
	}
}

func TestStore_OS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.html")
	if err := os.WriteFile(path, []byte("before"), 0o640); err != nil {
		t.Fatal(err)
	}
	s := NewOS()
	if err := s.Write(path, "after"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "after" {
		t.Errorf("data = %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
}
