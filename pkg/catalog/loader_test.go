package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/orders.yaml", definitionYAML("Orders", "/api", "/orders"))
	writeFile(t, dir, "a/users.json.yaml", definitionYAML("Users", "/users", "/"))

	defs, err := NewLoader(nil, nil, nil).LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("loaded %d definitions, want 2", len(defs))
	}
	if defs[0].Info.Title != "Users" || defs[1].Info.Title != "Orders" {
		t.Errorf("order = %s, %s; want lexical path order", defs[0].Info.Title, defs[1].Info.Title)
	}
	if defs[1].SourceFile != filepath.Join(dir, "b/orders.yaml") {
		t.Errorf("SourceFile = %q", defs[1].SourceFile)
	}
}

func TestLoader_FailFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", definitionYAML("A", "/a", "/x"))
	bad := writeFile(t, dir, "b.yaml", malformedYAML)
	writeFile(t, dir, "c.yaml", definitionYAML("C", "/c", "/x"))

	defs, err := NewLoader(nil, nil, nil).LoadDirectory(dir)
	if err == nil {
		t.Fatal("LoadDirectory() should fail on the malformed file")
	}
	if defs != nil {
		t.Errorf("got %d definitions, want none", len(defs))
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T %v, want *ParseError", err, err)
	}
	if pe.FilePath != bad {
		t.Errorf("FilePath = %q, want %q", pe.FilePath, bad)
	}
}

func TestLoader_AttemptsEveryFileByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", definitionYAML("Orders", "/api", "/orders"))
	notes := writeFile(t, dir, "README.txt", "not a definition")

	_, err := NewLoader(nil, nil, nil).LoadDirectory(dir)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.FilePath != notes {
		t.Fatalf("error = %v, want parse error for %s", err, notes)
	}

	cfg := DefaultLoaderConfig()
	cfg.Extensions = []string{".yaml", ".yml", ".json"}
	defs, err := NewLoader(cfg, nil, nil).LoadDirectory(dir)
	if err != nil || len(defs) != 1 {
		t.Fatalf("with extension filter: %d definitions, error %v", len(defs), err)
	}
}

func TestLoader_SkipHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", definitionYAML("Orders", "/api", "/orders"))
	writeFile(t, dir, ".git/config", "[core]")

	cfg := DefaultLoaderConfig()
	cfg.SkipHidden = true
	defs, err := NewLoader(cfg, nil, nil).LoadDirectory(dir)
	if err != nil || len(defs) != 1 {
		t.Fatalf("LoadDirectory() = %d, %v", len(defs), err)
	}
}

func TestLoader_ReadErrors(t *testing.T) {
	l := NewLoader(nil, nil, nil)

	_, err := l.LoadDirectory(filepath.Join(t.TempDir(), "missing"))
	var le *LoadError
	if !errors.As(err, &le) || le.Message != "directory not found" {
		t.Errorf("missing dir error = %v", err)
	}

	file := writeFile(t, t.TempDir(), "x.yaml", "a: b")
	if _, err := l.LoadDirectory(file); !errors.As(err, &le) || le.Message != "not a directory" {
		t.Errorf("file as dir error = %v", err)
	}

	cfg := DefaultLoaderConfig()
	cfg.MaxFileSize = 8
	big := writeFile(t, t.TempDir(), "big.yaml", definitionYAML("Big", "/", "/x"))
	if _, _, err := NewLoader(cfg, nil, nil).LoadFile(big); !errors.As(err, &le) {
		t.Errorf("oversized file error = %v, want *LoadError", err)
	}

	if _, _, err := l.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestLoader_VersionTracksContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders.yaml", definitionYAML("Orders", "/api", "/orders"))
	l := NewLoader(nil, nil, nil)

	first, err := l.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := l.Load(dir)
	if first.Version != again.Version {
		t.Error("version changed without content change")
	}
	writeFile(t, dir, filepath.Base(path), definitionYAML("Orders", "/api", "/orders", "/refunds"))
	changed, _ := l.Load(dir)
	if changed.Version == first.Version {
		t.Error("version did not change with content")
	}
}

func TestLoader_Files(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.yaml", definitionYAML("B", "/b", "/x"))
	a := writeFile(t, dir, "nested/a.yaml", definitionYAML("A", "/a", "/x"))
	writeFile(t, dir, ".hidden.yaml", definitionYAML("H", "/h", "/x"))

	cfg := DefaultLoaderConfig()
	cfg.SkipHidden = true
	files, err := NewLoader(cfg, nil, nil).Files(dir)
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) != 2 || files[0] != b || files[1] != a {
		t.Errorf("Files() = %v, want [%s %s]", files, b, a)
	}
}
