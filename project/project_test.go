package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	studioerr "github.com/ownablekit/studio/errors"
)

func buildTree() *Folder {
	root := NewRoot()
	src := root.AddFolder("src")
	src.AddFile("contract.rs", "// contract")
	src.AddFile("state.rs", "// state")
	assets := root.AddFolder("assets")
	assets.AddFile("icon.png", "aWNvbg==")
	root.AddFile("Cargo.toml", "[package]")
	return root
}

func TestFolder_Paths(t *testing.T) {
	root := buildTree()

	if root.Path != "/" {
		t.Errorf("root path = %q, want /", root.Path)
	}
	if got := root.Folders["src"].Path; got != "/src/" {
		t.Errorf("src path = %q, want /src/", got)
	}
	if got := root.Folders["src"].Files["contract.rs"].Path; got != "/src/contract.rs" {
		t.Errorf("file path = %q, want /src/contract.rs", got)
	}
}

func TestFolder_Resolve(t *testing.T) {
	root := buildTree()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/src/contract.rs", false},
		{"src/contract.rs", false},
		{"/Cargo.toml", false},
		{"/assets/icon.png", false},
		{"/src/missing.rs", true},
		{"/nope/contract.rs", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			file, err := root.Resolve(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, studioerr.ErrNotFound) {
					t.Errorf("error kind = %v, want not_found", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.path, err)
			}
			if file == nil {
				t.Fatal("nil file")
			}
		})
	}
}

func TestFolder_WalkDeterministic(t *testing.T) {
	root := buildTree()

	var first []string
	if err := root.Walk(func(f *File) error {
		first = append(first, f.Path)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{"/Cargo.toml", "/assets/icon.png", "/src/contract.rs", "/src/state.rs"}
	if len(first) != len(want) {
		t.Fatalf("walked %d files, want %d", len(first), len(want))
	}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("walk[%d] = %q, want %q", i, first[i], want[i])
		}
	}

	if got := root.FileCount(); got != 4 {
		t.Errorf("FileCount = %d, want 4", got)
	}
}

func TestFolder_Find(t *testing.T) {
	root := buildTree()
	f := root.Find(func(f *File) bool { return f.Type == TypePNG })
	if f == nil || f.Name != "icon.png" {
		t.Fatalf("Find PNG = %v", f)
	}
	if root.Find(func(f *File) bool { return f.Type == TypeWASM }) != nil {
		t.Error("Find should return nil when nothing matches")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"lib.rs", TypeRust},
		{"Cargo.toml", TypeToml},
		{"Cargo.lock", TypeLock},
		{"index.html", TypeHTML},
		{"photo.JPEG", TypeJPG},
		{"model.glb", TypeGLB},
		{"LICENSE", TypeUnknown},
		{"archive.tar.gz", TypeUnknown},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.name); got != tt.want {
			t.Errorf("TypeOf(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if !TypeWASM.Binary() {
		t.Error("wasm should be binary")
	}
	if TypeRust.Binary() {
		t.Error("rs should be text")
	}
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"Cargo.toml":      "[package]\nname = \"demo\"",
		"src/lib.rs":      "// lib",
		"assets/icon.png": "\x89PNG",
		".git/config":     "ignored",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	p, err := FromDir("demo", dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.Folder.FileCount() != 3 {
		t.Errorf("FileCount = %d, want 3 (hidden dirs skipped)", p.Folder.FileCount())
	}
	if _, err := p.Folder.Resolve("/src/lib.rs"); err != nil {
		t.Errorf("lib.rs not loaded: %v", err)
	}
	if len(p.Assets.Images) != 1 || p.Assets.Images[0] != "/assets/icon.png" {
		t.Errorf("asset index = %v", p.Assets.Images)
	}
	icon, err := p.Folder.Resolve("/assets/icon.png")
	if err != nil {
		t.Fatal(err)
	}
	if icon.Content == "\x89PNG" {
		t.Error("binary content should be base64-encoded")
	}
}
