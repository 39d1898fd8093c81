package builder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ownablekit/studio/cid"
	"github.com/ownablekit/studio/compiler"
	studioerr "github.com/ownablekit/studio/errors"
	"github.com/ownablekit/studio/project"
)

var requiredEntries = []string{
	"ownable_bg.wasm",
	"ownable.js",
	"index.html",
	"config.json",
	"instantiate_msg.json",
	"execute_msg.json",
	"query_msg.json",
	"external_event_msg.json",
	"info_response.json",
	"metadata.json",
	"package.json",
	"package-lock.json",
}

func demoProject() *project.Project {
	root := project.NewRoot()
	root.AddFolder("src").AddFile("lib.rs", "// placeholder contract")
	return &project.Project{Name: "demo", Folder: root}
}

func build(t *testing.T, p *project.Project, cfg Config) *Artifact {
	t.Helper()
	art, err := New(compiler.NewSimulated()).Build(context.Background(), p, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return art
}

func TestBuild_DemoScenario(t *testing.T) {
	art := build(t, demoProject(), Config{PackageName: "demo", Version: "0.1.0"})

	if art.Len() != len(requiredEntries) {
		t.Errorf("artifact has %d entries, want %d: %v", art.Len(), len(requiredEntries), art.Names())
	}
	for _, name := range requiredEntries {
		if !art.Has(name) {
			t.Errorf("missing required entry %s", name)
		}
	}
	if art.Filename != "demo-0.1.0.zip" {
		t.Errorf("suggested filename = %q", art.Filename)
	}

	pkg := art.Get("package.json")
	if !bytes.Contains(pkg, []byte(`"name": "ownable-demo"`)) {
		t.Errorf("package.json missing ownable-demo name: %s", pkg)
	}
	if !bytes.Contains(pkg, []byte(`"version": "0.1.0"`)) {
		t.Errorf("package.json missing version: %s", pkg)
	}
	if !bytes.Contains(art.Get("index.html"), []byte(`type="module"`)) {
		t.Error("generated shell must reference ownable.js as a module script")
	}
}

func TestBuild_FlattenInvariant(t *testing.T) {
	p := demoProject()
	assets := p.Folder.AddFolder("assets")
	assets.AddFile("icon.png", "aWNvbg==")
	assets.AddFile("style.css", "body {}")

	art := build(t, p, Config{PackageName: "demo", Version: "0.1.0"})

	for _, name := range art.Names() {
		if strings.Contains(name, "/") {
			t.Errorf("entry %q contains a path separator", name)
		}
	}
	if !art.Has("icon.png") {
		t.Error("nested asset should appear under its base name")
	}
	if got := art.Get("icon.png"); string(got) != "icon" {
		t.Errorf("binary asset not base64-decoded: %q", got)
	}
}

func TestBuild_StructureError(t *testing.T) {
	tests := []struct {
		name string
		p    *project.Project
	}{
		{"nil project", nil},
		{"no folder", &project.Project{Name: "x"}},
		{"no files mapping", &project.Project{Name: "x", Folder: &project.Folder{Name: "", Path: "/"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(compiler.NewSimulated())
			var sawRunning bool
			b.OnStep(func(s Step) {
				if s.Status == StatusRunning {
					sawRunning = true
				}
			})
			_, err := b.Build(context.Background(), tt.p, Config{PackageName: "x", Version: "0.1.0"})
			if !errors.Is(err, studioerr.ErrStructure) {
				t.Fatalf("error = %v, want structure kind", err)
			}
			if sawRunning {
				t.Error("no step may report running before the structure check")
			}
			if b.State() != StateError {
				t.Errorf("state = %v, want error", b.State())
			}
		})
	}
}

func TestBuild_Classification(t *testing.T) {
	root := project.NewRoot()
	root.AddFolder("src").AddFile("contract.rs", "// contract")
	root.AddFolder("assets").AddFile("icon.png", "aWNvbg==")
	root.AddFile("Cargo.toml", "[package]")
	p := &project.Project{Name: "buckets", Folder: root}

	bk := collect(p)
	if len(bk.Sources) != 1 || len(bk.Assets) != 1 || len(bk.Configs) != 1 {
		t.Errorf("classification = %d/%d/%d sources/assets/configs, want 1/1/1",
			len(bk.Sources), len(bk.Assets), len(bk.Configs))
	}
}

func TestCollect_AssetReindexNoDuplicates(t *testing.T) {
	root := project.NewRoot()
	root.AddFolder("src").AddFile("lib.rs", "// lib")
	root.AddFolder("assets").AddFile("icon.png", "aWNvbg==")
	p := &project.Project{
		Name:   "dup",
		Folder: root,
		Assets: project.AssetIndex{Images: []string{"/assets/icon.png", "/assets/missing.png"}},
	}

	bk := collect(p)
	if len(bk.Assets) != 1 {
		t.Errorf("asset re-index duplicated or invented files: %d assets", len(bk.Assets))
	}
}

func TestBuild_StepMonotonicity(t *testing.T) {
	b := New(compiler.NewSimulated())
	last := map[StepID]Status{}
	rank := map[Status]int{StatusPending: 0, StatusRunning: 1, StatusSuccess: 2, StatusError: 2}
	b.OnStep(func(s Step) {
		if prev, ok := last[s.ID]; ok {
			if rank[s.Status] < rank[prev] {
				t.Errorf("step %s regressed %s -> %s", s.ID, prev, s.Status)
			}
		}
		last[s.ID] = s.Status
	})

	if _, err := b.Build(context.Background(), demoProject(), Config{PackageName: "demo", Version: "0.1.0"}); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateSuccess {
		t.Errorf("state = %v, want success", b.State())
	}
}

func TestBuild_CompileFailureStopsPipeline(t *testing.T) {
	root := project.NewRoot()
	root.AddFolder("src").AddFile("lib.rs", "   ") // simulated compiler rejects blank sources
	p := &project.Project{Name: "bad", Folder: root}

	b := New(compiler.NewSimulated())
	statuses := map[StepID]Status{}
	b.OnStep(func(s Step) { statuses[s.ID] = s.Status })

	_, err := b.Build(context.Background(), p, Config{PackageName: "bad", Version: "0.1.0"})
	if !errors.Is(err, studioerr.ErrCompilation) {
		t.Fatalf("error = %v, want compilation kind", err)
	}
	if statuses[StepCollect] != StatusSuccess {
		t.Error("collect should keep its success status")
	}
	if statuses[StepCompile] != StatusError {
		t.Error("compile should be marked error")
	}
	if _, ran := statuses[StepPackage]; ran {
		t.Error("package step must not run after a compile failure")
	}
}

func TestBuild_ProjectSuppliedShellAndConfig(t *testing.T) {
	p := demoProject()
	p.Folder.AddFolder("www").AddFile("index.html", "<html>custom</html>")
	p.Folder.AddFile("config.json", `{"name":"custom"}`)

	art := build(t, p, Config{PackageName: "demo", Version: "0.1.0"})
	if string(art.Get("index.html")) != "<html>custom</html>" {
		t.Error("project-supplied index.html should win over the generated shell")
	}
	if string(art.Get("config.json")) != `{"name":"custom"}` {
		t.Error("project-supplied config.json should win over the generated default")
	}
}

func TestArtifact_VerifyFlatRepairs(t *testing.T) {
	art := NewArtifact()
	art.entries["assets/icon.png"] = []byte("png") // bypass Put to simulate nested leakage
	art.Put("ownable.js", []byte("js"))

	repaired := art.VerifyFlat()
	if len(repaired) != 1 || repaired[0] != "assets/icon.png" {
		t.Errorf("repaired = %v", repaired)
	}
	if !art.Has("icon.png") || art.Has("assets/icon.png") {
		t.Error("nested entry not re-inserted under base name")
	}
}

func TestBuild_DeterministicCID(t *testing.T) {
	cfg := Config{PackageName: "demo", Version: "0.1.0"}

	archive := func() []byte {
		art := build(t, demoProject(), cfg)
		data, err := art.Archive()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	a, err := cid.Compute(archive())
	if err != nil {
		t.Fatal(err)
	}
	b, err := cid.Compute(archive())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("byte-identical builds produced different CIDs: %q vs %q", a, b)
	}
}

func TestBuild_CallbackReplaces(t *testing.T) {
	b := New(compiler.NewSimulated())
	var first, second int
	b.OnLog(func(LogEntry) { first++ })
	b.OnLog(func(LogEntry) { second++ })

	if _, err := b.Build(context.Background(), demoProject(), Config{PackageName: "demo", Version: "0.1.0"}); err != nil {
		t.Fatal(err)
	}
	if first != 0 {
		t.Error("replaced callback must not fire")
	}
	if second == 0 {
		t.Error("active callback should fire")
	}
}
