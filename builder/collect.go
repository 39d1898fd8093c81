package builder

import (
	"strings"

	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/project"
)

// buckets holds the collect step's classification. Every project file
// lands in exactly one bucket.
type buckets struct {
	Sources []compiler.Source
	Configs []*project.File
	Assets  []*project.File

	seen map[string]bool // by path, guards the defensive re-index
}

func newBuckets() *buckets {
	return &buckets{seen: map[string]bool{}}
}

// add classifies one file. Classification is exhaustive and mutually
// exclusive: contract sources, declared config (Cargo.toml, Cargo.lock,
// any *.json), else generic asset.
func (b *buckets) add(f *project.File) {
	if b.seen[f.Path] {
		return
	}
	b.seen[f.Path] = true

	switch {
	case f.Type == project.TypeRust:
		b.Sources = append(b.Sources, compiler.Source{
			Name:    f.Name,
			Path:    f.Path,
			Content: f.Content,
		})
	case f.Name == "Cargo.toml" || f.Name == "Cargo.lock" || strings.HasSuffix(f.Name, ".json"):
		b.Configs = append(b.Configs, f)
	default:
		b.Assets = append(b.Assets, f)
	}
}

// collect walks the whole tree, then re-resolves every path in the
// project's asset index that the walk did not capture. Files already
// present by path are never duplicated.
func collect(p *project.Project) *buckets {
	b := newBuckets()
	_ = p.Folder.Walk(func(f *project.File) error {
		b.add(f)
		return nil
	})
	for _, path := range p.Assets.All() {
		if b.seen[path] {
			continue
		}
		if f, err := p.Folder.Resolve(path); err == nil {
			b.add(f)
		}
	}
	return b
}

// findConfig returns the project-supplied file with the given name, if
// the collect step saw one.
func (b *buckets) findConfig(name string) *project.File {
	for _, f := range b.Configs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
