package project

import (
	"sort"
	"strings"
	"time"

	"github.com/ownablekit/studio/errors"
)

// Project is a named unit of work: contract sources, assets, and config
// that compiles into an ownable package. The build pipeline only reads
// it; ownership stays with the persistence layer.
type Project struct {
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	MainContract string     `json:"mainContract,omitempty"`
	Assets       AssetIndex `json:"assets"`
	Folder       *Folder    `json:"folder"`
}

// AssetIndex lists asset paths by category. Paths may reference files
// anywhere in the folder tree; the collect step re-resolves them
// defensively.
type AssetIndex struct {
	Images []string `json:"images,omitempty"`
	Models []string `json:"models,omitempty"`
	Other  []string `json:"other,omitempty"`
}

// All returns every indexed asset path.
func (a AssetIndex) All() []string {
	out := make([]string, 0, len(a.Images)+len(a.Models)+len(a.Other))
	out = append(out, a.Images...)
	out = append(out, a.Models...)
	out = append(out, a.Other...)
	return out
}

// Folder is one node of the project tree. Path is canonical: leading
// "/" at the root, trailing "/" on every interior node. A path resolves
// to exactly one node; the tree is never re-entrant.
type Folder struct {
	Name    string             `json:"name"`
	Path    string             `json:"path"`
	Files   map[string]*File   `json:"files"`
	Folders map[string]*Folder `json:"folders"`
}

// File is a leaf of the project tree. Content is UTF-8 text, a base64
// payload, or a data-URL depending on the declared type's encoding
// category.
type File struct {
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Type         Type      `json:"type"`
	Path         string    `json:"path"`
	LastModified time.Time `json:"lastModified,omitzero"`
}

// NewFolder creates an empty folder with a canonical path.
func NewFolder(name, path string) *Folder {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return &Folder{
		Name:    name,
		Path:    path,
		Files:   map[string]*File{},
		Folders: map[string]*Folder{},
	}
}

// NewRoot creates the root folder at "/".
func NewRoot() *Folder {
	return NewFolder("", "/")
}

// AddFile inserts a file into this folder, deriving its full path.
func (f *Folder) AddFile(name, content string) *File {
	file := &File{
		Name:    name,
		Content: content,
		Type:    TypeOf(name),
		Path:    f.Path + name,
	}
	f.Files[name] = file
	return file
}

// AddFolder inserts a child folder, creating it if absent.
func (f *Folder) AddFolder(name string) *Folder {
	if child, ok := f.Folders[name]; ok {
		return child
	}
	child := NewFolder(name, f.Path+name+"/")
	f.Folders[name] = child
	return child
}

// Mkdir descends to (creating as needed) the folder at path, which is
// interpreted relative to f.
func (f *Folder) Mkdir(path string) *Folder {
	node := f
	for _, seg := range segments(path) {
		node = node.AddFolder(seg)
	}
	return node
}

// Resolve finds the file at path by splitting on "/" and descending.
func (f *Folder) Resolve(path string) (*File, error) {
	segs := segments(path)
	if len(segs) == 0 {
		return nil, errors.NotFound(errors.PhaseCollect, "file", path)
	}
	node := f
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node.Folders[seg]
		if !ok {
			return nil, errors.NotFound(errors.PhaseCollect, "file", path)
		}
		node = child
	}
	file, ok := node.Files[segs[len(segs)-1]]
	if !ok {
		return nil, errors.NotFound(errors.PhaseCollect, "file", path)
	}
	return file, nil
}

// Walk visits every file in the tree in deterministic order: the files
// of each folder sorted by name, then child folders sorted by name.
// Returning a non-nil error from fn stops the walk.
func (f *Folder) Walk(fn func(*File) error) error {
	for _, name := range sortedKeys(f.Files) {
		if err := fn(f.Files[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(f.Folders) {
		if err := f.Folders[name].Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// FileCount returns the number of files in the tree.
func (f *Folder) FileCount() int {
	n := len(f.Files)
	for _, child := range f.Folders {
		n += child.FileCount()
	}
	return n
}

// Find returns the first file (in walk order) for which match returns
// true, or nil.
func (f *Folder) Find(match func(*File) bool) *File {
	var found *File
	_ = f.Walk(func(file *File) error {
		if match(file) {
			found = file
			return errStop
		}
		return nil
	})
	return found
}

var errStop = errors.InvalidInput(errors.PhaseCollect, "stop")

func segments(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
