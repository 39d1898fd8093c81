package project

import (
	"encoding/base64"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ownablekit/studio/errors"
)

// FromDir loads a project from a directory on disk. Binary files are
// base64-encoded per their type's encoding category. Hidden entries and
// build output directories are skipped.
func FromDir(name, dir string) (*Project, error) {
	root := NewRoot()
	p := &Project{Name: name, Folder: root}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		base := d.Name()
		if base[0] == '.' || base == "target" || base == "node_modules" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			root.Mkdir(rel)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		parent := root
		if filepath.Dir(rel) != "." {
			parent = root.Mkdir(filepath.ToSlash(filepath.Dir(rel)))
		}
		content := string(data)
		if TypeOf(base).Binary() {
			content = base64.StdEncoding.EncodeToString(data)
		}
		file := parent.AddFile(base, content)
		if info, err := d.Info(); err == nil {
			file.LastModified = info.ModTime()
		}
		switch file.Type {
		case TypePNG, TypeJPG, TypeGIF, TypeSVG, TypeWebP:
			p.Assets.Images = append(p.Assets.Images, file.Path)
		case TypeGLB, TypeGLTF:
			p.Assets.Models = append(p.Assets.Models, file.Path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.IO(errors.PhaseCollect, err, "read project directory")
	}
	return p, nil
}
