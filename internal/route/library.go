// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package route

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library is the documents directory holding the user's GPX files.
type Library struct {
	Dir string
}

// NewLibrary returns a Library rooted at dir, creating the directory if
// needed.
func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Library{Dir: dir}, nil
}

// List returns the names of all .gpx files in the library, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".gpx") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Path returns the absolute location of name inside the library. Names
// that would escape the directory are rejected.
func (l *Library) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid route name %q", name)
	}
	return filepath.Join(l.Dir, name), nil
}

// Load reads the named file. Failures yield an empty Track.
func (l *Library) Load(name string) Track {
	p, err := l.Path(name)
	if err != nil {
		log.Printf("route: %v", err)
		return Track{Name: name}
	}
	t := Load(p)
	t.Name = name
	return t
}

// Import stores the contents of r as name in the library, replacing any
// existing file of that name.
func (l *Library) Import(name string, r io.Reader) error {
	p, err := l.Path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(l.Dir, ".import-*")
	if err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("import %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	log.Printf("route: imported %s", name)
	return nil
}

// CopyBundled copies the named sample routes from srcDir into the library.
// Missing sources and copy errors are logged and skipped.
func (l *Library) CopyBundled(srcDir string, names []string) {
	for _, name := range names {
		src := filepath.Join(srcDir, name)
		f, err := os.Open(src)
		if err != nil {
			log.Printf("route: bundled route %s not copied: %v", name, err)
			continue
		}
		err = l.Import(name, f)
		f.Close()
		if err != nil {
			log.Printf("route: bundled route %s not copied: %v", name, err)
		}
	}
}
