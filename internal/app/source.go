package app

import (
	"os"
	"path/filepath"
)

// DirSource serves class and include file text from configured search
// paths, first match wins. It implements classes.Source; the resolver's
// cache keeps repeat lookups off the disk.
type DirSource struct {
	classPaths   []string
	includePaths []string
}

// NewDirSource builds a source over the given directory lists.
func NewDirSource(classPaths, includePaths []string) *DirSource {
	return &DirSource{classPaths: classPaths, includePaths: includePaths}
}

// ClassFile looks up <name>.bbclass in the class paths.
func (s *DirSource) ClassFile(name string) (string, bool) {
	for _, dir := range s.classPaths {
		if text, ok := readFile(filepath.Join(dir, name+".bbclass")); ok {
			return text, true
		}
	}
	return "", false
}

// IncludeFile looks up an include/require target: absolute paths directly,
// relative ones through the include paths then the class paths.
func (s *DirSource) IncludeFile(path string) (string, bool) {
	if filepath.IsAbs(path) {
		return readFile(path)
	}
	for _, dir := range s.includePaths {
		if text, ok := readFile(filepath.Join(dir, path)); ok {
			return text, true
		}
	}
	for _, dir := range s.classPaths {
		if text, ok := readFile(filepath.Join(dir, path)); ok {
			return text, true
		}
	}
	return "", false
}

func readFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
