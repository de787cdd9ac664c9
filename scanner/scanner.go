package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path string
	Size int64
}

// Scanner collects the source files of a directory tree.
type Scanner struct {
	rootDir  string
	suffixes []string
	excluded map[string]bool
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// New returns a scanner for files under rootDir whose names end in one of
// suffixes. Suffixes may span several dots, such as ".dsl.js".
func New(rootDir string, suffixes ...string) *Scanner {
	return &Scanner{
		rootDir:  rootDir,
		suffixes: suffixes,
		excluded: make(map[string]bool),
	}
}

// Exclude skips the given directories, typically an output directory that
// lives inside the source tree.
func (s *Scanner) Exclude(dirs ...string) *Scanner {
	for _, dir := range dirs {
		if abs, err := filepath.Abs(dir); err == nil {
			s.excluded[abs] = true
		}
	}
	return s
}

// Scan walks the tree and returns matching files sorted by path.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != s.rootDir && s.skip(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.isTargetFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func (s *Scanner) skip(path, name string) bool {
	if skipDirs[name] {
		return true
	}
	abs, err := filepath.Abs(path)
	return err == nil && s.excluded[abs]
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.suffixes) == 0 {
		return true
	}

	name := filepath.Base(path)
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(name, suffix) && name != suffix {
			return true
		}
	}
	return false
}
