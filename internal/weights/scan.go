package weights

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a weight artifact found on disk.
type File struct {
	Name string
	Path string
	Size int64
}

// Scan lists the files in dir whose extension is one of exts (case
// insensitive, with the dot). Subdirectories are not descended. An empty
// exts matches every regular file.
func Scan(dir string, exts ...string) ([]File, error) {
	base, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}
	var files []File
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if len(want) > 0 && !want[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: name, Path: filepath.Join(abs, name), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
