package importer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverRecordFiles walks a directory tree and returns every
// .jsonl file, sorted by path for deterministic import order.
// A missing or unreadable directory yields no files.
func DiscoverRecordFiles(root string) []string {
	if root == "" {
		return nil
	}
	var files []string
	_ = filepath.WalkDir(root,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip inaccessible entries
			}
			if d.IsDir() {
				return nil
			}
			if strings.HasSuffix(path, ".jsonl") {
				files = append(files, path)
			}
			return nil
		})
	sort.Strings(files)
	return files
}
