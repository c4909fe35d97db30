package indexer

import (
	"os"
	"path/filepath"
	"sort"
)

// supportedExtensions is the exact, closed set of file extensions the
// crawler will include (without the leading dot).
var supportedExtensions = map[string]struct{}{
	"rs": {}, "tsx": {}, "ts": {}, "jsx": {}, "js": {}, "md": {}, "toml": {},
	"json": {}, "css": {}, "kt": {}, "kts": {}, "java": {}, "py": {}, "go": {},
	"yaml": {}, "yml": {},
}

// ignoredDirs is the exact, closed set of directory leaf names the crawler
// never descends into.
var ignoredDirs = map[string]struct{}{
	"target": {}, "node_modules": {}, ".git": {}, ".venv": {}, ".mypy_cache": {},
	".pytest_cache": {}, ".ruff_cache": {}, "dist": {}, ".next": {}, ".vite": {},
	"build": {}, ".gradle": {}, ".idea": {}, "out": {},
}

// crawlDirectory recursively walks root, returning a lexicographically
// sorted list of absolute paths to every file with a supported extension,
// skipping any directory whose leaf name is in the ignore set.
func crawlDirectory(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	if err := crawlRecursive(absRoot, &files); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func crawlRecursive(dir string, files *[]string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	if _, ignored := ignoredDirs[filepath.Base(dir)]; ignored {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := crawlRecursive(path, files); err != nil {
				return err
			}
			continue
		}
		if isSupportedFile(path) {
			*files = append(*files, path)
		}
	}
	return nil
}

func isSupportedFile(path string) bool {
	ext := filepath.Ext(path)
	if len(ext) == 0 {
		return false
	}
	_, ok := supportedExtensions[ext[1:]]
	return ok
}
