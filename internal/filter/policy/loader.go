package policy

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ReadModules collects the Rego sources under dir, including nested
// directories, keyed by slash-separated path relative to dir. Rego unit
// tests (*_test.rego) and dot-prefixed entries are skipped.
func ReadModules(dir string) (map[string]string, error) {
	return readModules(os.DirFS(dir), dir)
}

func readModules(fsys fs.FS, root string) (map[string]string, error) {
	modules := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != "." && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isPolicyModule(name) {
			return nil
		}

		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Join(root, path), err)
		}
		modules[path] = string(src)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func isPolicyModule(name string) bool {
	return filepath.Ext(name) == ".rego" && !strings.HasSuffix(name, "_test.rego")
}
