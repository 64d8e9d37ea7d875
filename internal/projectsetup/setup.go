package projectsetup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Directories are created in order before any placeholder file.
var Directories = []string{
	"addon",
	"addon/operators",
	"addon/panels",
	"server",
	"tests",
	"dist",
}

// Files are empty placeholders awaiting the add-on sources.
var Files = []string{
	"addon/__init__.py",
	"addon/operators/__init__.py",
	"addon/operators/setup.py",
	"addon/operators/render.py",
	"addon/panels/__init__.py",
	"addon/panels/export_panel.py",
	"server/process_queue.py",
	"tests/test_load_addon.py",
	"build.py",
	"requirements.txt",
}

// Result lists what Init touched, relative to the project root.
type Result struct {
	Root     string
	Created  []string
	Existing []string
}

// Init creates the project tree under root. Existing files keep their
// content. The first failure aborts the run and is returned together with
// the partial result.
func Init(root string) (*Result, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	res := &Result{Root: abs}

	for _, dir := range Directories {
		path := filepath.Join(abs, filepath.FromSlash(dir))
		existed, err := isDir(path)
		if err != nil {
			return res, err
		}
		if existed {
			res.Existing = append(res.Existing, dir+"/")
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", dir, err)
		}
		res.Created = append(res.Created, dir+"/")
	}

	for _, file := range Files {
		created, err := touch(filepath.Join(abs, filepath.FromSlash(file)))
		if err != nil {
			return res, fmt.Errorf("create %s: %w", file, err)
		}
		if created {
			res.Created = append(res.Created, file)
		} else {
			res.Existing = append(res.Existing, file)
		}
	}
	return res, nil
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s exists and is not a directory", path)
	}
	return true, nil
}

// touch creates path when missing and reports whether it did.
func touch(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			info, statErr := os.Stat(path)
			if statErr != nil {
				return false, statErr
			}
			if info.IsDir() {
				return false, fmt.Errorf("%s is a directory", path)
			}
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}
