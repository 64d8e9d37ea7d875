package packager

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mcexport/internal/fileutil"
)

// ArchivePrefix is the top-level directory inside the archive. Blender
// installs the add-on under this module name.
const ArchivePrefix = "multi_channel_export"

// InitFile must exist at the root of the add-on source tree.
const InitFile = "__init__.py"

var packagedExts = []string{".py", ".txt"}

// Options configures Build.
type Options struct {
	SourceDir string
	DistDir   string
	// Version defaults to the local date as YYYY.M.D without zero padding.
	Version string
	Now     func() time.Time
}

// Result describes a finished build.
type Result struct {
	Path    string
	Version string
	Entries []string
	Size    int64
}

// DefaultVersion formats t the way release archives are named, e.g. 2024.3.7.
func DefaultVersion(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d", t.Year(), int(t.Month()), t.Day())
}

// ArchiveName returns the file name for version.
func ArchiveName(version string) string {
	return ArchivePrefix + "_" + version + ".zip"
}

// Build zips every .py and .txt file under SourceDir into
// DistDir/multi_channel_export_<version>.zip. The archive is written
// atomically so a failed build never leaves a truncated zip behind.
func Build(opts Options) (*Result, error) {
	source := strings.TrimSpace(opts.SourceDir)
	if source == "" {
		return nil, errors.New("add-on source directory is required")
	}
	if strings.TrimSpace(opts.DistDir) == "" {
		return nil, errors.New("dist directory is required")
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		version = DefaultVersion(now())
	}
	if err := validateVersion(version); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(source, InitFile)); err != nil {
		return nil, fmt.Errorf("add-on source %s is missing %s: %w", source, InitFile, err)
	}

	files, err := collectFiles(source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := make([]string, 0, len(files))
	for _, rel := range files {
		name := ArchivePrefix + "/" + filepath.ToSlash(rel)
		if err := addFile(zw, filepath.Join(source, rel), name); err != nil {
			_ = zw.Close()
			return nil, err
		}
		entries = append(entries, name)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	out := filepath.Join(opts.DistDir, ArchiveName(version))
	if err := fileutil.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}
	return &Result{Path: out, Version: version, Entries: entries, Size: int64(buf.Len())}, nil
}

func validateVersion(version string) error {
	if strings.ContainsAny(version, `/\`) || version == "." || version == ".." {
		return fmt.Errorf("invalid version %q: must not contain path separators", version)
	}
	return nil
}

// collectFiles returns packaged files relative to root in lexical order.
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name() == "__pycache__" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !packaged(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk add-on source: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func packaged(name string) bool {
	for _, ext := range packagedExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func addFile(zw *zip.Writer, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ListArchive returns the entry names of a built archive.
func ListArchive(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Latest returns the newest archive in distDir by modification time, or an
// error wrapping fs.ErrNotExist when none was built yet.
func Latest(distDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(distDir, ArchivePrefix+"_*.zip"))
	if err != nil {
		return "", err
	}
	var (
		latest string
		newest time.Time
	)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(newest) {
			latest, newest = match, info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no add-on archive in %s: %w", distDir, fs.ErrNotExist)
	}
	return latest, nil
}
