package packager_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mcexport/internal/packager"
)

const sampleInit = `bl_info = {
    "name": "Multi-Channel Export Pipeline",
    "author": "Your Name",
    "version": (1, 0),
    "blender": (3, 0, 0),
    "location": "View3D > Sidebar > Export Tab",
    "category": "Import-Export",
}

import bpy
`

func writeSource(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestBuildPackagesPythonAndTextFiles(t *testing.T) {
	src := t.TempDir()
	dist := filepath.Join(t.TempDir(), "dist")
	writeSource(t, src, map[string]string{
		"__init__.py":             sampleInit,
		"operators/setup.py":      "# setup",
		"panels/export_panel.py":  "# panel",
		"README.txt":              "readme",
		"notes.md":                "skip me",
		"__pycache__/setup.pyc":   "bytecode",
		"operators/render.py.bak": "backup",
	})

	res, err := packager.Build(packager.Options{
		SourceDir: src,
		DistDir:   dist,
		Now:       func() time.Time { return time.Date(2024, time.March, 7, 12, 0, 0, 0, time.Local) },
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Version != "2024.3.7" {
		t.Fatalf("expected unpadded date version, got %q", res.Version)
	}
	if want := filepath.Join(dist, "multi_channel_export_2024.3.7.zip"); res.Path != want {
		t.Fatalf("archive path = %q, want %q", res.Path, want)
	}

	names, err := packager.ListArchive(res.Path)
	if err != nil {
		t.Fatalf("ListArchive: %v", err)
	}
	want := []string{
		"multi_channel_export/README.txt",
		"multi_channel_export/__init__.py",
		"multi_channel_export/operators/setup.py",
		"multi_channel_export/panels/export_panel.py",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("archive entries = %v, want %v", names, want)
	}
	if !reflect.DeepEqual(res.Entries, want) {
		t.Fatalf("result entries = %v, want %v", res.Entries, want)
	}
	info, err := os.Stat(res.Path)
	if err != nil {
		t.Fatalf("stat archive: %v", err)
	}
	if info.Size() != res.Size {
		t.Fatalf("size mismatch: file %d, result %d", info.Size(), res.Size)
	}

	latest, err := packager.Latest(dist)
	if err != nil || latest != res.Path {
		t.Fatalf("Latest = %q, %v", latest, err)
	}
}

func TestBuildValidation(t *testing.T) {
	src := t.TempDir()
	dist := t.TempDir()
	writeSource(t, src, map[string]string{"__init__.py": sampleInit})

	tests := []struct {
		name string
		opts packager.Options
	}{
		{name: "slash in version", opts: packager.Options{SourceDir: src, DistDir: dist, Version: "1/2"}},
		{name: "backslash in version", opts: packager.Options{SourceDir: src, DistDir: dist, Version: `1\2`}},
		{name: "missing init", opts: packager.Options{SourceDir: t.TempDir(), DistDir: dist, Version: "1.0"}},
		{name: "missing source", opts: packager.Options{DistDir: dist}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := packager.Build(tc.opts); err == nil {
				t.Fatal("expected Build to fail")
			}
		})
	}

	res, err := packager.Build(packager.Options{SourceDir: src, DistDir: dist, Version: "2.1-rc1"})
	if err != nil {
		t.Fatalf("Build with explicit version: %v", err)
	}
	if filepath.Base(res.Path) != "multi_channel_export_2.1-rc1.zip" {
		t.Fatalf("unexpected archive name %s", res.Path)
	}
}

func TestLatestWithoutArchives(t *testing.T) {
	if _, err := packager.Latest(t.TempDir()); err == nil {
		t.Fatal("expected error for empty dist dir")
	}
}

func TestParseBLInfo(t *testing.T) {
	info, err := packager.ParseBLInfo(sampleInit)
	if err != nil {
		t.Fatalf("ParseBLInfo: %v", err)
	}
	if info.Name != "Multi-Channel Export Pipeline" {
		t.Fatalf("name = %q", info.Name)
	}
	if packager.JoinVersion(info.Version) != "1.0" || packager.JoinVersion(info.Blender) != "3.0.0" {
		t.Fatalf("unexpected versions %v %v", info.Version, info.Blender)
	}

	if _, err := packager.ParseBLInfo("import bpy\n"); err == nil {
		t.Fatal("expected missing bl_info to fail")
	}
	if got := packager.JoinVersion(nil); got != "unknown" {
		t.Fatalf("JoinVersion(nil) = %q", got)
	}
}
