package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	blender := writeStub(t, "blender")

	tests := []struct {
		name      string
		req       Requirement
		available bool
		path      string
		detail    string
	}{
		{name: "present", req: Requirement{Name: "Blender", Command: blender}, available: true, path: blender},
		{name: "missing", req: Requirement{Name: "Ghost", Command: "mcexport-no-such-binary"}, detail: `binary "mcexport-no-such-binary" not found`},
		{name: "blank", req: Requirement{Name: "Unset", Command: "  ", Optional: true}, detail: "command not configured"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckBinaries([]Requirement{tc.req})
			if len(got) != 1 {
				t.Fatalf("expected one status, got %d", len(got))
			}
			st := got[0]
			if st.Available != tc.available || st.Path != tc.path || st.Detail != tc.detail {
				t.Fatalf("unexpected status %+v", st)
			}
		})
	}
}

func TestMissingRequiredSkipsOptional(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Blender", Command: writeStub(t, "blender")},
		{Name: "Ghost", Command: "mcexport-no-such-binary"},
		{Name: "Extra", Command: "mcexport-no-such-extra", Optional: true},
	})
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0].Name != "Ghost" {
		t.Fatalf("MissingRequired = %+v", missing)
	}
}
