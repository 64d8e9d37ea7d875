package blender_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"mcexport/internal/services"
	"mcexport/internal/services/blender"
)

type line struct {
	stream blender.Stream
	text   string
}

type stubExecutor struct {
	lines  []line
	err    error
	binary string
	args   [][]string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onLine func(blender.Stream, string)) error {
	s.binary = binary
	s.args = append(s.args, append([]string(nil), args...))
	for _, l := range s.lines {
		onLine(l.stream, l.text)
	}
	return s.err
}

func TestRenderBuildsArgsAndTracksProgress(t *testing.T) {
	exec := &stubExecutor{lines: []line{
		{blender.Stdout, "Blender 4.2.1 LTS (hash abc built 2024-08-19)"},
		{blender.Stdout, "Info: Rendering MobileScene..."},
		{blender.Stdout, "Fra:1 Mem:19.47M (Peak 19.47M) | Time:00:00.06 | Syncing Cube"},
		{blender.Stdout, "Saved: '/out/shot/shot_Output/MobileFrames/shot_0001.exr'"},
		{blender.Stdout, " Time: 00:01.50 (Saving: 00:00.10)"},
		{blender.Stdout, "Fra:2 Mem:19.47M (Peak 19.47M) | Time:00:00.06 | Syncing Cube"},
		{blender.Stdout, "Saved: '/out/shot/shot_Output/MobileFrames/shot_0002.exr'"},
		{blender.Stdout, "Info: Finished rendering MobileScene"},
		{blender.Stdout, "Warning: Scene DesktopScene_Comp not found!"},
		{blender.Stdout, "Append frame 1"},
		{blender.Stdout, "Append frame 2"},
		{blender.Stderr, "Warning: unused"},
		{blender.Stdout, "Blender quit"},
	}}
	client, err := blender.New("blender", 0, blender.WithExecutor(exec), blender.WithExtraArgs([]string{"-t", "4"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var kinds []blender.EventKind
	result, err := client.Render(context.Background(), "/out/shot/shot.blend", "/out/shot/process.py", func(e blender.Event) {
		kinds = append(kinds, e.Kind)
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	wantArgs := []string{"-b", "/out/shot/shot.blend", "--python", "/out/shot/process.py", "-t", "4"}
	if !reflect.DeepEqual(exec.args[0], wantArgs) {
		t.Fatalf("args = %v, want %v", exec.args[0], wantArgs)
	}
	if result.SavedFiles != 2 || result.AppendedFrames != 2 || result.LastFrame != 2 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if !result.Quit {
		t.Fatal("expected quit marker")
	}
	if result.LastFrameTime != 1500*time.Millisecond {
		t.Fatalf("LastFrameTime = %s", result.LastFrameTime)
	}
	if !reflect.DeepEqual(result.ScenesRendered, []string{"MobileScene"}) {
		t.Fatalf("ScenesRendered = %v", result.ScenesRendered)
	}
	if !reflect.DeepEqual(result.ScenesMissing, []string{"DesktopScene_Comp"}) {
		t.Fatalf("ScenesMissing = %v", result.ScenesMissing)
	}
	if !strings.Contains(result.Stderr, "Warning: unused") || strings.Contains(result.Stdout, "Warning: unused") {
		t.Fatalf("streams not separated: stdout=%q stderr=%q", result.Stdout, result.Stderr)
	}
	if len(kinds) == 0 || kinds[0] != blender.EventSceneStart || kinds[len(kinds)-1] != blender.EventQuit {
		t.Fatalf("unexpected event kinds %v", kinds)
	}
}

func TestRenderRequiresInputs(t *testing.T) {
	client, _ := blender.New("blender", 0, blender.WithExecutor(&stubExecutor{}))
	if _, err := client.Render(context.Background(), "", "script.py", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Render(context.Background(), "a.blend", " ", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := blender.New("  ", 0); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunScriptUsesFactoryStartup(t *testing.T) {
	exec := &stubExecutor{lines: []line{{blender.Stdout, "Addon loaded and verified successfully"}}}
	client, _ := blender.New("blender", 0, blender.WithExecutor(exec))
	result, err := client.RunScript(context.Background(), "/tmp/verify.py", "/dist/addon.zip")
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	want := []string{"-b", "--factory-startup", "--python", "/tmp/verify.py", "--", "/dist/addon.zip"}
	if !reflect.DeepEqual(exec.args[0], want) {
		t.Fatalf("args = %v, want %v", exec.args[0], want)
	}
	if !result.Contains("Addon loaded and verified successfully") {
		t.Fatal("expected marker in stdout")
	}
}

func TestVersionParsesOutput(t *testing.T) {
	exec := &stubExecutor{lines: []line{{blender.Stdout, "Blender 4.2.1 LTS"}, {blender.Stdout, "\tbuild date: 2024-08-19"}}}
	client, _ := blender.New("blender", 0, blender.WithExecutor(exec))
	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "4.2.1" {
		t.Fatalf("version = %q", version)
	}

	client, _ = blender.New("blender", 0, blender.WithExecutor(&stubExecutor{lines: []line{{blender.Stdout, "garbage"}}}))
	if _, err := client.Version(context.Background()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blender")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRenderNonZeroExitKeepsResult(t *testing.T) {
	binary := writeScript(t, "echo 'Fra:7 Mem:1M'\necho 'ERROR: multi-channel export failed'\necho 'Traceback' >&2\nexit 3\n")
	client, err := blender.New(binary, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := client.Render(context.Background(), "a.blend", "process.py", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if result == nil || result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %+v", result)
	}
	if result.LastFrame != 7 {
		t.Fatalf("LastFrame = %d", result.LastFrame)
	}
	if !strings.Contains(result.Stderr, "Traceback") {
		t.Fatalf("stderr not captured: %q", result.Stderr)
	}
	if !strings.Contains(err.Error(), "ERROR: multi-channel export failed") {
		t.Fatalf("error should carry last ERROR line: %v", err)
	}
}

func TestRenderTimeout(t *testing.T) {
	binary := writeScript(t, "exec sleep 5\n")
	client, err := blender.New(binary, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	start := time.Now()
	_, err = client.Render(context.Background(), "a.blend", "process.py", nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if services.Details(err).Kind != "timeout" {
		t.Fatalf("expected timeout kind, got %q", services.Details(err).Kind)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("render was not cut short")
	}
}

func TestRenderMissingBinaryIsConfigurationError(t *testing.T) {
	client, _ := blender.New(filepath.Join(t.TempDir(), "missing-blender"), 0)
	_, err := client.Render(context.Background(), "a.blend", "process.py", nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
