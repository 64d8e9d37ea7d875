package blendscript_test

import (
	"strings"
	"testing"

	"mcexport/internal/blendscript"
	"mcexport/internal/pipeline"
)

func defaultSettings() pipeline.Settings {
	return pipeline.Settings{
		BaseOutputDir:    "//{base}_Output/",
		LoopExtendFrames: true,
		HoldFrames:       15,
		Target:           pipeline.TargetAll,
	}
}

func TestProcessRendersPipelineCalls(t *testing.T) {
	script, err := blendscript.Process(blendscript.ProcessParams{
		AddonModule: "multi_channel_export",
		AddonPath:   "/opt/addons/multi_channel_export_1.0.zip",
		BlendPath:   "/out/shot/shot.blend",
		Settings:    defaultSettings(),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, want := range []string{
		`ADDON_MODULE = "multi_channel_export"`,
		`ADDON_PATH = "/opt/addons/multi_channel_export_1.0.zip"`,
		`bpy.ops.export.setup_pipeline(`,
		`use_scene_settings=False,`,
		`base_output_dir="//shot_Output/",`,
		`loop_extend_frames=True,`,
		`hold_frames=15,`,
		`bpy.ops.export.render_all()`,
		`bpy.ops.wm.save_as_mainfile(filepath="/out/shot/shot.blend")`,
		`sys.exit(1)`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\n%s", want, script)
		}
	}
}

func TestProcessTargetsSingleChannel(t *testing.T) {
	settings := defaultSettings()
	settings.Target = pipeline.TargetDesktop
	settings.UseSceneSettings = true
	script, err := blendscript.Process(blendscript.ProcessParams{
		AddonModule: "multi_channel_export",
		BlendPath:   "/out/a/a.blend",
		SavePath:    "/out/a/a_processed.blend",
		Settings:    settings,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(script, "bpy.ops.export.render_desktop()") {
		t.Fatal("expected render_desktop call")
	}
	if strings.Contains(script, "render_all") {
		t.Fatal("unexpected render_all call")
	}
	if !strings.Contains(script, `use_scene_settings=True,`) {
		t.Fatal("expected use_scene_settings=True")
	}
	if !strings.Contains(script, `filepath="/out/a/a_processed.blend"`) {
		t.Fatal("expected explicit save path")
	}
}

func TestProcessEscapesHostilePaths(t *testing.T) {
	path := "/out/we\"ird\\dir\nx/it's.blend"
	script, err := blendscript.Process(blendscript.ProcessParams{
		AddonModule: "multi_channel_export",
		BlendPath:   path,
		Settings:    defaultSettings(),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := `filepath="/out/we\"ird\\dir\nx/it's.blend"`
	if !strings.Contains(script, want) {
		t.Fatalf("escaped path %q not found in\n%s", want, script)
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		params blendscript.ProcessParams
	}{
		{"missing module", blendscript.ProcessParams{BlendPath: "/a.blend", Settings: defaultSettings()}},
		{"module with dots", blendscript.ProcessParams{AddonModule: "a.b", BlendPath: "/a.blend", Settings: defaultSettings()}},
		{"missing blend", blendscript.ProcessParams{AddonModule: "m", Settings: defaultSettings()}},
		{"bad hold", blendscript.ProcessParams{AddonModule: "m", BlendPath: "/a.blend", Settings: pipeline.Settings{BaseOutputDir: "//o/", HoldFrames: 0}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := blendscript.Process(tc.params); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestVerifyChecksEveryOperator(t *testing.T) {
	script, err := blendscript.Verify(blendscript.VerifyParams{AddonModule: "multi_channel_export"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := `OPERATORS = ("setup_pipeline", "render_all", "render_mobile", "render_desktop", "switch_to_scene", )`
	if !strings.Contains(script, want) {
		t.Fatalf("operator tuple missing:\n%s", script)
	}
	for _, needle := range []string{
		`hasattr(bpy.ops.export, name)`,
		`fail("Addon not in enabled addons list")`,
		`print("ERROR: " + message)`,
		`print("` + blendscript.VerifiedMarker + `")`,
		`DEFAULT_ADDON_PATH = ""`,
	} {
		if !strings.Contains(script, needle) {
			t.Errorf("verify script missing %q", needle)
		}
	}
}

func TestPyString(t *testing.T) {
	tests := map[string]string{
		"plain":      `"plain"`,
		`a"b`:        `"a\"b"`,
		`c:\dir`:     `"c:\\dir"`,
		"tab\there":  `"tab\there"`,
		"bell\a":     `"bell\x07"`,
		"ünïcode":    `"ünïcode"`,
		"bad\xffutf": `"bad�utf"`,
	}
	for in, want := range tests {
		if got := blendscript.PyString(in); got != want {
			t.Errorf("PyString(%q) = %s, want %s", in, got, want)
		}
	}
}
