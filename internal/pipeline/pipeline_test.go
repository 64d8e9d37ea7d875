package pipeline_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"mcexport/internal/config"
	"mcexport/internal/pipeline"
)

func TestChannelNaming(t *testing.T) {
	ch := pipeline.Mobile
	if got := ch.Scene(); got != "MobileScene" {
		t.Fatalf("Scene = %q", got)
	}
	if got := ch.CompositeScene(); got != "MobileScene_Comp" {
		t.Fatalf("CompositeScene = %q", got)
	}
	if got := ch.FramesDir(); got != "MobileFrames/" {
		t.Fatalf("FramesDir = %q", got)
	}
	if got := ch.OutputDir(); got != "MobileOut/" {
		t.Fatalf("OutputDir = %q", got)
	}
	if got := pipeline.Desktop.VideoSuffix(); got != "_desktop.mp4" {
		t.Fatalf("VideoSuffix = %q", got)
	}
}

func TestResolveChannelsKeepsRenderOrder(t *testing.T) {
	got, err := pipeline.ResolveChannels([]string{"Desktop", "mobile", "desktop"})
	if err != nil {
		t.Fatalf("ResolveChannels: %v", err)
	}
	want := []pipeline.Channel{pipeline.Mobile, pipeline.Desktop}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveChannels = %v, want %v", got, want)
	}
	if _, err := pipeline.ResolveChannels([]string{"tablet"}); err == nil {
		t.Fatal("expected unknown channel error")
	}
}

func TestTargetRenderOrder(t *testing.T) {
	tests := []struct {
		target   pipeline.Target
		idname   string
		expected []string
	}{
		{pipeline.TargetAll, "export.render_all", []string{"MobileScene", "MobileScene_Comp", "DesktopScene", "DesktopScene_Comp"}},
		{pipeline.TargetMobile, "export.render_mobile", []string{"MobileScene", "MobileScene_Comp"}},
		{pipeline.TargetDesktop, "export.render_desktop", []string{"DesktopScene", "DesktopScene_Comp"}},
	}
	for _, tc := range tests {
		if got := tc.target.IDName(); got != tc.idname {
			t.Errorf("%s IDName = %q, want %q", tc.target, got, tc.idname)
		}
		if got := tc.target.RenderOrder(); !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("%s RenderOrder = %v, want %v", tc.target, got, tc.expected)
		}
	}
	if idx := pipeline.TargetAll.SceneIndex("DesktopScene"); idx != 2 {
		t.Fatalf("SceneIndex = %d, want 2", idx)
	}
	if idx := pipeline.TargetMobile.SceneIndex("DesktopScene"); idx != -1 {
		t.Fatalf("SceneIndex outside target = %d, want -1", idx)
	}
}

func TestParseTarget(t *testing.T) {
	if got, err := pipeline.ParseTarget(" Mobile "); err != nil || got != pipeline.TargetMobile {
		t.Fatalf("ParseTarget = %q, %v", got, err)
	}
	if got, err := pipeline.ParseTarget(""); err != nil || got != pipeline.TargetAll {
		t.Fatalf("empty target = %q, %v", got, err)
	}
	if _, err := pipeline.ParseTarget("tablet"); err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestLayoutFromDefaults(t *testing.T) {
	settings, err := pipeline.SettingsFromConfig(config.Default().Pipeline)
	if err != nil {
		t.Fatalf("SettingsFromConfig: %v", err)
	}
	layout := pipeline.NewLayout(settings, "/in/Shot 01.blend")
	if layout.OutputDir != "//Shot 01_Output/" {
		t.Fatalf("OutputDir = %q", layout.OutputDir)
	}
	wantDirs := []string{
		"//Shot 01_Output/MobileFrames/",
		"//Shot 01_Output/MobileOut/",
		"//Shot 01_Output/DesktopFrames/",
		"//Shot 01_Output/DesktopOut/",
	}
	if got := layout.Directories(); !reflect.DeepEqual(got, wantDirs) {
		t.Fatalf("Directories = %v", got)
	}
	if got := layout.FramePrefix(pipeline.Mobile); got != "//Shot 01_Output/MobileFrames/Shot 01_" {
		t.Fatalf("FramePrefix = %q", got)
	}
	if got := layout.VideoPath(pipeline.Desktop); got != "//Shot 01_Output/DesktopOut/Shot 01" {
		t.Fatalf("VideoPath = %q", got)
	}
	job := filepath.Join("/out", "Shot 01")
	if got := layout.VideoDir(job, pipeline.Mobile); got != filepath.Join(job, "Shot 01_Output", "MobileOut") {
		t.Fatalf("VideoDir = %q", got)
	}
	if got := layout.CollectedVideo(job, pipeline.Mobile); got != filepath.Join(job, "Shot 01_mobile.mp4") {
		t.Fatalf("CollectedVideo = %q", got)
	}
}

func TestOutputDirForAddsTrailingSlash(t *testing.T) {
	s := pipeline.Settings{BaseOutputDir: "//renders/{base}"}
	if got := s.OutputDirFor("x"); got != "//renders/x/" {
		t.Fatalf("OutputDirFor = %q", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	base := pipeline.Settings{BaseOutputDir: "//Output/", HoldFrames: 15, Target: pipeline.TargetAll}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	bad := base
	bad.HoldFrames = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected hold_frames error")
	}
	bad = base
	bad.BaseOutputDir = "/abs/Output/"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected base_output_dir error")
	}
}

func TestLoopTimeline(t *testing.T) {
	tl := pipeline.LoopTimeline(10, 15, true)
	if tl.FrameEnd != 50 {
		t.Fatalf("FrameEnd = %d, want 50", tl.FrameEnd)
	}
	want := []pipeline.Segment{
		{Kind: pipeline.SegmentForward, Start: 1, End: 10},
		{Kind: pipeline.SegmentHoldLast, Start: 11, End: 25},
		{Kind: pipeline.SegmentReverse, Start: 26, End: 35},
		{Kind: pipeline.SegmentHoldFirst, Start: 36, End: 50},
	}
	if !reflect.DeepEqual(tl.Segments, want) {
		t.Fatalf("Segments = %+v", tl.Segments)
	}
	checks := map[int]int{1: 1, 10: 10, 11: 10, 25: 10, 26: 10, 35: 1, 36: 1, 50: 1, 51: 0}
	for frame, src := range checks {
		if got := tl.SourceFrame(frame); got != src {
			t.Errorf("SourceFrame(%d) = %d, want %d", frame, got, src)
		}
	}
	if got := want[2].StripName("MobileScene"); got != "MobileScene_Reverse" {
		t.Fatalf("StripName = %q", got)
	}
}

func TestLoopTimelineEdges(t *testing.T) {
	tests := []struct {
		name     string
		frames   int
		hold     int
		loop     bool
		frameEnd int
		segments int
	}{
		{"no frames", 0, 15, true, 0, 0},
		{"single frame extends frame_end without strips", 1, 15, true, 32, 1},
		{"loop disabled inherits frame_end", 24, 15, false, pipeline.FrameEndInherited, 1},
		{"single frame without loop", 1, 15, false, pipeline.FrameEndInherited, 1},
		{"hold clamped high", 2, 500, true, 4 + 240, 4},
		{"hold clamped low", 2, 0, true, 4 + 2, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tl := pipeline.LoopTimeline(tc.frames, tc.hold, tc.loop)
			if tl.FrameEnd != tc.frameEnd {
				t.Fatalf("FrameEnd = %d, want %d", tl.FrameEnd, tc.frameEnd)
			}
			if len(tl.Segments) != tc.segments {
				t.Fatalf("segments = %d, want %d", len(tl.Segments), tc.segments)
			}
			if tc.frames == 0 && !tl.Empty() {
				t.Fatal("expected empty timeline")
			}
			if tl.InheritsFrameEnd() == tc.loop && tc.frames > 0 {
				t.Fatalf("InheritsFrameEnd = %v with loop=%v", tl.InheritsFrameEnd(), tc.loop)
			}
		})
	}
}

func TestOperatorsCoverTargets(t *testing.T) {
	ops := map[string]bool{}
	for _, op := range pipeline.Operators() {
		ops[op] = true
	}
	for _, target := range []pipeline.Target{pipeline.TargetAll, pipeline.TargetMobile, pipeline.TargetDesktop} {
		if !ops[target.Operator()] {
			t.Fatalf("operator %s missing from Operators()", target.Operator())
		}
	}
	if !ops[pipeline.OpSetupPipeline] || !ops[pipeline.OpSwitchToScene] {
		t.Fatal("setup and switch operators must be listed")
	}
}
