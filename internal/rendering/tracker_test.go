package rendering

import (
	"testing"

	"mcexport/internal/pipeline"
	"mcexport/internal/services/blender"
)

func TestProgressTrackerAllTarget(t *testing.T) {
	tr := newProgressTracker(pipeline.TargetAll)
	if tr.message() != "Starting Blender" || tr.stage() != "Rendering" {
		t.Fatalf("unexpected initial state %q %q", tr.stage(), tr.message())
	}
	steps := []struct {
		event   blender.Event
		changed bool
		percent float64
		message string
	}{
		{blender.Event{Kind: blender.EventSceneStart, Scene: "MobileScene"}, true, 0, "Rendering MobileScene"},
		{blender.Event{Kind: blender.EventFrame, Frame: 3}, true, 0, "MobileScene frame 3"},
		{blender.Event{Kind: blender.EventFrame, Frame: 3}, false, 0, "MobileScene frame 3"},
		{blender.Event{Kind: blender.EventSceneDone, Scene: "MobileScene"}, true, 25, "MobileScene frame 3"},
		{blender.Event{Kind: blender.EventSceneStart, Scene: "DesktopScene"}, true, 50, "Rendering DesktopScene"},
		{blender.Event{Kind: blender.EventSceneMissing, Scene: "DesktopScene_Comp"}, true, 99, "Rendering DesktopScene"},
		{blender.Event{Kind: blender.EventSaved, Path: "/x"}, false, 99, "Rendering DesktopScene"},
	}
	for i, step := range steps {
		if got := tr.apply(step.event); got != step.changed {
			t.Fatalf("step %d: changed = %v, want %v", i, got, step.changed)
		}
		if tr.percent != step.percent {
			t.Fatalf("step %d: percent = %.1f, want %.1f", i, tr.percent, step.percent)
		}
		if tr.message() != step.message {
			t.Fatalf("step %d: message = %q, want %q", i, tr.message(), step.message)
		}
	}
}

func TestProgressTrackerIgnoresForeignScenes(t *testing.T) {
	tr := newProgressTracker(pipeline.TargetMobile)
	tr.apply(blender.Event{Kind: blender.EventSceneDone, Scene: "DesktopScene"})
	if tr.percent != 0 {
		t.Fatalf("percent = %.1f, want 0", tr.percent)
	}
	tr.apply(blender.Event{Kind: blender.EventSceneDone, Scene: "MobileScene"})
	if tr.percent != 50 {
		t.Fatalf("percent = %.1f, want 50", tr.percent)
	}
}
