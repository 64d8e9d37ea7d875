package rendering

import (
	"fmt"

	"mcexport/internal/pipeline"
	"mcexport/internal/services/blender"
)

// progressTracker converts Blender events into an overall percentage. Each
// scene in the render order owns an equal share; frame counts inside a scene
// are unknown up front, so frames only refine the message.
type progressTracker struct {
	order   []string
	scene   string
	index   int
	done    int
	frame   int
	percent float64
}

func newProgressTracker(target pipeline.Target) *progressTracker {
	return &progressTracker{order: target.RenderOrder(), index: -1}
}

// apply folds an event in and reports whether the visible state changed.
func (t *progressTracker) apply(event blender.Event) bool {
	switch event.Kind {
	case blender.EventSceneStart:
		t.scene = event.Scene
		t.frame = 0
		if idx := t.indexOf(event.Scene); idx >= 0 {
			t.index = idx
			t.percent = t.share(idx)
		}
		return true
	case blender.EventSceneDone, blender.EventSceneMissing:
		if idx := t.indexOf(event.Scene); idx >= 0 {
			if idx+1 > t.done {
				t.done = idx + 1
			}
			t.percent = t.share(t.done)
		}
		return true
	case blender.EventFrame, blender.EventAppend:
		if event.Frame == t.frame {
			return false
		}
		t.frame = event.Frame
		return true
	default:
		return false
	}
}

func (t *progressTracker) indexOf(scene string) int {
	for i, name := range t.order {
		if name == scene {
			return i
		}
	}
	return -1
}

func (t *progressTracker) share(n int) float64 {
	if len(t.order) == 0 {
		return 0
	}
	pct := float64(n) / float64(len(t.order)) * 100
	if pct > 99 {
		// 100 is reserved for a clean exit.
		pct = 99
	}
	return pct
}

func (t *progressTracker) stage() string {
	if t.scene == "" {
		return "Rendering"
	}
	return t.scene
}

func (t *progressTracker) message() string {
	switch {
	case t.scene == "":
		return "Starting Blender"
	case t.frame > 0:
		return fmt.Sprintf("%s frame %d", t.scene, t.frame)
	default:
		return fmt.Sprintf("Rendering %s", t.scene)
	}
}
