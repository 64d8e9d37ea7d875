package pipeline

import (
	"fmt"
	"strings"
)

// Add-on operator names registered under bpy.ops.export.
const (
	OpSetupPipeline = "setup_pipeline"
	OpRenderAll     = "render_all"
	OpRenderMobile  = "render_mobile"
	OpRenderDesktop = "render_desktop"
	OpSwitchToScene = "switch_to_scene"
)

// OperatorNamespace prefixes operator names in their bl_idname.
const OperatorNamespace = "export"

// Operators lists every operator the add-on must register.
func Operators() []string {
	return []string{OpSetupPipeline, OpRenderAll, OpRenderMobile, OpRenderDesktop, OpSwitchToScene}
}

// Target selects which channels a render run covers.
type Target string

const (
	TargetAll     Target = "all"
	TargetMobile  Target = "mobile"
	TargetDesktop Target = "desktop"
)

// ParseTarget converts a string into a known Target.
func ParseTarget(value string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(value))); t {
	case TargetAll, TargetMobile, TargetDesktop:
		return t, nil
	case "":
		return TargetAll, nil
	default:
		return "", fmt.Errorf("unknown render target %q (want all, mobile or desktop)", value)
	}
}

// Operator returns the operator name without namespace.
func (t Target) Operator() string {
	switch t {
	case TargetMobile:
		return OpRenderMobile
	case TargetDesktop:
		return OpRenderDesktop
	default:
		return OpRenderAll
	}
}

// IDName returns the fully qualified bl_idname, e.g. export.render_all.
func (t Target) IDName() string {
	return OperatorNamespace + "." + t.Operator()
}

// Channels returns the channels rendered by the target.
func (t Target) Channels() []Channel {
	switch t {
	case TargetMobile:
		return []Channel{Mobile}
	case TargetDesktop:
		return []Channel{Desktop}
	default:
		return Channels()
	}
}

// RenderOrder lists scenes in the order the operator renders them. Each
// channel renders its frames before its composite.
func (t Target) RenderOrder() []string {
	channels := t.Channels()
	order := make([]string, 0, len(channels)*2)
	for _, ch := range channels {
		order = append(order, ch.Scene(), ch.CompositeScene())
	}
	return order
}

// SceneIndex returns the position of scene in the render order, or -1.
func (t Target) SceneIndex(scene string) int {
	for i, name := range t.RenderOrder() {
		if name == scene {
			return i
		}
	}
	return -1
}
