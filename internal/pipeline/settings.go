package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"mcexport/internal/config"
)

// BasePlaceholder in a base output dir is replaced by the blend base name.
const BasePlaceholder = "{base}"

// BlendRelativePrefix marks Blender paths relative to the open .blend file.
const BlendRelativePrefix = "//"

// Settings mirrors the setup_pipeline operator properties.
type Settings struct {
	BaseOutputDir    string
	UseSceneSettings bool
	LoopExtendFrames bool
	HoldFrames       int
	Target           Target
}

// SettingsFromConfig builds Settings from the [pipeline] section.
func SettingsFromConfig(cfg config.Pipeline) (Settings, error) {
	target, err := ParseTarget(cfg.RenderTarget)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		BaseOutputDir:    cfg.BaseOutputDir,
		UseSceneSettings: cfg.UseSceneSettings,
		LoopExtendFrames: cfg.LoopExtendFrames,
		HoldFrames:       cfg.HoldFrames,
		Target:           target,
	}
	return s, s.Validate()
}

// Validate enforces the operator property bounds.
func (s Settings) Validate() error {
	if s.HoldFrames < config.MinHoldFrames || s.HoldFrames > config.MaxHoldFrames {
		return fmt.Errorf("hold_frames %d outside %d..%d", s.HoldFrames, config.MinHoldFrames, config.MaxHoldFrames)
	}
	if !strings.HasPrefix(s.BaseOutputDir, BlendRelativePrefix) {
		return fmt.Errorf("base_output_dir %q must be relative to the blend file (start with //)", s.BaseOutputDir)
	}
	if _, err := ParseTarget(string(s.Target)); err != nil {
		return err
	}
	return nil
}

// OutputDirFor substitutes the blend base name into the base output dir and
// guarantees a trailing slash, since the add-on concatenates subdirectories.
func (s Settings) OutputDirFor(base string) string {
	dir := strings.ReplaceAll(s.BaseOutputDir, BasePlaceholder, base)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}

// Layout is the set of Blender-relative paths setup_pipeline creates for one
// blend file.
type Layout struct {
	BlendName string
	OutputDir string
}

// NewLayout derives the layout for the blend at blendPath.
func NewLayout(s Settings, blendPath string) Layout {
	name := BaseName(blendPath)
	return Layout{BlendName: name, OutputDir: s.OutputDirFor(name)}
}

// BaseName strips directory and extension from a blend path.
func BaseName(blendPath string) string {
	base := filepath.Base(blendPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Directories lists the four directories setup_pipeline creates.
func (l Layout) Directories() []string {
	dirs := make([]string, 0, len(allChannels)*2)
	for _, ch := range allChannels {
		dirs = append(dirs, l.OutputDir+ch.FramesDir(), l.OutputDir+ch.OutputDir())
	}
	return dirs
}

// FramePrefix is the render filepath of a channel scene.
func (l Layout) FramePrefix(ch Channel) string {
	return l.OutputDir + ch.FramesDir() + l.BlendName + "_"
}

// VideoPath is the render filepath of a channel composite scene.
func (l Layout) VideoPath(ch Channel) string {
	return l.OutputDir + ch.OutputDir() + l.BlendName
}

// Resolve converts a blend-relative path into a filesystem path under blendDir.
// Absolute paths are returned cleaned.
func Resolve(blendDir, blenderPath string) string {
	if rel, ok := strings.CutPrefix(blenderPath, BlendRelativePrefix); ok {
		return filepath.Join(blendDir, filepath.FromSlash(rel))
	}
	return filepath.Clean(filepath.FromSlash(blenderPath))
}

// VideoDir returns the on-disk directory where Blender writes a channel video
// for a blend copied into jobDir.
func (l Layout) VideoDir(jobDir string, ch Channel) string {
	return Resolve(jobDir, l.OutputDir+ch.OutputDir())
}

// CollectedVideo returns where the collected channel video is placed.
func (l Layout) CollectedVideo(jobDir string, ch Channel) string {
	return filepath.Join(jobDir, l.BlendName+ch.VideoSuffix())
}
