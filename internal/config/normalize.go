package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBlender(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DistDir) == "" {
		c.Paths.DistDir = defaultDistDir
	}
	if c.Paths.DistDir, err = expandPath(c.Paths.DistDir); err != nil {
		return fmt.Errorf("paths.dist_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AddonSourceDir) == "" {
		c.Paths.AddonSourceDir = defaultAddonSourceDir
	}
	if c.Paths.AddonSourceDir, err = expandPath(c.Paths.AddonSourceDir); err != nil {
		return fmt.Errorf("paths.addon_source_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBlender() error {
	c.Blender.Binary = strings.TrimSpace(c.Blender.Binary)
	if value, ok := os.LookupEnv("MCEXPORT_BLENDER"); ok && strings.TrimSpace(value) != "" {
		if c.Blender.Binary == "" || c.Blender.Binary == defaultBlenderBinary {
			c.Blender.Binary = strings.TrimSpace(value)
		}
	}
	if c.Blender.Binary == "" {
		c.Blender.Binary = defaultBlenderBinary
	}
	c.Blender.AddonModule = strings.TrimSpace(c.Blender.AddonModule)
	if c.Blender.AddonModule == "" {
		c.Blender.AddonModule = defaultAddonModule
	}
	if strings.TrimSpace(c.Blender.AddonPath) != "" {
		var err error
		if c.Blender.AddonPath, err = expandPath(strings.TrimSpace(c.Blender.AddonPath)); err != nil {
			return fmt.Errorf("blender.addon_path: %w", err)
		}
	}
	args := make([]string, 0, len(c.Blender.ExtraArgs))
	for _, arg := range c.Blender.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Blender.ExtraArgs = args
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.BaseOutputDir = strings.TrimSpace(c.Pipeline.BaseOutputDir)
	if c.Pipeline.BaseOutputDir == "" {
		c.Pipeline.BaseOutputDir = defaultBaseOutputDir
	}
	c.Pipeline.RenderTarget = strings.ToLower(strings.TrimSpace(c.Pipeline.RenderTarget))
	if c.Pipeline.RenderTarget == "" {
		c.Pipeline.RenderTarget = defaultRenderTarget
	}
	if len(c.Pipeline.Channels) == 0 {
		c.Pipeline.Channels = []string{"mobile", "desktop"}
		return
	}
	channels := make([]string, 0, len(c.Pipeline.Channels))
	seen := make(map[string]struct{}, len(c.Pipeline.Channels))
	for _, channel := range c.Pipeline.Channels {
		normalized := strings.ToLower(strings.TrimSpace(channel))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		channels = append(channels, normalized)
	}
	c.Pipeline.Channels = channels
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("MCEXPORT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
