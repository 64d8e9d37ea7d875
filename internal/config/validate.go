package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBlender(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateBlender() error {
	if strings.TrimSpace(c.Blender.Binary) == "" {
		return errors.New("blender.binary must be set (or set MCEXPORT_BLENDER)")
	}
	if c.Blender.RenderTimeout < 0 {
		return errors.New("blender.render_timeout must be >= 0 (0 disables the limit)")
	}
	if strings.ContainsAny(c.Blender.AddonModule, "/\\. ") {
		return fmt.Errorf("blender.addon_module %q must be a bare python module name", c.Blender.AddonModule)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	p := c.Pipeline
	if p.HoldFrames < MinHoldFrames || p.HoldFrames > MaxHoldFrames {
		return fmt.Errorf("pipeline.hold_frames must be between %d and %d", MinHoldFrames, MaxHoldFrames)
	}
	if !strings.HasPrefix(p.BaseOutputDir, "//") {
		return errors.New("pipeline.base_output_dir must be blend-relative (start with //)")
	}
	switch p.RenderTarget {
	case "all", "mobile", "desktop":
	default:
		return fmt.Errorf("pipeline.render_target %q must be one of all, mobile, desktop", p.RenderTarget)
	}
	if len(p.Channels) == 0 {
		return errors.New("pipeline.channels must include at least one channel")
	}
	for _, channel := range p.Channels {
		if channel != "mobile" && channel != "desktop" {
			return fmt.Errorf("pipeline.channels: unknown channel %q", channel)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.workers":              c.Workflow.Workers,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.scan_interval":        c.Workflow.ScanInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.SettleSeconds < 0 {
		return errors.New("workflow.settle_seconds must be >= 0")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
