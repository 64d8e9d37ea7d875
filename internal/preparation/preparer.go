package preparation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"mcexport/internal/blendscript"
	"mcexport/internal/config"
	"mcexport/internal/fileutil"
	"mcexport/internal/logging"
	"mcexport/internal/pipeline"
	"mcexport/internal/queue"
	"mcexport/internal/services"
	"mcexport/internal/stage"
)

const stageName = "preparation"

// Preparer builds job directories for queued .blend files.
type Preparer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// NewPreparer constructs the preparation stage handler.
func NewPreparer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Preparer {
	return &Preparer{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, stageName)}
}

// SetLogger replaces the base logger.
func (p *Preparer) SetLogger(logger *slog.Logger) {
	p.logger = logging.NewComponentLogger(logger, stageName)
}

func (p *Preparer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Preparing", "Validating source file")
	logging.WithContext(ctx, p.logger).Info(
		"starting preparation",
		logging.String(logging.FieldSourcePath, item.SourcePath),
	)
	return nil
}

func (p *Preparer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	source := strings.TrimSpace(item.SourcePath)
	info, err := os.Stat(source)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrNotFound, stageName, "stat source",
			fmt.Sprintf("Source %s no longer exists; it was moved or deleted after queueing", source), err)
	case err != nil:
		return services.Wrap(services.ErrTransient, stageName, "stat source", "Unable to inspect source file", err)
	case info.IsDir():
		return services.Wrap(services.ErrValidation, stageName, "stat source", "Source is a directory, not a .blend file", nil)
	}
	if !strings.EqualFold(filepath.Ext(source), ".blend") {
		return services.Wrap(services.ErrValidation, stageName, "check extension",
			fmt.Sprintf("Source %s does not have a .blend extension", filepath.Base(source)), nil)
	}
	if err := CheckBlendHeader(source); err != nil {
		return services.Wrap(services.ErrValidation, stageName, "check header",
			fmt.Sprintf("Source %s is not a Blender file", filepath.Base(source)), err)
	}

	settings, err := pipeline.SettingsFromConfig(p.cfg.Pipeline)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "pipeline settings", "Invalid [pipeline] configuration", err)
	}

	if strings.TrimSpace(item.Title) == "" {
		item.Title = DeriveTitle(source)
	}

	base := pipeline.BaseName(source)
	jobDir := filepath.Join(p.cfg.Paths.OutputDir, base)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "create job dir",
			fmt.Sprintf("Unable to create %s; check output_dir permissions", jobDir), err)
	}
	item.JobDir = jobDir
	p.updateProgress(ctx, item, "Copying blend file", 30)

	working := filepath.Join(jobDir, filepath.Base(source))
	if err := fileutil.CopyFilePreserve(source, working); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "copy blend", "Failed to copy blend into job directory", err)
	}
	item.WorkingBlend = working
	logger.Debug("blend copied", logging.String("working_blend", working))

	script, err := blendscript.Process(blendscript.ProcessParams{
		AddonModule: p.cfg.Blender.AddonModule,
		AddonPath:   p.cfg.Blender.AddonPath,
		BlendPath:   working,
		Settings:    settings,
	})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "render script", "Failed to generate driver script", err)
	}
	scriptPath := filepath.Join(jobDir, blendscript.ScriptName)
	if err := fileutil.WriteFileAtomic(scriptPath, []byte(script), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write script", "Failed to write driver script", err)
	}
	item.ScriptPath = scriptPath

	item.SetProgressComplete("Prepared", fmt.Sprintf("Job directory ready: %s", base))
	logger.Info(
		"preparation completed",
		logging.String(logging.FieldEventType, "preparation_complete"),
		logging.String(logging.FieldJobDir, jobDir),
		logging.String("script_path", scriptPath),
	)
	return nil
}

// HealthCheck verifies the output root is writable and the pipeline settings
// are usable.
func (p *Preparer) HealthCheck(ctx context.Context) stage.Health {
	if p.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	if _, err := pipeline.SettingsFromConfig(p.cfg.Pipeline); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	out := p.cfg.Paths.OutputDir
	if err := unix.Access(out, unix.W_OK|unix.X_OK); err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("output dir %s not writable: %v", out, err))
	}
	if addon := strings.TrimSpace(p.cfg.Blender.AddonPath); addon != "" {
		if _, err := os.Stat(addon); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("add-on archive %s unavailable", addon))
		}
	}
	return stage.Healthy(stageName)
}

func (p *Preparer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if p.store == nil {
		return
	}
	if err := p.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, p.logger).Warn("failed to persist preparation progress", logging.Error(err))
	}
}
