package rendering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mcexport/internal/config"
	"mcexport/internal/logging"
	"mcexport/internal/pipeline"
	"mcexport/internal/queue"
	"mcexport/internal/services"
	"mcexport/internal/services/blender"
	"mcexport/internal/stage"
)

const (
	stageName      = "rendering"
	StdoutLogName  = "blender_stdout.log"
	StderrLogName  = "blender_stderr.log"
	persistEvery   = 2 * time.Second
	progressBucket = 10
)

// Client is the subset of the Blender client the stage uses.
type Client interface {
	Render(ctx context.Context, blendFile, scriptPath string, progress func(blender.Event)) (*blender.Result, error)
	Binary() string
}

// Renderer runs Blender for prepared jobs.
type Renderer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	client Client
}

// NewRenderer constructs the stage with a Blender client built from config.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Renderer, error) {
	client, err := blender.New(cfg.Blender.Binary, cfg.Blender.RenderTimeout, blender.WithExtraArgs(cfg.Blender.ExtraArgs))
	if err != nil {
		return nil, err
	}
	return NewRendererWithClient(cfg, store, logger, client), nil
}

// NewRendererWithClient allows injecting a Blender client (used in tests).
func NewRendererWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Client) *Renderer {
	return &Renderer{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, stageName), client: client}
}

// SetLogger replaces the base logger.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	r.logger = logging.NewComponentLogger(logger, stageName)
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	for label, path := range map[string]string{"working blend": item.WorkingBlend, "driver script": item.ScriptPath} {
		if strings.TrimSpace(path) == "" {
			return services.Wrap(services.ErrValidation, stageName, "validate inputs",
				fmt.Sprintf("No %s recorded; retry the item so preparation runs again", label), nil)
		}
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrNotFound, stageName, "validate inputs",
				fmt.Sprintf("%s %s is missing; retry the item so preparation runs again", label, path), err)
		}
	}
	item.InitProgress("Rendering", "Starting Blender")
	logging.WithContext(ctx, r.logger).Info(
		"starting render",
		logging.String("working_blend", item.WorkingBlend),
		logging.String("script_path", item.ScriptPath),
	)
	return nil
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	if r.client == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "blender client", "Blender client unavailable", nil)
	}
	target, err := pipeline.ParseTarget(r.cfg.Pipeline.RenderTarget)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "render target", "Invalid pipeline.render_target", err)
	}

	tracker := newProgressTracker(target)
	sampler := logging.NewProgressSampler(progressBucket)
	lastPersist := time.Time{}

	result, runErr := r.client.Render(ctx, item.WorkingBlend, item.ScriptPath, func(event blender.Event) {
		if !tracker.apply(event) {
			return
		}
		item.SetProgress(tracker.stage(), tracker.message(), tracker.percent)
		if sampler.ShouldLog(tracker.percent, tracker.scene) {
			logger.Info("render progress", logging.Args(logging.ProgressAttrs(item)...)...)
		}
		sceneChange := event.Kind != blender.EventFrame && event.Kind != blender.EventAppend
		if sceneChange || time.Since(lastPersist) >= persistEvery {
			lastPersist = time.Now()
			r.persistProgress(ctx, item)
		}
	})

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || ctx.Err() != nil {
			return ctx.Err()
		}
		if result != nil {
			r.writeLogs(ctx, item, result)
		}
		logging.ErrorWithContext(logger, "blender render failed", "render_failed",
			append(logging.ErrorAttrs(runErr),
				logging.String(logging.FieldJobDir, item.JobDir),
				logging.Int("exit_code", exitCode(result)),
			)...,
		)
		return runErr
	}

	if len(result.ScenesMissing) > 0 {
		reason := "scenes missing during render: " + strings.Join(result.ScenesMissing, ", ")
		item.FlagReview(reason)
		logging.WarnWithContext(logger, "render skipped missing scenes", "render_scenes_missing",
			logging.String("scenes", strings.Join(result.ScenesMissing, ",")),
			logging.String(logging.FieldImpact, "some channel videos may be absent"),
			logging.String(logging.FieldErrorHint, "open the blend and run setup_pipeline manually"),
		)
	}

	item.SetProgressComplete("Rendered", fmt.Sprintf("Rendered %d frames in %s", result.SavedFiles, result.Duration.Round(time.Second)))
	logger.Info(
		"render completed",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.Int("saved_files", result.SavedFiles),
		logging.Int("appended_frames", result.AppendedFrames),
		logging.Duration("duration", result.Duration),
	)
	return nil
}

// HealthCheck reports whether the Blender binary resolves.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	if r.client == nil {
		return stage.Unhealthy(stageName, "blender client unavailable")
	}
	if _, err := exec.LookPath(r.client.Binary()); err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("blender binary %q not found", r.client.Binary()))
	}
	return stage.Healthy(stageName)
}

func (r *Renderer) writeLogs(ctx context.Context, item *queue.Item, result *blender.Result) {
	if strings.TrimSpace(item.JobDir) == "" {
		return
	}
	logger := logging.WithContext(ctx, r.logger)
	for name, content := range map[string]string{StdoutLogName: result.Stdout, StderrLogName: result.Stderr} {
		path := filepath.Join(item.JobDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			logger.Warn("failed to write blender log", logging.String("path", path), logging.Error(err))
		}
	}
}

func (r *Renderer) persistProgress(ctx context.Context, item *queue.Item) {
	if r.store == nil {
		return
	}
	if err := r.store.UpdateProgress(ctx, item); err != nil && !errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, r.logger).Warn("failed to persist render progress", logging.Error(err))
	}
}

func exitCode(result *blender.Result) int {
	if result == nil {
		return -1
	}
	return result.ExitCode
}
