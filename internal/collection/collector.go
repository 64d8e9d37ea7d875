package collection

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"

	"mcexport/internal/config"
	"mcexport/internal/fileutil"
	"mcexport/internal/ledger"
	"mcexport/internal/logging"
	"mcexport/internal/notifications"
	"mcexport/internal/pipeline"
	"mcexport/internal/queue"
	"mcexport/internal/services"
	"mcexport/internal/stage"
)

const stageName = "collection"

// NoVideosReason is recorded on items whose render produced no channel video.
const NoVideosReason = "no videos produced"

// Collector gathers rendered channel videos.
type Collector struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	ledger   *ledger.Ledger
	notifier notifications.Service
}

// NewCollector constructs the collection stage handler.
func NewCollector(cfg *config.Config, store *queue.Store, logger *slog.Logger, led *ledger.Ledger, notifier notifications.Service) *Collector {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Collector{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, stageName),
		ledger:   led,
		notifier: notifier,
	}
}

// SetLogger replaces the base logger.
func (c *Collector) SetLogger(logger *slog.Logger) {
	c.logger = logging.NewComponentLogger(logger, stageName)
}

func (c *Collector) Prepare(ctx context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.JobDir) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate inputs",
			"No job directory recorded; retry the item so preparation runs again", nil)
	}
	if info, err := os.Stat(item.JobDir); err != nil || !info.IsDir() {
		return services.Wrap(services.ErrNotFound, stageName, "validate inputs",
			fmt.Sprintf("Job directory %s is missing", item.JobDir), err)
	}
	item.InitProgress("Collecting", "Collecting channel videos")
	return nil
}

func (c *Collector) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)

	settings, err := pipeline.SettingsFromConfig(c.cfg.Pipeline)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "pipeline settings", "Invalid [pipeline] configuration", err)
	}
	channels, err := pipeline.ResolveChannels(c.cfg.Pipeline.Channels)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "resolve channels", "Invalid pipeline.channels", err)
	}

	blend := item.WorkingBlend
	if blend == "" {
		blend = item.SourcePath
	}
	layout := pipeline.NewLayout(settings, blend)

	collected := make([]string, 0, len(channels))
	for i, ch := range channels {
		dest, err := c.collectChannel(ctx, item, layout, ch)
		if err != nil {
			return err
		}
		if dest != "" {
			item.SetVideo(ch.Key, dest)
			collected = append(collected, filepath.Base(dest))
		}
		c.updateProgress(ctx, item, fmt.Sprintf("Collected %s", ch.Key), float64(i+1)/float64(len(channels))*90)
	}

	if len(collected) == 0 {
		item.FlagReview(NoVideosReason)
		logging.WarnWithContext(logger, "render produced no channel videos", "collection_empty",
			logging.String(logging.FieldJobDir, item.JobDir),
			logging.String(logging.FieldImpact, "job completes without deliverables"),
			logging.String(logging.FieldErrorHint, "check the composite scenes and blender_stdout.log"),
		)
	}

	if c.ledger != nil {
		c.ledger.Add(item.SourcePath)
		if err := c.ledger.Save(); err != nil {
			return services.Wrap(services.ErrTransient, stageName, "save ledger", "Failed to record processed file", err)
		}
	}

	if len(collected) == 0 {
		item.SetProgressComplete("Needs review", NoVideosReason)
		c.publish(ctx, notifications.EventJobNeedsReview, notifications.Payload{"title": item.Title, "reason": item.ReviewReason})
	} else {
		item.SetProgressComplete("Completed", fmt.Sprintf("Collected %s", strings.Join(collected, ", ")))
		c.publish(ctx, notifications.EventJobCompleted, notifications.Payload{"title": item.Title, "videos": strings.Join(collected, ", ")})
	}
	logger.Info(
		"collection completed",
		logging.String(logging.FieldEventType, "collection_complete"),
		logging.Int("videos", len(collected)),
		logging.Bool("needs_review", item.NeedsReview),
	)
	return nil
}

// collectChannel copies every video of a channel to the same destination in
// sorted order, so the last file wins. It returns "" when none exist.
func (c *Collector) collectChannel(ctx context.Context, item *queue.Item, layout pipeline.Layout, ch pipeline.Channel) (string, error) {
	logger := logging.WithContext(ctx, c.logger)
	dir := layout.VideoDir(item.JobDir, ch)
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp4"))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, stageName, "find videos", "Invalid video search pattern", err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		logger.Debug("no video for channel", logging.String(logging.FieldChannel, ch.Key), logging.String("dir", dir))
		return "", nil
	}
	dest := layout.CollectedVideo(item.JobDir, ch)
	for _, video := range matches {
		if err := fileutil.CopyFileVerified(video, dest); err != nil {
			return "", services.Wrap(services.ErrTransient, stageName, "copy video",
				fmt.Sprintf("Failed to copy %s video", ch.Key), err)
		}
		logger.Info("copied channel video",
			logging.String(logging.FieldChannel, ch.Key),
			logging.String("source", video),
			logging.String("destination", dest),
		)
	}
	if len(matches) > 1 {
		logger.Debug("channel produced several videos; last one kept",
			logging.String(logging.FieldChannel, ch.Key),
			logging.Int("count", len(matches)),
		)
	}
	return dest, nil
}

func (c *Collector) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if c.store == nil {
		return
	}
	if err := c.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, c.logger).Warn("failed to persist collection progress", logging.Error(err))
	}
}

func (c *Collector) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := c.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, c.logger).Debug("collection notification failed", logging.Error(err))
	}
}

// HealthCheck verifies the ledger is wired and the output root is writable.
func (c *Collector) HealthCheck(ctx context.Context) stage.Health {
	if c.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	if c.ledger == nil {
		return stage.Unhealthy(stageName, "processed-files ledger unavailable")
	}
	if _, err := pipeline.ResolveChannels(c.cfg.Pipeline.Channels); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	if err := unix.Access(c.cfg.Paths.OutputDir, unix.W_OK|unix.X_OK); err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("output dir not writable: %v", err))
	}
	return stage.Healthy(stageName)
}
