package config

const (
	defaultConfigPath              = "~/.config/mcexport/config.toml"
	defaultInputDir                = "~/.local/share/mcexport/input"
	defaultOutputDir               = "~/.local/share/mcexport/output"
	defaultLogDir                  = "~/.local/share/mcexport/logs"
	defaultDistDir                 = "dist"
	defaultAddonSourceDir          = "addon"
	defaultBlenderBinary           = "blender"
	defaultAddonModule             = "multi_channel_export"
	defaultBaseOutputDir           = "//{base}_Output/"
	defaultHoldFrames              = 15
	defaultRenderTarget            = "all"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
	defaultWorkers                 = 1
	defaultQueuePollInterval       = 10
	defaultScanInterval            = 30
	defaultSettleSeconds           = 5
	defaultErrorRetryInterval      = 10
	defaultWorkflowHeartbeatPeriod = 15
	defaultWorkflowHeartbeatLimit  = 120
	defaultNotifyRequestTimeout    = 10
)

// MinHoldFrames and MaxHoldFrames bound the add-on's hold_frames property.
const (
	MinHoldFrames = 1
	MaxHoldFrames = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:       defaultInputDir,
			OutputDir:      defaultOutputDir,
			LogDir:         defaultLogDir,
			DistDir:        defaultDistDir,
			AddonSourceDir: defaultAddonSourceDir,
		},
		Blender: Blender{
			Binary:      defaultBlenderBinary,
			AddonModule: defaultAddonModule,
		},
		Pipeline: Pipeline{
			BaseOutputDir:    defaultBaseOutputDir,
			LoopExtendFrames: true,
			HoldFrames:       defaultHoldFrames,
			RenderTarget:     defaultRenderTarget,
			Channels:         []string{"mobile", "desktop"},
		},
		Workflow: Workflow{
			Workers:            defaultWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ScanInterval:       defaultScanInterval,
			SettleSeconds:      defaultSettleSeconds,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultWorkflowHeartbeatPeriod,
			HeartbeatTimeout:   defaultWorkflowHeartbeatLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Queue:          true,
			Completion:     true,
			Errors:         true,
		},
	}
}
