package pipeline

// VideoProfile holds the FFMPEG settings applied to composite scenes.
type VideoProfile struct {
	FileFormat         string
	Container          string
	Codec              string
	ConstantRateFactor string
	AudioCodec         string
	GOPSize            int
	VideoBitrate       int // kb/s
	MaxRate            int
	MinRate            int
	BufferSize         int
}

// FrameProfile holds the image settings for channel frame renders. They only
// apply when scene settings are not preserved.
type FrameProfile struct {
	FileFormat string
	ColorDepth string
	Codec      string
}

// DefaultVideoProfile is the encoding the add-on configures.
var DefaultVideoProfile = VideoProfile{
	FileFormat:         "FFMPEG",
	Container:          "MPEG4",
	Codec:              "H264",
	ConstantRateFactor: "MEDIUM",
	AudioCodec:         "AAC",
	GOPSize:            18,
	VideoBitrate:       6000,
	MaxRate:            9000,
	MinRate:            0,
	BufferSize:         1800,
}

// DefaultFrameProfile is the frame format the add-on configures.
var DefaultFrameProfile = FrameProfile{
	FileFormat: "OPEN_EXR",
	ColorDepth: "32",
	Codec:      "ZIP",
}

// Composite scene fallbacks when the channel render scene does not exist.
const (
	FallbackFPS        = 30
	FallbackFrameStart = 1
	FallbackFrameEnd   = 250
)
