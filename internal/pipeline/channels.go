package pipeline

import (
	"fmt"
	"strings"
)

// ControlScene is the scene the add-on activates once setup completes.
const ControlScene = "ControlScene"

// Channel describes one output variant of a scene.
type Channel struct {
	Key   string
	Label string
}

var (
	Mobile  = Channel{Key: "mobile", Label: "Mobile"}
	Desktop = Channel{Key: "desktop", Label: "Desktop"}
)

var allChannels = []Channel{Mobile, Desktop}

// Channels returns every channel in render order.
func Channels() []Channel {
	cp := make([]Channel, len(allChannels))
	copy(cp, allChannels)
	return cp
}

// ChannelByKey looks up a channel by its lowercase key.
func ChannelByKey(key string) (Channel, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, ch := range allChannels {
		if ch.Key == key {
			return ch, true
		}
	}
	return Channel{}, false
}

// ResolveChannels maps configured channel keys to channels, preserving render
// order rather than configuration order.
func ResolveChannels(keys []string) ([]Channel, error) {
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		ch, ok := ChannelByKey(key)
		if !ok {
			return nil, fmt.Errorf("unknown channel %q", key)
		}
		wanted[ch.Key] = struct{}{}
	}
	out := make([]Channel, 0, len(wanted))
	for _, ch := range allChannels {
		if _, ok := wanted[ch.Key]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Scene is the scene that renders the channel's frames.
func (c Channel) Scene() string { return c.Label + "Scene" }

// CompositeScene is the sequencer scene that encodes the channel video.
func (c Channel) CompositeScene() string { return c.Scene() + "_Comp" }

// FramesDir is the frames subdirectory under the base output dir.
func (c Channel) FramesDir() string { return c.Label + "Frames/" }

// OutputDir is the video subdirectory under the base output dir.
func (c Channel) OutputDir() string { return c.Label + "Out/" }

// VideoSuffix is appended to the blend base name for the collected video.
func (c Channel) VideoSuffix() string { return "_" + c.Key + ".mp4" }

func (c Channel) String() string { return c.Key }
