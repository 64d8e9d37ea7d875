package blender

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EventKind classifies a parsed Blender output line.
type EventKind string

const (
	EventFrame        EventKind = "frame"
	EventAppend       EventKind = "append"
	EventSaved        EventKind = "saved"
	EventTime         EventKind = "time"
	EventSceneStart   EventKind = "scene_start"
	EventSceneDone    EventKind = "scene_done"
	EventSceneMissing EventKind = "scene_missing"
	EventError        EventKind = "error"
	EventQuit         EventKind = "quit"
)

// QuitMarker is the last line Blender prints on a clean exit.
const QuitMarker = "Blender quit"

// Event is one recognised progress line.
type Event struct {
	Kind    EventKind
	Frame   int
	Scene   string
	Path    string
	Elapsed time.Duration
	Line    string
}

var (
	frameRe        = regexp.MustCompile(`^Fra:(\d+)\b`)
	appendRe       = regexp.MustCompile(`^Append frame (\d+)`)
	savedRe        = regexp.MustCompile(`^\s*Saved: '?([^']+?)'?\s*$`)
	timeRe         = regexp.MustCompile(`^\s*Time: (?:(\d+):)?(\d+):(\d+(?:\.\d+)?)`)
	sceneStartRe   = regexp.MustCompile(`^(?:Info: )?Rendering (\S+)\.\.\.\s*$`)
	sceneDoneRe    = regexp.MustCompile(`^(?:Info: )?Finished rendering (\S+)\s*$`)
	sceneMissingRe = regexp.MustCompile(`^(?:Warning: )?Scene (\S+) not found!?\s*$`)
	versionRe      = regexp.MustCompile(`Blender (\d+\.\d+(?:\.\d+)?)`)
)

// ParseLine recognises a single line of Blender output.
func ParseLine(line string) (Event, bool) {
	trimmed := strings.TrimRight(line, "\r")
	switch {
	case strings.TrimSpace(trimmed) == QuitMarker:
		return Event{Kind: EventQuit, Line: trimmed}, true
	case strings.HasPrefix(trimmed, "ERROR:"):
		return Event{Kind: EventError, Line: trimmed}, true
	}
	if m := frameRe.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Event{Kind: EventFrame, Frame: n, Line: trimmed}, true
	}
	if m := appendRe.FindStringSubmatch(trimmed); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Event{Kind: EventAppend, Frame: n, Line: trimmed}, true
	}
	if m := savedRe.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: EventSaved, Path: m[1], Line: trimmed}, true
	}
	if m := timeRe.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: EventTime, Elapsed: parseClock(m[1], m[2], m[3]), Line: trimmed}, true
	}
	if m := sceneStartRe.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: EventSceneStart, Scene: m[1], Line: trimmed}, true
	}
	if m := sceneDoneRe.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: EventSceneDone, Scene: m[1], Line: trimmed}, true
	}
	if m := sceneMissingRe.FindStringSubmatch(trimmed); m != nil {
		return Event{Kind: EventSceneMissing, Scene: m[1], Line: trimmed}, true
	}
	return Event{}, false
}

func parseClock(hours, minutes, seconds string) time.Duration {
	var total float64
	if hours != "" {
		h, _ := strconv.Atoi(hours)
		total += float64(h) * 3600
	}
	m, _ := strconv.Atoi(minutes)
	total += float64(m) * 60
	s, _ := strconv.ParseFloat(seconds, 64)
	total += s
	return time.Duration(total * float64(time.Second))
}

// ParseVersion extracts the version number from `blender --version` output.
func ParseVersion(output string) (string, bool) {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return m[1], true
}
