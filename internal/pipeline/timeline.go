package pipeline

import "mcexport/internal/config"

// SegmentKind names a strip in the composite timeline.
type SegmentKind string

const (
	SegmentForward   SegmentKind = "Forward"
	SegmentHoldLast  SegmentKind = "HoldLast"
	SegmentReverse   SegmentKind = "Reverse"
	SegmentHoldFirst SegmentKind = "HoldFirst"
)

// Segment is an inclusive frame range on the composite timeline.
type Segment struct {
	Kind  SegmentKind
	Start int
	End   int
}

// Duration returns the number of frames the segment covers.
func (s Segment) Duration() int {
	return s.End - s.Start + 1
}

// StripName is the sequencer strip name the add-on gives the segment.
func (s Segment) StripName(scene string) string {
	return scene + "_" + string(s.Kind)
}

// FrameEndInherited marks a timeline that leaves the composite scene's
// frame_end as copied from the source scene.
const FrameEndInherited = -1

// Timeline is the composite scene layout for a rendered frame sequence.
type Timeline struct {
	Frames   int
	Hold     int
	Loop     bool
	Segments []Segment
	FrameEnd int
}

// LoopTimeline lays out n rendered frames. Looping sets frame_end to 2n+2h
// for any n > 0. The extra strips (hold last, reverse, hold first) only
// appear when there is more than one frame. Without looping frame_end keeps
// the source scene's value. Hold is clamped to the operator bounds.
func LoopTimeline(frames, hold int, loop bool) Timeline {
	hold = clampHold(hold)
	tl := Timeline{Frames: frames, Hold: hold}
	if frames <= 0 {
		return tl
	}
	tl.Segments = append(tl.Segments, Segment{Kind: SegmentForward, Start: 1, End: frames})
	if !loop {
		tl.FrameEnd = FrameEndInherited
		return tl
	}
	tl.Loop = true
	tl.FrameEnd = 2*frames + 2*hold
	if frames < 2 {
		return tl
	}
	tl.Segments = append(tl.Segments,
		Segment{Kind: SegmentHoldLast, Start: frames + 1, End: frames + hold},
		Segment{Kind: SegmentReverse, Start: frames + hold + 1, End: 2*frames + hold},
		Segment{Kind: SegmentHoldFirst, Start: 2*frames + hold + 1, End: 2*frames + 2*hold},
	)
	return tl
}

// InheritsFrameEnd reports whether frame_end is left at the source scene's value.
func (t Timeline) InheritsFrameEnd() bool {
	return t.FrameEnd == FrameEndInherited
}

// Empty reports whether no frames were available to place.
func (t Timeline) Empty() bool {
	return len(t.Segments) == 0
}

// SourceFrame maps a composite frame to the rendered frame it shows, or 0
// when the frame lies outside the timeline.
func (t Timeline) SourceFrame(frame int) int {
	for _, seg := range t.Segments {
		if frame < seg.Start || frame > seg.End {
			continue
		}
		switch seg.Kind {
		case SegmentForward:
			return frame
		case SegmentHoldLast:
			return t.Frames
		case SegmentReverse:
			return t.Frames - (frame - seg.Start)
		case SegmentHoldFirst:
			return 1
		}
	}
	return 0
}

func clampHold(hold int) int {
	if hold < config.MinHoldFrames {
		return config.MinHoldFrames
	}
	if hold > config.MaxHoldFrames {
		return config.MaxHoldFrames
	}
	return hold
}
