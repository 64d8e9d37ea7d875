package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mcexport/internal/pipeline"
)

type planSegment struct {
	Kind     string `json:"kind"`
	Strip    string `json:"strip"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Duration int    `json:"duration"`
}

type planOutput struct {
	Target            string        `json:"target"`
	Operator          string        `json:"operator"`
	RenderOrder       []string      `json:"render_order"`
	Frames            int           `json:"frames"`
	Hold              int           `json:"hold"`
	Loop              bool          `json:"loop"`
	FrameEnd          int           `json:"frame_end"`
	FrameEndInherited bool          `json:"frame_end_inherited,omitempty"`
	Segments          []planSegment `json:"segments"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var frames int
	var hold int
	var loop bool
	var target string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the render order and loop timeline for a frame count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if frames < 0 {
				return errors.New("--frames must not be negative")
			}
			if !cmd.Flags().Changed("hold") {
				hold = cfg.Pipeline.HoldFrames
			}
			if !cmd.Flags().Changed("loop") {
				loop = cfg.Pipeline.LoopExtendFrames
			}
			if !cmd.Flags().Changed("target") {
				target = cfg.Pipeline.RenderTarget
			}
			parsed, err := pipeline.ParseTarget(target)
			if err != nil {
				return err
			}

			tl := pipeline.LoopTimeline(frames, hold, loop)
			plan := planOutput{
				Target:            string(parsed),
				Operator:          parsed.IDName(),
				RenderOrder:       parsed.RenderOrder(),
				Frames:            tl.Frames,
				Hold:              tl.Hold,
				Loop:              tl.Loop,
				FrameEnd:          tl.FrameEnd,
				FrameEndInherited: tl.InheritsFrameEnd(),
			}
			// Strip names depend on the channel scene; the first channel
			// stands in for all of them since every channel shares the layout.
			scene := parsed.Channels()[0].Scene()
			for _, seg := range tl.Segments {
				plan.Segments = append(plan.Segments, planSegment{
					Kind:     string(seg.Kind),
					Strip:    seg.StripName(scene),
					Start:    seg.Start,
					End:      seg.End,
					Duration: seg.Duration(),
				})
			}
			if asJSON {
				return writeJSON(cmd, plan)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Operator:     %s\n", plan.Operator)
			fmt.Fprintln(out, "Render order:")
			for i, name := range plan.RenderOrder {
				fmt.Fprintf(out, "  %d. %s\n", i+1, name)
			}
			if tl.Empty() {
				fmt.Fprintln(out, "Timeline:     empty (no rendered frames)")
				return nil
			}
			frameEnd := fmt.Sprintf("frame_end %d", plan.FrameEnd)
			if tl.InheritsFrameEnd() {
				frameEnd = "frame_end from source scene"
			}
			fmt.Fprintf(out, "Timeline:     %d frames, hold %d, loop %s, %s\n",
				plan.Frames, plan.Hold, yesNo(plan.Loop), frameEnd)
			rows := make([][]string, 0, len(plan.Segments))
			for _, seg := range plan.Segments {
				rows = append(rows, []string{
					seg.Kind,
					seg.Strip,
					fmt.Sprintf("%d", seg.Start),
					fmt.Sprintf("%d", seg.End),
					fmt.Sprintf("%d", seg.Duration),
				})
			}
			writeTable(cmd, []string{"Segment", "Strip", "Start", "End", "Frames"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight})
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 0, "Number of rendered frames in the sequence")
	cmd.Flags().IntVar(&hold, "hold", 0, "Frames to hold at each end (default: pipeline.hold_frames)")
	cmd.Flags().BoolVar(&loop, "loop", false, "Extend the sequence into a loop (default: pipeline.loop_extend_frames)")
	cmd.Flags().StringVar(&target, "target", "", "Render target: all, mobile or desktop (default: pipeline.render_target)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("frames")
	return cmd
}
