package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mcexport/internal/blendscript"
	"mcexport/internal/fileutil"
	"mcexport/internal/pipeline"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "script <file.blend>",
		Short: "Print the Blender driver script generated for a blend file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := pipeline.SettingsFromConfig(cfg.Pipeline)
			if err != nil {
				return err
			}
			blendPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve blend path: %w", err)
			}
			script, err := blendscript.Process(blendscript.ProcessParams{
				AddonModule: cfg.Blender.AddonModule,
				AddonPath:   cfg.Blender.AddonPath,
				BlendPath:   blendPath,
				Settings:    settings,
			})
			if err != nil {
				return err
			}
			if target := strings.TrimSpace(outputPath); target != "" {
				if err := fileutil.WriteFileAtomic(target, []byte(script), 0o644); err != nil {
					return fmt.Errorf("write script: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), script)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the script to a file instead of stdout")
	return cmd
}
