package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mcexport/internal/packager"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var version string
	var sourceDir string
	var distDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Package the Blender add-on into a versioned zip",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := firstNonEmpty(sourceDir, cfg.Paths.AddonSourceDir)
			dist := firstNonEmpty(distDir, cfg.Paths.DistDir)

			result, err := packager.Build(packager.Options{
				SourceDir: source,
				DistDir:   dist,
				Version:   version,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Built %s\n", result.Path)
			fmt.Fprintf(out, "  Version: %s\n", result.Version)
			fmt.Fprintf(out, "  Files:   %d\n", len(result.Entries))
			fmt.Fprintf(out, "  Size:    %s\n", humanize.Bytes(uint64(result.Size)))
			if info, err := packager.ReadBLInfo(filepath.Join(source, packager.InitFile)); err == nil {
				fmt.Fprintf(out, "  Add-on:  %s %s (Blender %s)\n",
					info.Name, packager.JoinVersion(info.Version), packager.JoinVersion(info.Blender))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "Archive version (default: today's date as YYYY.M.D)")
	cmd.Flags().StringVar(&sourceDir, "source", "", "Add-on source directory (default: paths.addon_source_dir)")
	cmd.Flags().StringVar(&distDir, "dist", "", "Output directory (default: paths.dist_dir)")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
