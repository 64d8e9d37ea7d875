package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mcexport/internal/blendscript"
	"mcexport/internal/packager"
	"mcexport/internal/preflight"
	"mcexport/internal/services/blender"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [archive.zip]",
		Short: "Install the add-on in headless Blender and check its operators",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			archive := ""
			if len(args) == 1 {
				archive = strings.TrimSpace(args[0])
			}
			if archive == "" {
				latest, err := packager.Latest(cfg.Paths.DistDir)
				switch {
				case err == nil:
					archive = latest
				case errors.Is(err, fs.ErrNotExist):
					archive = cfg.Blender.AddonPath
				default:
					return err
				}
			}
			if archive == "" {
				return errors.New("no add-on archive found; run `mcexport build` or pass a zip path")
			}

			check := preflight.CheckAddonArchive(archive)
			if !check.Passed {
				return fmt.Errorf("%s: %s", check.Name, check.Detail)
			}

			script, err := blendscript.Verify(blendscript.VerifyParams{
				AddonModule: cfg.Blender.AddonModule,
				AddonPath:   archive,
			})
			if err != nil {
				return err
			}
			scriptPath, cleanup, err := writeTempScript("mcexport-verify-*.py", script)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := blender.New(cfg.Blender.Binary, cfg.Blender.RenderTimeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Verifying %s with %s\n", archive, client.Binary())
			result, runErr := client.RunScript(cmd.Context(), scriptPath, archive)
			if result != nil && result.Contains(blendscript.VerifiedMarker) {
				fmt.Fprintln(out, blendscript.VerifiedMarker)
				return nil
			}
			if result != nil {
				for _, line := range result.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
			}
			if runErr != nil {
				return fmt.Errorf("add-on verification failed: %w", runErr)
			}
			return errors.New("add-on verification failed: success marker not printed")
		},
	}
	return cmd
}

func writeTempScript(pattern, content string) (string, func(), error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create script: %w", err)
	}
	path := file.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		cleanup()
		return "", nil, fmt.Errorf("write script: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close script: %w", err)
	}
	return path, cleanup, nil
}
