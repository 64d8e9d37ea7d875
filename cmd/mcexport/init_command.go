package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mcexport/internal/projectsetup"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "init [dir]",
		Short:       "Create the add-on project skeleton",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			result, err := projectsetup.Init(root)
			out := cmd.OutOrStdout()
			if result != nil {
				for _, path := range result.Created {
					fmt.Fprintf(out, "created  %s\n", path)
				}
				for _, path := range result.Existing {
					fmt.Fprintf(out, "exists   %s\n", path)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Project ready at %s\n", result.Root)
			return nil
		},
	}
}
