package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hossdata/hoss/config"
)

var mvCmd = &cobra.Command{
	Use:   "mv <source> <target>",
	Short: "Move or rename a file or folder",
	Long: `Move or rename a file or folder inside the dataset.

A target ending in a slash is a destination folder; the source moves
into it under its current name. A bare name renames the source in
place. Moves are implemented as copy then delete, so an error mid-way
can leave both copies visible.`,
	Example: `  hoss mv raw/scan-001.tiff processed/
  hoss mv raw/scan-001.tiff scan-001-final.tiff
  hoss mv raw/session-03/ archive/`,
	Args: cobra.ExactArgs(2),
	RunE: runMV,
}

func runMV(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	client, _, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	b, err := getBrowser(cmd.Context(), cfg, client)
	if err != nil {
		return err
	}

	src := datasetKey(b, args[0])
	target := args[1]

	if strings.HasSuffix(target, "/") {
		return b.Move(cmd.Context(), src, datasetKey(b, target))
	}

	if strings.Contains(target, "/") {
		return fmt.Errorf("target must be a folder ending in '/' or a bare new name, got %q", target)
	}
	return b.Rename(cmd.Context(), src, target)
}
