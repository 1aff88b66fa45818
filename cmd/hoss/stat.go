package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/config"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show file details",
	Long: `Show one file's details: size, modification time, its shareable
Hoss URI, and the metadata attached to it, merged from the object store
and the metadata search index.`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
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

	key := datasetKey(b, args[0])
	if hoss.IsPrefix(key) {
		return fmt.Errorf("%s is a folder; stat works on files", args[0])
	}

	details, err := b.Inspect(cmd.Context(), key)
	if err != nil {
		return err
	}
	return getFormatter().FormatDetails(os.Stdout, details)
}
