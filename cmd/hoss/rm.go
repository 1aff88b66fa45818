package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hossdata/hoss/config"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Delete files or folders",
	Long: `Delete files or, recursively, folders from the dataset.

A trailing slash marks a folder; its whole subtree is removed. Deletes
inside a folder run concurrently, and a partial failure leaves the
completed siblings deleted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRM,
}

func runRM(cmd *cobra.Command, args []string) error {
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

	deleted := make([]string, 0, len(args))
	for _, arg := range args {
		key := datasetKey(b, arg)
		if err := b.Delete(cmd.Context(), key); err != nil {
			// Report what landed before the failure.
			_ = getFormatter().FormatDelete(os.Stdout, deleted)
			return err
		}
		deleted = append(deleted, key)
	}
	return getFormatter().FormatDelete(os.Stdout, deleted)
}
