package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/config"
)

var downloadURLOnly bool

var downloadCmd = &cobra.Command{
	Use:   "download <path> [local-path]",
	Short: "Download a file",
	Long: `Download one file from the dataset via a presigned URL.

Without a local path the file is written to the working directory under
its own name. --url prints the presigned URL instead of fetching it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolVar(&downloadURLOnly, "url", false, "print the presigned URL without downloading")
}

func runDownload(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("%s is a folder; downloads are per file", args[0])
	}

	presigned, err := b.Download(cmd.Context(), key)
	if err != nil {
		return err
	}
	if downloadURLOnly {
		fmt.Println(presigned)
		return nil
	}

	local := hoss.BaseName(key)
	if len(args) == 2 {
		local = args[1]
	}

	size, err := fetchToFile(cmd, presigned, local)
	if err != nil {
		return err
	}
	return getFormatter().FormatDownload(os.Stdout, key, local, size)
}

func fetchToFile(cmd *cobra.Command, presigned, local string) (int64, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, presigned, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	out, err := os.Create(local) //#nosec G304 -- destination chosen by the user
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", local, err)
	}

	size, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", local, err)
	}
	return size, nil
}
