package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/browser"
	"github.com/hossdata/hoss/config"
)

var uploadMeta []string

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [remote-prefix]",
	Short: "Upload a file or directory",
	Long: `Upload a file or, recursively, a directory into the dataset.

A directory lands under a folder named after it, inside the remote
prefix. Files transfer concurrently; one file's failure does not stop
the others. Metadata pairs apply to every uploaded file.`,
	Example: `  hoss upload scan-001.tiff raw/
  hoss upload ./session-03 raw/ -m subject=s03 -m stage=raw`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringArrayVarP(&uploadMeta, "meta", "m", nil, "metadata pair key=value (repeatable)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	meta, err := parseMetadata(uploadMeta)
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

	target := b.Root()
	if len(args) == 2 {
		target = datasetKey(b, args[1]+"/")
	}

	local := args[0]
	info, err := os.Stat(local)
	if err != nil {
		return err
	}

	var batch *browser.Batch
	if info.IsDir() {
		target += filepath.Base(filepath.Clean(local)) + "/"
		batch, err = browser.PrepareBatch(cmd.Context(), browser.OSDir(local), target, meta)
	} else {
		batch, err = browser.FileBatch(local, target, meta)
	}
	if err != nil {
		return err
	}

	stop := startProgress(b)
	err = b.Upload(cmd.Context(), batch)
	stop()
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, batch)
}

// startProgress echoes the batch's transfer progress to stderr until the
// returned stop function is called. Quiet and JSON modes stay silent.
func startProgress(b *browser.Browser) func() {
	if quiet || jsonOutput {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				if p := b.Progress(); p != nil {
					fmt.Fprintf(os.Stderr, "\r%d/%d files  %s / %s  %d%%",
						p.FinishedFiles, p.TotalFiles,
						humanize.IBytes(uint64(p.FinishedSize)), humanize.IBytes(uint64(p.TotalSize)),
						p.Pct)
				}
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// parseMetadata turns key=value pairs into object metadata.
func parseMetadata(pairs []string) (hoss.ObjectMetadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := hoss.ObjectMetadata{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata pair %q, want key=value", pair)
		}
		meta[k] = v
	}
	return meta, nil
}
