package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/browser"
	"github.com/hossdata/hoss/config"
)

var lsDesc bool

var lsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List files in the dataset",
	Long: `List one level of the dataset's file tree.

Folders sort first; files follow, ordered by --sort. Without a prefix
the dataset root is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLS,
}

func init() {
	lsCmd.Flags().String("sort", "", "sort field: name, size or modified (default: name)")
	lsCmd.Flags().BoolVar(&lsDesc, "desc", false, "sort descending")
}

func runLS(cmd *cobra.Command, args []string) error {
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

	if err := b.Mount(cmd.Context()); err != nil {
		return err
	}

	prefix := b.Root()
	if len(args) > 0 {
		prefix = datasetKey(b, args[0]+"/")
	}

	// Walk down to the requested prefix so each level is cached.
	if prefix != b.Root() {
		for _, anc := range hoss.Ancestors(prefix)[1:] {
			if err := b.Expand(cmd.Context(), anc); err != nil {
				return err
			}
		}
		if err := b.Expand(cmd.Context(), prefix); err != nil {
			return err
		}
	}

	nodes := b.Tree().VisibleChildren(prefix)

	ascending := cfg.Browser.Ascending
	if lsDesc {
		ascending = false
	}
	browser.SortNodes(nodes, browser.SortField(cfg.Browser.SortField), ascending)

	return getFormatter().FormatList(os.Stdout, b.Root(), nodes)
}
