package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hossdata/hoss/browser"
	"github.com/hossdata/hoss/config"
)

const completionLimit = 25

var (
	searchMeta   []string
	searchBefore string
	searchAfter  string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the dataset's metadata index",
	Long: `Search the dataset by metadata and modification date.

Metadata constraints are ANDed. Date bounds come as a pair: give both
--modified-after and --modified-before, or neither. Dates accept
YYYY-MM-DD or full RFC 3339 timestamps.`,
	Example: `  hoss search -m subject=s03 -m stage=raw
  hoss search -m stage=raw --modified-after 2026-01-01 --modified-before 2026-02-01`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

var searchKeysCmd = &cobra.Command{
	Use:   "keys [prefix]",
	Short: "List metadata keys in use",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearchKeys,
}

var searchValuesCmd = &cobra.Command{
	Use:   "values <key> [prefix]",
	Short: "List values in use for a metadata key",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSearchValues,
}

func init() {
	searchCmd.Flags().StringArrayVarP(&searchMeta, "meta", "m", nil, "metadata constraint key=value (repeatable)")
	searchCmd.Flags().StringVar(&searchBefore, "modified-before", "", "upper modification-date bound")
	searchCmd.Flags().StringVar(&searchAfter, "modified-after", "", "lower modification-date bound")

	searchCmd.AddCommand(searchKeysCmd)
	searchCmd.AddCommand(searchValuesCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requireDataset(cfg); err != nil {
		return err
	}

	meta, err := parseMetadata(searchMeta)
	if err != nil {
		return err
	}
	before, err := parseSearchTime(searchBefore)
	if err != nil {
		return err
	}
	after, err := parseSearchTime(searchAfter)
	if err != nil {
		return err
	}
	if err := browser.ValidateDateRange(before, after); err != nil {
		return err
	}

	client, _, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rows, err := client.Search(cmd.Context(), cfg.Server.Namespace, cfg.Server.Dataset, meta, before, after)
	if err != nil {
		return err
	}
	return getFormatter().FormatSearch(os.Stdout, rows)
}

func runSearchKeys(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requireDataset(cfg); err != nil {
		return err
	}

	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	client, _, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	keys, err := client.MetadataKeys(cmd.Context(), cfg.Server.Namespace, cfg.Server.Dataset, prefix, completionLimit)
	if err != nil {
		return err
	}
	return getFormatter().FormatStrings(os.Stdout, "keys", keys)
}

func runSearchValues(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requireDataset(cfg); err != nil {
		return err
	}

	prefix := ""
	if len(args) > 1 {
		prefix = args[1]
	}

	client, _, err := getClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	values, err := client.MetadataValues(cmd.Context(), cfg.Server.Namespace, cfg.Server.Dataset, args[0], prefix, completionLimit)
	if err != nil {
		return err
	}
	return getFormatter().FormatStrings(os.Stdout, "values", values)
}

// parseSearchTime accepts a bare date or a full RFC 3339 timestamp. An
// empty string is an open bound.
func parseSearchTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
