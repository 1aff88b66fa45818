package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hossdata/hoss/api"
	"github.com/hossdata/hoss/auth"
	"github.com/hossdata/hoss/browser"
	"github.com/hossdata/hoss/config"
	"github.com/hossdata/hoss/objectstore"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "hoss",
	Version: version,
	Short:   "Client for Hoss object storage",
	Long: `Hoss CLI - Client for a multi-tenant Hoss object storage server

Most commands operate on one dataset inside one namespace. Select them
with --namespace/--dataset, a saved profile (--profile or HOSS_PROFILE),
or environment variables (HOSS_SERVER_NAMESPACE, HOSS_SERVER_DATASET).

Paths are given relative to the dataset root. A trailing slash names a
folder; without it the path names a single file:
  hoss ls raw/
  hoss rm raw/scan-001.tiff
  hoss rm raw/`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level, jsonOutput)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "profile file (default: ~/.hoss/config.yaml, env: HOSS_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: HOSS_PROFILE)")
	rootCmd.PersistentFlags().StringP("server", "s", "", "server origin (default: http://localhost:8080, env: HOSS_SERVER_ORIGIN)")
	rootCmd.PersistentFlags().StringP("namespace", "n", "", "namespace (default: default, env: HOSS_SERVER_NAMESPACE)")
	rootCmd.PersistentFlags().StringP("dataset", "d", "", "dataset (env: HOSS_SERVER_DATASET)")
	rootCmd.PersistentFlags().String("client-id", "", "OIDC client id (default: HossServer)")
	rootCmd.PersistentFlags().String("session-path", "", "session cache file (default: ~/.hoss/session.json)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers the runtime configuration, then fills server settings
// from the selected profile where neither a flag nor an environment
// variable claimed them.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(nil, flags)
	if err != nil {
		return nil, err
	}
	applyProfile(cfg, flags)
	return cfg, nil
}

func applyProfile(cfg *config.Config, flags *pflag.FlagSet) {
	name := profileName
	if name == "" {
		name = config.ProfileFromEnv()
	}

	pf, err := config.LoadProfileFile(profilePath())
	if err != nil {
		// Only worth a complaint when a profile was asked for by name.
		if name != "" {
			fmt.Fprintf(os.Stderr, "Warning: profile %q requested but no profile file: %v\n", name, err)
		}
		return
	}

	p, err := pf.GetProfile(name)
	if err != nil {
		if name != "" {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		return
	}

	if p.Server != "" && !overridden(flags, "server", "HOSS_SERVER_ORIGIN") {
		cfg.Server.Origin = p.Server
	}
	if p.Namespace != "" && !overridden(flags, "namespace", "HOSS_SERVER_NAMESPACE") {
		cfg.Server.Namespace = p.Namespace
	}
	if p.Dataset != "" && !overridden(flags, "dataset", "HOSS_SERVER_DATASET") {
		cfg.Server.Dataset = p.Dataset
	}
}

// overridden reports whether a setting was pinned by an explicit flag or
// environment variable, in which case a profile must not replace it.
func overridden(flags *pflag.FlagSet, flag, env string) bool {
	if f := flags.Lookup(flag); f != nil && f.Changed {
		return true
	}
	return os.Getenv(env) != ""
}

// profilePath resolves the profile file location: --config flag, then
// HOSS_CONFIG, then ~/.hoss/config.yaml.
func profilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := config.ConfigPathFromEnv(); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// getClient builds the API client and its session-backed token source.
// Service discovery runs first so the credential cache key matches the
// advertised auth service address.
func getClient(ctx context.Context, cfg *config.Config) (*api.Client, *auth.CredentialStore, error) {
	probe, err := api.New(cfg.Server.Origin)
	if err != nil {
		return nil, nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := probe.Discover(dctx); err != nil {
		return nil, nil, fmt.Errorf("reach server %s: %w", cfg.Server.Origin, err)
	}

	kv := auth.NewFileKV(cfg.Auth.SessionPath)
	store := auth.NewCredentialStore(kv, auth.CredentialKey(probe.AuthURL(), cfg.Auth.ClientID))

	client, err := api.New(cfg.Server.Origin,
		api.WithAuthURL(probe.AuthURL()),
		api.WithTokenSource(store),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, store, nil
}

// requireDataset rejects dataset-scoped commands run without one.
func requireDataset(cfg *config.Config) error {
	if cfg.Server.Dataset == "" {
		return fmt.Errorf("no dataset selected; use --dataset or a profile")
	}
	return nil
}

// getBrowser exchanges the session for storage credentials and builds a
// browser over the configured dataset.
func getBrowser(ctx context.Context, cfg *config.Config, client *api.Client) (*browser.Browser, error) {
	if err := requireDataset(cfg); err != nil {
		return nil, err
	}

	ns, err := client.Namespace(ctx, cfg.Server.Namespace)
	if err != nil {
		return nil, err
	}
	creds, err := client.STSCredentials(ctx, cfg.Server.Namespace)
	if err != nil {
		return nil, err
	}

	store, err := objectstore.New(*creds, ns.BucketName, ns.IsMinio())
	if err != nil {
		return nil, err
	}

	return browser.New(store, originHost(cfg.Server.Origin), cfg.Server.Namespace, cfg.Server.Dataset,
		browser.WithSearchAPI(client),
		browser.WithMinio(ns.IsMinio()),
	), nil
}

// originHost strips the scheme from the server origin for use in Hoss URIs.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// datasetKey turns a user-supplied dataset-relative path into a full object
// key or prefix. A trailing slash is preserved, marking a folder.
func datasetKey(b *browser.Browser, arg string) string {
	isDir := strings.HasSuffix(arg, "/")
	rel := strings.Trim(arg, "/")
	if rel == "" {
		return b.Root()
	}
	key := b.Root() + rel
	if isDir {
		key += "/"
	}
	return key
}
