package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hossdata/hoss/auth"
	"github.com/hossdata/hoss/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Hoss server",
	Long: `Sign in to the Hoss server via its identity provider.

An authorization URL is printed; open it in a browser, sign in, and
paste the URL you are redirected to back into the prompt. The session
is cached on disk until the token expires.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the cached session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

// terminalNavigator adapts the session gate's browsing-context contract to
// a terminal: the redirect becomes a printed URL plus a prompt for the URL
// the identity provider redirected back to.
type terminalNavigator struct {
	fragment string
}

func (n *terminalNavigator) Fragment() string { return n.fragment }

func (n *terminalNavigator) ClearFragment() { n.fragment = "" }

func (n *terminalNavigator) Redirect(authorizeURL string) error {
	fmt.Printf("Open this URL in your browser and sign in:\n\n  %s\n\n", authorizeURL)

	prompt := promptui.Prompt{
		Label: "Paste the URL you were redirected to",
		Validate: func(input string) error {
			if !strings.Contains(input, "id_token") {
				return errors.New("URL carries no id_token")
			}
			return nil
		},
	}
	raw, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			fmt.Println("\nCancelled.")
			os.Exit(0)
		}
		return err
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse redirect URL: %w", err)
	}
	n.fragment = u.Fragment
	return nil
}

func (n *terminalNavigator) RestorePath(path string) {
	slog.Debug("skipping path restore", "path", path)
}

func newMachine(ctx context.Context, cfg *config.Config, nav auth.Navigator) (*auth.Machine, error) {
	client, store, err := getClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return auth.NewMachine(auth.MachineConfig{
		API:         client,
		Nav:         nav,
		Creds:       store,
		ClientID:    cfg.Auth.ClientID,
		RedirectURI: redirectURI(cfg),
	}), nil
}

// redirectURI falls back to the server origin, the address the web console
// is served from.
func redirectURI(cfg *config.Config) string {
	if cfg.Auth.RedirectURI != "" {
		return cfg.Auth.RedirectURI
	}
	return cfg.Server.Origin
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	nav := &terminalNavigator{}
	m, err := newMachine(cmd.Context(), cfg, nav)
	if err != nil {
		return err
	}

	if err := m.Send(cmd.Context(), auth.EventFetchConfig); err != nil {
		return err
	}

	switch m.State() {
	case auth.StateLoggedIn:
		if !quiet {
			fmt.Printf("Already logged in as %s\n", m.Identity().Email)
		}
		return nil
	case auth.StateLoggedOut:
		// Continue below.
	default:
		return machineErr(m)
	}

	if err := m.Send(cmd.Context(), auth.EventAuth); err != nil {
		return err
	}
	if m.State() != auth.StateRedirect {
		return machineErr(m)
	}

	// The pasted fragment plays the part of the post-login page load: a
	// fresh machine checks the session and completes the authentication.
	m, err = newMachine(cmd.Context(), cfg, nav)
	if err != nil {
		return err
	}
	if err := m.Send(cmd.Context(), auth.EventFetchConfig); err != nil {
		return err
	}
	if m.State() != auth.StateLoggedIn {
		return machineErr(m)
	}

	if !quiet {
		fmt.Printf("Logged in as %s\n", m.Identity().Email)
	}
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	m, err := newMachine(cmd.Context(), cfg, &terminalNavigator{})
	if err != nil {
		return err
	}
	if err := m.Send(cmd.Context(), auth.EventFetchConfig); err != nil {
		return err
	}

	switch m.State() {
	case auth.StateLoggedIn:
		if err := m.Send(cmd.Context(), auth.EventLogout); err != nil {
			return err
		}
		if m.State() != auth.StateIdle {
			return machineErr(m)
		}
		if !quiet {
			fmt.Println("Logged out.")
		}
		return nil
	case auth.StateLoggedOut:
		if !quiet {
			fmt.Println("Not logged in.")
		}
		return nil
	default:
		return machineErr(m)
	}
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	m, err := newMachine(cmd.Context(), cfg, &terminalNavigator{})
	if err != nil {
		return err
	}
	if err := m.Send(cmd.Context(), auth.EventFetchConfig); err != nil {
		return err
	}

	if m.State() != auth.StateLoggedIn {
		return errors.New("not logged in; run 'hoss login'")
	}
	return getFormatter().FormatIdentity(os.Stdout, m.Identity())
}

// machineErr surfaces the session gate's failure, naming the state when no
// concrete error was recorded.
func machineErr(m *auth.Machine) error {
	if err := m.Err(); err != nil {
		return err
	}
	return fmt.Errorf("login did not complete (state %s)", m.State())
}
