package auth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/auth"
)

type fakeNavigator struct {
	fragment     string
	cleared      bool
	redirectedTo string
	redirectErr  error
	restoredPath string
}

func (n *fakeNavigator) Fragment() string { return n.fragment }

func (n *fakeNavigator) ClearFragment() {
	n.fragment = ""
	n.cleared = true
}

func (n *fakeNavigator) Redirect(authorizeURL string) error {
	if n.redirectErr != nil {
		return n.redirectErr
	}
	n.redirectedTo = authorizeURL
	return nil
}

func (n *fakeNavigator) RestorePath(path string) { n.restoredPath = path }

type fakeConfig struct {
	wellKnown *hoss.WellKnown
	err       error
}

func (f *fakeConfig) WellKnown(context.Context) (*hoss.WellKnown, error) {
	return f.wellKnown, f.err
}

func discoveryDoc() *hoss.WellKnown {
	return &hoss.WellKnown{
		Issuer:                "https://hoss.example.com/auth/v1",
		AuthorizationEndpoint: "https://hoss.example.com/auth/v1/authorize",
		ScopesSupported:       []string{"openid", "profile", "email"},
	}
}

func newTestMachine(t *testing.T, nav *fakeNavigator, creds *auth.CredentialStore) *auth.Machine {
	t.Helper()
	if creds == nil {
		creds = auth.NewCredentialStore(auth.NewMapKV(), "session")
	}
	return auth.NewMachine(auth.MachineConfig{
		API:         &fakeConfig{wellKnown: discoveryDoc()},
		Nav:         nav,
		Creds:       creds,
		RedirectURI: "https://hoss.example.com/",
	})
}

func TestMachineStartsIdle(t *testing.T) {
	m := newTestMachine(t, &fakeNavigator{}, nil)
	assert.Equal(t, auth.StateIdle, m.State())
}

func TestMachineNoCredentialLandsLoggedOut(t *testing.T) {
	m := newTestMachine(t, &fakeNavigator{}, nil)

	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))

	assert.Equal(t, auth.StateLoggedOut, m.State())
	assert.Nil(t, m.Identity())
	require.NotNil(t, m.Config())
	assert.Equal(t, "https://hoss.example.com/auth/v1", m.Config().Issuer)
}

func TestMachineValidCredentialLandsLoggedIn(t *testing.T) {
	creds := auth.NewCredentialStore(auth.NewMapKV(), "session")
	token := signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "tester@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, creds.Save(&auth.Credential{IDToken: token}))

	m := newTestMachine(t, &fakeNavigator{}, creds)
	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))

	assert.Equal(t, auth.StateLoggedIn, m.State())
	require.NotNil(t, m.Identity())
	assert.Equal(t, "tester@example.com", m.Identity().Email)
}

func TestMachineExpiredCredentialLandsLoggedOut(t *testing.T) {
	creds := auth.NewCredentialStore(auth.NewMapKV(), "session")
	token := signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "tester@example.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, creds.Save(&auth.Credential{IDToken: token}))

	m := newTestMachine(t, &fakeNavigator{}, creds)
	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))

	assert.Equal(t, auth.StateLoggedOut, m.State())
	assert.Nil(t, m.Identity())
}

func TestMachineAuthRedirectsToProvider(t *testing.T) {
	nav := &fakeNavigator{}
	m := newTestMachine(t, nav, nil)
	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))
	require.Equal(t, auth.StateLoggedOut, m.State())

	require.NoError(t, m.Send(context.Background(), auth.EventAuth))

	assert.Equal(t, auth.StateRedirect, m.State())
	require.NotEmpty(t, nav.redirectedTo)

	target, err := url.Parse(nav.redirectedTo)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", target.Path)

	q := target.Query()
	assert.Equal(t, "HossServer", q.Get("client_id"))
	assert.Equal(t, "https://hoss.example.com/", q.Get("redirect_uri"))
	assert.Equal(t, "id_token", q.Get("response_type"))
	assert.Equal(t, "fragment", q.Get("response_mode"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.NotEmpty(t, q.Get("state"))
	assert.NotEmpty(t, q.Get("nonce"))
}

func TestMachineAuthSkipsRedirectWhenTokenPresent(t *testing.T) {
	creds := auth.NewCredentialStore(auth.NewMapKV(), "session")
	// An expired cache entry forces the loggedOut path even though the
	// fragment will appear before AUTH is sent.
	expired := signToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, creds.Save(&auth.Credential{IDToken: expired}))

	nav := &fakeNavigator{}
	m := newTestMachine(t, nav, creds)
	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))
	require.Equal(t, auth.StateLoggedOut, m.State())

	nav.fragment = "id_token=header.payload.sig"
	require.NoError(t, m.Send(context.Background(), auth.EventAuth))

	assert.Equal(t, auth.StateRedirect, m.State())
	assert.Empty(t, nav.redirectedTo)
}

func TestMachineRedirectFailureRecoverable(t *testing.T) {
	nav := &fakeNavigator{redirectErr: errors.New("no browser available")}
	m := newTestMachine(t, nav, nil)
	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))

	require.NoError(t, m.Send(context.Background(), auth.EventAuth))
	assert.Equal(t, auth.StateError, m.State())
	require.Error(t, m.Err())

	require.NoError(t, m.Send(context.Background(), auth.EventTryAgain))
	assert.Equal(t, auth.StateLoggedOut, m.State())
}

func TestMachineCompletesAuthenticationFromFragment(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "tester@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	creds := auth.NewCredentialStore(auth.NewMapKV(), "session")
	require.NoError(t, creds.RecordRedirect("tester@example.com", "/ns/alpha/raw/"))

	nav := &fakeNavigator{fragment: "id_token=" + token + "&state=xyz"}
	m := newTestMachine(t, nav, creds)

	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))

	assert.Equal(t, auth.StateLoggedIn, m.State())
	require.NotNil(t, m.Identity())
	assert.Equal(t, "tester@example.com", m.Identity().Email)

	// The token was cached, the fragment consumed, and the recorded path
	// restored.
	cred, err := creds.Load()
	require.NoError(t, err)
	assert.Equal(t, token, cred.IDToken)
	assert.True(t, nav.cleared)
	assert.Equal(t, "/ns/alpha/raw/", nav.restoredPath)

	_, ok, err := creds.TakeRedirect("tester@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMachineBadFragmentTokenLandsError(t *testing.T) {
	nav := &fakeNavigator{fragment: "id_token=garbage"}
	m := newTestMachine(t, nav, nil)

	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))

	assert.Equal(t, auth.StateError, m.State())
	require.Error(t, m.Err())

	require.NoError(t, m.Send(context.Background(), auth.EventTryAgain))
	assert.Equal(t, auth.StateLoggedOut, m.State())
}

func TestMachineLogoutReturnsToIdle(t *testing.T) {
	creds := auth.NewCredentialStore(auth.NewMapKV(), "session")
	token := signToken(t, jwt.MapClaims{
		"email": "tester@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, creds.Save(&auth.Credential{IDToken: token}))

	m := newTestMachine(t, &fakeNavigator{}, creds)
	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))
	require.Equal(t, auth.StateLoggedIn, m.State())

	require.NoError(t, m.Send(context.Background(), auth.EventLogout))

	assert.Equal(t, auth.StateIdle, m.State())
	assert.Nil(t, m.Identity())
	_, err := creds.Load()
	require.ErrorIs(t, err, auth.ErrNoCredential)
}

func TestMachineConfigFailureIsTerminal(t *testing.T) {
	m := auth.NewMachine(auth.MachineConfig{
		API:   &fakeConfig{err: errors.New("discovery unreachable")},
		Nav:   &fakeNavigator{},
		Creds: auth.NewCredentialStore(auth.NewMapKV(), "session"),
	})

	require.NoError(t, m.Send(context.Background(), auth.EventFetchConfig))
	assert.Equal(t, auth.StateSystemError, m.State())
	require.Error(t, m.Err())

	// No event leaves systemError.
	err := m.Send(context.Background(), auth.EventTryAgain)
	require.ErrorIs(t, err, auth.ErrInvalidTransition)
	assert.Equal(t, auth.StateSystemError, m.State())
}

func TestMachineRejectsOutOfOrderEvents(t *testing.T) {
	m := newTestMachine(t, &fakeNavigator{}, nil)

	err := m.Send(context.Background(), auth.EventAuth)
	require.ErrorIs(t, err, auth.ErrInvalidTransition)
	assert.Equal(t, auth.StateIdle, m.State())

	err = m.Send(context.Background(), auth.EventLogout)
	require.ErrorIs(t, err, auth.ErrInvalidTransition)
}

func TestNextTable(t *testing.T) {
	tests := []struct {
		name  string
		state auth.State
		event auth.EventType
		want  auth.State
		ok    bool
	}{
		{name: "idle accepts fetch", state: auth.StateIdle, event: auth.EventFetchConfig, want: auth.StateLoading, ok: true},
		{name: "loggedOut accepts auth", state: auth.StateLoggedOut, event: auth.EventAuth, want: auth.StateAuthorizeAuthenticate, ok: true},
		{name: "loggedIn accepts logout", state: auth.StateLoggedIn, event: auth.EventLogout, want: auth.StateLogout, ok: true},
		{name: "error accepts try again", state: auth.StateError, event: auth.EventTryAgain, want: auth.StateLoggedOut, ok: true},
		{name: "redirect is absorbing", state: auth.StateRedirect, event: auth.EventAuth, want: auth.StateRedirect, ok: false},
		{name: "idle rejects logout", state: auth.StateIdle, event: auth.EventLogout, want: auth.StateIdle, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := auth.Next(tc.state, tc.event)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}
