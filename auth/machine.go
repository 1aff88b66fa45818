package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hossdata/hoss"
)

// State is the session gate's position in its lifecycle.
type State string

const (
	StateIdle                   State = "idle"
	StateLoading                State = "loading"
	StateCheckLogin             State = "checkLogin"
	StateLoggedOut              State = "loggedOut"
	StateAuthorizeAuthenticate  State = "authorizeAuthenticate"
	StateRedirect               State = "redirect"
	StateCompleteAuthentication State = "completeAuthentication"
	StateLoggedIn               State = "loggedIn"
	StateLogout                 State = "logout"
	StateError                  State = "error"
	StateSystemError            State = "systemError"
)

// EventType drives the machine. The exported events are dispatched by the
// application; lowercase events are raised internally when an invoked
// effect settles.
type EventType string

const (
	EventFetchConfig EventType = "FETCH_CONFIG"
	EventAuth        EventType = "AUTH"
	EventLogout      EventType = "LOGOUT"
	EventTryAgain    EventType = "TRY_AGAIN"

	eventConfigLoaded  EventType = "configLoaded"
	eventConfigFailed  EventType = "configFailed"
	eventLoggedOut     EventType = "LOGGED_OUT"
	eventRemoveUser    EventType = "REMOVE_USER"
	eventCompleteAuth  EventType = "COMPLETE_AUTHENTICATION"
	eventUserLoggedIn  EventType = "USER_LOGGED_IN"
	eventAuthorized    EventType = "authorized"
	eventAuthenticated EventType = "authenticated"
	eventLogoutDone    EventType = "logoutDone"
	eventFailed        EventType = "failed"
)

// effect names the side effect entered alongside a state.
type effect int

const (
	effectNone effect = iota
	effectFetchConfig
	effectCheckLogin
	effectAuthorize
	effectCompleteAuth
	effectLogout
)

// Next is the pure transition table: given a state and an event it returns
// the next state and whether the event is accepted. It runs no effects.
func Next(state State, event EventType) (State, bool) {
	switch state {
	case StateIdle:
		if event == EventFetchConfig {
			return StateLoading, true
		}
	case StateLoading:
		switch event {
		case eventConfigLoaded:
			return StateCheckLogin, true
		case eventConfigFailed:
			return StateSystemError, true
		}
	case StateCheckLogin:
		switch event {
		case eventLoggedOut, eventRemoveUser:
			return StateLoggedOut, true
		case eventCompleteAuth:
			return StateCompleteAuthentication, true
		case eventUserLoggedIn:
			return StateLoggedIn, true
		}
	case StateLoggedOut:
		if event == EventAuth {
			return StateAuthorizeAuthenticate, true
		}
	case StateAuthorizeAuthenticate:
		switch event {
		case eventAuthorized:
			return StateRedirect, true
		case eventFailed:
			return StateError, true
		}
	case StateCompleteAuthentication:
		switch event {
		case eventAuthenticated:
			return StateLoggedIn, true
		case eventFailed:
			return StateError, true
		}
	case StateLoggedIn:
		if event == EventLogout {
			return StateLogout, true
		}
	case StateLogout:
		switch event {
		case eventLogoutDone:
			return StateIdle, true
		case eventFailed:
			return StateError, true
		}
	case StateError:
		if event == EventTryAgain {
			return StateLoggedOut, true
		}
	case StateSystemError, StateRedirect:
		// Absorbing states.
	}
	return state, false
}

// stateEffect maps entered states to the effect invoked on entry.
func stateEffect(state State) effect {
	switch state {
	case StateLoading:
		return effectFetchConfig
	case StateCheckLogin:
		return effectCheckLogin
	case StateAuthorizeAuthenticate:
		return effectAuthorize
	case StateCompleteAuthentication:
		return effectCompleteAuth
	case StateLogout:
		return effectLogout
	default:
		return effectNone
	}
}

// ConfigFetcher is the slice of the API client the machine needs.
type ConfigFetcher interface {
	WellKnown(ctx context.Context) (*hoss.WellKnown, error)
}

// MachineConfig wires the machine's collaborators.
type MachineConfig struct {
	API         ConfigFetcher
	Nav         Navigator
	Creds       *CredentialStore
	ClientID    string
	RedirectURI string

	// Now is the clock used for expiry checks; defaults to time.Now.
	Now func() time.Time
}

// Machine is the identity/session gate. Events are processed one at a time;
// effects run synchronously inside Send and feed their completion events
// back into the transition table, so no two invoked network calls for the
// same transition ever overlap.
type Machine struct {
	mu  sync.Mutex
	cfg MachineConfig

	state    State
	config   *hoss.WellKnown
	identity *Identity
	lastErr  error
}

// NewMachine creates a machine in the idle state.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Machine{cfg: cfg, state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the authenticated identity, or nil.
func (m *Machine) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Config returns the discovered OIDC configuration, or nil.
func (m *Machine) Config() *hoss.WellKnown {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Err returns the error that moved the machine into error or systemError.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Send dispatches an event. Unaccepted events return ErrInvalidTransition
// and leave the state unchanged.
func (m *Machine) Send(ctx context.Context, event EventType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatch(ctx, event)
}

// dispatch applies one event and then runs entered effects to quiescence.
// Callers hold m.mu.
func (m *Machine) dispatch(ctx context.Context, event EventType) error {
	next, ok := Next(m.state, event)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, event, m.state)
	}
	m.state = next

	for {
		var followUp EventType
		switch stateEffect(m.state) {
		case effectFetchConfig:
			followUp = m.runFetchConfig(ctx)
		case effectCheckLogin:
			followUp = m.runCheckLogin()
		case effectAuthorize:
			followUp = m.runAuthorize()
		case effectCompleteAuth:
			followUp = m.runCompleteAuthentication()
		case effectLogout:
			followUp = m.runLogout()
		default:
			return nil
		}

		next, ok = Next(m.state, followUp)
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, followUp, m.state)
		}
		m.state = next
	}
}

func (m *Machine) runFetchConfig(ctx context.Context) EventType {
	wk, err := m.cfg.API.WellKnown(ctx)
	if err != nil {
		m.lastErr = err
		return eventConfigFailed
	}
	m.config = wk
	return eventConfigLoaded
}

// runCheckLogin inspects the URL fragment and the credential cache and
// emits exactly one of the four check outcomes via its callback channel.
func (m *Machine) runCheckLogin() EventType {
	outcome := eventLoggedOut
	m.checkUserAuthenticated(func(event EventType) {
		outcome = event
	})
	return outcome
}

// checkUserAuthenticated is the non-blocking side-channel check: it calls
// back with the single event describing the session, rather than returning
// a value, matching the gate's invoke contract.
func (m *Machine) checkUserAuthenticated(callback func(EventType)) {
	if hasIDToken(m.cfg.Nav.Fragment()) {
		callback(eventCompleteAuth)
		return
	}

	cred, err := m.cfg.Creds.Load()
	if err != nil {
		// Absent or unreadable cache both mean no session.
		callback(eventLoggedOut)
		return
	}

	identity, err := ParseIdentity(cred.IDToken)
	if err != nil {
		_ = m.cfg.Creds.Remove()
		callback(eventRemoveUser)
		return
	}
	if identity.Expired(m.cfg.Now()) {
		// Stale entries are purged so the next check starts clean.
		_ = m.cfg.Creds.Remove()
		callback(eventRemoveUser)
		return
	}

	m.identity = identity
	callback(eventUserLoggedIn)
}

// runAuthorize triggers the external login redirect. When the URL already
// carries an id_token the redirect is skipped: the user navigated back with
// a completed exchange and the attempt resolves immediately.
func (m *Machine) runAuthorize() EventType {
	if hasIDToken(m.cfg.Nav.Fragment()) {
		return eventAuthorized
	}

	target := authorizeURL(m.config, m.cfg.ClientID, m.cfg.RedirectURI)
	if err := m.cfg.Nav.Redirect(target); err != nil {
		m.lastErr = err
		return eventFailed
	}
	return eventAuthorized
}

func (m *Machine) runCompleteAuthentication() EventType {
	token, err := fragmentToken(m.cfg.Nav.Fragment())
	if err != nil {
		m.lastErr = err
		return eventFailed
	}

	identity, err := ParseIdentity(token)
	if err != nil {
		m.lastErr = err
		return eventFailed
	}

	cred := &Credential{IDToken: token, ExpiresAt: identity.ExpiresAt}
	if err := m.cfg.Creds.Save(cred); err != nil {
		m.lastErr = err
		return eventFailed
	}

	m.cfg.Nav.ClearFragment()

	if path, ok, err := m.cfg.Creds.TakeRedirect(identity.Email); err == nil && ok {
		m.cfg.Nav.RestorePath(path)
	}

	m.identity = identity
	return eventAuthenticated
}

func (m *Machine) runLogout() EventType {
	if err := m.cfg.Creds.Remove(); err != nil {
		m.lastErr = err
		return eventFailed
	}
	m.identity = nil
	return eventLogoutDone
}

// authorizeURL builds the identity provider's authorization request for the
// implicit id_token flow with fragment response mode.
func authorizeURL(wk *hoss.WellKnown, clientID, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "id_token")
	q.Set("response_mode", "fragment")
	q.Set("scope", strings.Join(wk.ScopesSupported, " "))
	q.Set("state", uuid.NewString())
	q.Set("nonce", uuid.NewString())
	return wk.AuthorizationEndpoint + "?" + q.Encode()
}
