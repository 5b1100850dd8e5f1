package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/multipaga/apiurl"
	"github.com/jrsteele09/multipaga/fetch"
	"github.com/jrsteele09/multipaga/headers"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/internal/metrics"
	"github.com/jrsteele09/multipaga/tokenstore"
	"github.com/jrsteele09/multipaga/users"
)

var _ fetch.Session = (*Service)(nil)

// Service owns the session state machine. It is the only writer of the token store.
type Service struct {
	baseURL string
	client  *http.Client
	tokens  *tokenstore.Tokens
	logger  zerolog.Logger
	nowTime func() time.Time // injectable for testing

	lock      sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int

	refreshLock sync.Mutex
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.client = client
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// New creates a Service in the CheckingAuth state. Call CheckAuth to resolve it.
func New(baseURL string, store tokenstore.Store, options ...ServiceOption) (*Service, error) {
	if baseURL == "" {
		return nil, errors.New("[auth.New] base url is required")
	}
	if store == nil {
		return nil, errors.New("[auth.New] token store is required")
	}

	s := &Service{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    http.DefaultClient,
		tokens:    tokenstore.NewTokens(store),
		logger:    log.Logger,
		nowTime:   time.Now,
		state:     CheckingAuth,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Status returns the current state.
func (s *Service) Status() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Subscribe registers fn for every state change and returns a function that removes it.
func (s *Service) Subscribe(fn func(State)) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) setState(state State) {
	s.lock.Lock()
	if s.state == state {
		s.lock.Unlock()
		return
	}
	s.state = state
	listeners := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.lock.Unlock()

	s.logger.Debug().Str("state", state.String()).Msg("auth state changed")
	for _, fn := range listeners {
		fn(state)
	}
}

// CheckAuth resolves CheckingAuth from the token store. An expired access token is refreshed
// when a refresh token is stored, otherwise the store is cleared.
func (s *Service) CheckAuth(ctx context.Context) (State, error) {
	access, err := s.tokens.AccessToken(ctx)
	if err != nil {
		s.setState(LoggedOut)
		return LoggedOut, errors.Wrap(err, "[Service.CheckAuth] read access token")
	}

	if access != "" {
		if !s.tokenValid(access) {
			if err := s.RefreshToken(ctx); err != nil {
				s.logger.Info().Err(err).Msg("stored session expired")
				s.setState(LoggedOut)
				return LoggedOut, nil
			}
		}
		user, err := s.tokens.UserInfo(ctx)
		if err != nil {
			return s.Status(), errors.Wrap(err, "[Service.CheckAuth] read user info")
		}
		if user != nil {
			s.setState(LoggedIn)
			return LoggedIn, nil
		}
	}

	twoFA, err := s.tokens.TwoFAToken(ctx)
	if err != nil {
		return s.Status(), errors.Wrap(err, "[Service.CheckAuth] read 2fa token")
	}
	if twoFA != "" {
		s.setState(PreLogin)
		return PreLogin, nil
	}
	s.setState(LoggedOut)
	return LoggedOut, nil
}

// SignIn posts credentials. A two_factor_auth_required answer stores the 2FA token and moves to
// PreLogin; otherwise the tokens are stored, the profile fetched and the state becomes LoggedIn.
// Failures leave the state untouched.
func (s *Service) SignIn(ctx context.Context, email, password string) (result *SignInResult, err error) {
	defer func() { metrics.SignInTotal.WithLabelValues("password", metrics.Outcome(err)).Inc() }()

	req := SignInRequest{Email: email, Password: password}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp TokenResponse
	if err := s.post(ctx, apiurl.SignIn, "", req, &resp); err != nil {
		s.logger.Err(err).Str("email", email).Msg("sign in failed")
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("[Service.SignIn] response carried no token")
	}

	if resp.TwoFactorAuthRequired {
		if err := s.startTwoFactor(ctx, resp.Token); err != nil {
			return nil, err
		}
		s.setState(PreLogin)
		return &SignInResult{RequiresTwoFactor: true}, nil
	}

	user, err := s.establish(ctx, resp)
	if err != nil {
		return nil, err
	}
	return &SignInResult{User: user}, nil
}

// SignInWithMagicLink asks the backend to email a login link and returns its confirmation message.
func (s *Service) SignInWithMagicLink(ctx context.Context, email string) (message string, err error) {
	defer func() { metrics.SignInTotal.WithLabelValues("magic_link", metrics.Outcome(err)).Inc() }()

	req := MagicLinkRequest{Email: email}
	if err := Validate(req); err != nil {
		return "", err
	}
	var resp MessageResponse
	if err := s.post(ctx, apiurl.SignInMagicLink, "", req, &resp); err != nil {
		s.logger.Err(err).Str("email", email).Msg("magic link request failed")
		return "", err
	}
	return resp.Message, nil
}

func (s *Service) VerifyTOTP(ctx context.Context, code string) (*users.UserInfo, error) {
	return s.verifyTwoFactor(ctx, apiurl.TOTPVerify, TOTPRequest{TOTP: code})
}

func (s *Service) VerifyRecoveryCode(ctx context.Context, code string) (*users.UserInfo, error) {
	return s.verifyTwoFactor(ctx, apiurl.RecoveryCodeVerify, RecoveryCodeRequest{RecoveryCode: code})
}

// CancelTwoFactor abandons a pending second factor.
func (s *Service) CancelTwoFactor(ctx context.Context) error {
	if err := s.tokens.Delete(ctx, tokenstore.TwoFAToken); err != nil {
		return errors.Wrap(err, "[Service.CancelTwoFactor] delete 2fa token")
	}
	s.setState(LoggedOut)
	return nil
}

func (s *Service) verifyTwoFactor(ctx context.Context, path string, req any) (user *users.UserInfo, err error) {
	defer func() { metrics.SignInTotal.WithLabelValues("two_factor", metrics.Outcome(err)).Inc() }()

	twoFA, err := s.tokens.TwoFAToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.verifyTwoFactor] read 2fa token")
	}
	if twoFA == "" {
		return nil, fmt.Errorf("%w: %w", internalerrors.ErrValidation, internalerrors.ErrNoPendingTwoFactor)
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp TokenResponse
	if err := s.post(ctx, path, twoFA, req, &resp); err != nil {
		s.logger.Err(err).Str("path", path).Msg("second factor rejected")
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("[Service.verifyTwoFactor] response carried no token")
	}
	return s.establish(ctx, resp)
}

// SignOut tells the backend, ignoring any failure, then clears the store.
func (s *Service) SignOut(ctx context.Context) error {
	access, err := s.tokens.AccessToken(ctx)
	if err != nil {
		s.logger.Err(err).Msg("sign out: reading access token failed")
	}
	if access != "" {
		if err := s.post(ctx, apiurl.SignOut, access, nil, nil); err != nil {
			s.logger.Warn().Err(err).Msg("sign out request failed, clearing local session anyway")
		}
	}
	return s.clear(ctx)
}

// ForceLogout ends the session without asking the backend, e.g. after an unrecoverable 401.
func (s *Service) ForceLogout(ctx context.Context, reason string) error {
	metrics.ForcedLogoutsTotal.WithLabelValues(reason).Inc()
	s.logger.Warn().Str("reason", reason).Msg("forcing logout")
	return s.clear(ctx)
}

// RefreshToken exchanges the stored refresh token for a new access token. Any failure clears
// the store, moves to LoggedOut and is returned.
func (s *Service) RefreshToken(ctx context.Context) error {
	s.refreshLock.Lock()
	defer s.refreshLock.Unlock()
	return s.refreshLocked(ctx)
}

// Refresh is RefreshToken for concurrent 401s: a caller that waited on another refresh
// reuses its result instead of spending the refresh token again. The refresh token is
// spent at most once per rotation, so a caller can return without any refresh of its own.
func (s *Service) Refresh(ctx context.Context) error {
	before, _ := s.tokens.AccessToken(ctx)

	s.refreshLock.Lock()
	defer s.refreshLock.Unlock()

	if current, err := s.tokens.AccessToken(ctx); err == nil && current != "" && current != before && s.tokenValid(current) {
		return nil
	}
	return s.refreshLocked(ctx)
}

// refreshLocked runs detached from ctx: the refresh is shared by every waiting caller, and
// the server rotates the refresh token even when the caller that started it has gone away.
func (s *Service) refreshLocked(ctx context.Context) (err error) {
	defer func() { metrics.TokenRefreshTotal.WithLabelValues(metrics.Outcome(err)).Inc() }()
	ctx = context.WithoutCancel(ctx)

	fail := func(cause error) error {
		if fetch.IsAborted(cause) {
			s.logger.Warn().Err(cause).Msg("token refresh aborted, session kept")
			return cause
		}
		s.logger.Err(cause).Msg("token refresh failed")
		if err := s.clear(ctx); err != nil {
			s.logger.Err(err).Msg("clearing session after failed refresh")
		}
		return cause
	}

	refresh, err := s.tokens.RefreshToken(ctx)
	if err != nil {
		return fail(errors.Wrap(err, "[Service.RefreshToken] read refresh token"))
	}
	if refresh == "" {
		return fail(errors.Wrap(internalerrors.ErrNoRefreshToken, "[Service.RefreshToken]"))
	}

	var resp TokenResponse
	if err := s.post(ctx, apiurl.RefreshToken, "", RefreshRequest{RefreshToken: refresh}, &resp); err != nil {
		return fail(errors.Wrap(err, "[Service.RefreshToken]"))
	}
	if resp.Token == "" {
		return fail(errors.New("[Service.RefreshToken] response carried no token"))
	}
	if err := s.tokens.SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return fail(errors.Wrap(err, "[Service.RefreshToken] store tokens"))
	}
	return nil
}

// SwitchMerchant moves the session to another merchant and re-fetches the profile.
func (s *Service) SwitchMerchant(ctx context.Context, merchantID string) (*users.UserInfo, error) {
	req := SwitchMerchantRequest{MerchantID: merchantID}
	if err := Validate(req); err != nil {
		return nil, err
	}
	access, err := s.requireAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp TokenResponse
	if err := s.post(ctx, apiurl.SwitchMerchant, access, req, &resp); err != nil {
		s.logger.Err(err).Str("merchant_id", merchantID).Msg("switch merchant failed")
		return nil, err
	}
	if resp.Token != "" {
		if err := s.tokens.SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
			return nil, errors.Wrap(err, "[Service.SwitchMerchant] store tokens")
		}
	}
	if err := s.tokens.Set(ctx, tokenstore.MerchantID, merchantID); err != nil {
		return nil, errors.Wrap(err, "[Service.SwitchMerchant] store merchant id")
	}
	return s.FetchUserInfo(ctx)
}

// FetchUserInfo replaces the stored profile and its merchant, org and profile ids.
func (s *Service) FetchUserInfo(ctx context.Context) (*users.UserInfo, error) {
	access, err := s.requireAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	var user users.UserInfo
	if err := s.do(ctx, http.MethodGet, apiurl.UserInfo, access, nil, &user); err != nil {
		return nil, err
	}
	if err := s.tokens.SetUserInfo(ctx, &user); err != nil {
		return nil, errors.Wrap(err, "[Service.FetchUserInfo] store user info")
	}
	return &user, nil
}

// UpdateUser patches the stored profile locally without calling the backend.
func (s *Service) UpdateUser(ctx context.Context, patch users.Patch) (*users.UserInfo, error) {
	user, err := s.tokens.UserInfo(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateUser] read user info")
	}
	if user == nil {
		return nil, errors.Wrap(internalerrors.ErrNotAuthenticated, "[Service.UpdateUser]")
	}
	updated := user.Apply(patch)
	if err := s.tokens.SetUserInfo(ctx, &updated); err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateUser] store user info")
	}
	return &updated, nil
}

// Session returns a snapshot of the logged in session.
func (s *Service) Session(ctx context.Context) (*Session, error) {
	if s.Status() != LoggedIn {
		return nil, errors.Wrap(internalerrors.ErrNotAuthenticated, "[Service.Session]")
	}
	access, err := s.requireAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.tokens.UserInfo(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Session] read user info")
	}
	if user == nil {
		return nil, errors.Wrap(internalerrors.ErrNotAuthenticated, "[Service.Session] no user info")
	}

	session := &Session{AccessToken: access, User: *user}
	session.ExpiresAt, _ = tokenstore.TokenExpiry(access)
	for slot, dst := range map[tokenstore.Slot]*string{
		tokenstore.RefreshToken: &session.RefreshToken,
		tokenstore.MerchantID:   &session.MerchantID,
		tokenstore.ProfileID:    &session.ProfileID,
		tokenstore.OrgID:        &session.OrgID,
	} {
		if *dst, err = tokenstore.Value(ctx, s.tokens, slot); err != nil {
			return nil, errors.Wrapf(err, "[Service.Session] read %s", slot)
		}
	}
	return session, nil
}

// Credentials implements fetch.Session.
func (s *Service) Credentials(ctx context.Context) (fetch.Credentials, error) {
	var creds fetch.Credentials
	var err error
	if creds.Token, err = s.tokens.AccessToken(ctx); err != nil {
		return creds, err
	}
	if creds.MerchantID, err = s.tokens.MerchantID(ctx); err != nil {
		return creds, err
	}
	creds.ProfileID, err = s.tokens.ProfileID(ctx)
	return creds, err
}

// establish stores a fresh token pair, fetches the profile and moves to LoggedIn. The pending
// 2FA token is dropped only once the profile is in hand.
func (s *Service) establish(ctx context.Context, resp TokenResponse) (*users.UserInfo, error) {
	if err := s.tokens.SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[Service.establish] store tokens")
	}
	user, err := s.FetchUserInfo(ctx)
	if err != nil {
		s.discardTokens(ctx)
		return nil, err
	}
	if err := s.tokens.Delete(ctx, tokenstore.TwoFAToken); err != nil {
		return nil, errors.Wrap(err, "[Service.establish] delete 2fa token")
	}
	s.setState(LoggedIn)
	return user, nil
}

// startTwoFactor keeps PendingTwoFactor and a session from coexisting.
func (s *Service) startTwoFactor(ctx context.Context, twoFA string) error {
	s.discardTokens(ctx)
	if err := s.tokens.Set(ctx, tokenstore.TwoFAToken, twoFA); err != nil {
		return errors.Wrap(err, "[Service.startTwoFactor] store 2fa token")
	}
	return nil
}

func (s *Service) discardTokens(ctx context.Context) {
	for _, slot := range []tokenstore.Slot{tokenstore.AuthToken, tokenstore.RefreshToken, tokenstore.UserInfo} {
		if err := s.tokens.Delete(ctx, slot); err != nil {
			s.logger.Err(err).Str("slot", string(slot)).Msg("discarding token failed")
		}
	}
}

func (s *Service) clear(ctx context.Context) error {
	err := s.tokens.Clear(ctx)
	s.setState(LoggedOut)
	return errors.Wrap(err, "[Service.clear]")
}

func (s *Service) requireAccessToken(ctx context.Context) (string, error) {
	access, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return "", errors.Wrap(err, "[Service] read access token")
	}
	if access == "" {
		return "", errors.Wrap(internalerrors.ErrNotAuthenticated, "[Service] no access token")
	}
	return access, nil
}

func (s *Service) tokenValid(raw string) bool {
	return tokenstore.IsTokenValidAt(raw, s.nowTime())
}

func (s *Service) post(ctx context.Context, path, bearer string, body, out any) error {
	return s.do(ctx, http.MethodPost, path, bearer, body, out)
}

// do calls a user endpoint directly, outside the fetch wrapper, so an auth failure here never
// recurses into refresh.
func (s *Service) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[Service.do] encode %s", path)
		}
		reader = bytes.NewReader(raw)
	}

	url := apiurl.Join(s.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.Wrapf(err, "[Service.do] build %s %s", method, path)
	}
	headers.Apply(req.Header, headers.Build(headers.Options{
		URI:         url,
		Headers:     map[string]string{headers.Accept: headers.ContentTypeJSON},
		ContentType: headers.ContentTypeJSON,
		Token:       bearer,
		Version:     headers.V2,
	}))

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(method, metrics.StatusLabel(0)).Inc()
		return fetch.TransportError(ctx, err)
	}
	metrics.RequestsTotal.WithLabelValues(method, metrics.StatusLabel(resp.StatusCode)).Inc()
	return fetch.HandleResponse(resp, out)
}
