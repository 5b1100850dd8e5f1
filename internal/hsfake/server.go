// Package hsfake is an in-process stand-in for the Hyperswitch user and V2 merchant APIs.
// It backs the package tests and the sandbox command; nothing in it is production grade.
package hsfake

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/multipaga/users"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	totpIssuer = "Hyperswitch"
)

type Server struct {
	router     chi.Router
	accounts   *accountRepo
	tokens     *tokenIssuer
	data       *dataStore
	logger     zerolog.Logger
	nowTime    func() time.Time
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	failRefresh  atomic.Bool
	refreshCount atomic.Int64
	callsLock    sync.Mutex
	calls        map[string]int
	magicLinks   []string
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*Server)

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithNowTime sets the clock used to mint and check tokens and to validate TOTP codes.
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func WithAccessTokenTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithRefreshTokenTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		s.refreshTTL = ttl
	}
}

func WithSecret(secret string) ServerOption {
	return func(s *Server) {
		s.secret = secret
	}
}

func New(options ...ServerOption) *Server {
	s := &Server{
		accounts:   newAccountRepo(),
		logger:     log.Logger,
		nowTime:    time.Now,
		secret:     "hsfake-signing-secret",
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		calls:      make(map[string]int),
	}
	for _, opt := range options {
		opt(s)
	}
	s.tokens = newTokenIssuer(s.secret, s.accessTTL, s.refreshTTL, s.nowTime)
	s.data = newDataStore(s.nowTime)
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, s.loggingMiddleware, s.countingMiddleware)

	r.Route("/user", func(r chi.Router) {
		r.Post("/v2/signin", s.signIn)
		r.Post("/signin", s.magicLink)
		r.Post("/refresh_token", s.refreshToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken(purposeTwoFactor))
			r.Post("/2fa/totp/verify", s.verifyTOTP)
			r.Post("/2fa/recovery_code/verify", s.verifyRecoveryCode)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken(purposeAccess))
			r.Get("/", s.getUser)
			r.Post("/signout", s.signOut)
			r.Post("/v2/switch_merchant", s.switchMerchant)
		})
	})

	r.Route("/v2", func(r chi.Router) {
		r.Use(s.requireToken(purposeAccess), s.merchantScope)
		s.appendV2Routes(r)
	})
	return r
}

// LogRoutes writes every registered route, method coloured.
func (s *Server) LogRoutes(w io.Writer) error {
	return chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route != "/" {
			route = strings.TrimSuffix(route, "/")
		}
		return logRoute(w, method, route)
	})
}

// AddAccount registers a user that can sign in with email and password.
func (s *Server) AddAccount(email, password string, user users.UserInfo) (users.UserInfo, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return users.UserInfo{}, errors.Wrap(err, "[Server.AddAccount] hash password")
	}
	user.Email = email
	account := &Account{User: user, PasswordHash: hash, Merchants: map[string]string{}}
	s.accounts.Upsert(account)
	return account.User, nil
}

// AddMerchant lets the account switch to merchantID, landing on profileID.
func (s *Server) AddMerchant(email, merchantID, profileID string) error {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return errors.Wrapf(err, "[Server.AddMerchant] %s", email)
	}
	return s.accounts.Update(account.User.ID, func(a *Account) {
		a.Merchants[merchantID] = profileID
	})
}

// EnableTOTP turns on the second factor for the account and returns its secret and recovery codes.
func (s *Server) EnableTOTP(email string) (secret string, recoveryCodes []string, err error) {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return "", nil, errors.Wrapf(err, "[Server.EnableTOTP] %s", email)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  20,
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "[Server.EnableTOTP] generate secret")
	}
	for i := 0; i < 8; i++ {
		recoveryCodes = append(recoveryCodes, newID("rc")[3:])
	}
	err = s.accounts.Update(account.User.ID, func(a *Account) {
		a.TOTPSecret = key.Secret()
		a.RecoveryCodes = append([]string(nil), recoveryCodes...)
	})
	return key.Secret(), recoveryCodes, err
}

// TOTPCode returns the code the authenticator app would show now for secret.
func (s *Server) TOTPCode(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, s.nowTime().UTC(), totpOpts())
}

// Seed fills the merchant with demo connectors, customers, payments and workflows.
func (s *Server) Seed(merchantID, profileID string) {
	s.data.Seed(merchantID, profileID)
}

// RevokeAccessTokens makes every access token issued so far answer 401.
func (s *Server) RevokeAccessTokens() {
	s.tokens.RevokeAll()
}

// FailRefresh makes the refresh endpoint reject every token while enabled.
func (s *Server) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

func (s *Server) RefreshCount() int {
	return int(s.refreshCount.Load())
}

// Calls returns how many requests reached path, query excluded.
func (s *Server) Calls(path string) int {
	s.callsLock.Lock()
	defer s.callsLock.Unlock()
	return s.calls[path]
}

// MagicLinks lists the addresses a login link was sent to.
func (s *Server) MagicLinks() []string {
	s.callsLock.Lock()
	defer s.callsLock.Unlock()
	return append([]string(nil), s.magicLinks...)
}

func totpOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
