package hsfake

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	purposeAccess    = "access"
	purposeTwoFactor = "2fa"

	refreshTokenLength = 32
)

// Claims carried by every token the fake backend issues.
type tokenClaims struct {
	UserID     string
	MerchantID string
	ProfileID  string
	OrgID      string
	Purpose    string
	JTI        string
	ExpiresAt  time.Time
}

// hmacSigner signs and verifies HS256 tokens.
type hmacSigner struct {
	secret []byte
}

func newHMACSigner(secret string) *hmacSigner {
	return &hmacSigner{secret: []byte(secret)}
}

func (h *hmacSigner) Sign(claims jwtlib.MapClaims) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *hmacSigner) verificationKey(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

// revokedTokens remembers revoked jtis until their token would have expired anyway.
type revokedTokens struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

func newRevokedTokens() *revokedTokens {
	return &revokedTokens{revoked: make(map[string]time.Time)}
}

func (c *revokedTokens) Add(jti string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
}

func (c *revokedTokens) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

func (c *revokedTokens) Cleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}

type storedRefreshToken struct {
	UserID     string
	MerchantID string
	ProfileID  string
	Iat        time.Time
}

// refreshTokens keeps a single rotating refresh token per user.
type refreshTokens struct {
	byToken map[string]storedRefreshToken
	byUser  map[string]string
	expiry  time.Duration
	lock    sync.Mutex
}

func newRefreshTokens(expiry time.Duration) *refreshTokens {
	return &refreshTokens{
		byToken: make(map[string]storedRefreshToken),
		byUser:  make(map[string]string),
		expiry:  expiry,
	}
}

func (m *refreshTokens) Create(rt storedRefreshToken) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}
	tokenStr := hex.EncodeToString(tokenBytes)

	m.lock.Lock()
	defer m.lock.Unlock()
	if existing, ok := m.byUser[rt.UserID]; ok {
		delete(m.byToken, existing)
	}
	m.byToken[tokenStr] = rt
	m.byUser[rt.UserID] = tokenStr
	return tokenStr, nil
}

// Consume removes token and returns what it was issued for. Expired tokens are removed too.
func (m *refreshTokens) Consume(token string, now time.Time) (storedRefreshToken, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rt, ok := m.byToken[token]
	if !ok {
		return storedRefreshToken{}, false
	}
	delete(m.byToken, token)
	delete(m.byUser, rt.UserID)
	if now.Sub(rt.Iat) > m.expiry {
		return storedRefreshToken{}, false
	}
	return rt, true
}

func (m *refreshTokens) DeleteForUser(userID string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if token, ok := m.byUser[userID]; ok {
		delete(m.byToken, token)
		delete(m.byUser, userID)
	}
}

// tokenIssuer mints and checks the JWTs handed to the dashboard.
type tokenIssuer struct {
	signer    *hmacSigner
	revoked   *revokedTokens
	refresh   *refreshTokens
	accessTTL time.Duration
	nowTime   func() time.Time

	lock   sync.Mutex
	issued map[string]time.Time // access jti to expiry
}

func newTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, nowTime func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		signer:    newHMACSigner(secret),
		revoked:   newRevokedTokens(),
		refresh:   newRefreshTokens(refreshTTL),
		accessTTL: accessTTL,
		nowTime:   nowTime,
		issued:    make(map[string]time.Time),
	}
}

func (ti *tokenIssuer) Issue(c tokenClaims) (string, error) {
	now := ti.nowTime()
	c.JTI = uuid.New().String()
	c.ExpiresAt = now.Add(ti.accessTTL)

	signed, err := ti.signer.Sign(jwtlib.MapClaims{
		"jti":         c.JTI,
		"sub":         c.UserID,
		"user_id":     c.UserID,
		"merchant_id": c.MerchantID,
		"profile_id":  c.ProfileID,
		"org_id":      c.OrgID,
		"purpose":     c.Purpose,
		"iat":         now.Unix(),
		"exp":         c.ExpiresAt.Unix(),
	})
	if err != nil {
		return "", err
	}
	if c.Purpose == purposeAccess {
		ti.lock.Lock()
		ti.issued[c.JTI] = c.ExpiresAt
		ti.lock.Unlock()
	}
	return signed, nil
}

// Parse verifies raw and checks it was issued for purpose and has not been revoked.
func (ti *tokenIssuer) Parse(raw, purpose string) (tokenClaims, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, ti.signer.verificationKey,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(ti.nowTime),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return tokenClaims{}, errors.Wrap(err, "invalid token")
	}

	c := tokenClaims{
		UserID:     stringClaim(claims, "sub"),
		MerchantID: stringClaim(claims, "merchant_id"),
		ProfileID:  stringClaim(claims, "profile_id"),
		OrgID:      stringClaim(claims, "org_id"),
		Purpose:    stringClaim(claims, "purpose"),
		JTI:        stringClaim(claims, "jti"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if c.Purpose != purpose {
		return tokenClaims{}, errors.Errorf("token issued for %q, not %q", c.Purpose, purpose)
	}
	if ti.revoked.IsRevoked(c.JTI) {
		return tokenClaims{}, errors.New("token revoked")
	}
	return c, nil
}

func (ti *tokenIssuer) Revoke(c tokenClaims) {
	ti.revoked.Add(c.JTI, c.ExpiresAt)
	ti.lock.Lock()
	delete(ti.issued, c.JTI)
	ti.lock.Unlock()
}

// RevokeAll revokes every access token issued so far.
func (ti *tokenIssuer) RevokeAll() {
	ti.lock.Lock()
	defer ti.lock.Unlock()
	for jti, exp := range ti.issued {
		ti.revoked.Add(jti, exp)
		delete(ti.issued, jti)
	}
	ti.revoked.Cleanup(ti.nowTime())
}

func stringClaim(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
