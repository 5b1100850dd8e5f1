package cookiestore

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
)

var _ tokenstore.Store = (*CookieStore)(nil)

// CookieStore keeps each slot in a cookie of the same name, scoped to the dashboard origin.
// With a Policy.Domain the cookies are written domain-wide so every subdomain shares the session.
type CookieStore struct {
	jar     http.CookieJar
	origin  *url.URL
	policy  tokenstore.Policy
	nowTime func() time.Time
	lock    sync.Mutex
}

type Option func(*CookieStore)

func WithNowTime(nowTime func() time.Time) Option {
	return func(c *CookieStore) {
		c.nowTime = nowTime
	}
}

func New(jar http.CookieJar, dashboardURL string, policy tokenstore.Policy, opts ...Option) (*CookieStore, error) {
	origin, err := url.Parse(dashboardURL)
	if err != nil {
		return nil, errors.Wrap(err, "[cookiestore.New] parse dashboard url")
	}
	if origin.Host == "" {
		return nil, errors.Errorf("[cookiestore.New] dashboard url %q has no host", dashboardURL)
	}
	if policy.Secure && origin.Scheme != "https" {
		return nil, errors.Errorf("[cookiestore.New] secure cookies are never sent to %q, use an https dashboard url", dashboardURL)
	}
	c := &CookieStore{
		jar:     jar,
		origin:  origin,
		policy:  policy,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Jar exposes the underlying jar so an http.Client can share it.
func (c *CookieStore) Jar() http.CookieJar {
	return c.jar
}

func (c *CookieStore) Get(_ context.Context, slot tokenstore.Slot) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name != string(slot) {
			continue
		}
		value, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return "", errors.Wrapf(err, "[CookieStore.Get] decode %s", slot)
		}
		c.write(slot, value)
		return value, nil
	}
	return "", internalerrors.ErrNotFound
}

func (c *CookieStore) Set(_ context.Context, slot tokenstore.Slot, value string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.write(slot, value)
	return nil
}

func (c *CookieStore) Delete(_ context.Context, slot tokenstore.Slot) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.remove(slot)
	return nil
}

// Clear expires the host-only and the domain-qualified variant of every slot.
func (c *CookieStore) Clear(_ context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, slot := range tokenstore.Slots() {
		c.remove(slot)
	}
	return nil
}

func (c *CookieStore) write(slot tokenstore.Slot, value string) {
	ck := c.cookie(slot, c.policy.Domain)
	ck.Value = url.QueryEscape(value)
	ck.Expires = c.nowTime().Add(c.policy.Expiry)
	c.jar.SetCookies(c.origin, []*http.Cookie{ck})
}

func (c *CookieStore) remove(slot tokenstore.Slot) {
	expired := []*http.Cookie{c.cookie(slot, "")}
	if c.policy.Domain != "" {
		expired = append(expired, c.cookie(slot, c.policy.Domain))
	}
	for _, ck := range expired {
		ck.MaxAge = -1
	}
	c.jar.SetCookies(c.origin, expired)
}

func (c *CookieStore) cookie(slot tokenstore.Slot, domain string) *http.Cookie {
	return &http.Cookie{
		Name:     string(slot),
		Path:     "/",
		Domain:   strings.TrimPrefix(domain, "."),
		Secure:   c.policy.Secure,
		SameSite: c.policy.SameSite,
	}
}
