package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/multipaga/apiurl"
	"github.com/jrsteele09/multipaga/headers"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/internal/metrics"
)

const (
	DefaultLoginPath = "/login"
	RequestIDHeader  = "X-Request-Id"
)

// Credentials are the session values attached to every request.
type Credentials struct {
	Token      string
	MerchantID string
	ProfileID  string
}

// Session is the auth state the fetcher reads from and escalates 401s to.
type Session interface {
	Credentials(ctx context.Context) (Credentials, error)
	// Refresh replaces the access token once. On failure the session is already cleared.
	Refresh(ctx context.Context) error
	ForceLogout(ctx context.Context, reason string) error
}

// Redirect is called with the login path after a forced logout.
type Redirect func(path string)

// File is one file part of a multipart body.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Multipart is a form body; the writer's boundary header replaces any Content-Type.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

// Request describes one call. URL is absolute or a path joined to the base URL.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	ContentType string // defaults to application/json
	Body        string // JSON text
	Form        *Multipart
}

type Fetcher struct {
	baseURL       string
	client        *http.Client
	session       Session
	version       headers.Version
	xFeatureRoute bool
	loginPath     string
	redirect      Redirect
	progress      *Progress
	logger        zerolog.Logger
}

type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithVersion(v headers.Version) Option {
	return func(f *Fetcher) {
		f.version = v
	}
}

func WithXFeatureRoute(enabled bool) Option {
	return func(f *Fetcher) {
		f.xFeatureRoute = enabled
	}
}

func WithLoginPath(path string) Option {
	return func(f *Fetcher) {
		f.loginPath = path
	}
}

func WithRedirect(r Redirect) Option {
	return func(f *Fetcher) {
		f.redirect = r
	}
}

func WithProgress(p *Progress) Option {
	return func(f *Fetcher) {
		f.progress = p
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func New(baseURL string, session Session, opts ...Option) (*Fetcher, error) {
	if baseURL == "" {
		return nil, errors.New("[fetch.New] base url is required")
	}
	if session == nil {
		return nil, errors.New("[fetch.New] session is required")
	}
	f := &Fetcher{
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        http.DefaultClient,
		session:       session,
		version:       headers.V1,
		xFeatureRoute: true,
		loginPath:     DefaultLoginPath,
		redirect:      func(string) {},
		progress:      DefaultProgress,
		logger:        log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

func (f *Fetcher) Progress() *Progress {
	return f.progress
}

// Do sends req. A 401 triggers at most one refresh per rotated token and one retry; a failed
// refresh or a second 401 forces logout, calls the redirect with the login path and returns
// ErrUnauthorized. A call cancelled while it waits on the refresh returns the abort and leaves
// the session alone.
func (f *Fetcher) Do(ctx context.Context, req Request) (*http.Response, error) {
	f.progress.begin()
	defer f.progress.end()

	resp, err := f.send(ctx, req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	discard(resp)

	if err := f.session.Refresh(ctx); err != nil {
		if ctx.Err() != nil || IsAborted(err) {
			return nil, TransportError(ctx, err)
		}
		f.unauthorized(ctx, "refresh_failed")
		return nil, errors.Wrapf(internalerrors.ErrUnauthorized, "[Fetcher.Do] %s %s: refresh failed: %v", req.Method, req.URL, err)
	}

	if ctx.Err() != nil {
		return nil, TransportError(ctx, ctx.Err())
	}
	resp, err = f.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		f.unauthorized(ctx, "unauthorized_after_refresh")
		return nil, errors.Wrapf(internalerrors.ErrUnauthorized, "[Fetcher.Do] %s %s", req.Method, req.URL)
	}
	return resp, nil
}

// JSON sends body (marshalled unless nil or a string) and decodes the answer into out.
func (f *Fetcher) JSON(ctx context.Context, method, url string, body any, out any) error {
	req := Request{Method: method, URL: url}
	switch b := body.(type) {
	case nil:
	case string:
		req.Body = b
	case *Multipart:
		req.Form = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return errors.Wrap(err, "[Fetcher.JSON] encode body")
		}
		req.Body = string(raw)
	}
	resp, err := f.Do(ctx, req)
	if err != nil {
		return err
	}
	return HandleResponse(resp, out)
}

func (f *Fetcher) send(ctx context.Context, req Request) (*http.Response, error) {
	creds, err := f.session.Credentials(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Fetcher.send] read session")
	}

	uri := f.resolve(req.URL)
	opts := headers.DefaultOptions(uri)
	opts.Headers = req.Headers
	opts.Version = f.version
	opts.XFeatureRoute = f.xFeatureRoute
	opts.Token = creds.Token
	opts.MerchantID = creds.MerchantID
	opts.ProfileID = creds.ProfileID
	if req.ContentType != "" {
		opts.ContentType = req.ContentType
	}
	h := headers.Build(opts)

	var body io.Reader
	switch {
	case req.Form != nil:
		buf, contentType, err := encodeMultipart(req.Form)
		if err != nil {
			return nil, err
		}
		// the boundary header replaces whatever content type Build chose
		h[headers.ContentType] = contentType
		body = buf
	case req.Body != "":
		body = strings.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Fetcher.send] build %s %s", method, uri)
	}
	headers.Apply(httpReq.Header, h)
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(method, metrics.StatusLabel(0)).Inc()
		return nil, TransportError(ctx, err)
	}
	metrics.RequestsTotal.WithLabelValues(method, metrics.StatusLabel(resp.StatusCode)).Inc()
	return resp, nil
}

func (f *Fetcher) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return apiurl.Join(f.baseURL, url)
}

func (f *Fetcher) unauthorized(ctx context.Context, reason string) {
	if err := f.session.ForceLogout(ctx, reason); err != nil {
		f.logger.Err(err).Str("reason", reason).Msg("forced logout failed")
	}
	f.redirect(f.loginPath)
}

func encodeMultipart(form *Multipart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range form.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", errors.Wrapf(err, "[encodeMultipart] field %s", k)
		}
	}
	for _, file := range form.Files {
		part, err := w.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, "", errors.Wrapf(err, "[encodeMultipart] file %s", file.Name)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", errors.Wrapf(err, "[encodeMultipart] write %s", file.Name)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "[encodeMultipart] close")
	}
	return buf, w.FormDataContentType(), nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
