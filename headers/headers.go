package headers

import (
	"net/http"
	"strings"
)

// Version selects which authorization headers are attached.
type Version string

const (
	V1 Version = "V1"
	V2 Version = "V2"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	StaticAPIKey = "hyperswitch"

	FeatureIntegCustom     = "integ-custom"
	FeatureDynamoSimulator = "dynamo-simulator"
)

// Header names are kept exactly as the backend and analytics proxy expect them.
const (
	Authorization = "authorization"
	APIKey        = "api-key"
	ContentType   = "Content-Type"
	Accept        = "accept"
	XFeature      = "x-feature"
	XProfileID    = "X-Profile-Id"
	XMerchantID   = "X-Merchant-Id"
)

// URIs containing any of these keep the JSON content type instead of getting x-feature.
var featureExemptPaths = []string{"lottie-files", "config/merchant", "config/feature"}

// Options enumerates every input Build understands.
type Options struct {
	URI           string
	Headers       map[string]string // base headers, copied and never mutated
	ContentType   string            // empty leaves Content-Type untouched
	XFeatureRoute bool
	Token         string
	MerchantID    string
	ProfileID     string
	Version       Version // empty behaves as V1
}

// DefaultOptions returns the options a plain JSON request starts from.
func DefaultOptions(uri string) Options {
	return Options{
		URI:           uri,
		ContentType:   ContentTypeJSON,
		XFeatureRoute: true,
		Version:       V1,
	}
}

// Build produces the request header map for opts. It is deterministic and has no side effects.
func Build(opts Options) map[string]string {
	if strings.Contains(opts.URI, "mixpanel") {
		return map[string]string{
			ContentType: ContentTypeForm,
			Accept:      ContentTypeJSON,
		}
	}

	h := make(map[string]string, len(opts.Headers)+6)
	for k, v := range opts.Headers {
		h[k] = v
	}

	if opts.Token != "" {
		switch opts.Version {
		case V2:
			h[Authorization] = "Bearer " + opts.Token
		case V1, "":
			h[Authorization] = "Bearer " + opts.Token
			h[APIKey] = StaticAPIKey
		}
	}

	if opts.ContentType != "" {
		h[ContentType] = opts.ContentType
	}

	if opts.XFeatureRoute {
		if isFeatureExempt(opts.URI) {
			h[ContentType] = ContentTypeJSON
		} else {
			h[XFeature] = FeatureIntegCustom
		}
	}

	if strings.Contains(opts.URI, "dynamic-routing") {
		h[XFeature] = FeatureDynamoSimulator
	}

	if opts.ProfileID != "" {
		h[XProfileID] = opts.ProfileID
	}
	if opts.MerchantID != "" {
		h[XMerchantID] = opts.MerchantID
	}
	return h
}

// Apply copies h onto dst without canonicalising the key spelling.
func Apply(dst http.Header, h map[string]string) {
	for k, v := range h {
		dst[k] = []string{v}
	}
}

func isFeatureExempt(uri string) bool {
	for _, p := range featureExemptPaths {
		if strings.Contains(uri, p) {
			return true
		}
	}
	return false
}
