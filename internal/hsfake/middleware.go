package hsfake

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	scopeKey  contextKey = "scope"
)

// scope is the merchant and profile a V2 request acts on.
type scope struct {
	MerchantID string
	ProfileID  string
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("hsfake request")
	})
}

func (s *Server) countingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.callsLock.Lock()
		s.calls[r.URL.Path]++
		s.callsLock.Unlock()
		next.ServeHTTP(w, r)
	})
}

// requireToken accepts only a bearer token minted for purpose.
func (s *Server) requireToken(purpose string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "IR_01", "API key not provided or invalid API key used")
				return
			}
			claims, err := s.tokens.Parse(raw, purpose)
			if err != nil {
				s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
				writeError(w, http.StatusUnauthorized, "IR_17", "Access forbidden, invalid JWT token was used")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// merchantScope checks X-Merchant-Id against the token and lets X-Profile-Id narrow the profile.
func (s *Server) merchantScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		sc := scope{MerchantID: claims.MerchantID, ProfileID: claims.ProfileID}

		if merchantID := r.Header.Get("X-Merchant-Id"); merchantID != "" && merchantID != claims.MerchantID {
			writeError(w, http.StatusForbidden, "IR_19", "Merchant id does not match the authenticated merchant")
			return
		}
		if profileID := r.Header.Get("X-Profile-Id"); profileID != "" {
			sc.ProfileID = profileID
		}
		if sc.MerchantID == "" {
			writeError(w, http.StatusBadRequest, "IR_06", "Missing required header: X-Merchant-Id")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey, sc)))
	})
}

func claimsFrom(ctx context.Context) tokenClaims {
	c, _ := ctx.Value(claimsKey).(tokenClaims)
	return c
}

func scopeFrom(ctx context.Context) scope {
	sc, _ := ctx.Value(scopeKey).(scope)
	return sc
}

type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	errType := "invalid_request"
	if status >= http.StatusInternalServerError {
		errType = "server_error"
	}
	writeJSON(w, status, apiError{Error: apiErrorBody{Type: errType, Code: code, Message: message}})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
