package auth

import (
	"time"

	"github.com/jrsteele09/multipaga/users"
)

// State is the session lifecycle position.
type State int

const (
	CheckingAuth State = iota
	LoggedOut
	PreLogin // waiting on a second factor
	LoggedIn
)

func (s State) String() string {
	switch s {
	case CheckingAuth:
		return "checking_auth"
	case LoggedOut:
		return "logged_out"
	case PreLogin:
		return "pre_login"
	case LoggedIn:
		return "logged_in"
	}
	return "unknown"
}

// SignInResult tells the caller whether a second factor is needed.
type SignInResult struct {
	RequiresTwoFactor bool
	User              *users.UserInfo
}

// Session is a read-only snapshot of an authenticated session.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         users.UserInfo
	MerchantID   string
	ProfileID    string
	OrgID        string
}
