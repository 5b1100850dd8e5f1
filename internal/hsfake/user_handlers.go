package hsfake

import (
	"net/http"

	"github.com/pquerna/otp/totp"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token                 string `json:"token"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	TwoFactorAuthRequired bool   `json:"two_factor_auth_required,omitempty"`
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	account, err := s.accounts.GetByEmail(body.Email)
	if err != nil || !account.CheckPassword(body.Password) {
		writeError(w, http.StatusUnauthorized, "UR_01", "Incorrect email or password")
		return
	}

	if account.TOTPSecret != "" {
		token, err := s.tokens.Issue(tokenClaims{UserID: account.User.ID, Purpose: purposeTwoFactor})
		if err != nil {
			s.internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenBody{Token: token, TwoFactorAuthRequired: true})
		return
	}
	s.issueSession(w, account, account.User.MerchantID, account.User.ProfileID)
}

func (s *Server) magicLink(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeBody(r, &body); err != nil || body.Email == "" {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	// unknown addresses get the same answer
	if _, err := s.accounts.GetByEmail(body.Email); err == nil {
		s.callsLock.Lock()
		s.magicLinks = append(s.magicLinks, body.Email)
		s.callsLock.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the account exists, a login link was sent to " + body.Email})
}

func (s *Server) verifyTOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TOTP string `json:"totp"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	claims := claimsFrom(r.Context())
	account, err := s.accounts.GetByID(claims.UserID)
	if err != nil || account.TOTPSecret == "" {
		writeError(w, http.StatusBadRequest, "UR_37", "TOTP is not set up for this user")
		return
	}
	valid, err := totp.ValidateCustom(body.TOTP, account.TOTPSecret, s.nowTime().UTC(), totpOpts())
	if err != nil || !valid {
		writeError(w, http.StatusBadRequest, "UR_38", "Invalid TOTP")
		return
	}
	s.tokens.Revoke(claims)
	s.issueSession(w, account, account.User.MerchantID, account.User.ProfileID)
}

func (s *Server) verifyRecoveryCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecoveryCode string `json:"recovery_code"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	claims := claimsFrom(r.Context())
	used := false
	if err := s.accounts.Update(claims.UserID, func(a *Account) {
		used = a.useRecoveryCode(body.RecoveryCode)
	}); err != nil || !used {
		writeError(w, http.StatusBadRequest, "UR_39", "Invalid recovery code")
		return
	}
	account, err := s.accounts.GetByID(claims.UserID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.tokens.Revoke(claims)
	s.issueSession(w, account, account.User.MerchantID, account.User.ProfileID)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	s.tokens.Revoke(claims)
	s.tokens.refresh.DeleteForUser(claims.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	s.refreshCount.Add(1)

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeBody(r, &body); err != nil || body.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	if s.failRefresh.Load() {
		writeError(w, http.StatusUnauthorized, "UR_40", "Refresh token is invalid or expired")
		return
	}
	stored, ok := s.tokens.refresh.Consume(body.RefreshToken, s.nowTime())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UR_40", "Refresh token is invalid or expired")
		return
	}
	account, err := s.accounts.GetByID(stored.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UR_40", "Refresh token is invalid or expired")
		return
	}
	s.issueSession(w, account, stored.MerchantID, stored.ProfileID)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	account, err := s.accounts.GetByID(claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "UR_02", "User not found")
		return
	}
	user := account.User
	user.MerchantID = claims.MerchantID
	user.ProfileID = claims.ProfileID
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) switchMerchant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MerchantID string `json:"merchant_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.MerchantID == "" {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	claims := claimsFrom(r.Context())
	account, err := s.accounts.GetByID(claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "UR_02", "User not found")
		return
	}
	profileID, ok := account.ProfileFor(body.MerchantID)
	if !ok {
		writeError(w, http.StatusForbidden, "UR_42", "User has no access to merchant "+body.MerchantID)
		return
	}
	s.tokens.Revoke(claims)
	s.issueSession(w, account, body.MerchantID, profileID)
}

// issueSession answers with a fresh access token and a rotated refresh token.
func (s *Server) issueSession(w http.ResponseWriter, account Account, merchantID, profileID string) {
	token, err := s.tokens.Issue(tokenClaims{
		UserID:     account.User.ID,
		MerchantID: merchantID,
		ProfileID:  profileID,
		OrgID:      account.User.OrgID,
		Purpose:    purposeAccess,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	refresh, err := s.tokens.refresh.Create(storedRefreshToken{
		UserID:     account.User.ID,
		MerchantID: merchantID,
		ProfileID:  profileID,
		Iat:        s.nowTime(),
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenBody{Token: token, RefreshToken: refresh})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Err(err).Msg("hsfake internal error")
	writeError(w, http.StatusInternalServerError, "HE_00", "Something went wrong")
}
