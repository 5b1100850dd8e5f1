package auth

// Request and response bodies of the Hyperswitch user endpoints.

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type TOTPRequest struct {
	TOTP string `json:"totp" validate:"required,len=6,numeric"`
}

type RecoveryCodeRequest struct {
	RecoveryCode string `json:"recovery_code" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type SwitchMerchantRequest struct {
	MerchantID string `json:"merchant_id" validate:"required"`
}

// TokenResponse is returned by sign in, 2FA verification, refresh and merchant switch.
type TokenResponse struct {
	Token                 string `json:"token"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	TwoFactorAuthRequired bool   `json:"two_factor_auth_required,omitempty"`
	Message               string `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
