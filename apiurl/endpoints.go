package apiurl

// User and session endpoints, relative to the API base URL.
const (
	SignIn             = "/user/v2/signin"
	SignInMagicLink    = "/user/signin"
	SignOut            = "/user/signout"
	RefreshToken       = "/user/refresh_token"
	TOTPVerify         = "/user/2fa/totp/verify"
	TOTPReset          = "/user/2fa/totp/reset"
	RecoveryCodeVerify = "/user/2fa/recovery_code/verify"
	UserInfo           = "/user"
	SwitchMerchant     = "/user/v2/switch_merchant"
)

const (
	SandboxBaseURL    = "https://sandbox.hyperswitch.io"
	ProductionBaseURL = "https://api.hyperswitch.io"
)
