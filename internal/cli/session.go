package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/multipaga/auth"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/users"
)

// whoami is the printable view of a session; tokens are left out.
type whoami struct {
	State       string    `json:"state" yaml:"state"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	Roles       []string  `json:"roles,omitempty" yaml:"roles,omitempty"`
	Permissions []string  `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	MerchantID  string    `json:"merchant_id,omitempty" yaml:"merchant_id,omitempty"`
	ProfileID   string    `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`
	OrgID       string    `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

func (a *app) loginCmd() *cobra.Command {
	var (
		email        string
		password     string
		magicLink    bool
		totpCode     string
		recoveryCode string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or request a magic link",
		Long: `Sign in to Hyperswitch. Accounts with two factor authentication are asked for a
TOTP code unless --totp or --recovery-code is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.connect(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if magicLink {
				message, err := a.service.SignInWithMagicLink(ctx, email)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, message)
				return nil
			}

			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin(), out, "Password: "); err != nil {
					return err
				}
			}
			result, err := a.service.SignIn(ctx, email, password)
			if err != nil {
				return err
			}

			user := result.User
			if result.RequiresTwoFactor {
				if user, err = a.secondFactor(cmd, totpCode, recoveryCode); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Logged in as %s (merchant %s, profile %s)\n", user.Email, user.MerchantID, user.ProfileID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password, prompted for when empty")
	cmd.Flags().BoolVar(&magicLink, "magic-link", false, "Email a login link instead of using a password")
	cmd.Flags().StringVar(&totpCode, "totp", "", "Six digit TOTP code")
	cmd.Flags().StringVar(&recoveryCode, "recovery-code", "", "One-time recovery code, used instead of a TOTP code")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("totp", "recovery-code")
	return cmd
}

func (a *app) secondFactor(cmd *cobra.Command, totpCode, recoveryCode string) (*users.UserInfo, error) {
	ctx := cmd.Context()
	if recoveryCode != "" {
		return a.service.VerifyRecoveryCode(ctx, recoveryCode)
	}
	if totpCode == "" {
		var err error
		if totpCode, err = readLine(cmd.InOrStdin(), cmd.OutOrStdout(), "TOTP code: "); err != nil {
			return nil, err
		}
	}
	user, err := a.service.VerifyTOTP(ctx, totpCode)
	if err != nil {
		// leave no half-finished sign in behind
		if cancelErr := a.service.CancelTwoFactor(ctx); cancelErr != nil {
			a.logger.Err(cancelErr).Msg("cancel two factor failed")
		}
		return nil, err
	}
	return user, nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.connect(cmd); err != nil {
				return err
			}
			if err := a.service.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user, merchant and profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.connect(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			state, err := a.service.CheckAuth(ctx)
			if err != nil {
				return err
			}
			if state != auth.LoggedIn {
				if err := a.print(cmd.OutOrStdout(), whoami{State: state.String()}); err != nil {
					return err
				}
				return errors.Wrap(internalerrors.ErrNotAuthenticated, state.String())
			}

			session, err := a.service.Session(ctx)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), whoami{
				State:       state.String(),
				Email:       session.User.Email,
				Name:        session.User.Name,
				Roles:       session.User.RoleNames(),
				Permissions: session.User.AllPermissions(),
				MerchantID:  session.MerchantID,
				ProfileID:   session.ProfileID,
				OrgID:       session.OrgID,
				ExpiresAt:   session.ExpiresAt,
			})
		},
	}
}

func (a *app) switchMerchantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch-merchant MERCHANT_ID",
		Short: "Move the session to another merchant account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd); err != nil {
				return err
			}
			user, err := a.service.SwitchMerchant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to merchant %s (profile %s)\n", user.MerchantID, user.ProfileID)
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the access token for use in scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.connect(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			if refresh {
				if err := a.service.RefreshToken(ctx); err != nil {
					return err
				}
			}
			token, err := a.service.TokenSource(ctx).Token()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Exchange the refresh token for a new access token first")
	return cmd
}
