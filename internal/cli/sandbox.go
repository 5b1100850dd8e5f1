package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/multipaga/internal/hsfake"
	"github.com/jrsteele09/multipaga/users"
)

const (
	SandboxEmail      = "demo@multipaga.test"
	SandboxPassword   = "demo-password"
	SandboxMerchantID = "merchant_demo"
	SandboxProfileID  = "pro_demo"

	sandboxSecondMerchantID = "merchant_demo_eu"
	sandboxSecondProfileID  = "pro_demo_eu"
)

func (a *app) sandboxCmd() *cobra.Command {
	var (
		addr       string
		enableTOTP bool
		showRoutes bool
	)
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local stand-in for the Hyperswitch API with demo data",
		Long: `Run a local stand-in for the Hyperswitch user and V2 merchant APIs, seeded with a
demo account, two merchants, connectors, customers and payments. Point the client at it
with MULTIPAGA_BASE_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fake, err := newSandbox(a, enableTOTP, cmd)
			if err != nil {
				return err
			}

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return errors.Wrapf(err, "[sandbox] listen on %s", addr)
			}
			server := &http.Server{Handler: fake, ReadHeaderTimeout: 10 * time.Second}

			fmt.Fprintln(out, figure.NewFigure(a.cfg.GetAppName(), "cybermedium", true).String())
			fmt.Fprintf(out, "Sandbox listening on http://%s\n", listener.Addr())
			fmt.Fprintf(out, "Sign in with %s / %s\n", SandboxEmail, SandboxPassword)
			if showRoutes {
				fmt.Fprintln(out)
				if err := fake.LogRoutes(out); err != nil {
					return err
				}
			}

			serveErr := make(chan error, 1)
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			select {
			case <-ctx.Done():
			case err := <-serveErr:
				return errors.Wrap(err, "[sandbox] serve")
			}
			return shutdown(server)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().BoolVar(&enableTOTP, "totp", false, "Require a TOTP second factor for the demo account")
	cmd.Flags().BoolVar(&showRoutes, "routes", true, "Print the served routes")
	return cmd
}

func newSandbox(a *app, enableTOTP bool, cmd *cobra.Command) (*hsfake.Server, error) {
	fake := hsfake.New(hsfake.WithLogger(a.logger))
	_, err := fake.AddAccount(SandboxEmail, SandboxPassword, users.UserInfo{
		Name:       "Demo Operator",
		RoleID:     string(users.RoleMerchantAdmin),
		MerchantID: SandboxMerchantID,
		ProfileID:  SandboxProfileID,
		OrgID:      "org_demo",
	})
	if err != nil {
		return nil, err
	}
	if err := fake.AddMerchant(SandboxEmail, sandboxSecondMerchantID, sandboxSecondProfileID); err != nil {
		return nil, err
	}
	fake.Seed(SandboxMerchantID, SandboxProfileID)
	fake.Seed(sandboxSecondMerchantID, sandboxSecondProfileID)

	if enableTOTP {
		secret, codes, err := fake.EnableTOTP(SandboxEmail)
		if err != nil {
			return nil, err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "TOTP secret: %s\n", secret)
		fmt.Fprintln(out, "Recovery codes:")
		for _, code := range codes {
			fmt.Fprintf(out, "  %s\n", code)
		}
	}
	return fake, nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "[sandbox] shutdown")
	}
	return nil
}
