package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/multipaga/hyperswitch"
	"github.com/jrsteele09/multipaga/internal/cli"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/internal/hsfake"
	"github.com/jrsteele09/multipaga/users"
)

const (
	testEmail    = "ops@multipaga.test"
	testPassword = "s3cret-pass"
	testMerchant = "merchant_1"
	testProfile  = "pro_1"
)

type testFixture struct {
	fake      *hsfake.Server
	server    *httptest.Server
	storePath string
}

// setupTestFixture points the CLI at a seeded fake backend and a file store in a temp dir.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	fx := &testFixture{fake: hsfake.New()}
	_, err := fx.fake.AddAccount(testEmail, testPassword, users.UserInfo{
		Name:       "Ops",
		RoleID:     "merchant_admin",
		MerchantID: testMerchant,
		ProfileID:  testProfile,
		OrgID:      "org_1",
	})
	require.NoError(t, err)
	require.NoError(t, fx.fake.AddMerchant(testEmail, "merchant_2", "pro_2"))
	fx.fake.Seed(testMerchant, testProfile)
	fx.fake.Seed("merchant_2", "pro_2")

	fx.server = httptest.NewServer(fx.fake)
	t.Cleanup(fx.server.Close)

	fx.storePath = filepath.Join(t.TempDir(), "session.yaml")
	t.Setenv("MULTIPAGA_BASE_URL", fx.server.URL)
	t.Setenv("MULTIPAGA_STORE_BACKEND", "file")
	t.Setenv("MULTIPAGA_STORE_PATH", fx.storePath)
	t.Setenv("MULTIPAGA_LOG_LEVEL", "error")
	return fx
}

// run executes one CLI invocation, like a separate process sharing the session file.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (fx *testFixture) login(t *testing.T) {
	t.Helper()
	out, err := run(t, "", "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as "+testEmail)
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestLogin(t *testing.T) {
	t.Run("password", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.login(t)

		out, err := run(t, "", "whoami", "-o", "json")
		require.NoError(t, err)
		me := decode[map[string]any](t, out)
		require.Equal(t, "logged_in", me["state"])
		require.Equal(t, testMerchant, me["merchant_id"])
		require.Equal(t, testProfile, me["profile_id"])
		require.NotContains(t, out, "token")
	})

	t.Run("password prompt", func(t *testing.T) {
		setupTestFixture(t)
		out, err := run(t, testPassword+"\n", "login", "--email", testEmail)
		require.NoError(t, err)
		require.Contains(t, out, "Password: ")
		require.Contains(t, out, "Logged in as")
	})

	t.Run("wrong password", func(t *testing.T) {
		setupTestFixture(t)
		_, err := run(t, "", "login", "--email", testEmail, "--password", "nope")
		require.Error(t, err)

		_, err = run(t, "", "whoami")
		require.ErrorIs(t, err, internalerrors.ErrNotAuthenticated)
	})

	t.Run("invalid email never reaches the backend", func(t *testing.T) {
		fx := setupTestFixture(t)
		_, err := run(t, "", "login", "--email", "ops", "--password", testPassword)
		require.ErrorIs(t, err, internalerrors.ErrValidation)
		require.Zero(t, fx.fake.Calls("/user/v2/signin"))
	})

	t.Run("totp prompt", func(t *testing.T) {
		fx := setupTestFixture(t)
		secret, _, err := fx.fake.EnableTOTP(testEmail)
		require.NoError(t, err)
		code, err := fx.fake.TOTPCode(secret)
		require.NoError(t, err)

		out, err := run(t, code+"\n", "login", "--email", testEmail, "--password", testPassword)
		require.NoError(t, err)
		require.Contains(t, out, "TOTP code: ")
		require.Contains(t, out, "Logged in as "+testEmail)
	})

	t.Run("wrong totp abandons the sign in", func(t *testing.T) {
		fx := setupTestFixture(t)
		secret, _, err := fx.fake.EnableTOTP(testEmail)
		require.NoError(t, err)
		code, err := fx.fake.TOTPCode(secret)
		require.NoError(t, err)
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}

		_, err = run(t, "", "login", "--email", testEmail, "--password", testPassword, "--totp", wrong)
		require.Error(t, err)

		out, err := run(t, "", "whoami")
		require.ErrorIs(t, err, internalerrors.ErrNotAuthenticated)
		require.Contains(t, out, "logged_out")
	})

	t.Run("recovery code", func(t *testing.T) {
		fx := setupTestFixture(t)
		_, codes, err := fx.fake.EnableTOTP(testEmail)
		require.NoError(t, err)

		out, err := run(t, "", "login", "--email", testEmail, "--password", testPassword, "--recovery-code", codes[0])
		require.NoError(t, err)
		require.Contains(t, out, "Logged in as")
	})

	t.Run("magic link", func(t *testing.T) {
		fx := setupTestFixture(t)
		out, err := run(t, "", "login", "--email", testEmail, "--magic-link")
		require.NoError(t, err)
		require.Contains(t, out, "login link was sent to "+testEmail)
		require.Equal(t, []string{testEmail}, fx.fake.MagicLinks())
	})
}

func TestSession(t *testing.T) {
	fx := setupTestFixture(t)
	fx.login(t)

	out, err := run(t, "", "token")
	require.NoError(t, err)
	first := strings.TrimSpace(out)
	require.Len(t, strings.Split(first, "."), 3)

	out, err = run(t, "", "token", "--refresh")
	require.NoError(t, err)
	require.NotEqual(t, first, strings.TrimSpace(out))
	require.Equal(t, 1, fx.fake.RefreshCount())

	out, err = run(t, "", "switch-merchant", "merchant_2")
	require.NoError(t, err)
	require.Equal(t, "Switched to merchant merchant_2 (profile pro_2)\n", out)

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "merchant_id: merchant_2")

	out, err = run(t, "", "logout")
	require.NoError(t, err)
	require.Equal(t, "Logged out\n", out)

	_, err = run(t, "", "whoami")
	require.ErrorIs(t, err, internalerrors.ErrNotAuthenticated)
	_, err = run(t, "", "token")
	require.ErrorIs(t, err, internalerrors.ErrNotAuthenticated)
}

func TestResolve(t *testing.T) {
	setupTestFixture(t)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{"connector list", []string{"V2_CONNECTOR", "--profile-id", "pro_1"}, "v2/profiles/pro_1/connector-accounts", nil},
		{"lower case entity", []string{"customers", "--id", "cus_1"}, "v2/customers/cus_1", nil},
		{"payment by id", []string{"v2_orders_list", "--id", "pay_1"}, "v2/payments/pay_1/get-intent", nil},
		{"profile aggregate", []string{"V2_ORDERS_AGGREGATE", "-q", "start_time=x", "--transaction-entity", "profile"}, "v2/payments/profile/aggregate?start_time=x", nil},
		{"unmapped", []string{"CUSTOMERS", "-X", "POST"}, "", internalerrors.ErrUnmappedRoute},
		{"unknown entity", []string{"USERS"}, "", internalerrors.ErrValidation},
		{"unknown method", []string{"CUSTOMERS", "-X", "PATCH"}, "", internalerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append([]string{"resolve"}, tt.args...)...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv("MULTIPAGA_BASE_URL", "")
	path := filepath.Join(t.TempDir(), "multipaga.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://hs.example.test/\n"), 0o600))

	out, err := run(t, "", "--config", path, "resolve", "CUSTOMERS", "--absolute")
	require.NoError(t, err)
	require.Equal(t, "https://hs.example.test/v2/customers/list\n", out)

	_, err = run(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "resolve", "CUSTOMERS")
	require.Error(t, err)

	_, err = run(t, "", "-o", "xml", "resolve", "CUSTOMERS")
	require.Error(t, err)
}

func TestResources(t *testing.T) {
	fx := setupTestFixture(t)

	t.Run("requires a session", func(t *testing.T) {
		_, err := run(t, "", "customers", "list")
		require.ErrorIs(t, err, internalerrors.ErrMissingMerchant)
	})

	fx.login(t)

	t.Run("connectors", func(t *testing.T) {
		out, err := run(t, "", "connectors", "list", "-o", "json")
		require.NoError(t, err)
		require.Len(t, decode[[]hyperswitch.Connector](t, out), 2)

		out, err = run(t, "", "connectors", "create", "--name", "paypal", "-o", "json")
		require.NoError(t, err)
		created := decode[hyperswitch.Connector](t, out)
		require.Equal(t, testProfile, created.ProfileID)

		out, err = run(t, "", "connectors", "update", created.ID, "--disable", "-o", "json")
		require.NoError(t, err)
		require.Equal(t, "inactive", decode[hyperswitch.Connector](t, out).Status)

		out, err = run(t, "", "connectors", "get", created.ID)
		require.NoError(t, err)
		require.Contains(t, out, "connector_name: paypal")
	})

	t.Run("payments", func(t *testing.T) {
		out, err := run(t, "", "payments", "list", "--currency", "HNL", "-o", "json")
		require.NoError(t, err)
		require.Equal(t, 2, decode[hyperswitch.PaymentList](t, out).TotalCount)

		out, err = run(t, "", "payments", "attempts", "pay_003", "-o", "json")
		require.NoError(t, err)
		attempts := decode[[]hyperswitch.PaymentAttempt](t, out)
		require.Len(t, attempts, 1)
		require.Equal(t, "failure", attempts[0].Status)

		out, err = run(t, "", "analytics", "aggregate", "--start-time", "2000-01-01T00:00:00Z", "--entity", "profile", "-o", "json")
		require.NoError(t, err)
		require.Equal(t, 3, decode[hyperswitch.Aggregate](t, out).StatusWithCount["succeeded"])

		out, err = run(t, "", "payments", "create", "--amount", "1500", "--customer", "cus_ana", "-o", "json")
		require.NoError(t, err)
		created := decode[hyperswitch.Payment](t, out)
		require.Equal(t, "requires_payment_method", created.Status)

		out, err = run(t, "", "payments", "get", created.ID)
		require.NoError(t, err)
		require.Contains(t, out, "order_amount: 1500")

		_, err = run(t, "", "payments", "create", "--amount", "0")
		require.ErrorIs(t, err, internalerrors.ErrValidation)
	})

	t.Run("customers", func(t *testing.T) {
		out, err := run(t, "", "customers", "get", "cus_luis")
		require.NoError(t, err)
		require.Contains(t, out, "name: Luis Mejia")

		out, err = run(t, "", "customers", "methods", "cus_ana", "-o", "json")
		require.NoError(t, err)
		methods := decode[[]hyperswitch.PaymentMethod](t, out)
		require.Len(t, methods, 1)
		require.Equal(t, "4242", methods[0].Card.Last4)

		out, err = run(t, "", "customers", "count-methods", "-o", "json")
		require.NoError(t, err)
		require.Equal(t, 2, decode[hyperswitch.TotalPaymentMethods](t, out).TotalCount)
	})

	t.Run("workflows", func(t *testing.T) {
		out, err := run(t, "", "analytics", "workflows", "-o", "json")
		require.NoError(t, err)
		workflows := decode[[]hyperswitch.RevenueRecoveryWorkflow](t, out)
		require.Len(t, workflows, 1)
		require.Equal(t, "pay_003", workflows[0].PaymentID)
	})
}

func TestAPI(t *testing.T) {
	fx := setupTestFixture(t)
	fx.login(t)

	out, err := run(t, "", "api", "get", "v2/customers/list", "-o", "json")
	require.NoError(t, err)
	require.Len(t, decode[[]any](t, out), 2)

	out, err = run(t, "", "api", "send", "post", hyperswitch.CreatePaymentPath,
		"-d", `{"amount_details":{"order_amount":900,"currency":"USD"}}`, "-o", "json")
	require.NoError(t, err)
	require.Equal(t, "requires_payment_method", decode[map[string]any](t, out)["status"])

	_, err = run(t, "", "api", "send", "GET", "v2/customers/list")
	require.ErrorIs(t, err, internalerrors.ErrValidation)
	_, err = run(t, "", "api", "send", "POST", hyperswitch.CreatePaymentPath, "-d", "{")
	require.ErrorIs(t, err, internalerrors.ErrValidation)
}

func TestExpiredSession(t *testing.T) {
	fx := setupTestFixture(t)
	fx.login(t)
	fx.fake.RevokeAccessTokens()
	fx.fake.FailRefresh(true)

	_, err := run(t, "", "customers", "list")
	require.ErrorIs(t, err, internalerrors.ErrUnauthorized)

	_, err = run(t, "", "customers", "list")
	require.ErrorIs(t, err, internalerrors.ErrMissingMerchant)
}

func TestSandbox(t *testing.T) {
	t.Setenv("MULTIPAGA_LOG_LEVEL", "error")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := cli.NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sandbox", "--addr", "127.0.0.1:0", "--totp"})
	require.NoError(t, cmd.ExecuteContext(ctx))

	require.Contains(t, out.String(), "Sandbox listening on http://127.0.0.1:")
	require.Contains(t, out.String(), "Sign in with "+cli.SandboxEmail)
	require.Contains(t, out.String(), "TOTP secret: ")
	require.Contains(t, out.String(), "/v2/customers/list")
}
