package hyperswitch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/multipaga/apiurl"
	"github.com/jrsteele09/multipaga/auth"
	"github.com/jrsteele09/multipaga/fetch"
	"github.com/jrsteele09/multipaga/hyperswitch"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/internal/hsfake"
	"github.com/jrsteele09/multipaga/tokenstore"
	"github.com/jrsteele09/multipaga/tokenstore/memstore"
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
	tokens    *tokenstore.Tokens
	service   *auth.Service
	fetcher   *fetch.Fetcher
	client    *hyperswitch.Client
	redirects atomic.Int32
}

// setupTestFixture serves the fake through the optional middlewares and signs in.
func setupTestFixture(t *testing.T, middlewares ...func(http.Handler) http.Handler) *testFixture {
	t.Helper()
	ctx := context.Background()
	fx := &testFixture{fake: hsfake.New()}
	_, err := fx.fake.AddAccount(testEmail, testPassword, users.UserInfo{
		RoleID:     "merchant_admin",
		MerchantID: testMerchant,
		ProfileID:  testProfile,
	})
	require.NoError(t, err)
	fx.fake.Seed(testMerchant, testProfile)

	var handler http.Handler = fx.fake
	for _, mw := range middlewares {
		handler = mw(handler)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := memstore.New(tokenstore.DefaultPolicy())
	fx.tokens = tokenstore.NewTokens(store)
	fx.service, err = auth.New(server.URL, store, auth.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	_, err = fx.service.SignIn(ctx, testEmail, testPassword)
	require.NoError(t, err)

	fx.fetcher, err = fetch.New(server.URL, fx.service,
		fetch.WithHTTPClient(server.Client()),
		fetch.WithProgress(&fetch.Progress{}),
		fetch.WithRedirect(func(string) { fx.redirects.Add(1) }),
	)
	require.NoError(t, err)
	fx.client = hyperswitch.New(fx.fetcher, fx.service)
	return fx
}

// countingRequester records every call that would have reached the network.
type countingRequester struct {
	calls atomic.Int32
}

func (r *countingRequester) JSON(context.Context, string, string, any, any) error {
	r.calls.Add(1)
	return nil
}

type staticCredentials fetch.Credentials

func (c staticCredentials) Credentials(context.Context) (fetch.Credentials, error) {
	return fetch.Credentials(c), nil
}

func TestConnectors(t *testing.T) {
	fx := setupTestFixture(t)
	ctx := context.Background()

	connectors, err := fx.client.ListConnectors(ctx)
	require.NoError(t, err)
	require.Len(t, connectors, 2)

	created, err := fx.client.CreateConnector(ctx, hyperswitch.Connector{ConnectorName: "paypal", ConnectorType: "payment_processor"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, testProfile, created.ProfileID)

	updated, err := fx.client.UpdateConnector(ctx, created.ID, hyperswitch.Connector{ConnectorLabel: "paypal_eu", Disabled: true})
	require.NoError(t, err)
	require.Equal(t, "paypal_eu", updated.ConnectorLabel)
	require.Equal(t, "inactive", updated.Status)

	got, err := fx.client.GetConnector(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "paypal", got.ConnectorName)

	connectors, err = fx.client.ListConnectors(ctx)
	require.NoError(t, err)
	require.Len(t, connectors, 3)

	_, err = fx.client.GetConnector(ctx, "mca_missing")
	require.Error(t, err)
	require.True(t, fetch.IsStatus(err, 404))
}

func TestPayments(t *testing.T) {
	fx := setupTestFixture(t)
	ctx := context.Background()

	list, err := fx.client.ListPayments(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 5, list.TotalCount)

	list, err = fx.client.ListPayments(ctx, url.Values{"currency": {"HNL"}})
	require.NoError(t, err)
	require.Equal(t, 2, list.TotalCount)

	payment, err := fx.client.GetPayment(ctx, "pay_002")
	require.NoError(t, err)
	require.Equal(t, "HNL", payment.AmountDetails.Currency)

	attempts, err := fx.client.ListPaymentAttempts(ctx, "pay_003")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.Equal(t, "failure", attempts[0].Status)

	created, err := fx.client.CreatePayment(ctx, hyperswitch.CreatePaymentRequest{
		AmountDetails: hyperswitch.AmountDetails{OrderAmount: 2500, Currency: "USD"},
		CustomerID:    "cus_ana",
	})
	require.NoError(t, err)
	require.Equal(t, "requires_payment_method", created.Status)
	require.Equal(t, testProfile, created.ProfileID)

	filters, err := fx.client.PaymentFilters(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"adyen", "stripe"}, filters.Connector)
	require.Contains(t, filters.Status, "requires_payment_method")

	agg, err := fx.client.Aggregate(ctx, url.Values{"start_time": {"2000-01-01T00:00:00Z"}}, apiurl.TransactionProfile)
	require.NoError(t, err)
	require.Equal(t, 3, agg.StatusWithCount["succeeded"])

	workflows, err := fx.client.RevenueRecoveryWorkflows(ctx, "")
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	one, err := fx.client.RevenueRecoveryWorkflows(ctx, workflows[0].ID)
	require.NoError(t, err)
	require.Equal(t, "pay_003", one[0].PaymentID)
}

func TestCustomers(t *testing.T) {
	fx := setupTestFixture(t)
	ctx := context.Background()

	customers, err := fx.client.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	customer, err := fx.client.GetCustomer(ctx, "cus_luis")
	require.NoError(t, err)
	require.Equal(t, "Luis Mejia", customer.Name)

	methods, err := fx.client.SavedPaymentMethods(ctx, "cus_luis")
	require.NoError(t, err)
	require.Len(t, methods, 1)

	pm, err := fx.client.GetPaymentMethod(ctx, methods[0].ID)
	require.NoError(t, err)
	require.Equal(t, "4444", pm.Card.Last4)

	total, err := fx.client.TotalPaymentMethods(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("merchant id required", func(t *testing.T) {
		requester := &countingRequester{}
		client := hyperswitch.New(requester, staticCredentials{Token: "t", ProfileID: testProfile})

		_, err := client.ListConnectors(ctx)
		require.ErrorIs(t, err, internalerrors.ErrMissingMerchant)
		_, err = client.ListCustomers(ctx)
		require.ErrorIs(t, err, internalerrors.ErrMissingMerchant)
		_, err = client.CreateConnector(ctx, hyperswitch.Connector{ConnectorName: "stripe"})
		require.ErrorIs(t, err, internalerrors.ErrMissingMerchant)
		require.Zero(t, requester.calls.Load())
	})

	t.Run("profile id required for the connector list", func(t *testing.T) {
		requester := &countingRequester{}
		client := hyperswitch.New(requester, staticCredentials{MerchantID: testMerchant})

		_, err := client.ListConnectors(ctx)
		require.ErrorIs(t, err, internalerrors.ErrMissingProfile)
		require.Zero(t, requester.calls.Load())
	})

	t.Run("unmapped routes never reach the network", func(t *testing.T) {
		requester := &countingRequester{}
		client := hyperswitch.New(requester, staticCredentials{MerchantID: testMerchant})

		_, err := client.ListPaymentAttempts(ctx, "")
		require.ErrorIs(t, err, internalerrors.ErrUnmappedRoute)
		_, err = client.SavedPaymentMethods(ctx, "")
		require.ErrorIs(t, err, internalerrors.ErrUnmappedRoute)
		_, err = client.Aggregate(ctx, nil, apiurl.TransactionMerchant)
		require.ErrorIs(t, err, internalerrors.ErrUnmappedRoute)
		_, err = client.GetCustomer(ctx, "")
		require.ErrorIs(t, err, internalerrors.ErrValidation)
		require.Zero(t, requester.calls.Load())
	})
}

func TestExpiredSession(t *testing.T) {
	t.Run("revoked token is refreshed transparently", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.fake.RevokeAccessTokens()

		customers, err := fx.client.ListCustomers(context.Background())
		require.NoError(t, err)
		require.Len(t, customers, 2)
		require.Equal(t, 1, fx.fake.RefreshCount())
		require.Equal(t, auth.LoggedIn, fx.service.Status())
	})

	t.Run("failed refresh logs out", func(t *testing.T) {
		fx := setupTestFixture(t)
		fx.fake.RevokeAccessTokens()
		fx.fake.FailRefresh(true)

		_, err := fx.client.ListCustomers(context.Background())
		require.ErrorIs(t, err, internalerrors.ErrUnauthorized)
		require.Equal(t, auth.LoggedOut, fx.service.Status())
		require.Equal(t, int32(1), fx.redirects.Load())

		_, err = fx.client.ListCustomers(context.Background())
		require.ErrorIs(t, err, internalerrors.ErrMissingMerchant, "the store was cleared")
	})

	t.Run("superseding a call during its refresh keeps the session", func(t *testing.T) {
		started := make(chan struct{}, 1)
		release := make(chan struct{})
		holdRefresh := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/user/refresh_token" {
					select {
					case started <- struct{}{}:
					default:
					}
					<-release
				}
				next.ServeHTTP(w, r)
			})
		}
		fx := setupTestFixture(t, holdRefresh)
		ctx := context.Background()
		fx.fake.RevokeAccessTokens()

		list := fetch.NewGetMethod[[]hyperswitch.Customer](fx.fetcher)
		firstErr := make(chan error, 1)
		go func() {
			_, err := list.Get(ctx, "v2/customers/list")
			firstErr <- err
		}()
		<-started

		type result struct {
			customers []hyperswitch.Customer
			err       error
		}
		second := make(chan result, 1)
		go func() {
			customers, err := list.Get(ctx, "v2/customers/list")
			second <- result{customers, err}
		}()
		require.Eventually(t, func() bool {
			return fx.fake.Calls("/v2/customers/list") == 2
		}, time.Second, 5*time.Millisecond)
		close(release)

		require.ErrorIs(t, <-firstErr, fetch.ErrSuperseded)
		got := <-second
		require.NoError(t, got.err)
		require.Len(t, got.customers, 2)

		require.Equal(t, auth.LoggedIn, fx.service.Status())
		require.Zero(t, fx.redirects.Load())
		refresh, err := fx.tokens.RefreshToken(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, refresh)

		// the stored refresh token is the live one
		fx.fake.RevokeAccessTokens()
		customers, err := fx.client.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, customers, 2)
		require.Equal(t, auth.LoggedIn, fx.service.Status())
	})
}
