package apiurl_test

import (
	"testing"

	"github.com/jrsteele09/multipaga/apiurl"
	"github.com/jrsteele09/multipaga/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		in       apiurl.Descriptor
		expected string
	}{
		{"customers list", apiurl.Descriptor{Entity: apiurl.Customers, Method: apiurl.GET}, "v2/customers/list"},
		{"customer by id", apiurl.Descriptor{Entity: apiurl.Customers, Method: apiurl.GET, ID: "cus_1"}, "v2/customers/cus_1"},
		{"customers post unmapped", apiurl.Descriptor{Entity: apiurl.Customers, Method: apiurl.POST}, ""},

		{"connector list", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.GET, ProfileID: "pro_1"}, "v2/profiles/pro_1/connector-accounts"},
		{"connector list without profile", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.GET}, ""},
		{"connector by id", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.GET, ID: "mca_1"}, "v2/connector-accounts/mca_1"},
		{"connector post", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.POST}, "v2/connector-accounts"},
		{"connector put by id", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.PUT, ID: "mca_1"}, "v2/connector-accounts/mca_1"},
		{"connector post by id", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.POST, ID: "mca_1"}, "v2/connector-accounts/mca_1"},
		{"connector delete unmapped", apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.DELETE, ID: "mca_1"}, ""},

		{"payment with query", apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.GET, ID: "pay_1", QueryParameters: "limit=5"}, "v2/payments/pay_1?limit=5"},
		{"payment intent", apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.GET, ID: "pay_1"}, "v2/payments/pay_1/get-intent"},
		{"payments list query", apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.GET, QueryParameters: "limit=5"}, "v2/payments/list?limit=5"},
		{"payments list default", apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.GET}, "v2/payments/list?limit=100"},
		{"payments post unmapped", apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.POST}, ""},

		{"attempts", apiurl.Descriptor{Entity: apiurl.V2AttemptsList, Method: apiurl.GET, ID: "pay_1"}, "v2/payments/pay_1/list_attempts"},
		{"attempts without id", apiurl.Descriptor{Entity: apiurl.V2AttemptsList, Method: apiurl.GET}, ""},

		{"process tracker list", apiurl.Descriptor{Entity: apiurl.ProcessTracker, Method: apiurl.GET}, "v2/process_tracker/revenue_recovery_workflow"},
		{"process tracker by id", apiurl.Descriptor{Entity: apiurl.ProcessTracker, Method: apiurl.GET, ID: "wf_1"}, "v2/process_tracker/revenue_recovery_workflow/wf_1"},

		{"order filters", apiurl.Descriptor{Entity: apiurl.V2OrderFilters, Method: apiurl.GET}, "v2/payments/profile/filter"},

		{"aggregate merchant", apiurl.Descriptor{Entity: apiurl.V2OrdersAggregate, Method: apiurl.GET, QueryParameters: "a=1", TransactionEntity: apiurl.TransactionMerchant}, "v2/payments/aggregate?a=1"},
		{"aggregate profile", apiurl.Descriptor{Entity: apiurl.V2OrdersAggregate, Method: apiurl.GET, QueryParameters: "a=1", TransactionEntity: apiurl.TransactionProfile}, "v2/payments/profile/aggregate?a=1"},
		{"aggregate default", apiurl.Descriptor{Entity: apiurl.V2OrdersAggregate, Method: apiurl.GET, QueryParameters: "a=1"}, "v2/payments/aggregate?a=1"},
		{"aggregate without query", apiurl.Descriptor{Entity: apiurl.V2OrdersAggregate, Method: apiurl.GET}, ""},

		{"saved payment methods", apiurl.Descriptor{Entity: apiurl.PaymentMethodList, Method: apiurl.GET, ID: "cus_1"}, "v2/customers/cus_1/saved-payment-methods"},
		{"saved payment methods without id", apiurl.Descriptor{Entity: apiurl.PaymentMethodList, Method: apiurl.GET}, ""},
		{"total token count", apiurl.Descriptor{Entity: apiurl.TotalTokenCount, Method: apiurl.GET}, "v2/customers/total-payment-methods"},
		{"payment method", apiurl.Descriptor{Entity: apiurl.RetrievePaymentMethod, Method: apiurl.GET, ID: "pm_1"}, "v2/customers/payment-methods/pm_1"},

		{"unknown entity", apiurl.Descriptor{Entity: apiurl.Entity(99), Method: apiurl.GET}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, apiurl.Resolve(tt.in))
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	for _, e := range apiurl.Entities() {
		for _, m := range []apiurl.Method{apiurl.GET, apiurl.POST, apiurl.PUT, apiurl.DELETE} {
			for _, id := range []string{"", "id_1"} {
				d := apiurl.Descriptor{Entity: e, Method: m, ID: id, QueryParameters: "x=1", ProfileID: "pro_1"}
				require.Equal(t, apiurl.Resolve(d), apiurl.Resolve(d), "%s %s %q", m, e, id)
			}
		}
	}
}

func TestResolveStrict(t *testing.T) {
	path, err := apiurl.ResolveStrict(apiurl.Descriptor{Entity: apiurl.Customers, Method: apiurl.GET})
	require.NoError(t, err)
	require.Equal(t, "v2/customers/list", path)

	_, err = apiurl.ResolveStrict(apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.DELETE, ID: "mca_1"})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnmappedRoute))
	require.Contains(t, err.Error(), "DELETE V2_CONNECTOR")
}

func TestJoin(t *testing.T) {
	require.Equal(t, "https://sandbox.hyperswitch.io/v2/customers/list", apiurl.Join("https://sandbox.hyperswitch.io/", "v2/customers/list"))
	require.Equal(t, "https://sandbox.hyperswitch.io/user/v2/signin", apiurl.Join(apiurl.SandboxBaseURL, apiurl.SignIn))
}

func TestParse(t *testing.T) {
	e, err := apiurl.ParseEntity("v2_orders_list")
	require.NoError(t, err)
	require.Equal(t, apiurl.V2OrdersList, e)
	require.Equal(t, "V2_ORDERS_LIST", e.String())

	_, err = apiurl.ParseEntity("refunds")
	require.Error(t, err)

	m, err := apiurl.ParseMethod("put")
	require.NoError(t, err)
	require.Equal(t, apiurl.PUT, m)

	_, err = apiurl.ParseMethod("PATCH")
	require.Error(t, err)
}
