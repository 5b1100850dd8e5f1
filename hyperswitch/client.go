// Package hyperswitch exposes the V2 merchant resources the dashboard uses as typed calls.
package hyperswitch

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/jrsteele09/multipaga/apiurl"
	"github.com/jrsteele09/multipaga/fetch"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
)

// CreatePaymentPath has no resolver route; payment intents are created on a fixed endpoint.
const CreatePaymentPath = "v2/payments/create-intent"

// Requester sends a JSON request and decodes the answer. *fetch.Fetcher implements it.
type Requester interface {
	JSON(ctx context.Context, method, url string, body any, out any) error
}

// CredentialsSource supplies the merchant and profile the calls are scoped to.
type CredentialsSource interface {
	Credentials(ctx context.Context) (fetch.Credentials, error)
}

var _ Requester = (*fetch.Fetcher)(nil)

type Client struct {
	api   Requester
	creds CredentialsSource
}

func New(api Requester, creds CredentialsSource) *Client {
	return &Client{api: api, creds: creds}
}

func (c *Client) ListConnectors(ctx context.Context) ([]Connector, error) {
	creds, err := c.merchant(ctx)
	if err != nil {
		return nil, err
	}
	if creds.ProfileID == "" {
		return nil, errors.Wrap(internalerrors.ErrMissingProfile, "[Client.ListConnectors]")
	}
	var out []Connector
	err = c.get(ctx, apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.GET, ProfileID: creds.ProfileID}, &out)
	return out, err
}

func (c *Client) GetConnector(ctx context.Context, id string) (*Connector, error) {
	if _, err := c.merchant(ctx); err != nil {
		return nil, err
	}
	if err := requireID("connector", id); err != nil {
		return nil, err
	}
	var out Connector
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.GET, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateConnector(ctx context.Context, connector Connector) (*Connector, error) {
	creds, err := c.merchant(ctx)
	if err != nil {
		return nil, err
	}
	if connector.ProfileID == "" {
		connector.ProfileID = creds.ProfileID
	}
	var out Connector
	if err := c.send(ctx, apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.POST}, connector, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateConnector(ctx context.Context, id string, connector Connector) (*Connector, error) {
	if _, err := c.merchant(ctx); err != nil {
		return nil, err
	}
	if err := requireID("connector", id); err != nil {
		return nil, err
	}
	var out Connector
	if err := c.send(ctx, apiurl.Descriptor{Entity: apiurl.V2Connector, Method: apiurl.PUT, ID: id}, connector, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPayments lists payment intents. An empty query asks for the first hundred.
func (c *Client) ListPayments(ctx context.Context, query url.Values) (*PaymentList, error) {
	var out PaymentList
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.GET, QueryParameters: query.Encode()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if err := requireID("payment", id); err != nil {
		return nil, err
	}
	var out Payment
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.V2OrdersList, Method: apiurl.GET, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPaymentAttempts(ctx context.Context, paymentID string) ([]PaymentAttempt, error) {
	var out PaymentAttemptList
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.V2AttemptsList, Method: apiurl.GET, ID: paymentID}, &out); err != nil {
		return nil, err
	}
	return out.PaymentAttemptList, nil
}

func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	var out Payment
	if err := c.api.JSON(ctx, http.MethodPost, CreatePaymentPath, req, &out); err != nil {
		return nil, errors.Wrap(err, "[Client.CreatePayment]")
	}
	return &out, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	if _, err := c.merchant(ctx); err != nil {
		return nil, err
	}
	var out []Customer
	err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.Customers, Method: apiurl.GET}, &out)
	return out, err
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if _, err := c.merchant(ctx); err != nil {
		return nil, err
	}
	if err := requireID("customer", id); err != nil {
		return nil, err
	}
	var out Customer
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.Customers, Method: apiurl.GET, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SavedPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	if _, err := c.merchant(ctx); err != nil {
		return nil, err
	}
	var out SavedPaymentMethods
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.PaymentMethodList, Method: apiurl.GET, ID: customerID}, &out); err != nil {
		return nil, err
	}
	return out.CustomerPaymentMethods, nil
}

func (c *Client) TotalPaymentMethods(ctx context.Context) (int, error) {
	if _, err := c.merchant(ctx); err != nil {
		return 0, err
	}
	var out TotalPaymentMethods
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.TotalTokenCount, Method: apiurl.GET}, &out); err != nil {
		return 0, err
	}
	return out.TotalCount, nil
}

func (c *Client) GetPaymentMethod(ctx context.Context, id string) (*PaymentMethod, error) {
	if _, err := c.merchant(ctx); err != nil {
		return nil, err
	}
	var out PaymentMethod
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.RetrievePaymentMethod, Method: apiurl.GET, ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentFilters(ctx context.Context) (*PaymentFilters, error) {
	var out PaymentFilters
	if err := c.get(ctx, apiurl.Descriptor{Entity: apiurl.V2OrderFilters, Method: apiurl.GET}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Aggregate counts payments by status. The backend requires a query, typically start_time.
func (c *Client) Aggregate(ctx context.Context, query url.Values, entity apiurl.TransactionEntity) (*Aggregate, error) {
	var out Aggregate
	d := apiurl.Descriptor{Entity: apiurl.V2OrdersAggregate, Method: apiurl.GET, QueryParameters: query.Encode(), TransactionEntity: entity}
	if err := c.get(ctx, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevenueRecoveryWorkflows lists the recovery workflows, or only the one with id when given.
func (c *Client) RevenueRecoveryWorkflows(ctx context.Context, id string) ([]RevenueRecoveryWorkflow, error) {
	d := apiurl.Descriptor{Entity: apiurl.ProcessTracker, Method: apiurl.GET, ID: id}
	if id != "" {
		var out RevenueRecoveryWorkflow
		if err := c.get(ctx, d, &out); err != nil {
			return nil, err
		}
		return []RevenueRecoveryWorkflow{out}, nil
	}
	var out []RevenueRecoveryWorkflow
	err := c.get(ctx, d, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, d apiurl.Descriptor, out any) error {
	return c.send(ctx, d, nil, out)
}

func (c *Client) send(ctx context.Context, d apiurl.Descriptor, body, out any) error {
	path, err := apiurl.ResolveStrict(d)
	if err != nil {
		return err
	}
	if err := c.api.JSON(ctx, string(d.Method), path, body, out); err != nil {
		return errors.Wrapf(err, "[Client] %s %s", d.Method, d.Entity)
	}
	return nil
}

// merchant enforces that connector and customer routes have a merchant to act on.
func (c *Client) merchant(ctx context.Context) (fetch.Credentials, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return creds, errors.Wrap(err, "[Client] read credentials")
	}
	if creds.MerchantID == "" {
		return creds, errors.Wrap(internalerrors.ErrMissingMerchant, "[Client]")
	}
	return creds, nil
}

func requireID(kind, id string) error {
	if id == "" {
		return errors.Wrapf(internalerrors.ErrValidation, "%s id is required", kind)
	}
	return nil
}
