package apiurl

import (
	"strings"

	"github.com/jrsteele09/multipaga/internal/errors"
)

const (
	connectorBaseURL = "v2/connector-accounts"
	paymentsBaseURL  = "v2/payments"
	customersBaseURL = "v2/customers"

	defaultListQuery = "limit=100"
)

// Resolve maps a descriptor to a relative V2 path. It never fails: any
// combination without a route yields "", and missing ids fall back to list
// routes, so callers validate arguments first (or use ResolveStrict).
func Resolve(d Descriptor) string {
	switch d.Entity {
	case Customers:
		if d.Method != GET {
			return ""
		}
		if d.ID != "" {
			return customersBaseURL + "/" + d.ID
		}
		return customersBaseURL + "/list"

	case V2Connector:
		switch d.Method {
		case GET:
			if d.ID != "" {
				return connectorBaseURL + "/" + d.ID
			}
			if d.ProfileID == "" {
				return ""
			}
			return "v2/profiles/" + d.ProfileID + "/connector-accounts"
		case POST, PUT:
			if d.ID != "" {
				return connectorBaseURL + "/" + d.ID
			}
			return connectorBaseURL
		}
		return ""

	case V2OrdersList:
		if d.Method != GET {
			return ""
		}
		if d.ID != "" {
			if d.QueryParameters != "" {
				return paymentsBaseURL + "/" + d.ID + "?" + d.QueryParameters
			}
			return paymentsBaseURL + "/" + d.ID + "/get-intent"
		}
		if d.QueryParameters != "" {
			return paymentsBaseURL + "/list?" + d.QueryParameters
		}
		return paymentsBaseURL + "/list?" + defaultListQuery

	case V2AttemptsList:
		if d.Method != GET || d.ID == "" {
			return ""
		}
		return paymentsBaseURL + "/" + d.ID + "/list_attempts"

	case ProcessTracker:
		if d.Method != GET {
			return ""
		}
		if d.ID != "" {
			return "v2/process_tracker/revenue_recovery_workflow/" + d.ID
		}
		return "v2/process_tracker/revenue_recovery_workflow"

	case V2OrderFilters:
		return paymentsBaseURL + "/profile/filter"

	case V2OrdersAggregate:
		if d.Method != GET || d.QueryParameters == "" {
			return ""
		}
		if d.TransactionEntity == TransactionProfile {
			return paymentsBaseURL + "/profile/aggregate?" + d.QueryParameters
		}
		return paymentsBaseURL + "/aggregate?" + d.QueryParameters

	case PaymentMethodList:
		if d.ID == "" {
			return ""
		}
		return customersBaseURL + "/" + d.ID + "/saved-payment-methods"

	case TotalTokenCount:
		return customersBaseURL + "/total-payment-methods"

	case RetrievePaymentMethod:
		if d.ID == "" {
			return ""
		}
		return customersBaseURL + "/payment-methods/" + d.ID
	}
	return ""
}

// ResolveStrict is Resolve with unmapped combinations reported as ErrUnmappedRoute.
func ResolveStrict(d Descriptor) (string, error) {
	path := Resolve(d)
	if path == "" {
		return "", errors.Wrapf(errors.ErrUnmappedRoute, "%s %s", d.Method, d.Entity)
	}
	return path, nil
}

// Join builds an absolute URL from a base URL and a relative or rooted path.
func Join(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
