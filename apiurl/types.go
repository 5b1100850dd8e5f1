package apiurl

import (
	"fmt"
	"strings"
)

// Entity is the closed set of V2 backend resources a path can be resolved for.
type Entity int

const (
	Customers Entity = iota + 1
	V2Connector
	V2OrdersList
	V2AttemptsList
	ProcessTracker
	V2OrderFilters
	V2OrdersAggregate
	PaymentMethodList
	TotalTokenCount
	RetrievePaymentMethod
)

var entityNames = map[Entity]string{
	Customers:             "CUSTOMERS",
	V2Connector:           "V2_CONNECTOR",
	V2OrdersList:          "V2_ORDERS_LIST",
	V2AttemptsList:        "V2_ATTEMPTS_LIST",
	ProcessTracker:        "PROCESS_TRACKER",
	V2OrderFilters:        "V2_ORDER_FILTERS",
	V2OrdersAggregate:     "V2_ORDERS_AGGREGATE",
	PaymentMethodList:     "PAYMENT_METHOD_LIST",
	TotalTokenCount:       "TOTAL_TOKEN_COUNT",
	RetrievePaymentMethod: "RETRIEVE_PAYMENT_METHOD",
}

// Entities lists every entity in declaration order.
func Entities() []Entity {
	return []Entity{
		Customers, V2Connector, V2OrdersList, V2AttemptsList, ProcessTracker,
		V2OrderFilters, V2OrdersAggregate, PaymentMethodList, TotalTokenCount, RetrievePaymentMethod,
	}
}

func (e Entity) String() string {
	if name, ok := entityNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Entity(%d)", int(e))
}

// ParseEntity accepts the upper snake case name, case-insensitively.
func ParseEntity(s string) (Entity, error) {
	for e, name := range entityNames {
		if strings.EqualFold(name, s) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown entity %q", s)
}

// Method is the HTTP verb of a descriptor.
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	DELETE Method = "DELETE"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(s)); m {
	case GET, POST, PUT, DELETE:
		return m, nil
	}
	return "", fmt.Errorf("unknown method %q", s)
}

// TransactionEntity scopes aggregate queries to the merchant or the active profile.
type TransactionEntity string

const (
	TransactionUnset    TransactionEntity = ""
	TransactionMerchant TransactionEntity = "Merchant"
	TransactionProfile  TransactionEntity = "Profile"
)

// Descriptor is the input to Resolve. It carries no state and is never persisted.
type Descriptor struct {
	Entity            Entity
	Method            Method
	ID                string
	QueryParameters   string
	TransactionEntity TransactionEntity
	ProfileID         string // only the connector list route uses it
}
