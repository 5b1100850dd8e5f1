package hyperswitch

import "time"

// Resource shapes of the V2 merchant API. Only the fields the dashboard reads are modelled.

type PaymentMethodType struct {
	PaymentMethodSubtype string   `json:"payment_method_subtype" yaml:"payment_method_subtype"`
	CardNetworks         []string `json:"card_networks,omitempty" yaml:"card_networks,omitempty"`
	MinimumAmount        int64    `json:"minimum_amount,omitempty" yaml:"minimum_amount,omitempty"`
	MaximumAmount        int64    `json:"maximum_amount,omitempty" yaml:"maximum_amount,omitempty"`
	RecurringEnabled     bool     `json:"recurring_enabled" yaml:"recurring_enabled"`
}

type PaymentMethodsEnabled struct {
	PaymentMethodType     string              `json:"payment_method_type" yaml:"payment_method_type"`
	PaymentMethodSubtypes []PaymentMethodType `json:"payment_method_subtypes,omitempty" yaml:"payment_method_subtypes,omitempty"`
}

// Connector is a merchant connector account.
type Connector struct {
	ID                      string                  `json:"id,omitempty" yaml:"id,omitempty"`
	ConnectorName           string                  `json:"connector_name" yaml:"connector_name"`
	ConnectorType           string                  `json:"connector_type" yaml:"connector_type"`
	ConnectorLabel          string                  `json:"connector_label,omitempty" yaml:"connector_label,omitempty"`
	MerchantID              string                  `json:"merchant_id,omitempty" yaml:"merchant_id,omitempty"`
	ProfileID               string                  `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`
	Disabled                bool                    `json:"disabled" yaml:"disabled"`
	Status                  string                  `json:"status,omitempty" yaml:"status,omitempty"`
	ConnectorAccountDetails map[string]any          `json:"connector_account_details,omitempty" yaml:"-"`
	PaymentMethodsEnabled   []PaymentMethodsEnabled `json:"payment_methods_enabled,omitempty" yaml:"payment_methods_enabled,omitempty"`
	Metadata                map[string]any          `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type AmountDetails struct {
	OrderAmount int64  `json:"order_amount" yaml:"order_amount"`
	Currency    string `json:"currency" yaml:"currency"`
}

type Payment struct {
	ID            string        `json:"id" yaml:"id"`
	MerchantID    string        `json:"merchant_id,omitempty" yaml:"merchant_id,omitempty"`
	ProfileID     string        `json:"profile_id,omitempty" yaml:"profile_id,omitempty"`
	CustomerID    string        `json:"customer_id,omitempty" yaml:"customer_id,omitempty"`
	Status        string        `json:"status" yaml:"status"`
	AmountDetails AmountDetails `json:"amount_details" yaml:"amount_details"`
	Connector     string        `json:"connector,omitempty" yaml:"connector,omitempty"`
	PaymentMethod string        `json:"payment_method_type,omitempty" yaml:"payment_method_type,omitempty"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt     time.Time     `json:"created" yaml:"created"`
}

type PaymentList struct {
	Count      int       `json:"count" yaml:"count"`
	TotalCount int       `json:"total_count" yaml:"total_count"`
	Data       []Payment `json:"data" yaml:"data"`
}

type CreatePaymentRequest struct {
	AmountDetails AmountDetails `json:"amount_details"`
	CustomerID    string        `json:"customer_id,omitempty"`
	Description   string        `json:"description,omitempty"`
}

type PaymentAttempt struct {
	ID           string    `json:"id" yaml:"id"`
	Status       string    `json:"status" yaml:"status"`
	Connector    string    `json:"connector,omitempty" yaml:"connector,omitempty"`
	Amount       int64     `json:"amount" yaml:"amount"`
	ErrorMessage string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

type PaymentAttemptList struct {
	PaymentAttemptList []PaymentAttempt `json:"payment_attempt_list" yaml:"payment_attempt_list"`
}

// PaymentFilters are the values the payments list can be filtered by.
type PaymentFilters struct {
	Connector     []string `json:"connector" yaml:"connector"`
	Currency      []string `json:"currency" yaml:"currency"`
	Status        []string `json:"status" yaml:"status"`
	PaymentMethod []string `json:"payment_method" yaml:"payment_method"`
}

type Aggregate struct {
	StatusWithCount map[string]int `json:"status_with_count" yaml:"status_with_count"`
}

type Customer struct {
	ID                  string    `json:"id" yaml:"id"`
	MerchantReferenceID string    `json:"merchant_reference_id,omitempty" yaml:"merchant_reference_id,omitempty"`
	Name                string    `json:"name,omitempty" yaml:"name,omitempty"`
	Email               string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone               string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Description         string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
}

type Card struct {
	Last4       string `json:"last4_digits" yaml:"last4_digits"`
	ExpiryMonth string `json:"expiry_month" yaml:"expiry_month"`
	ExpiryYear  string `json:"expiry_year" yaml:"expiry_year"`
	CardNetwork string `json:"card_network,omitempty" yaml:"card_network,omitempty"`
	HolderName  string `json:"card_holder_name,omitempty" yaml:"card_holder_name,omitempty"`
}

type PaymentMethod struct {
	ID                   string    `json:"id" yaml:"id"`
	CustomerID           string    `json:"customer_id" yaml:"customer_id"`
	PaymentMethodType    string    `json:"payment_method_type" yaml:"payment_method_type"`
	PaymentMethodSubtype string    `json:"payment_method_subtype,omitempty" yaml:"payment_method_subtype,omitempty"`
	Card                 *Card     `json:"card,omitempty" yaml:"card,omitempty"`
	Recurring            bool      `json:"recurring_enabled" yaml:"recurring_enabled"`
	IsDefault            bool      `json:"is_default" yaml:"is_default"`
	CreatedAt            time.Time `json:"created" yaml:"created"`
}

type SavedPaymentMethods struct {
	CustomerPaymentMethods []PaymentMethod `json:"customer_payment_methods" yaml:"customer_payment_methods"`
}

type TotalPaymentMethods struct {
	TotalCount int `json:"total_count" yaml:"total_count"`
}

// RevenueRecoveryWorkflow is a process tracker entry retrying a failed payment.
type RevenueRecoveryWorkflow struct {
	ID             string     `json:"id" yaml:"id"`
	PaymentID      string     `json:"payment_id" yaml:"payment_id"`
	Name           string     `json:"name" yaml:"name"`
	Status         string     `json:"status" yaml:"status"`
	BusinessStatus string     `json:"business_status" yaml:"business_status"`
	RetryCount     int        `json:"retry_count" yaml:"retry_count"`
	ScheduleTime   *time.Time `json:"schedule_time,omitempty" yaml:"schedule_time,omitempty"`
}
