package cli

import (
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/multipaga/hyperswitch"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
)

// run wraps a command body that needs the typed client.
func (a *app) run(fn func(cmd *cobra.Command, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.connect(cmd); err != nil {
			return err
		}
		v, err := fn(cmd, args)
		if err != nil {
			return err
		}
		return a.print(cmd.OutOrStdout(), v)
	}
}

func (a *app) connectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connectors",
		Aliases: []string{"connector"},
		Short:   "Manage the connector accounts of the active profile",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List connector accounts",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			return a.client.ListConnectors(cmd.Context())
		}),
	}

	get := &cobra.Command{
		Use:   "get CONNECTOR_ID",
		Short: "Show one connector account",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.GetConnector(cmd.Context(), args[0])
		}),
	}

	var connector hyperswitch.Connector
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a connector account",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			return a.client.CreateConnector(cmd.Context(), connector)
		}),
	}
	create.Flags().StringVar(&connector.ConnectorName, "name", "", "Connector name, e.g. stripe")
	create.Flags().StringVar(&connector.ConnectorType, "type", "payment_processor", "Connector type")
	create.Flags().StringVar(&connector.ConnectorLabel, "label", "", "Connector label")
	create.Flags().StringVar(&connector.ProfileID, "profile-id", "", "Profile id, defaults to the active profile")
	_ = create.MarkFlagRequired("name")

	var patch hyperswitch.Connector
	update := &cobra.Command{
		Use:   "update CONNECTOR_ID",
		Short: "Relabel, disable or enable a connector account",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.UpdateConnector(cmd.Context(), args[0], patch)
		}),
	}
	update.Flags().StringVar(&patch.ConnectorLabel, "label", "", "New connector label")
	update.Flags().BoolVar(&patch.Disabled, "disable", false, "Disable the connector")

	cmd.AddCommand(list, get, create, update)
	return cmd
}

func (a *app) paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"payment"},
		Short:   "List, inspect and create payments",
	}

	var filter struct {
		status, currency, connector, customer string
		limit, offset                         int
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List payments, newest first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			query := url.Values{}
			setIfNotEmpty(query, "status", filter.status)
			setIfNotEmpty(query, "currency", filter.currency)
			setIfNotEmpty(query, "connector", filter.connector)
			setIfNotEmpty(query, "customer_id", filter.customer)
			if filter.limit > 0 {
				query.Set("limit", strconv.Itoa(filter.limit))
			}
			if filter.offset > 0 {
				query.Set("offset", strconv.Itoa(filter.offset))
			}
			return a.client.ListPayments(cmd.Context(), query)
		}),
	}
	list.Flags().StringVar(&filter.status, "status", "", "Only payments with this status")
	list.Flags().StringVar(&filter.currency, "currency", "", "Only payments in this currency")
	list.Flags().StringVar(&filter.connector, "connector", "", "Only payments routed to this connector")
	list.Flags().StringVar(&filter.customer, "customer", "", "Only payments of this customer")
	list.Flags().IntVar(&filter.limit, "limit", 0, "Page size, the backend default when 0")
	list.Flags().IntVar(&filter.offset, "offset", 0, "Page offset")

	get := &cobra.Command{
		Use:   "get PAYMENT_ID",
		Short: "Show one payment",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.GetPayment(cmd.Context(), args[0])
		}),
	}

	attempts := &cobra.Command{
		Use:   "attempts PAYMENT_ID",
		Short: "List the attempts of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.ListPaymentAttempts(cmd.Context(), args[0])
		}),
	}

	var req hyperswitch.CreatePaymentRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a payment intent",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			if req.AmountDetails.OrderAmount <= 0 {
				return nil, errors.Wrap(internalerrors.ErrValidation, "amount must be positive")
			}
			return a.client.CreatePayment(cmd.Context(), req)
		}),
	}
	create.Flags().Int64Var(&req.AmountDetails.OrderAmount, "amount", 0, "Amount in minor units")
	create.Flags().StringVar(&req.AmountDetails.Currency, "currency", "USD", "ISO currency code")
	create.Flags().StringVar(&req.CustomerID, "customer", "", "Customer id")
	create.Flags().StringVar(&req.Description, "description", "", "Description")
	_ = create.MarkFlagRequired("amount")

	filters := &cobra.Command{
		Use:   "filters",
		Short: "Show the values payments can be filtered by",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			return a.client.PaymentFilters(cmd.Context())
		}),
	}

	cmd.AddCommand(list, get, attempts, create, filters)
	return cmd
}

func (a *app) customersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Inspect customers and their saved payment methods",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			return a.client.ListCustomers(cmd.Context())
		}),
	}

	get := &cobra.Command{
		Use:   "get CUSTOMER_ID",
		Short: "Show one customer",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.GetCustomer(cmd.Context(), args[0])
		}),
	}

	methods := &cobra.Command{
		Use:   "methods CUSTOMER_ID",
		Short: "List the saved payment methods of a customer",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.SavedPaymentMethods(cmd.Context(), args[0])
		}),
	}

	method := &cobra.Command{
		Use:   "payment-method PAYMENT_METHOD_ID",
		Short: "Show one saved payment method",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			return a.client.GetPaymentMethod(cmd.Context(), args[0])
		}),
	}

	count := &cobra.Command{
		Use:   "count-methods",
		Short: "Count the saved payment methods of every customer",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			total, err := a.client.TotalPaymentMethods(cmd.Context())
			if err != nil {
				return nil, err
			}
			return hyperswitch.TotalPaymentMethods{TotalCount: total}, nil
		}),
	}

	cmd.AddCommand(list, get, methods, method, count)
	return cmd
}

func (a *app) analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Payment aggregates and revenue recovery workflows",
	}

	var (
		since  time.Duration
		start  string
		entity string
	)
	aggregate := &cobra.Command{
		Use:   "aggregate",
		Short: "Count payments by status",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) (any, error) {
			te, err := parseTransactionEntity(entity)
			if err != nil {
				return nil, err
			}
			if start == "" {
				start = time.Now().UTC().Add(-since).Format(time.RFC3339)
			}
			return a.client.Aggregate(cmd.Context(), url.Values{"start_time": {start}}, te)
		}),
	}
	aggregate.Flags().DurationVar(&since, "since", 30*24*time.Hour, "Window to aggregate, ending now")
	aggregate.Flags().StringVar(&start, "start-time", "", "RFC3339 start time, overrides --since")
	aggregate.Flags().StringVar(&entity, "entity", "merchant", "Scope: merchant or profile")

	workflows := &cobra.Command{
		Use:   "workflows [WORKFLOW_ID]",
		Short: "List revenue recovery workflows, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) (any, error) {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return a.client.RevenueRecoveryWorkflows(cmd.Context(), id)
		}),
	}

	cmd.AddCommand(aggregate, workflows)
	return cmd
}

func setIfNotEmpty(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}
