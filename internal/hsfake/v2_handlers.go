package hsfake

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/jrsteele09/multipaga/hyperswitch"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
)

func (s *Server) appendV2Routes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/list", s.listCustomers)
		r.Get("/total-payment-methods", s.totalPaymentMethods)
		r.Get("/payment-methods/{id}", s.getPaymentMethod)
		r.Get("/{id}/saved-payment-methods", s.savedPaymentMethods)
		r.Get("/{id}", s.getCustomer)
	})

	r.Get("/profiles/{profileID}/connector-accounts", s.listConnectors)
	r.Route("/connector-accounts", func(r chi.Router) {
		r.Post("/", s.createConnector)
		r.Get("/{id}", s.getConnector)
		r.Put("/{id}", s.updateConnector)
		r.Post("/{id}", s.updateConnector)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/list", s.listPayments)
		r.Post("/create-intent", s.createPayment)
		r.Get("/profile/filter", s.paymentFilters)
		r.Get("/profile/aggregate", s.aggregate(true))
		r.Get("/aggregate", s.aggregate(false))
		r.Get("/{id}/get-intent", s.getPayment)
		r.Get("/{id}/list_attempts", s.listAttempts)
		r.Get("/{id}", s.getPayment)
	})

	r.Get("/process_tracker/revenue_recovery_workflow", s.listWorkflows)
	r.Get("/process_tracker/revenue_recovery_workflow/{id}", s.getWorkflow)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Customers(scopeFrom(r.Context()).MerchantID))
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.data.Customer(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, c, err, "Customer")
}

func (s *Server) savedPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.data.CustomerPaymentMethods(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, hyperswitch.SavedPaymentMethods{CustomerPaymentMethods: methods}, err, "Customer")
}

func (s *Server) totalPaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hyperswitch.TotalPaymentMethods{TotalCount: s.data.PaymentMethodCount(scopeFrom(r.Context()).MerchantID)})
}

func (s *Server) getPaymentMethod(w http.ResponseWriter, r *http.Request) {
	pm, err := s.data.PaymentMethod(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, pm, err, "Payment method")
}

func (s *Server) listConnectors(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r.Context())
	writeJSON(w, http.StatusOK, s.data.ProfileConnectors(sc.MerchantID, chi.URLParam(r, "profileID")))
}

func (s *Server) createConnector(w http.ResponseWriter, r *http.Request) {
	var c hyperswitch.Connector
	if err := decodeBody(r, &c); err != nil || c.ConnectorName == "" {
		writeError(w, http.StatusBadRequest, "IR_06", "connector_name is required")
		return
	}
	sc := scopeFrom(r.Context())
	c.ID = ""
	if c.ProfileID == "" {
		c.ProfileID = sc.ProfileID
	}
	if c.ConnectorType == "" {
		c.ConnectorType = "payment_processor"
	}
	writeJSON(w, http.StatusOK, s.data.UpsertConnector(sc.MerchantID, c))
}

func (s *Server) getConnector(w http.ResponseWriter, r *http.Request) {
	c, err := s.data.Connector(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, c, err, "Merchant connector account")
}

func (s *Server) updateConnector(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r.Context())
	existing, err := s.data.Connector(sc.MerchantID, chi.URLParam(r, "id"))
	if err != nil {
		s.respond(w, nil, err, "Merchant connector account")
		return
	}
	var update hyperswitch.Connector
	if err := decodeBody(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	update.ID = existing.ID
	if update.ConnectorName == "" {
		update.ConnectorName = existing.ConnectorName
	}
	if update.ConnectorType == "" {
		update.ConnectorType = existing.ConnectorType
	}
	if update.ProfileID == "" {
		update.ProfileID = existing.ProfileID
	}
	if update.PaymentMethodsEnabled == nil {
		update.PaymentMethodsEnabled = existing.PaymentMethodsEnabled
	}
	if update.Disabled {
		update.Status = "inactive"
	}
	writeJSON(w, http.StatusOK, s.data.UpsertConnector(sc.MerchantID, update))
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePaymentFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "IR_05", err.Error())
		return
	}
	payments, total := s.data.Payments(scopeFrom(r.Context()).MerchantID, filter)
	writeJSON(w, http.StatusOK, hyperswitch.PaymentList{Count: len(payments), TotalCount: total, Data: payments})
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var req hyperswitch.CreatePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "IR_06", "Invalid request body")
		return
	}
	if req.AmountDetails.OrderAmount <= 0 || req.AmountDetails.Currency == "" {
		writeError(w, http.StatusBadRequest, "IR_05", "amount_details.order_amount and amount_details.currency are required")
		return
	}
	sc := scopeFrom(r.Context())
	writeJSON(w, http.StatusOK, s.data.CreatePayment(sc.MerchantID, sc.ProfileID, req))
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.data.Payment(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, p, err, "Payment")
}

func (s *Server) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.data.Attempts(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, hyperswitch.PaymentAttemptList{PaymentAttemptList: attempts}, err, "Payment")
}

func (s *Server) paymentFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Filters(scopeFrom(r.Context()).MerchantID))
}

func (s *Server) aggregate(profileOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parsePaymentFilter(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, "IR_05", err.Error())
			return
		}
		sc := scopeFrom(r.Context())
		profileID := ""
		if profileOnly {
			profileID = sc.ProfileID
		}
		writeJSON(w, http.StatusOK, s.data.Aggregate(sc.MerchantID, profileID, filter))
	}
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Workflows(scopeFrom(r.Context()).MerchantID))
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.data.Workflow(scopeFrom(r.Context()).MerchantID, chi.URLParam(r, "id"))
	s.respond(w, wf, err, "Revenue recovery workflow")
}

func (s *Server) respond(w http.ResponseWriter, v any, err error, resource string) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case internalerrors.Is(err, internalerrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "HE_02", resource+" does not exist in our records")
	default:
		s.internalError(w, err)
	}
}

type paymentFilter struct {
	Status     string
	Currency   string
	Connector  string
	CustomerID string
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

func parsePaymentFilter(q url.Values) (paymentFilter, error) {
	f := paymentFilter{
		Status:     q.Get("status"),
		Currency:   q.Get("currency"),
		Connector:  q.Get("connector"),
		CustomerID: q.Get("customer_id"),
	}
	var err error
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			if *dst, err = strconv.Atoi(v); err != nil || *dst < 0 {
				return f, errors.Errorf("%s must be a non-negative integer", key)
			}
		}
	}
	for key, dst := range map[string]*time.Time{"start_time": &f.StartTime, "end_time": &f.EndTime} {
		if v := q.Get(key); v != "" {
			if *dst, err = time.Parse(time.RFC3339, v); err != nil {
				return f, errors.Errorf("%s must be an RFC 3339 timestamp", key)
			}
		}
	}
	return f, nil
}

func (f paymentFilter) matches(p hyperswitch.Payment) bool {
	switch {
	case f.Status != "" && p.Status != f.Status:
		return false
	case f.Currency != "" && p.AmountDetails.Currency != f.Currency:
		return false
	case f.Connector != "" && p.Connector != f.Connector:
		return false
	case f.CustomerID != "" && p.CustomerID != f.CustomerID:
		return false
	case !f.StartTime.IsZero() && p.CreatedAt.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && p.CreatedAt.After(f.EndTime):
		return false
	}
	return true
}
