package hsfake

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/multipaga/hyperswitch"
	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
)

// merchantData is everything one merchant owns.
type merchantData struct {
	connectors     map[string]hyperswitch.Connector
	payments       map[string]hyperswitch.Payment
	attempts       map[string][]hyperswitch.PaymentAttempt
	customers      map[string]hyperswitch.Customer
	paymentMethods map[string]hyperswitch.PaymentMethod
	workflows      map[string]hyperswitch.RevenueRecoveryWorkflow
}

func newMerchantData() *merchantData {
	return &merchantData{
		connectors:     make(map[string]hyperswitch.Connector),
		payments:       make(map[string]hyperswitch.Payment),
		attempts:       make(map[string][]hyperswitch.PaymentAttempt),
		customers:      make(map[string]hyperswitch.Customer),
		paymentMethods: make(map[string]hyperswitch.PaymentMethod),
		workflows:      make(map[string]hyperswitch.RevenueRecoveryWorkflow),
	}
}

type dataStore struct {
	merchants map[string]*merchantData
	nowTime   func() time.Time
	lock      sync.RWMutex
}

func newDataStore(nowTime func() time.Time) *dataStore {
	return &dataStore{
		merchants: make(map[string]*merchantData),
		nowTime:   nowTime,
	}
}

func (ds *dataStore) merchant(merchantID string) *merchantData {
	md, ok := ds.merchants[merchantID]
	if !ok {
		md = newMerchantData()
		ds.merchants[merchantID] = md
	}
	return md
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:12]
}

func (ds *dataStore) UpsertConnector(merchantID string, c hyperswitch.Connector) hyperswitch.Connector {
	ds.lock.Lock()
	defer ds.lock.Unlock()

	if c.ID == "" {
		c.ID = newID("mca")
	}
	c.MerchantID = merchantID
	if c.Status == "" {
		c.Status = "active"
	}
	ds.merchant(merchantID).connectors[c.ID] = c
	return c
}

func (ds *dataStore) Connector(merchantID, id string) (hyperswitch.Connector, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	md, ok := ds.merchants[merchantID]
	if !ok {
		return hyperswitch.Connector{}, internalerrors.ErrNotFound
	}
	c, ok := md.connectors[id]
	if !ok {
		return hyperswitch.Connector{}, internalerrors.ErrNotFound
	}
	return c, nil
}

func (ds *dataStore) ProfileConnectors(merchantID, profileID string) []hyperswitch.Connector {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	list := make([]hyperswitch.Connector, 0)
	if md, ok := ds.merchants[merchantID]; ok {
		for _, c := range md.connectors {
			if c.ProfileID == profileID {
				list = append(list, c)
			}
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ConnectorName < list[j].ConnectorName })
	return list
}

func (ds *dataStore) CreatePayment(merchantID, profileID string, req hyperswitch.CreatePaymentRequest) hyperswitch.Payment {
	ds.lock.Lock()
	defer ds.lock.Unlock()

	p := hyperswitch.Payment{
		ID:            newID("pay"),
		MerchantID:    merchantID,
		ProfileID:     profileID,
		CustomerID:    req.CustomerID,
		Status:        "requires_payment_method",
		AmountDetails: req.AmountDetails,
		Description:   req.Description,
		CreatedAt:     ds.nowTime().UTC(),
	}
	ds.merchant(merchantID).payments[p.ID] = p
	return p
}

func (ds *dataStore) addPayment(merchantID string, p hyperswitch.Payment, attempts []hyperswitch.PaymentAttempt) {
	md := ds.merchant(merchantID)
	md.payments[p.ID] = p
	md.attempts[p.ID] = attempts
}

func (ds *dataStore) Payment(merchantID, id string) (hyperswitch.Payment, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	if md, ok := ds.merchants[merchantID]; ok {
		if p, ok := md.payments[id]; ok {
			return p, nil
		}
	}
	return hyperswitch.Payment{}, internalerrors.ErrNotFound
}

// Payments returns the merchant's payments newest first, filtered by the non-empty fields of
// filter, and the total before limit and offset were applied.
func (ds *dataStore) Payments(merchantID string, filter paymentFilter) ([]hyperswitch.Payment, int) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	list := make([]hyperswitch.Payment, 0)
	if md, ok := ds.merchants[merchantID]; ok {
		for _, p := range md.payments {
			if filter.matches(p) {
				list = append(list, p)
			}
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	total := len(list)
	if filter.Offset >= len(list) {
		return []hyperswitch.Payment{}, total
	}
	list = list[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list, total
}

func (ds *dataStore) Attempts(merchantID, paymentID string) ([]hyperswitch.PaymentAttempt, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	if md, ok := ds.merchants[merchantID]; ok {
		if _, ok := md.payments[paymentID]; ok {
			return append([]hyperswitch.PaymentAttempt{}, md.attempts[paymentID]...), nil
		}
	}
	return nil, internalerrors.ErrNotFound
}

func (ds *dataStore) Filters(merchantID string) hyperswitch.PaymentFilters {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	connectors, currencies, statuses, methods := map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}
	if md, ok := ds.merchants[merchantID]; ok {
		for _, p := range md.payments {
			if p.Connector != "" {
				connectors[p.Connector] = true
			}
			if p.PaymentMethod != "" {
				methods[p.PaymentMethod] = true
			}
			currencies[p.AmountDetails.Currency] = true
			statuses[p.Status] = true
		}
	}
	return hyperswitch.PaymentFilters{
		Connector:     sortedKeys(connectors),
		Currency:      sortedKeys(currencies),
		Status:        sortedKeys(statuses),
		PaymentMethod: sortedKeys(methods),
	}
}

// Aggregate counts payments by status, optionally restricted to one profile.
func (ds *dataStore) Aggregate(merchantID, profileID string, filter paymentFilter) hyperswitch.Aggregate {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	agg := hyperswitch.Aggregate{StatusWithCount: map[string]int{}}
	if md, ok := ds.merchants[merchantID]; ok {
		for _, p := range md.payments {
			if profileID != "" && p.ProfileID != profileID {
				continue
			}
			if filter.matches(p) {
				agg.StatusWithCount[p.Status]++
			}
		}
	}
	return agg
}

func (ds *dataStore) addCustomer(merchantID string, c hyperswitch.Customer, methods ...hyperswitch.PaymentMethod) {
	md := ds.merchant(merchantID)
	md.customers[c.ID] = c
	for _, pm := range methods {
		pm.CustomerID = c.ID
		md.paymentMethods[pm.ID] = pm
	}
}

func (ds *dataStore) Customers(merchantID string) []hyperswitch.Customer {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	list := make([]hyperswitch.Customer, 0)
	if md, ok := ds.merchants[merchantID]; ok {
		for _, c := range md.customers {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (ds *dataStore) Customer(merchantID, id string) (hyperswitch.Customer, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	if md, ok := ds.merchants[merchantID]; ok {
		if c, ok := md.customers[id]; ok {
			return c, nil
		}
	}
	return hyperswitch.Customer{}, internalerrors.ErrNotFound
}

func (ds *dataStore) CustomerPaymentMethods(merchantID, customerID string) ([]hyperswitch.PaymentMethod, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	md, ok := ds.merchants[merchantID]
	if !ok {
		return nil, internalerrors.ErrNotFound
	}
	if _, ok := md.customers[customerID]; !ok {
		return nil, internalerrors.ErrNotFound
	}
	list := make([]hyperswitch.PaymentMethod, 0)
	for _, pm := range md.paymentMethods {
		if pm.CustomerID == customerID {
			list = append(list, pm)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (ds *dataStore) PaymentMethod(merchantID, id string) (hyperswitch.PaymentMethod, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	if md, ok := ds.merchants[merchantID]; ok {
		if pm, ok := md.paymentMethods[id]; ok {
			return pm, nil
		}
	}
	return hyperswitch.PaymentMethod{}, internalerrors.ErrNotFound
}

func (ds *dataStore) PaymentMethodCount(merchantID string) int {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	if md, ok := ds.merchants[merchantID]; ok {
		return len(md.paymentMethods)
	}
	return 0
}

func (ds *dataStore) Workflows(merchantID string) []hyperswitch.RevenueRecoveryWorkflow {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	list := make([]hyperswitch.RevenueRecoveryWorkflow, 0)
	if md, ok := ds.merchants[merchantID]; ok {
		for _, w := range md.workflows {
			list = append(list, w)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (ds *dataStore) Workflow(merchantID, id string) (hyperswitch.RevenueRecoveryWorkflow, error) {
	ds.lock.RLock()
	defer ds.lock.RUnlock()

	if md, ok := ds.merchants[merchantID]; ok {
		if w, ok := md.workflows[id]; ok {
			return w, nil
		}
	}
	return hyperswitch.RevenueRecoveryWorkflow{}, internalerrors.ErrNotFound
}

// Seed fills merchantID with a small, deterministic data set.
func (ds *dataStore) Seed(merchantID, profileID string) {
	ds.lock.Lock()
	defer ds.lock.Unlock()

	now := ds.nowTime().UTC().Truncate(time.Second)
	md := ds.merchant(merchantID)

	for _, name := range []string{"stripe", "adyen"} {
		id := "mca_" + name
		md.connectors[id] = hyperswitch.Connector{
			ID:             id,
			ConnectorName:  name,
			ConnectorType:  "payment_processor",
			ConnectorLabel: name + "_default",
			MerchantID:     merchantID,
			ProfileID:      profileID,
			Status:         "active",
			PaymentMethodsEnabled: []hyperswitch.PaymentMethodsEnabled{{
				PaymentMethodType: "card",
				PaymentMethodSubtypes: []hyperswitch.PaymentMethodType{
					{PaymentMethodSubtype: "credit", CardNetworks: []string{"Visa", "Mastercard"}, RecurringEnabled: true},
				},
			}},
		}
	}

	ds.addCustomer(merchantID,
		hyperswitch.Customer{ID: "cus_ana", Name: "Ana Lopez", Email: "ana@example.com", CreatedAt: now.Add(-72 * time.Hour)},
		hyperswitch.PaymentMethod{
			ID: "pm_ana_visa", PaymentMethodType: "card", PaymentMethodSubtype: "credit", Recurring: true, IsDefault: true,
			Card:      &hyperswitch.Card{Last4: "4242", ExpiryMonth: "12", ExpiryYear: "2030", CardNetwork: "Visa", HolderName: "Ana Lopez"},
			CreatedAt: now.Add(-72 * time.Hour),
		},
	)
	ds.addCustomer(merchantID,
		hyperswitch.Customer{ID: "cus_luis", Name: "Luis Mejia", Email: "luis@example.com", CreatedAt: now.Add(-48 * time.Hour)},
		hyperswitch.PaymentMethod{
			ID: "pm_luis_mc", PaymentMethodType: "card", PaymentMethodSubtype: "debit",
			Card:      &hyperswitch.Card{Last4: "4444", ExpiryMonth: "01", ExpiryYear: "2029", CardNetwork: "Mastercard"},
			CreatedAt: now.Add(-48 * time.Hour),
		},
	)

	statuses := []string{"succeeded", "succeeded", "failed", "processing", "succeeded"}
	for i, status := range statuses {
		p := hyperswitch.Payment{
			ID:            fmt.Sprintf("pay_%03d", i+1),
			MerchantID:    merchantID,
			ProfileID:     profileID,
			CustomerID:    []string{"cus_ana", "cus_luis"}[i%2],
			Status:        status,
			AmountDetails: hyperswitch.AmountDetails{OrderAmount: int64(1000 * (i + 1)), Currency: []string{"USD", "HNL"}[i%2]},
			Connector:     []string{"stripe", "adyen"}[i%2],
			PaymentMethod: "card",
			CreatedAt:     now.Add(-time.Duration(i) * time.Hour),
		}
		attempt := hyperswitch.PaymentAttempt{
			ID:        p.ID + "_1",
			Status:    attemptStatus(status),
			Connector: p.Connector,
			Amount:    p.AmountDetails.OrderAmount,
			CreatedAt: p.CreatedAt,
		}
		if status == "failed" {
			attempt.ErrorMessage = "insufficient funds"
		}
		ds.addPayment(merchantID, p, []hyperswitch.PaymentAttempt{attempt})

		if status == "failed" {
			next := now.Add(time.Hour)
			md.workflows["wf_"+p.ID] = hyperswitch.RevenueRecoveryWorkflow{
				ID:             "wf_" + p.ID,
				PaymentID:      p.ID,
				Name:           "EXECUTE_WORKFLOW",
				Status:         "pending",
				BusinessStatus: "execute_workflow_requested",
				RetryCount:     1,
				ScheduleTime:   &next,
			}
		}
	}
}

func attemptStatus(paymentStatus string) string {
	switch paymentStatus {
	case "succeeded":
		return "charged"
	case "failed":
		return "failure"
	default:
		return "pending"
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
