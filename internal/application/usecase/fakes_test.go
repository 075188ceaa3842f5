// internal/application/usecase/fakes_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	carttxdom "plaze/internal/domain/carttx"
	productdom "plaze/internal/domain/product"
	eventdom "plaze/internal/domain/webhookevent"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------
// carttx.Repository fake
// ---------------------------------------------------------------

type fakeCartRepo struct {
	seq   int
	txs   map[string]*carttxdom.Transaction
	items map[string]map[string]carttxdom.LineItem // txID -> lineKey -> item

	createErr  error
	addLineErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		txs:   map[string]*carttxdom.Transaction{},
		items: map[string]map[string]carttxdom.LineItem{},
	}
}

func (r *fakeCartRepo) GetLatestPending(_ context.Context, owner carttxdom.Owner) (*carttxdom.Transaction, error) {
	var newest *carttxdom.Transaction
	for _, t := range r.txs {
		if t.Status != carttxdom.StatusPending || t.Owner() != owner {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			newest = t
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (r *fakeCartRepo) GetByPaymentIntentID(_ context.Context, paymentIntentID string) (*carttxdom.Transaction, error) {
	for _, t := range r.txs {
		if t.PaymentIntentID == paymentIntentID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) ListItems(_ context.Context, transactionID string) ([]carttxdom.LineItem, error) {
	var out []carttxdom.LineItem
	for _, li := range r.items[transactionID] {
		out = append(out, li)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCartRepo) CreatePending(_ context.Context, t *carttxdom.Transaction) (*carttxdom.Transaction, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	cp := *t
	cp.ID = fmt.Sprintf("tx-%d", r.seq)
	r.txs[cp.ID] = &cp
	r.items[cp.ID] = map[string]carttxdom.LineItem{}
	out := cp
	return &out, nil
}

func (r *fakeCartRepo) AddLine(_ context.Context, transactionID string, line carttxdom.LineItem, now time.Time) error {
	if r.addLineErr != nil {
		return r.addLineErr
	}
	t, ok := r.txs[transactionID]
	if !ok || t.Status != carttxdom.StatusPending {
		return errors.New("fake: transaction not pending")
	}
	key := carttxdom.LineKey(line.ProductID, line.VariantID)
	var amountDelta int64
	if existing, ok := r.items[transactionID][key]; ok {
		existing.Quantity++
		existing.UpdatedAt = now
		r.items[transactionID][key] = existing
		amountDelta = existing.Price
	} else {
		r.items[transactionID][key] = line
		amountDelta = line.Price
	}
	t.ItemCount++
	t.TotalAmount += amountDelta
	t.UpdatedAt = now
	return nil
}

func (r *fakeCartRepo) RemoveLine(_ context.Context, transactionID, productID, variantID string, now time.Time) error {
	t, ok := r.txs[transactionID]
	if !ok {
		return errors.New("fake: transaction not found")
	}
	key := carttxdom.LineKey(productID, variantID)
	existing, ok := r.items[transactionID][key]
	if !ok {
		return nil
	}
	delete(r.items[transactionID], key)
	t.ItemCount -= existing.Quantity
	t.TotalAmount -= existing.LineTotal()
	t.UpdatedAt = now
	return nil
}

func (r *fakeCartRepo) SetPaymentIntentID(_ context.Context, transactionID, paymentIntentID string, now time.Time) error {
	t, ok := r.txs[transactionID]
	if !ok {
		return errors.New("fake: transaction not found")
	}
	t.PaymentIntentID = paymentIntentID
	t.UpdatedAt = now
	return nil
}

func (r *fakeCartRepo) UpdateStatus(_ context.Context, transactionID string, status carttxdom.Status, now time.Time) error {
	t, ok := r.txs[transactionID]
	if !ok {
		return errors.New("fake: transaction not found")
	}
	t.Status = status
	t.UpdatedAt = now
	return nil
}

// ---------------------------------------------------------------
// product.Repository fake
// ---------------------------------------------------------------

type fakeProductRepo struct {
	products map[string]*productdom.Product
	getErr   error
}

func newFakeProductRepo(products ...*productdom.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[string]*productdom.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*productdom.Product, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.products[id], nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []string) (map[string]*productdom.Product, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	out := map[string]*productdom.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// ---------------------------------------------------------------
// webhookevent.Repository fake
// ---------------------------------------------------------------

type fakeEventRepo struct {
	events map[string]*eventdom.Event

	insertCalls int
	healthStats eventdom.HealthStats
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*eventdom.Event{}}
}

func (r *fakeEventRepo) Insert(_ context.Context, e eventdom.Event) (eventdom.Event, bool, error) {
	r.insertCalls++
	if existing, ok := r.events[e.ID]; ok {
		return *existing, false, nil
	}
	cp := e
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = testNow
	}
	r.events[cp.ID] = &cp
	return cp, true, nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, eventID string) (*eventdom.Event, error) {
	if e, ok := r.events[eventID]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeEventRepo) ListByPaymentIntent(_ context.Context, paymentIntentID string) ([]eventdom.Event, error) {
	var out []eventdom.Event
	for _, e := range r.events {
		if e.PaymentIntentID == paymentIntentID && e.IsRelevant() {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProviderCreated.Equal(out[j].ProviderCreated) {
			return out[i].ProviderCreated.Before(out[j].ProviderCreated)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeEventRepo) MarkProcessed(_ context.Context, eventID string, at time.Time) error {
	e, ok := r.events[eventID]
	if !ok {
		return errors.New("fake: event not found")
	}
	e.Processed = true
	e.ProcessingError = nil
	e.ProcessedAt = &at
	return nil
}

func (r *fakeEventRepo) MarkFailed(_ context.Context, eventID string, reason string, at time.Time) error {
	e, ok := r.events[eventID]
	if !ok {
		return errors.New("fake: event not found")
	}
	e.Processed = false
	e.ProcessingError = &reason
	e.ProcessedAt = &at
	return nil
}

func (r *fakeEventRepo) Health(_ context.Context, _ time.Duration) (eventdom.HealthStats, error) {
	return r.healthStats, nil
}

func (r *fakeEventRepo) Subscribe(_ context.Context, _ eventdom.SubscribeFilter, _ func(eventdom.Notification)) (func(), error) {
	return func() {}, nil
}

// ---------------------------------------------------------------
// PaymentGateway / ReceiptMailer fakes
// ---------------------------------------------------------------

type fakeGateway struct {
	customers     map[string]CustomerRef // keyed by email
	intentSeq     int
	lastMetadata  map[string]string
	customerErr   error
	intentErr     error
	subscriptions []SubscriptionRef
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{customers: map[string]CustomerRef{}}
}

func (g *fakeGateway) CreateOrGetCustomer(_ context.Context, email, _, _ string) (CustomerRef, error) {
	if g.customerErr != nil {
		return CustomerRef{}, g.customerErr
	}
	if c, ok := g.customers[email]; ok {
		return c, nil
	}
	c := CustomerRef{ID: fmt.Sprintf("cus_%d", len(g.customers)+1), Email: email}
	g.customers[email] = c
	return c, nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, amount int64, currency, _ string, metadata map[string]string, _ string) (PaymentIntentRef, error) {
	if g.intentErr != nil {
		return PaymentIntentRef{}, g.intentErr
	}
	g.intentSeq++
	g.lastMetadata = metadata
	return PaymentIntentRef{
		ID:           fmt.Sprintf("pi_%d", g.intentSeq),
		ClientSecret: fmt.Sprintf("pi_%d_secret", g.intentSeq),
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *fakeGateway) CreateSubscription(_ context.Context, _, priceID string, _ map[string]string, _ int64) (SubscriptionRef, error) {
	ref := SubscriptionRef{
		ID:           fmt.Sprintf("sub_%d", len(g.subscriptions)+1),
		Status:       "incomplete",
		ClientSecret: "sub_secret",
	}
	g.subscriptions = append(g.subscriptions, ref)
	_ = priceID
	return ref, nil
}

type fakeMailer struct {
	sent []string // transaction ids
	err  error
}

func (m *fakeMailer) SendPaymentReceipt(_ context.Context, _, transactionID string, _ int64) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, transactionID)
	return nil
}
