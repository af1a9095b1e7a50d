package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/zastore/pkg/auth"
	"github.com/example/zastore/pkg/checkout"
	"github.com/example/zastore/pkg/config"
	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/pricing"
	"github.com/example/zastore/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memoryOrders struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	users     map[string]*models.User
	createErr error
	updateErr error
	listErr   error
	creates   int
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: map[string]*models.Order{}, users: map[string]*models.User{}}
}

func (m *memoryOrders) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *memoryOrders) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.orders)), nil
}

func (m *memoryOrders) withUser(o *models.Order) *models.Order {
	clone := *o
	clone.User = m.users[o.UserID]
	return &clone
}

func (m *memoryOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.withUser(o), nil
}

func (m *memoryOrders) ListByNumber(_ context.Context, number string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Order
	for _, o := range m.orders {
		if o.OrderNumber == number {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryOrders) update(id string, apply func(*models.Order)) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apply(o)
	return m.withUser(o), nil
}

func (m *memoryOrders) UpdateStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	return m.update(id, func(o *models.Order) { o.Status = status })
}

func (m *memoryOrders) UpdateTracking(_ context.Context, id, trackingNumber, courierName string) (*models.Order, error) {
	return m.update(id, func(o *models.Order) {
		o.TrackingNumber = trackingNumber
		o.CourierName = courierName
	})
}

func (m *memoryOrders) List(_ context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var all []models.Order
	for _, o := range m.orders {
		if filter.Status == "" || o.Status == filter.Status {
			all = append(all, *m.withUser(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

func (m *memoryOrders) Upsert(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

type failingUsers struct{}

func (failingUsers) Upsert(context.Context, *models.User) error { return errors.New("db down") }

type fixedSettings struct {
	row *models.StoreSettings
	err error
}

func (f *fixedSettings) Get(context.Context) (*models.StoreSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	row := *f.row
	return &row, nil
}

func (f *fixedSettings) Rates(ctx context.Context) (pricing.Rates, error) {
	row, err := f.Get(ctx)
	if err != nil {
		return pricing.Rates{}, err
	}
	return pricing.Rates{
		GSTRate:               decimal.RequireFromString("0.18"),
		DeliveryFee:           row.DeliveryFee,
		FreeShippingThreshold: decimal.NewFromInt(1000),
	}, nil
}

type catalogStub struct {
	products []models.Product
}

func (c *catalogStub) FindActiveByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Product
	for _, p := range c.products {
		if want[p.ID] && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	loads   int
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) LoadJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	if c.loadErr != nil {
		return false, c.loadErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) StoreJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []repository.AuditEntry
	err     error
}

func (a *memoryAudit) Record(_ context.Context, entry repository.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memoryAudit) History(_ context.Context, entityID string, limit int64) ([]repository.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []repository.AuditEntry
	for i := len(a.entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if a.entries[i].EntityID == entityID {
			out = append(out, a.entries[i])
		}
	}
	return out, nil
}

type sentMail struct {
	kind   string
	to     string
	status models.OrderStatus
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) OrderReceipt(_ context.Context, to string, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "receipt", to: to, status: order.Status})
	return n.err
}

func (n *recordingNotifier) StatusChanged(_ context.Context, to string, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{kind: "status", to: to, status: order.Status})
	return n.err
}

type fixedSequencer struct {
	seq int64
	err error
}

func (f *fixedSequencer) Next(context.Context, time.Time) (int64, error) {
	return f.seq, f.err
}

// harness bundles a Service with in-memory collaborators.
type harness struct {
	svc      *Service
	orders   *memoryOrders
	settings *fixedSettings
	cache    *memoryCache
	audit    *memoryAudit
	notifier *recordingNotifier
	clock    time.Time
	ids      int
}

func newHarness(products ...models.Product) *harness {
	h := &harness{
		orders: newMemoryOrders(),
		settings: &fixedSettings{row: &models.StoreSettings{
			ID:          models.StoreSettingsID,
			DeliveryFee: decimal.NewFromInt(100),
			IsStoreOpen: true,
		}},
		cache:    newMemoryCache(),
		audit:    &memoryAudit{},
		notifier: &recordingNotifier{},
		clock:    time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	h.svc = h.build(nil)
	h.setProducts(products...)
	return h
}

func (h *harness) setProducts(products ...models.Product) {
	h.svc.pricer = pricing.NewEngine(&catalogStub{products: products}, h.settings)
}

func (h *harness) build(seq Sequencer) *Service {
	return NewService(Deps{
		Orders:    h.orders,
		Users:     h.orders,
		Settings:  h.settings,
		Sequencer: seq,
		Cache:     h.cache,
		Audit:     h.audit,
		Notifier:  h.notifier,
		Config:    config.StoreConfig{OrderNumberPrefix: "ZA", TrackerCacheTTL: time.Minute},
		Logger:    zap.NewNop(),
		Now: func() time.Time {
			h.clock = h.clock.Add(time.Second)
			return h.clock
		},
		NewID: func() string {
			h.ids++
			return fmt.Sprintf("id-%03d", h.ids)
		},
	})
}

func buyer() *auth.Identity {
	return &auth.Identity{Subject: "user-1", Name: "Asha Rao", Email: "asha@example.com"}
}

func codForm() checkout.Form {
	return checkout.Form{
		FullName:      "Asha Rao",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		AddressLine1:  "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		Pincode:       "560001",
		PaymentMethod: models.PaymentCOD,
	}
}

func standardProduct(id, price string) models.Product {
	return models.Product{
		ID:          id,
		Name:        "Product " + id,
		Slug:        "product-" + id,
		ProductType: models.ProductStandard,
		BasePrice:   decimal.RequireFromString(price),
		IsActive:    true,
	}
}
