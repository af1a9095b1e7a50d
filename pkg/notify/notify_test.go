package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/zastore/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderNumber:   "ZA-20240501-0007",
		ShippingName:  "Asha Rao",
		AddressLine1:  "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		Pincode:       "560001",
		PaymentMethod: models.PaymentCOD,
		Status:        models.StatusPendingCOD,
		Subtotal:      decimal.NewFromInt(1200),
		TotalGST:      decimal.NewFromInt(216),
		ShippingCost:  decimal.Zero,
		GrandTotal:    decimal.NewFromInt(1416),
		Items: []models.OrderItem{{
			ProductName: "Dragon Lamp",
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(600),
			LineTotal:   decimal.NewFromInt(1200),
			Customizations: []models.OrderItemCustomization{
				{Label: "Name", Value: "<Asha>"},
			},
		}},
	}
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹1,416.00", FormatINR(decimal.NewFromInt(1416)))
	assert.Equal(t, "₹99.50", FormatINR(decimal.RequireFromString("99.5")))
}

func TestOrderReceipt(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "orders@zastore.in")

	require.NoError(t, n.OrderReceipt(context.Background(), "asha@example.com", sampleOrder()))
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, "orders@zastore.in", msg.From)
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Order ZA-20240501-0007 received", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "ZA-20240501-0007")
	assert.Contains(t, msg.HTMLBody, "₹1,416.00")
	assert.Contains(t, msg.HTMLBody, "Free")
	assert.Contains(t, msg.HTMLBody, "&lt;Asha&gt;")
	assert.Contains(t, msg.HTMLBody, "cash on delivery")
}

func TestStatusChanged(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewNotifier(mailer, "orders@zastore.in")
	order := sampleOrder()

	order.Status = models.StatusShipped
	order.TrackingNumber = "DL123456"
	order.CourierName = "Delhivery"
	require.NoError(t, n.StatusChanged(context.Background(), "asha@example.com", order))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Order ZA-20240501-0007 has shipped", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTMLBody, "DL123456")

	order.Status = models.StatusProcessing
	require.NoError(t, n.StatusChanged(context.Background(), "asha@example.com", order))
	assert.Equal(t, "Order ZA-20240501-0007 is being printed", mailer.sent[1].Subject)

	order.Status = models.StatusDelivered
	err := n.StatusChanged(context.Background(), "asha@example.com", order)
	assert.ErrorIs(t, err, ErrNoTemplate)
	assert.Len(t, mailer.sent, 2)
}

func TestDispatcherDeliversThroughActor(t *testing.T) {
	mailer := &recordingMailer{}
	d, err := NewDispatcher(mailer, time.Second, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Send(context.Background(), Message{To: "a@example.com", Subject: "one"}))
	require.NoError(t, d.Send(context.Background(), Message{To: "b@example.com", Subject: "two"}))

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "one", mailer.sent[0].Subject)
	assert.Equal(t, "two", mailer.sent[1].Subject)
}

func TestDispatcherReturnsProviderError(t *testing.T) {
	boom := errors.New("smtp refused")
	d, err := NewDispatcher(&recordingMailer{err: boom}, time.Second, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	err = d.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorIs(t, err, boom)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d, err := NewDispatcher(&recordingMailer{}, time.Second, zap.NewNop())
	require.NoError(t, err)
	d.Close()
	d.Close()

	assert.ErrorIs(t, d.Send(context.Background(), Message{To: "a@example.com"}), ErrDispatcherClosed)
}

func TestLogMailerRequiresRecipient(t *testing.T) {
	m := NewLogMailer(zap.NewNop())
	assert.Error(t, m.Send(context.Background(), Message{}))
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com"}))
}
