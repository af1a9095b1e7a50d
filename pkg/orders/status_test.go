package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/example/zastore/pkg/checkout"
	"github.com/example/zastore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, h *harness) *CreateResult {
	t.Helper()
	res, err := h.svc.Create(context.Background(), CreateRequest{
		Identity: buyer(),
		Form:     codForm(),
		Lines:    []checkout.CartLine{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	h.notifier.sent = nil
	h.audit.entries = nil
	return res
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" shipped ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, status)

	_, err = ParseStatus("LOST_IN_TRANSIT")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetStatusAllowsAnyTransition(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)

	for _, status := range []models.OrderStatus{models.StatusDelivered, models.StatusPending, models.StatusRefunded, models.StatusQualityCheck} {
		view, err := h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, string(status))
		require.NoError(t, err)
		assert.Equal(t, status, view.Status)
	}
	assert.Empty(t, h.notifier.sent, "only PROCESSING and SHIPPED send email")
	assert.Len(t, h.audit.entries, 4)
}

func TestSetStatusEmailsOnProcessingAndShipped(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)

	_, err := h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "PROCESSING")
	require.NoError(t, err)
	_, err = h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "READY_TO_SHIP")
	require.NoError(t, err)
	_, err = h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "SHIPPED")
	require.NoError(t, err)

	assert.Equal(t, []sentMail{
		{kind: "status", to: "asha@example.com", status: models.StatusProcessing},
		{kind: "status", to: "asha@example.com", status: models.StatusShipped},
	}, h.notifier.sent)
}

func TestEmailsGoToCheckoutAddress(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	form := codForm()
	form.Email = "orders@asha.in"

	res, err := h.svc.Create(context.Background(), CreateRequest{
		Identity: buyer(),
		Form:     form,
		Lines:    []checkout.CartLine{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", h.orders.users["user-1"].Email)

	_, err = h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "PROCESSING")
	require.NoError(t, err)
	view, err := h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "SHIPPED")
	require.NoError(t, err)

	assert.Equal(t, []sentMail{
		{kind: "receipt", to: "orders@asha.in", status: models.StatusPendingCOD},
		{kind: "status", to: "orders@asha.in", status: models.StatusProcessing},
		{kind: "status", to: "orders@asha.in", status: models.StatusShipped},
	}, h.notifier.sent)
	assert.Equal(t, "orders@asha.in", view.ContactEmail)
}

func TestSetStatusSucceedsWhenEmailFails(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)
	h.notifier.err = errors.New("smtp down")

	view, err := h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, view.Status)
	assert.Equal(t, models.StatusShipped, h.orders.orders[res.OrderID].Status)
}

func TestSetStatusFailuresAreGeneric(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)

	_, err := h.svc.SetStatus(context.Background(), "admin-1", "missing", "SHIPPED")
	assert.Equal(t, ErrStatusUpdate, err)

	h.orders.updateErr = errors.New("db down")
	_, err = h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "SHIPPED")
	assert.Equal(t, ErrStatusUpdate, err)

	_, err = h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, h.notifier.sent)
}

func TestSetStatusInvalidatesTrackerCache(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)

	tracked, err := h.svc.Track(context.Background(), res.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingCOD, tracked.Status)
	assert.Contains(t, h.cache.data, trackerKey(res.OrderNumber))

	_, err = h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "PAYMENT_CONFIRMED")
	require.NoError(t, err)
	assert.NotContains(t, h.cache.data, trackerKey(res.OrderNumber))

	tracked, err = h.svc.Track(context.Background(), res.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentConfirmed, tracked.Status)
}

func TestSetTracking(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)

	view, err := h.svc.SetTracking(context.Background(), "admin-1", res.OrderID, " DL123456 ", "Delhivery")
	require.NoError(t, err)
	assert.Equal(t, "DL123456", view.TrackingNumber)
	assert.Equal(t, "Delhivery", view.CourierName)
	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, "order.tracking_updated", h.audit.entries[0].Action)
	assert.Contains(t, h.cache.deletes, trackerKey(res.OrderNumber))

	_, err = h.svc.SetTracking(context.Background(), "admin-1", res.OrderID, string(make([]byte, 65)), "x")
	assert.ErrorIs(t, err, ErrInvalidTracking)

	_, err = h.svc.SetTracking(context.Background(), "admin-1", "missing", "DL1", "x")
	assert.Equal(t, ErrStatusUpdate, err)
}
