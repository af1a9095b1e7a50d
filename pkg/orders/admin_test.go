package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/example/zastore/pkg/checkout"
	"github.com/example/zastore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func linesOf(productID string, qty int) []checkout.CartLine {
	return []checkout.CartLine{{ProductID: productID, Quantity: qty}}
}

func TestListOrders(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	first := placeOrder(t, h)
	second := placeOrder(t, h)
	_, err := h.svc.SetStatus(context.Background(), "admin-1", first.OrderID, "SHIPPED")
	require.NoError(t, err)

	page, err := h.svc.ListOrders(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, defaultAdminPageSize, page.PageSize)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, second.OrderID, page.Orders[0].ID, "newest first")
	assert.Equal(t, "asha@example.com", page.Orders[0].CustomerEmail)

	page, err = h.svc.ListOrders(context.Background(), ListFilter{Status: "shipped"})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, first.OrderID, page.Orders[0].ID)

	_, err = h.svc.ListOrders(context.Background(), ListFilter{Status: "LOST"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetOrderIncludesPrivateFields(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	form := codForm()
	form.PaymentMethod = models.PaymentUPI
	form.TransactionID = "TXN12345"
	res, err := h.svc.Create(context.Background(), CreateRequest{Identity: buyer(), Form: form, Lines: linesOf("p1", 1)})
	require.NoError(t, err)

	view, err := h.svc.GetOrder(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "TXN12345", view.TransactionID)
	require.NotNil(t, view.Customer)
	assert.Equal(t, "asha@example.com", view.Customer.Email)

	_, err = h.svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestExportCSV(t *testing.T) {
	h := newHarness(standardProduct("p1", "600"))
	res, err := h.svc.Create(context.Background(), CreateRequest{Identity: buyer(), Form: codForm(), Lines: linesOf("p1", 2)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.svc.ExportCSV(context.Background(), ListFilter{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	header, row := records[0], records[1]
	assert.Equal(t, "order_number", header[0])

	values := map[string]string{}
	for i, name := range header {
		values[name] = row[i]
	}
	assert.Equal(t, res.OrderNumber, values["order_number"])
	assert.Equal(t, "1416.00", values["grand_total"])
	assert.Equal(t, "2", values["items"])
	assert.Equal(t, "PENDING_COD", values["status"])
}

func TestHistory(t *testing.T) {
	h := newHarness(standardProduct("p1", "250"))
	res := placeOrder(t, h)
	_, err := h.svc.SetStatus(context.Background(), "admin-1", res.OrderID, "PROCESSING")
	require.NoError(t, err)

	entries, err := h.svc.History(context.Background(), res.OrderID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "order.status_changed", entries[0].Action)

	h.svc.audit = nil
	entries, err = h.svc.History(context.Background(), res.OrderID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFormatOrderNumber(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2024, 5, 2, 1, 0, 0, 0, ist)
	assert.Equal(t, "ZA-20240501-0042", FormatOrderNumber("ZA", day, 42))
	assert.Equal(t, "ZA-20240501-12345", FormatOrderNumber("ZA", day, 12345))
}

func TestFallbackSequencer(t *testing.T) {
	orders := newMemoryOrders()
	orders.orders["a"] = &models.Order{ID: "a"}
	count := NewCountSequencer(orders)

	seq := NewFallbackSequencer(&fixedSequencer{seq: 9}, count, zap.NewNop())
	n, err := seq.Next(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 9, n)

	seq = NewFallbackSequencer(&fixedSequencer{err: assert.AnError}, count, zap.NewNop())
	n, err = seq.Next(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
