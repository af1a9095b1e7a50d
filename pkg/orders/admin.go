package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/repository"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultAdminPageSize = 25
	maxAdminPageSize     = 200
	exportBatchSize      = 200
	defaultHistoryLimit  = 50
)

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type AdminCustomization struct {
	AttributeID string           `json:"attributeId"`
	Label       string           `json:"label"`
	InputType   models.InputType `json:"inputType"`
	Value       string           `json:"value"`
	PriceDelta  decimal.Decimal  `json:"priceDelta"`
}

type AdminOrderItem struct {
	ID             string               `json:"id"`
	ProductID      string               `json:"productId"`
	ProductName    string               `json:"productName"`
	ProductType    models.ProductType   `json:"productType"`
	ProductSlug    string               `json:"productSlug"`
	ImageURL       string               `json:"imageUrl"`
	UnitPrice      decimal.Decimal      `json:"unitPrice"`
	Quantity       int                  `json:"quantity"`
	GSTRate        decimal.Decimal      `json:"gstRate"`
	LineTotal      decimal.Decimal      `json:"lineTotal"`
	GSTAmount      decimal.Decimal      `json:"gstAmount"`
	Customizations []AdminCustomization `json:"customizations"`
}

// AdminOrderView is the full order as shown on the admin detail page.
type AdminOrderView struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	Status          models.OrderStatus   `json:"status"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	TransactionID   string               `json:"transactionId,omitempty"`
	Customer        *Customer            `json:"customer,omitempty"`
	ContactEmail    string               `json:"contactEmail"`
	ShippingAddress ShippingAddress      `json:"shippingAddress"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	TotalGST        decimal.Decimal      `json:"totalGst"`
	ShippingCost    decimal.Decimal      `json:"shippingCost"`
	GrandTotal      decimal.Decimal      `json:"grandTotal"`
	TrackingNumber  string               `json:"trackingNumber,omitempty"`
	CourierName     string               `json:"courierName,omitempty"`
	Items           []AdminOrderItem     `json:"items"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func NewAdminOrderView(o *models.Order) *AdminOrderView {
	view := &AdminOrderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		TransactionID:   o.TransactionID,
		ContactEmail:    o.NotifyEmail(),
		ShippingAddress: shippingAddressOf(o),
		Subtotal:        o.Subtotal,
		TotalGST:        o.TotalGST,
		ShippingCost:    o.ShippingCost,
		GrandTotal:      o.GrandTotal,
		TrackingNumber:  o.TrackingNumber,
		CourierName:     o.CourierName,
		Items:           make([]AdminOrderItem, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.User != nil {
		view.Customer = &Customer{ID: o.User.ID, Name: o.User.Name, Email: o.User.Email, Phone: o.User.Phone}
	}
	for _, it := range o.Items {
		item := AdminOrderItem{
			ID:             it.ID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			ProductType:    it.ProductType,
			ProductSlug:    it.ProductSlug,
			ImageURL:       it.ImageURL,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			GSTRate:        it.GSTRate,
			LineTotal:      it.LineTotal,
			GSTAmount:      it.GSTAmount,
			Customizations: make([]AdminCustomization, 0, len(it.Customizations)),
		}
		for _, c := range it.Customizations {
			item.Customizations = append(item.Customizations, AdminCustomization{
				AttributeID: c.AttributeID,
				Label:       c.Label,
				InputType:   c.InputType,
				Value:       c.Value,
				PriceDelta:  c.PriceDelta,
			})
		}
		view.Items = append(view.Items, item)
	}
	return view
}

// AdminOrderSummary is one row of the admin order list.
type AdminOrderSummary struct {
	ID            string               `json:"id"`
	OrderNumber   string               `json:"orderNumber"`
	CustomerName  string               `json:"customerName"`
	CustomerEmail string               `json:"customerEmail"`
	Status        models.OrderStatus   `json:"status"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	GrandTotal    decimal.Decimal      `json:"grandTotal"`
	ItemCount     int                  `json:"itemCount"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func newAdminOrderSummary(o *models.Order) AdminOrderSummary {
	summary := AdminOrderSummary{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.ShippingName,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		GrandTotal:    o.GrandTotal,
		CreatedAt:     o.CreatedAt,
	}
	if o.User != nil {
		summary.CustomerEmail = o.User.Email
	}
	for _, it := range o.Items {
		summary.ItemCount += it.Quantity
	}
	return summary
}

// ListFilter is the admin listing query. Page is 1-based.
type ListFilter struct {
	Status   string
	Page     int
	PageSize int
}

type OrderPage struct {
	Orders   []AdminOrderSummary `json:"orders"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

func (s *Service) ListOrders(ctx context.Context, filter ListFilter) (*OrderPage, error) {
	status, err := parseOptionalStatus(filter.Status)
	if err != nil {
		return nil, err
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultAdminPageSize
	}
	if size > maxAdminPageSize {
		size = maxAdminPageSize
	}

	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		Status: status,
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := &OrderPage{Orders: make([]AdminOrderSummary, 0, len(orders)), Total: total, Page: page, PageSize: size}
	for i := range orders {
		out.Orders = append(out.Orders, newAdminOrderSummary(&orders[i]))
	}
	return out, nil
}

// GetOrder loads one order by its internal id.
func (s *Service) GetOrder(ctx context.Context, id string) (*AdminOrderView, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return NewAdminOrderView(order), nil
}

type exportRow struct {
	OrderNumber   string `csv:"order_number"`
	CreatedAt     string `csv:"created_at"`
	Status        string `csv:"status"`
	PaymentMethod string `csv:"payment_method"`
	CustomerName  string `csv:"customer_name"`
	CustomerEmail string `csv:"customer_email"`
	Phone         string `csv:"phone"`
	City          string `csv:"city"`
	State         string `csv:"state"`
	Pincode       string `csv:"pincode"`
	Items         string `csv:"items"`
	Subtotal      string `csv:"subtotal"`
	GST           string `csv:"gst"`
	Shipping      string `csv:"shipping"`
	GrandTotal    string `csv:"grand_total"`
	Tracking      string `csv:"tracking_number"`
	Courier       string `csv:"courier"`
}

func newExportRow(o *models.Order) *exportRow {
	row := &exportRow{
		OrderNumber:   o.OrderNumber,
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		CustomerName:  o.ShippingName,
		Phone:         o.ShippingPhone,
		City:          o.City,
		State:         o.State,
		Pincode:       o.Pincode,
		Subtotal:      o.Subtotal.StringFixed(2),
		GST:           o.TotalGST.StringFixed(2),
		Shipping:      o.ShippingCost.StringFixed(2),
		GrandTotal:    o.GrandTotal.StringFixed(2),
		Tracking:      o.TrackingNumber,
		Courier:       o.CourierName,
	}
	if o.User != nil {
		row.CustomerEmail = o.User.Email
	}
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	row.Items = strconv.Itoa(count)
	return row
}

// ExportCSV writes every order matching filter as CSV. Paging fields of
// filter are ignored.
func (s *Service) ExportCSV(ctx context.Context, filter ListFilter, w io.Writer) error {
	status, err := parseOptionalStatus(filter.Status)
	if err != nil {
		return err
	}

	rows := []*exportRow{}
	for offset := 0; ; offset += exportBatchSize {
		batch, _, err := s.orders.List(ctx, repository.OrderFilter{Status: status, Offset: offset, Limit: exportBatchSize})
		if err != nil {
			return fmt.Errorf("failed to export orders: %w", err)
		}
		for i := range batch {
			rows = append(rows, newExportRow(&batch[i]))
		}
		if len(batch) < exportBatchSize {
			break
		}
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	s.logger.Info("Exported orders", zap.Int("rows", len(rows)), zap.String("status", string(status)))
	return nil
}

// History returns the audit trail of an order, newest first. Without an
// audit log it is empty.
func (s *Service) History(ctx context.Context, orderID string, limit int64) ([]repository.AuditEntry, error) {
	if s.audit == nil {
		return []repository.AuditEntry{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.audit.History(ctx, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	if entries == nil {
		entries = []repository.AuditEntry{}
	}
	return entries, nil
}

func parseOptionalStatus(raw string) (models.OrderStatus, error) {
	if raw == "" {
		return "", nil
	}
	return ParseStatus(raw)
}
