package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/zastore/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ShippingAddress struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Landmark     string `json:"landmark,omitempty"`
}

func shippingAddressOf(o *models.Order) ShippingAddress {
	return ShippingAddress{
		Name:         o.ShippingName,
		Phone:        o.ShippingPhone,
		AddressLine1: o.AddressLine1,
		AddressLine2: o.AddressLine2,
		City:         o.City,
		State:        o.State,
		Pincode:      o.Pincode,
		Landmark:     o.Landmark,
	}
}

type TrackedItem struct {
	ProductName string          `json:"productName"`
	ProductSlug string          `json:"productSlug,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// TrackedOrder is what anyone holding an order number may see. It never
// carries internal ids, the buyer's email or the payment transaction id.
type TrackedOrder struct {
	OrderNumber     string               `json:"orderNumber"`
	Status          models.OrderStatus   `json:"status"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	ShippingAddress ShippingAddress      `json:"shippingAddress"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	TotalGST        decimal.Decimal      `json:"totalGst"`
	ShippingCost    decimal.Decimal      `json:"shippingCost"`
	GrandTotal      decimal.Decimal      `json:"grandTotal"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	TrackingNumber  string               `json:"trackingNumber,omitempty"`
	CourierName     string               `json:"courierName,omitempty"`
	Items           []TrackedItem        `json:"items"`
}

func newTrackedOrder(o *models.Order) *TrackedOrder {
	items := make([]TrackedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, TrackedItem{
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			ImageURL:    it.ImageURL,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return &TrackedOrder{
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		ShippingAddress: shippingAddressOf(o),
		Subtotal:        o.Subtotal,
		TotalGST:        o.TotalGST,
		ShippingCost:    o.ShippingCost,
		GrandTotal:      o.GrandTotal,
		PaymentMethod:   o.PaymentMethod,
		TrackingNumber:  o.TrackingNumber,
		CourierName:     o.CourierName,
		Items:           items,
	}
}

func trackerKey(number string) string {
	return "track:" + number
}

// Track finds an order by its exact, case-sensitive number. When a number was
// issued twice the earliest order is returned.
func (s *Service) Track(ctx context.Context, number string) (*TrackedOrder, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrOrderNotFound
	}

	if s.cache != nil {
		var cached TrackedOrder
		hit, err := s.cache.LoadJSON(ctx, trackerKey(number), &cached)
		if err != nil {
			s.logger.Debug("Tracker cache read failed", zap.String("order_number", number), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	matches, err := s.orders.ListByNumber(ctx, number)
	if err != nil {
		s.logger.Error("Failed to look up order", zap.String("order_number", number), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTrackerUnavailable, err)
	}
	if len(matches) == 0 {
		return nil, ErrOrderNotFound
	}
	if len(matches) > 1 {
		s.logger.Warn("Order number issued more than once, returning earliest",
			zap.String("order_number", number),
			zap.Int("matches", len(matches)),
			zap.String("order_id", matches[0].ID))
	}

	tracked := newTrackedOrder(&matches[0])
	if s.cache != nil {
		if err := s.cache.StoreJSON(ctx, trackerKey(number), tracked, s.cacheTTL); err != nil {
			s.logger.Debug("Tracker cache write failed", zap.String("order_number", number), zap.Error(err))
		}
	}
	return tracked, nil
}

func (s *Service) invalidate(ctx context.Context, number string) {
	if s.cache == nil || number == "" {
		return
	}
	if err := s.cache.Del(ctx, trackerKey(number)); err != nil {
		s.logger.Warn("Failed to invalidate tracker cache", zap.String("order_number", number), zap.Error(err))
	}
}
