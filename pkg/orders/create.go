package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/zastore/pkg/auth"
	"github.com/example/zastore/pkg/checkout"
	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/pricing"
	"github.com/example/zastore/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type CreateRequest struct {
	Identity *auth.Identity
	Form     checkout.Form
	Lines    []checkout.CartLine
}

type CreateResult struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}

// Create validates the submission, prices the cart server-side and persists
// the order with its item snapshots. The receipt email is best-effort.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Identity == nil || strings.TrimSpace(req.Identity.Subject) == "" {
		return nil, ErrNotAuthenticated
	}

	form := req.Form
	if err := checkout.Validate(&form); err != nil {
		return nil, invalidForm(err)
	}
	if err := checkout.ValidateLines(req.Lines); err != nil {
		return nil, invalidForm(err)
	}

	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, s.persistence("load store settings", err)
	}
	if !current.IsStoreOpen {
		return nil, ErrStoreClosed
	}

	user := &models.User{
		ID:    req.Identity.Subject,
		Name:  firstNonEmpty(req.Identity.Name, form.FullName),
		Email: firstNonEmpty(req.Identity.Email, form.Email),
		Phone: form.Phone,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, s.persistence("upsert user", err)
	}

	lines := make([]pricing.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = pricing.Line{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	quote, err := s.pricer.Quote(ctx, lines)
	if err != nil {
		return nil, s.persistence("price cart", err)
	}
	if quote == nil || len(quote.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now().UTC()
	orderID := s.newID()
	items, err := s.snapshotItems(orderID, quote, req.Lines)
	if err != nil {
		return nil, invalidForm(err)
	}

	seq, err := s.sequencer.Next(ctx, now)
	if err != nil {
		return nil, s.persistence("allocate order number", err)
	}

	order := &models.Order{
		ID:            orderID,
		OrderNumber:   FormatOrderNumber(s.prefix, now, seq),
		UserID:        user.ID,
		ShippingName:  form.FullName,
		ShippingPhone: form.Phone,
		AddressLine1:  form.AddressLine1,
		AddressLine2:  form.AddressLine2,
		City:          form.City,
		State:         form.State,
		Pincode:       form.Pincode,
		Landmark:      form.Landmark,
		ContactEmail:  form.Email,
		Subtotal:      quote.Subtotal,
		TotalGST:      quote.GSTAmount,
		ShippingCost:  quote.ShippingCost,
		GrandTotal:    quote.GrandTotal,
		PaymentMethod: form.PaymentMethod,
		TransactionID: form.TransactionID,
		Status:        form.PaymentMethod.InitialStatus(),
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, s.persistence("create order", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", order.UserID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.String("grand_total", order.GrandTotal.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	s.record(ctx, repository.AuditEntry{
		Action:   "order.created",
		EntityID: order.ID,
		ActorID:  user.ID,
		Data: bson.M{
			"order_number":   order.OrderNumber,
			"status":         string(order.Status),
			"payment_method": string(order.PaymentMethod),
			"grand_total":    order.GrandTotal.StringFixed(2),
		},
	})

	if s.notifier != nil {
		if err := s.notifier.OrderReceipt(ctx, order.NotifyEmail(), order); err != nil {
			s.logger.Warn("Failed to send order receipt",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		}
	}

	return &CreateResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		GrandTotal:  order.GrandTotal,
	}, nil
}

// snapshotItems copies the priced lines into order items. For CUSTOM products
// the buyer's values are checked against the product's attributes.
func (s *Service) snapshotItems(orderID string, quote *pricing.Quote, lines []checkout.CartLine) ([]models.OrderItem, error) {
	var problems []checkout.FieldError
	items := make([]models.OrderItem, 0, len(quote.Items))

	for pos, resolved := range quote.Items {
		product := resolved.Product
		item := models.OrderItem{
			ID:          s.newID(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductType: product.ProductType,
			ProductSlug: product.Slug,
			ImageURL:    product.PrimaryImageURL(),
			UnitPrice:   resolved.UnitPrice,
			Quantity:    resolved.Quantity,
			GSTRate:     quote.GSTRate,
			LineTotal:   resolved.LineTotal,
			GSTAmount:   resolved.GSTAmount,
			Position:    pos,
		}

		if product.ProductType == models.ProductCustom {
			values, fieldErrs := checkCustomizations(resolved.Index, &product, lines[resolved.Index].Customizations)
			problems = append(problems, fieldErrs...)
			for _, v := range values {
				v.ID = s.newID()
				v.OrderItemID = item.ID
				item.Customizations = append(item.Customizations, v)
			}
		}
		items = append(items, item)
	}

	if len(problems) > 0 {
		return nil, &checkout.ValidationError{Fields: problems}
	}
	return items, nil
}

func checkCustomizations(index int, product *models.Product, values []checkout.CustomizationValue) ([]models.OrderItemCustomization, []checkout.FieldError) {
	var problems []checkout.FieldError
	field := func(suffix string) string {
		return fmt.Sprintf("items[%d].customizations%s", index, suffix)
	}

	given := make(map[string]string, len(values))
	for j, v := range values {
		id := strings.TrimSpace(v.AttributeID)
		if _, dup := given[id]; dup {
			problems = append(problems, checkout.FieldError{Field: field(fmt.Sprintf("[%d]", j)), Message: "duplicate attribute"})
			continue
		}
		given[id] = strings.TrimSpace(v.Value)
	}

	known := make(map[string]bool, len(product.Attributes))
	var out []models.OrderItemCustomization
	for _, attr := range product.Attributes {
		known[attr.ID] = true
		value := given[attr.ID]
		if value == "" {
			if attr.Required {
				problems = append(problems, checkout.FieldError{Field: field("." + attr.ID), Message: attr.Label + " is required"})
			}
			continue
		}
		if attr.InputType == models.InputText {
			n := utf8.RuneCountInString(value)
			if attr.MinLength != nil && n < *attr.MinLength {
				problems = append(problems, checkout.FieldError{Field: field("." + attr.ID), Message: fmt.Sprintf("%s must be at least %d characters", attr.Label, *attr.MinLength)})
				continue
			}
			if attr.MaxLength != nil && n > *attr.MaxLength {
				problems = append(problems, checkout.FieldError{Field: field("." + attr.ID), Message: fmt.Sprintf("%s must be at most %d characters", attr.Label, *attr.MaxLength)})
				continue
			}
		}

		delta := decimal.Zero
		if attr.AdditionalPrice != nil {
			delta = attr.AdditionalPrice.Round(2)
		}
		out = append(out, models.OrderItemCustomization{
			AttributeID: attr.ID,
			Label:       attr.Label,
			InputType:   attr.InputType,
			Value:       value,
			PriceDelta:  delta,
		})
	}

	for j, v := range values {
		if id := strings.TrimSpace(v.AttributeID); !known[id] {
			problems = append(problems, checkout.FieldError{Field: field(fmt.Sprintf("[%d]", j)), Message: "unknown customization for " + product.Name})
		}
	}
	return out, problems
}

func invalidForm(err error) error {
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%w: %w", ErrInvalidForm, verr)
	}
	return fmt.Errorf("%w: %v", ErrInvalidForm, err)
}

func (s *Service) persistence(step string, err error) error {
	s.logger.Error("Order creation failed", zap.String("step", step), zap.Error(err))
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, step, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
