// Package pricing derives authoritative order totals from server-side catalog
// data. Client supplied prices never enter the computation.
package pricing

import (
	"context"
	"fmt"

	"github.com/example/zastore/pkg/models"
	"github.com/shopspring/decimal"
)

// Line is one requested cart entry.
type Line struct {
	ProductID string
	Quantity  int
}

// Rates are the business rules every pricing call site consults.
type Rates struct {
	GSTRate               decimal.Decimal
	DeliveryFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

type ProductReader interface {
	FindActiveByIDs(ctx context.Context, ids []string) ([]models.Product, error)
}

type RateSource interface {
	Rates(ctx context.Context) (Rates, error)
}

// ResolvedLine is a cart line matched to its product. Index points back into
// the request so callers can reattach per-line data.
type ResolvedLine struct {
	Index     int
	Product   models.Product
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	GSTAmount decimal.Decimal
}

type Quote struct {
	Items        []ResolvedLine
	GSTRate      decimal.Decimal
	Subtotal     decimal.Decimal
	GSTAmount    decimal.Decimal
	ShippingCost decimal.Decimal
	GrandTotal   decimal.Decimal
}

type Engine struct {
	products ProductReader
	rates    RateSource
}

func NewEngine(products ProductReader, rates RateSource) *Engine {
	return &Engine{products: products, rates: rates}
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Quote prices lines. Lines naming unknown or inactive products, or with a
// non-positive quantity, are dropped without error. When nothing survives the
// result is nil. Only persistence failures are returned as errors.
func (e *Engine) Quote(ctx context.Context, lines []Line) (*Quote, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 || seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := e.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		if p.IsActive {
			byID[p.ID] = p
		}
	}

	var items []ResolvedLine
	subtotal := decimal.Zero
	for i, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok || line.Quantity < 1 {
			continue
		}
		unit := money(product.EffectivePrice())
		lineTotal := money(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, ResolvedLine{
			Index:     i,
			Product:   product,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}
	if len(items) == 0 {
		return nil, nil
	}

	rates, err := e.rates.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}

	for i := range items {
		items[i].GSTAmount = money(items[i].LineTotal.Mul(rates.GSTRate))
	}

	gst := money(subtotal.Mul(rates.GSTRate))
	shipping := money(rates.DeliveryFee)
	if subtotal.GreaterThan(rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return &Quote{
		Items:        items,
		GSTRate:      rates.GSTRate,
		Subtotal:     subtotal,
		GSTAmount:    gst,
		ShippingCost: shipping,
		GrandTotal:   subtotal.Add(gst).Add(shipping),
	}, nil
}
