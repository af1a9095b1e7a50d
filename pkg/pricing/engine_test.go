package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/example/zastore/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProducts struct {
	products []models.Product
	err      error
	calls    int
	lastIDs  []string
}

func (s *stubProducts) FindActiveByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	s.calls++
	s.lastIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Product
	for _, p := range s.products {
		if want[p.ID] && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubRates struct {
	rates Rates
	err   error
}

func (s *stubRates) Rates(context.Context) (Rates, error) {
	return s.rates, s.err
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func defaultRates() *stubRates {
	return &stubRates{rates: Rates{
		GSTRate:               dec("0.18"),
		DeliveryFee:           dec("100"),
		FreeShippingThreshold: dec("1000"),
	}}
}

func product(id, base string) models.Product {
	return models.Product{ID: id, Name: id, BasePrice: dec(base), IsActive: true, ProductType: models.ProductStandard}
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestQuoteEndToEndScenario(t *testing.T) {
	engine := NewEngine(&stubProducts{products: []models.Product{product("p1", "600")}}, defaultRates())

	quote, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	require.NotNil(t, quote)

	requireMoney(t, "1200", quote.Subtotal)
	requireMoney(t, "216", quote.GSTAmount)
	requireMoney(t, "0", quote.ShippingCost)
	requireMoney(t, "1416", quote.GrandTotal)
	require.Len(t, quote.Items, 1)
	requireMoney(t, "600", quote.Items[0].UnitPrice)
	requireMoney(t, "1200", quote.Items[0].LineTotal)
	requireMoney(t, "216", quote.Items[0].GSTAmount)
}

func TestQuoteUsesLowerCompareAtPrice(t *testing.T) {
	p := product("p1", "500")
	p.CompareAtPrice = decPtr("350")
	engine := NewEngine(&stubProducts{products: []models.Product{p}}, defaultRates())

	quote, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	requireMoney(t, "350", quote.Items[0].UnitPrice)
	requireMoney(t, "350", quote.Subtotal)
}

func TestQuoteIgnoresHigherCompareAtPrice(t *testing.T) {
	p := product("p1", "500")
	p.CompareAtPrice = decPtr("800")
	engine := NewEngine(&stubProducts{products: []models.Product{p}}, defaultRates())

	quote, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	requireMoney(t, "500", quote.Items[0].UnitPrice)
}

func TestQuoteOnlyUnknownProductsYieldsNil(t *testing.T) {
	products := &stubProducts{products: []models.Product{product("p1", "600")}}
	rates := defaultRates()
	engine := NewEngine(products, rates)

	quote, err := engine.Quote(context.Background(), []Line{
		{ProductID: "ghost", Quantity: 1},
		{ProductID: "phantom", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Nil(t, quote)
	assert.Equal(t, 1, products.calls, "products are fetched in one batch")
}

func TestQuoteDropsUnknownAndInactiveLines(t *testing.T) {
	inactive := product("p2", "900")
	inactive.IsActive = false
	engine := NewEngine(&stubProducts{products: []models.Product{product("p1", "200"), inactive}}, defaultRates())

	quote, err := engine.Quote(context.Background(), []Line{
		{ProductID: "ghost", Quantity: 1},
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, quote.Items, 1)
	assert.Equal(t, 1, quote.Items[0].Index)
	requireMoney(t, "200", quote.Subtotal)
}

func TestQuoteBatchesDuplicateProductIDs(t *testing.T) {
	products := &stubProducts{products: []models.Product{product("p1", "100")}}
	engine := NewEngine(products, defaultRates())

	quote, err := engine.Quote(context.Background(), []Line{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, products.lastIDs)
	require.Len(t, quote.Items, 2)
	requireMoney(t, "300", quote.Subtotal)
}

func TestQuoteShippingThresholdIsStrict(t *testing.T) {
	cases := []struct {
		price    string
		shipping string
	}{
		{price: "1000", shipping: "100"},
		{price: "1000.01", shipping: "0"},
		{price: "999.99", shipping: "100"},
	}

	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			engine := NewEngine(&stubProducts{products: []models.Product{product("p1", tc.price)}}, defaultRates())
			quote, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
			require.NoError(t, err)
			requireMoney(t, tc.shipping, quote.ShippingCost)
		})
	}
}

func TestQuoteShippingFollowsConfiguredDeliveryFee(t *testing.T) {
	rates := defaultRates()
	engine := NewEngine(&stubProducts{products: []models.Product{product("p1", "250")}}, rates)

	quote, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	requireMoney(t, "100", quote.ShippingCost)

	rates.rates.DeliveryFee = dec("149")
	quote, err = engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	requireMoney(t, "149", quote.ShippingCost)
	requireMoney(t, "444", quote.GrandTotal)
}

func TestQuoteGrandTotalIdentity(t *testing.T) {
	prices := []string{"0.01", "1.99", "333.33", "499.5", "1234.57", "89.10"}
	var catalog []models.Product
	for i, price := range prices {
		catalog = append(catalog, product(string(rune('a'+i)), price))
	}
	engine := NewEngine(&stubProducts{products: catalog}, defaultRates())

	for qty := 1; qty <= 7; qty++ {
		for i := range prices {
			lines := []Line{{ProductID: catalog[i].ID, Quantity: qty}}
			if i+1 < len(prices) {
				lines = append(lines, Line{ProductID: catalog[i+1].ID, Quantity: qty + 1})
			}
			quote, err := engine.Quote(context.Background(), lines)
			require.NoError(t, err)
			sum := quote.Subtotal.Add(quote.GSTAmount).Add(quote.ShippingCost)
			require.True(t, sum.Equal(quote.GrandTotal))
			require.True(t, quote.GSTAmount.Equal(quote.GSTAmount.Round(2)))
		}
	}
}

func TestQuotePropagatesPersistenceErrors(t *testing.T) {
	engine := NewEngine(&stubProducts{err: errors.New("db down")}, defaultRates())
	_, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
	require.Error(t, err)

	rates := defaultRates()
	rates.err = errors.New("settings unavailable")
	engine = NewEngine(&stubProducts{products: []models.Product{product("p1", "10")}}, rates)
	_, err = engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
	require.Error(t, err)
}

func TestQuoteSkipsNonPositiveQuantities(t *testing.T) {
	products := &stubProducts{products: []models.Product{product("p1", "10")}}
	engine := NewEngine(products, defaultRates())

	quote, err := engine.Quote(context.Background(), []Line{{ProductID: "p1", Quantity: 0}})
	require.NoError(t, err)
	assert.Nil(t, quote)
	assert.Equal(t, 0, products.calls)
}
