package gateway

import (
	"fmt"
	"net/http"

	"github.com/example/zastore/pkg/auth"
	"github.com/example/zastore/pkg/catalog"
	"github.com/example/zastore/pkg/checkout"
	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/orders"
	"github.com/example/zastore/pkg/pricing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (g *Gateway) listProducts(c *gin.Context) {
	page, err := g.services.Catalog.ListProducts(c.Request.Context(), catalog.ProductFilter{
		CategorySlug: c.Query("category"),
		Type:         models.ProductType(c.Query("type")),
		Page:         intQuery(c, "page"),
		PageSize:     intQuery(c, "pageSize"),
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (g *Gateway) getProduct(c *gin.Context) {
	product, err := g.services.Catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (g *Gateway) listCategories(c *gin.Context) {
	categories, err := g.services.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type publicSettingsView struct {
	IsStoreOpen           bool            `json:"isStoreOpen"`
	BannerMessage         string          `json:"bannerMessage"`
	UpiID                 string          `json:"upiId"`
	DeliveryFee           decimal.Decimal `json:"deliveryFee"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
}

func (g *Gateway) publicSettings(c *gin.Context) {
	current, err := g.services.Settings.Get(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, publicSettingsView{
		IsStoreOpen:           current.IsStoreOpen,
		BannerMessage:         current.BannerMessage,
		UpiID:                 current.UpiID,
		DeliveryFee:           current.DeliveryFee,
		FreeShippingThreshold: g.services.Settings.FreeShippingThreshold(),
	})
}

type quoteRequest struct {
	Items []checkout.CartLine `json:"items"`
}

type quoteLineView struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type quoteView struct {
	Items        []quoteLineView `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	GSTAmount    decimal.Decimal `json:"gstAmount"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
}

func newQuoteView(q *pricing.Quote) quoteView {
	view := quoteView{Items: []quoteLineView{}}
	if q == nil {
		return view
	}
	for _, it := range q.Items {
		view.Items = append(view.Items, quoteLineView{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Slug:      it.Product.Slug,
			ImageURL:  it.Product.PrimaryImageURL(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	view.Subtotal = q.Subtotal
	view.GSTAmount = q.GSTAmount
	view.ShippingCost = q.ShippingCost
	view.GrandTotal = q.GrandTotal
	return view
}

// quoteCart prices the client's cart with server-side data. An empty result
// is a valid, zero quote.
func (g *Gateway) quoteCart(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	lines := make([]pricing.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = pricing.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	quote, err := g.services.Pricer.Quote(c.Request.Context(), lines)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteView(quote))
}

type checkoutRequest struct {
	checkout.Form
	Items []checkout.CartLine `json:"items"`
}

func (g *Gateway) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	identity, _ := auth.Current(c)

	// Same rules the order creator re-runs.
	if err := checkout.Validate(&req.Form); err != nil {
		g.fail(c, fmt.Errorf("%w: %w", orders.ErrInvalidForm, err))
		return
	}

	result, err := g.services.Orders.Create(c.Request.Context(), orders.CreateRequest{
		Identity: identity,
		Form:     req.Form,
		Lines:    req.Items,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"orderId":     result.OrderID,
		"orderNumber": result.OrderNumber,
		"grandTotal":  result.GrandTotal,
	})
}

type trackRequest struct {
	OrderID string `json:"orderId"`
}

func (g *Gateway) trackOrder(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	tracked, err := g.services.Orders.Track(c.Request.Context(), req.OrderID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": tracked})
}
