package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/example/zastore/pkg/auth"
	"github.com/example/zastore/pkg/catalog"
	"github.com/example/zastore/pkg/config"
	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/orders"
	"github.com/example/zastore/pkg/pricing"
	"github.com/example/zastore/pkg/repository"
	"github.com/example/zastore/pkg/settings"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Catalog interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) (*catalog.ProductPage, error)
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type Pricer interface {
	Quote(ctx context.Context, lines []pricing.Line) (*pricing.Quote, error)
}

type Orders interface {
	Create(ctx context.Context, req orders.CreateRequest) (*orders.CreateResult, error)
	Track(ctx context.Context, number string) (*orders.TrackedOrder, error)
	SetStatus(ctx context.Context, actorID, orderID, status string) (*orders.AdminOrderView, error)
	SetTracking(ctx context.Context, actorID, orderID, trackingNumber, courierName string) (*orders.AdminOrderView, error)
	ListOrders(ctx context.Context, filter orders.ListFilter) (*orders.OrderPage, error)
	GetOrder(ctx context.Context, id string) (*orders.AdminOrderView, error)
	ExportCSV(ctx context.Context, filter orders.ListFilter, w io.Writer) error
	History(ctx context.Context, orderID string, limit int64) ([]repository.AuditEntry, error)
}

type Settings interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
	Update(ctx context.Context, actorID string, u settings.Update) (*models.StoreSettings, error)
	FreeShippingThreshold() decimal.Decimal
}

// Services are the handlers' collaborators.
type Services struct {
	Catalog  Catalog
	Pricer   Pricer
	Orders   Orders
	Settings Settings
	Verifier *auth.Verifier
}

type Gateway struct {
	config   *config.HTTPConfig
	logger   *zap.Logger
	router   *gin.Engine
	services Services
	server   *http.Server
}

func NewGateway(cfg *config.HTTPConfig, logger *zap.Logger, services Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(auth.Authenticate(services.Verifier, logger))

	return &Gateway{
		config:   cfg,
		logger:   logger.Named("gateway"),
		router:   router,
		services: services,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g.router.POST("/track-order", g.trackOrder)

	api := g.router.Group("/api")
	{
		api.GET("/products", g.listProducts)
		api.GET("/products/:slug", g.getProduct)
		api.GET("/categories", g.listCategories)
		api.GET("/settings", g.publicSettings)
		api.POST("/cart/quote", g.quoteCart)
		api.POST("/checkout", auth.RequireUser(), g.checkout)
	}

	admin := api.Group("/admin", auth.RequireAdmin(g.services.Verifier))
	{
		admin.GET("/orders", g.listOrders)
		admin.GET("/orders/export", g.exportOrders)
		admin.GET("/orders/:id", g.getOrder)
		admin.GET("/orders/:id/history", g.orderHistory)
		admin.PUT("/orders/:id/status", g.updateOrderStatus)
		admin.PUT("/orders/:id/tracking", g.updateOrderTracking)
		admin.GET("/settings", g.adminSettings)
		admin.PUT("/settings", g.updateSettings)
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Host, g.config.Port)
	g.server = &http.Server{
		Addr:         addr,
		Handler:      g.router,
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func intQuery(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}
