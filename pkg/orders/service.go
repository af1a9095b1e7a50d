// Package orders places orders, moves them through their statuses and serves
// the public tracker and the admin order views.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/example/zastore/pkg/config"
	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/pricing"
	"github.com/example/zastore/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultOrderPrefix     = "ZA"
	defaultTrackerCacheTTL = 5 * time.Minute
)

var (
	ErrNotAuthenticated   = errors.New("must be logged in")
	ErrInvalidForm        = errors.New("invalid form data")
	ErrStoreClosed        = errors.New("store is currently closed")
	ErrEmptyCart          = errors.New("cart is empty or contains invalid items")
	ErrPersistence        = errors.New("failed to place order")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidTracking    = errors.New("invalid tracking details")
	ErrStatusUpdate       = errors.New("failed to update order")
	ErrOrderNotFound      = errors.New("order not found")
	ErrTrackerUnavailable = errors.New("failed to look up order")
)

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByNumber(ctx context.Context, number string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	UpdateTracking(ctx context.Context, id, trackingNumber, courierName string) (*models.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error)
}

type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
}

type Pricer interface {
	Quote(ctx context.Context, lines []pricing.Line) (*pricing.Quote, error)
}

type SettingsReader interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
}

// Cache is the tracker's read-through cache.
type Cache interface {
	LoadJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	StoreJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type AuditLog interface {
	Record(ctx context.Context, entry repository.AuditEntry) error
	History(ctx context.Context, entityID string, limit int64) ([]repository.AuditEntry, error)
}

type Notifier interface {
	OrderReceipt(ctx context.Context, to string, order *models.Order) error
	StatusChanged(ctx context.Context, to string, order *models.Order) error
}

// Deps wires a Service. Cache, Audit and Notifier are optional.
type Deps struct {
	Orders    OrderStore
	Users     UserStore
	Pricer    Pricer
	Settings  SettingsReader
	Sequencer Sequencer
	Cache     Cache
	Audit     AuditLog
	Notifier  Notifier
	Config    config.StoreConfig
	Logger    *zap.Logger
	Now       func() time.Time
	NewID     func() string
}

type Service struct {
	orders    OrderStore
	users     UserStore
	pricer    Pricer
	settings  SettingsReader
	sequencer Sequencer
	cache     Cache
	audit     AuditLog
	notifier  Notifier
	prefix    string
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(d Deps) *Service {
	s := &Service{
		orders:    d.Orders,
		users:     d.Users,
		pricer:    d.Pricer,
		settings:  d.Settings,
		sequencer: d.Sequencer,
		cache:     d.Cache,
		audit:     d.Audit,
		notifier:  d.Notifier,
		prefix:    d.Config.OrderNumberPrefix,
		cacheTTL:  d.Config.TrackerCacheTTL,
		logger:    d.Logger,
		now:       d.Now,
		newID:     d.NewID,
	}
	if s.prefix == "" {
		s.prefix = defaultOrderPrefix
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultTrackerCacheTTL
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("orders")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.sequencer == nil {
		s.sequencer = NewCountSequencer(d.Orders)
	}
	return s
}

// record writes an audit entry. Failures are logged only.
func (s *Service) record(ctx context.Context, entry repository.AuditEntry) {
	if s.audit == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}
