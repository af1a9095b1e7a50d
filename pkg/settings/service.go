// Package settings owns the store settings row and the business rates derived from it.
package settings

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/example/zastore/pkg/config"
	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/pricing"
	"github.com/example/zastore/pkg/repository"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const maxBannerLength = 500

var (
	// ErrInvalidSettings wraps validation failures of an update.
	ErrInvalidSettings = errors.New("settings: invalid input")

	upiPattern = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
)

type Store interface {
	Seed(ctx context.Context, defaults models.StoreSettings) (bool, error)
	Get(ctx context.Context) (*models.StoreSettings, error)
	Save(ctx context.Context, settings *models.StoreSettings) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry repository.AuditEntry) error
}

// Update is the full replacement written by the admin settings form.
type Update struct {
	UpiID         string          `json:"upiId"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	IsStoreOpen   bool            `json:"isStoreOpen"`
	BannerMessage string          `json:"bannerMessage"`
}

type Service struct {
	store                 Store
	audit                 AuditRecorder
	defaults              models.StoreSettings
	gstRate               decimal.Decimal
	freeShippingThreshold decimal.Decimal
	sanitizer             *bluemonday.Policy
	logger                *zap.Logger
}

// NewService parses the configured rates and defaults. audit may be nil.
func NewService(store Store, audit AuditRecorder, cfg config.StoreConfig, logger *zap.Logger) (*Service, error) {
	gstRate, err := decimal.NewFromString(cfg.GSTRate)
	if err != nil {
		return nil, fmt.Errorf("invalid store.gst_rate %q: %w", cfg.GSTRate, err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid store.free_shipping_threshold %q: %w", cfg.FreeShippingThreshold, err)
	}
	fee, err := decimal.NewFromString(cfg.Defaults.DeliveryFee)
	if err != nil {
		return nil, fmt.Errorf("invalid store.defaults.delivery_fee %q: %w", cfg.Defaults.DeliveryFee, err)
	}

	s := &Service{
		store:                 store,
		audit:                 audit,
		gstRate:               gstRate,
		freeShippingThreshold: threshold,
		sanitizer:             bluemonday.StrictPolicy(),
		logger:                logger.Named("settings"),
	}
	s.defaults = models.StoreSettings{
		ID:            models.StoreSettingsID,
		UpiID:         strings.TrimSpace(cfg.Defaults.UpiID),
		DeliveryFee:   fee.Round(2),
		IsStoreOpen:   cfg.Defaults.IsStoreOpen,
		BannerMessage: s.cleanBanner(cfg.Defaults.BannerMessage),
	}
	return s, nil
}

// Seed writes the default row if none exists. Run once at startup.
func (s *Service) Seed(ctx context.Context) error {
	created, err := s.store.Seed(ctx, s.defaults)
	if err != nil {
		return fmt.Errorf("failed to seed store settings: %w", err)
	}
	if created {
		s.logger.Info("Seeded store settings",
			zap.String("delivery_fee", s.defaults.DeliveryFee.StringFixed(2)),
			zap.Bool("is_store_open", s.defaults.IsStoreOpen))
	}
	return nil
}

// Get reads the current settings. A missing row yields the configured defaults.
func (s *Service) Get(ctx context.Context) (*models.StoreSettings, error) {
	current, err := s.store.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Store settings row missing, using defaults")
		defaults := s.defaults
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}
	return current, nil
}

// Update validates and overwrites the settings row.
func (s *Service) Update(ctx context.Context, actorID string, u Update) (*models.StoreSettings, error) {
	upi := strings.TrimSpace(u.UpiID)
	if upi != "" && !upiPattern.MatchString(upi) {
		return nil, fmt.Errorf("%w: upiId must look like name@bank", ErrInvalidSettings)
	}
	if u.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("%w: deliveryFee must not be negative", ErrInvalidSettings)
	}
	banner := s.cleanBanner(u.BannerMessage)
	if len([]rune(banner)) > maxBannerLength {
		return nil, fmt.Errorf("%w: bannerMessage must be at most %d characters", ErrInvalidSettings, maxBannerLength)
	}

	next := &models.StoreSettings{
		ID:            models.StoreSettingsID,
		UpiID:         upi,
		DeliveryFee:   u.DeliveryFee.Round(2),
		IsStoreOpen:   u.IsStoreOpen,
		BannerMessage: banner,
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save store settings: %w", err)
	}

	if s.audit != nil {
		err := s.audit.Record(ctx, repository.AuditEntry{
			Action:   "settings.updated",
			EntityID: "store_settings",
			ActorID:  actorID,
			Data: bson.M{
				"upi_id":         next.UpiID,
				"delivery_fee":   next.DeliveryFee.StringFixed(2),
				"is_store_open":  next.IsStoreOpen,
				"banner_message": next.BannerMessage,
			},
		})
		if err != nil {
			s.logger.Warn("Failed to record settings audit entry", zap.Error(err))
		}
	}

	return next, nil
}

// cleanBanner strips markup and keeps the remaining text as written. The
// policy escapes what it keeps, so entities are decoded again.
func (s *Service) cleanBanner(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

// Rates is the single source of GST and shipping rules for pricing.
func (s *Service) Rates(ctx context.Context) (pricing.Rates, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return pricing.Rates{}, err
	}
	return pricing.Rates{
		GSTRate:               s.gstRate,
		DeliveryFee:           current.DeliveryFee,
		FreeShippingThreshold: s.freeShippingThreshold,
	}, nil
}

// FreeShippingThreshold is the subtotal above which shipping is free.
func (s *Service) FreeShippingThreshold() decimal.Decimal {
	return s.freeShippingThreshold
}
