// Package catalog serves read-only views of active products and categories.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/repository"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var (
	ErrProductNotFound = errors.New("catalog: product not found")
	ErrInvalidFilter   = errors.New("catalog: invalid filter")
)

type Reader interface {
	FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListActive(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// ProductFilter is the public listing query. Page is 1-based.
type ProductFilter struct {
	CategorySlug string
	Type         models.ProductType
	Page         int
	PageSize     int
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type Service struct {
	reader Reader
	logger *zap.Logger
}

func NewService(reader Reader, logger *zap.Logger) *Service {
	return &Service{reader: reader, logger: logger.Named("catalog")}
}

// ListProducts returns one page of active products, newest first.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	if filter.Type != "" && filter.Type != models.ProductStandard && filter.Type != models.ProductCustom {
		return nil, fmt.Errorf("%w: unknown product type %q", ErrInvalidFilter, filter.Type)
	}
	page, size := normalizePage(filter.Page, filter.PageSize)

	products, total, err := s.reader.ListActive(ctx, repository.ProductFilter{
		CategorySlug: strings.TrimSpace(filter.CategorySlug),
		Type:         filter.Type,
		Offset:       (page - 1) * size,
		Limit:        size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductPage{Products: products, Total: total, Page: page, PageSize: size}, nil
}

// GetProduct returns the active product with slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.reader.FindActiveBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		s.logger.Error("Failed to load product", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.reader.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	return page, size
}
