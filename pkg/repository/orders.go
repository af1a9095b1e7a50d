package repository

import (
	"context"
	"time"

	"github.com/example/zastore/pkg/models"
	"gorm.io/gorm"
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status models.OrderStatus
	Offset int
	Limit  int
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", byPosition).
		Preload("Items.Customizations")
}

// Create inserts the order, its items and their customizations in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User").Create(order).Error
	})
}

// Count returns the number of orders ever placed.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.withItems(ctx).Preload("User").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// ListByNumber returns every order carrying exactly number, oldest first.
// Order numbers are display identifiers and may repeat. The comparison is
// repeated in Go because MySQL's default collation ignores case.
func (r *OrderRepository) ListByNumber(ctx context.Context, number string) ([]models.Order, error) {
	var candidates []models.Order
	err := r.withItems(ctx).
		Where("order_number = ?", number).
		Order("created_at ASC").
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	matches := candidates[:0]
	for _, o := range candidates {
		if o.OrderNumber == number {
			matches = append(matches, o)
		}
	}
	return matches, nil
}

// UpdateStatus sets the status and returns the updated order with its user.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	return r.update(ctx, id, map[string]interface{}{
		"status": status,
	})
}

func (r *OrderRepository) UpdateTracking(ctx context.Context, id, trackingNumber, courierName string) (*models.Order, error) {
	return r.update(ctx, id, map[string]interface{}{
		"tracking_number": trackingNumber,
		"courier_name":    courierName,
	})
}

func (r *OrderRepository) update(ctx context.Context, id string, updates map[string]interface{}) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}

	updates["updated_at"] = time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Preload("Items", byPosition).
		Preload("User").
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
