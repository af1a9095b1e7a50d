package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/zastore/pkg/models"
	"github.com/example/zastore/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const maxTrackingLength = 64

// ParseStatus accepts any of the known statuses, case-insensitively.
func ParseStatus(raw string) (models.OrderStatus, error) {
	status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// SetStatus moves the order to status. Any status may follow any other.
// PROCESSING and SHIPPED email the buyer; that email never fails the call.
func (s *Service) SetStatus(ctx context.Context, actorID, orderID, status string) (*AdminOrderView, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, next)
	if err != nil {
		s.logger.Error("Failed to update order status",
			zap.String("order_id", orderID),
			zap.String("status", string(next)),
			zap.Error(err))
		return nil, ErrStatusUpdate
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actorID))

	s.invalidate(ctx, order.OrderNumber)
	s.record(ctx, repository.AuditEntry{
		Action:   "order.status_changed",
		EntityID: order.ID,
		ActorID:  actorID,
		Data:     bson.M{"status": string(order.Status)},
	})

	if s.notifier != nil && (next == models.StatusProcessing || next == models.StatusShipped) {
		if to := order.NotifyEmail(); to != "" {
			if err := s.notifier.StatusChanged(ctx, to, order); err != nil {
				s.logger.Warn("Failed to send status email",
					zap.String("order_number", order.OrderNumber),
					zap.String("status", string(next)),
					zap.Error(err))
			}
		}
	}

	return NewAdminOrderView(order), nil
}

// SetTracking records the courier and tracking number of a shipped order.
func (s *Service) SetTracking(ctx context.Context, actorID, orderID, trackingNumber, courierName string) (*AdminOrderView, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	courierName = strings.TrimSpace(courierName)
	if len(trackingNumber) > maxTrackingLength || len(courierName) > maxTrackingLength {
		return nil, fmt.Errorf("%w: at most %d characters", ErrInvalidTracking, maxTrackingLength)
	}

	order, err := s.orders.UpdateTracking(ctx, orderID, trackingNumber, courierName)
	if err != nil {
		s.logger.Error("Failed to update order tracking",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, ErrStatusUpdate
	}

	s.invalidate(ctx, order.OrderNumber)
	s.record(ctx, repository.AuditEntry{
		Action:   "order.tracking_updated",
		EntityID: order.ID,
		ActorID:  actorID,
		Data: bson.M{
			"tracking_number": order.TrackingNumber,
			"courier_name":    order.CourierName,
		},
	})

	return NewAdminOrderView(order), nil
}
