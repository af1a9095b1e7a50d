package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sequencer hands out the per-day part of an order number. Numbers are for
// display; the order id is the identity.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}

// FormatOrderNumber renders PREFIX-YYYYMMDD-NNNN using the UTC date of day.
func FormatOrderNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.UTC().Format("20060102"), seq)
}

type OrderCounter interface {
	Count(ctx context.Context) (int64, error)
}

// CountSequencer numbers orders by the total count of orders plus one.
// Concurrent checkouts can observe the same count and share a number.
type CountSequencer struct {
	orders OrderCounter
}

func NewCountSequencer(orders OrderCounter) *CountSequencer {
	return &CountSequencer{orders: orders}
}

func (s *CountSequencer) Next(ctx context.Context, _ time.Time) (int64, error) {
	total, err := s.orders.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total + 1, nil
}

type DailyCounter interface {
	NextOrderSequence(ctx context.Context, day time.Time) (int64, error)
}

// RedisSequencer uses an atomic per-day counter.
type RedisSequencer struct {
	counter DailyCounter
}

func NewRedisSequencer(counter DailyCounter) *RedisSequencer {
	return &RedisSequencer{counter: counter}
}

func (s *RedisSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	return s.counter.NextOrderSequence(ctx, day)
}

// FallbackSequencer asks primary first and falls back when it fails.
type FallbackSequencer struct {
	primary  Sequencer
	fallback Sequencer
	logger   *zap.Logger
}

func NewFallbackSequencer(primary, fallback Sequencer, logger *zap.Logger) *FallbackSequencer {
	return &FallbackSequencer{primary: primary, fallback: fallback, logger: logger.Named("sequencer")}
}

func (s *FallbackSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	seq, err := s.primary.Next(ctx, day)
	if err == nil {
		return seq, nil
	}
	s.logger.Warn("Primary order sequencer failed, falling back", zap.Error(err))
	return s.fallback.Next(ctx, day)
}
