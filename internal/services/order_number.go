package services

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"aralis/internal/metrics"
	"aralis/internal/repositories"
)

const (
	// orderNumberSpace is how many numbers exist per prefix and year.
	orderNumberSpace = 10000
	// capacityWarnRatio is the yearly occupancy above which allocation logs a warning.
	capacityWarnRatio = 0.8
)

// OrderNumberAllocator picks human-readable order numbers of the form PREFIX-<year><4 digits>.
type OrderNumberAllocator struct {
	orders      repositories.OrderRepository
	prefix      string
	maxAttempts int
	intn        func(n int) int
	now         func() time.Time
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewOrderNumberAllocator creates an allocator drawing from math/rand and the wall clock.
func NewOrderNumberAllocator(orders repositories.OrderRepository, prefix string, maxAttempts int, met *metrics.Metrics, logger *zap.Logger) *OrderNumberAllocator {
	return &OrderNumberAllocator{
		orders:      orders,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		intn:        rand.IntN,
		now:         time.Now,
		metrics:     met,
		logger:      logger,
	}
}

// SetRandom replaces the source of candidate numbers. intn must return a value in [0, n).
func (a *OrderNumberAllocator) SetRandom(intn func(n int) int) {
	a.intn = intn
}

// SetClock replaces the clock used to stamp the year.
func (a *OrderNumberAllocator) SetClock(now func() time.Time) {
	a.now = now
}

// Allocate returns the first candidate no stored order carries. It checks at most
// maxAttempts candidates and then fails with ErrOrderNumberExhausted.
//
// A free candidate can still be taken by a concurrent checkout before it is inserted;
// the unique index on order_number catches that and the caller allocates again.
func (a *OrderNumberAllocator) Allocate() (string, error) {
	yearPrefix := fmt.Sprintf("%s-%d", a.prefix, a.now().Year())

	collided := false
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%04d", yearPrefix, a.intn(orderNumberSpace))

		exists, err := a.orders.ExistsByNumber(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check order number %s: %w", candidate, err)
		}
		if !exists {
			if collided {
				a.checkCapacity(yearPrefix)
			}
			return candidate, nil
		}
		collided = true
		a.metrics.OrderNumberCollisions.Inc()
		a.logger.Debug("order number taken", zap.String("candidate", candidate), zap.Int("attempt", attempt+1))
	}

	a.checkCapacity(yearPrefix)
	return "", fmt.Errorf("no free order number after %d attempts: %w", a.maxAttempts, ErrOrderNumberExhausted)
}

// checkCapacity warns once the year is capacityWarnRatio full. Callers run it after a collision.
func (a *OrderNumberAllocator) checkCapacity(yearPrefix string) {
	used, err := a.orders.CountByNumberPrefix(yearPrefix)
	if err != nil {
		a.logger.Warn("failed to count order numbers", zap.String("prefix", yearPrefix), zap.Error(err))
		return
	}
	ratio := float64(used) / orderNumberSpace
	if ratio >= capacityWarnRatio {
		a.logger.Warn("order number space filling up",
			zap.String("prefix", yearPrefix),
			zap.Int64("used", used),
			zap.Float64("ratio", ratio))
	}
}
