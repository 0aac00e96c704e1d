package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/lock"
	"github.com/port-russell/service-marina/internal/metrics"
	"github.com/port-russell/service-marina/internal/platform/domain"
	"github.com/port-russell/service-marina/internal/platform/messaging"
)

// Transactor runs fn inside a database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// berthGuard serialises writers per catway and turns lock timeouts into conflicts.
type berthGuard struct {
	locker  lock.Locker
	metrics *metrics.Metrics
}

func (g berthGuard) lock(ctx context.Context, numbers ...int) (lock.Unlock, error) {
	keys := make([]string, len(numbers))
	for i, n := range numbers {
		keys[i] = lock.CatwayKey(n)
	}

	start := time.Now()
	unlock, err := lock.AcquireAll(ctx, g.locker, keys...)
	timedOut := errors.Is(err, lock.ErrTimeout)
	g.metrics.ObserveLockWait(time.Since(start), timedOut)

	if timedOut {
		return nil, domain.NewConflictError(fmt.Sprintf("catway %d is busy, retry", numbers[0]))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock catway: %w", err)
	}
	return unlock, nil
}

// eventEmitter publishes domain events. Failures are logged, never returned.
type eventEmitter struct {
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func (e eventEmitter) publish(ctx context.Context, eventType, subject string, data interface{}) {
	if e.publisher == nil {
		return
	}
	cloudEvent, err := messaging.NewCloudEvent(schema.Source, eventType, subject, data)
	if err != nil {
		e.logger.Error("failed to create cloud event",
			zap.String("type", eventType),
			zap.Error(err),
		)
		e.metrics.IncEventPublished(eventType, metrics.OutcomeError)
		return
	}

	if err := e.publisher.PublishEvent(ctx, schema.TopicMarinaEvents, cloudEvent); err != nil {
		e.logger.Error("failed to publish event",
			zap.String("topic", schema.TopicMarinaEvents),
			zap.String("type", eventType),
			zap.String("subject", subject),
			zap.Error(err),
		)
		e.metrics.IncEventPublished(eventType, metrics.OutcomeError)
		return
	}
	e.metrics.IncEventPublished(eventType, metrics.OutcomeOK)
}

// outcomeOf classifies err for the operation counters.
func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	switch domain.CodeOf(err) {
	case domain.CodeConflict:
		return metrics.OutcomeConflict
	case domain.CodeValidation:
		return metrics.OutcomeInvalid
	case domain.CodeNotFound:
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
