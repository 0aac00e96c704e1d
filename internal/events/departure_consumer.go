package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/port-russell/service-marina/internal/application"
	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/platform/domain"
	"github.com/port-russell/service-marina/internal/platform/kafka"
	"github.com/port-russell/service-marina/internal/platform/messaging"
)

// ReservationCompleter completes a reservation once its boat has left.
type ReservationCompleter interface {
	CompleteReservation(ctx context.Context, id uuid.UUID) (*application.ReservationDTO, error)
}

// DepartureConsumer listens to harbour events and completes the reservation
// of every boat that leaves its berth.
type DepartureConsumer struct {
	consumer  *kafka.Consumer
	completer ReservationCompleter
	logger    *zap.Logger
}

// NewDepartureConsumer creates a new DepartureConsumer.
func NewDepartureConsumer(
	brokers []string,
	groupID string,
	completer ReservationCompleter,
	logger *zap.Logger,
) *DepartureConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, schema.TopicHarbourEvents, logger)
	return &DepartureConsumer{
		consumer:  consumer,
		completer: completer,
		logger:    logger,
	}
}

// Start begins consuming harbour events. This blocks until the context is cancelled.
func (c *DepartureConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *DepartureConsumer) Close() error {
	return c.consumer.Close()
}

func (c *DepartureConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := messaging.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from harbour topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case schema.BoatDeparted:
		return c.handleBoatDeparted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled harbour event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *DepartureConsumer) handleBoatDeparted(ctx context.Context, cloudEvent messaging.CloudEvent) error {
	var evt schema.BoatDepartedEvent
	if err := cloudEvent.ParseData(&evt); err != nil || evt.ReservationID == uuid.Nil {
		c.logger.Error("failed to parse BoatDepartedEvent data",
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing boat departed event",
		zap.String("reservation_id", evt.ReservationID.String()),
		zap.Int("catway_number", evt.CatwayNumber),
	)

	if _, err := c.completer.CompleteReservation(ctx, evt.ReservationID); err != nil {
		if domain.IsNotFound(err) {
			c.logger.Warn("departed boat has no reservation",
				zap.String("reservation_id", evt.ReservationID.String()),
			)
			return nil
		}
		c.logger.Error("failed to complete reservation after departure",
			zap.String("reservation_id", evt.ReservationID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("reservation completed after departure",
		zap.String("reservation_id", evt.ReservationID.String()),
	)
	return nil
}
