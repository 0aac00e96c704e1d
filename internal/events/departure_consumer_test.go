package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/port-russell/service-marina/internal/application"
	"github.com/port-russell/service-marina/internal/events/schema"
	"github.com/port-russell/service-marina/internal/platform/domain"
	"github.com/port-russell/service-marina/internal/platform/messaging"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) CompleteReservation(ctx context.Context, id uuid.UUID) (*application.ReservationDTO, error) {
	args := m.Called(ctx, id)
	dto, _ := args.Get(0).(*application.ReservationDTO)
	return dto, args.Error(1)
}

func newTestConsumer(c ReservationCompleter) *DepartureConsumer {
	return &DepartureConsumer{completer: c, logger: zap.NewNop()}
}

func departedMessage(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	evt, err := messaging.NewCloudEvent("service-harbour", eventType, schema.CatwaySubject(3), data)
	require.NoError(t, err)
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestHandleMessage_BoatDeparted(t *testing.T) {
	id := uuid.New()
	completer := new(mockCompleter)
	completer.On("CompleteReservation", mock.Anything, id).
		Return(&application.ReservationDTO{ID: id, Status: "completed"}, nil).Once()

	msg := departedMessage(t, schema.BoatDeparted, schema.BoatDepartedEvent{
		ReservationID: id,
		CatwayNumber:  3,
		DepartedAt:    time.Now().UTC(),
	})
	require.NoError(t, newTestConsumer(completer).handleMessage(context.Background(), msg))
	completer.AssertExpectations(t)
}

func TestHandleMessage_SkipsWithoutRetry(t *testing.T) {
	completer := new(mockCompleter)
	c := newTestConsumer(completer)

	tests := []struct {
		name string
		msg  kafkago.Message
	}{
		{"not json", kafkago.Message{Value: []byte("{oops")}},
		{"other type", departedMessage(t, "harbour.boat.arrived", schema.BoatDepartedEvent{ReservationID: uuid.New()})},
		{"missing reservation id", departedMessage(t, schema.BoatDeparted, map[string]int{"catwayNumber": 3})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, c.handleMessage(context.Background(), tt.msg))
		})
	}
	completer.AssertNotCalled(t, "CompleteReservation", mock.Anything, mock.Anything)
}

func TestHandleMessage_UnknownReservationIsDropped(t *testing.T) {
	id := uuid.New()
	completer := new(mockCompleter)
	completer.On("CompleteReservation", mock.Anything, id).
		Return(nil, domain.NewNotFoundError("reservation", id.String()))

	msg := departedMessage(t, schema.BoatDeparted, schema.BoatDepartedEvent{ReservationID: id})
	assert.NoError(t, newTestConsumer(completer).handleMessage(context.Background(), msg))
}

func TestHandleMessage_StorageErrorIsRetried(t *testing.T) {
	id := uuid.New()
	boom := errors.New("connection reset")
	completer := new(mockCompleter)
	completer.On("CompleteReservation", mock.Anything, id).Return(nil, boom)

	msg := departedMessage(t, schema.BoatDeparted, schema.BoatDepartedEvent{ReservationID: id})
	assert.ErrorIs(t, newTestConsumer(completer).handleMessage(context.Background(), msg), boom)
}
