package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope wraps every published event.
type Envelope struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(name string, payload any) Envelope {
	return Envelope{
		ID:         uuid.New().String(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// LogEmitter writes events to the logger. Used when no broker is configured.
type LogEmitter struct {
	log *zap.Logger
}

// NewLogEmitter creates a new LogEmitter.
func NewLogEmitter(log *zap.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(_ context.Context, name string, payload any) error {
	e.log.Info("event emitted", zap.String("event", name), zap.Any("payload", payload))
	return nil
}
