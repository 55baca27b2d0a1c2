package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubmissionEvent mirrors one ledger append for downstream consumers.
type SubmissionEvent struct {
	SubmissionID uint      `json:"submission_id"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	Memo         string    `json:"memo"`
	At           time.Time `json:"at"`
}

// EventPublisher fans submission status changes out over NATS. Publication
// is best-effort: failures are logged and never block or roll back the
// transaction that produced the event.
type EventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewEventPublisher builds a publisher. A nil connection disables
// publication entirely.
func NewEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *EventPublisher {
	if subject == "" {
		subject = "docserver.submissions.events"
	}

	return &EventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish emits one event, swallowing all failures.
func (p *EventPublisher) Publish(event SubmissionEvent) {
	if p == nil || p.conn == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal submission event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("failed to publish submission event")
	}
}
