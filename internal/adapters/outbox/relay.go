// Package outbox relays transactional outbox events to RabbitMQ.
// Event rows are written in the same transaction as the entity they
// describe; a LISTEN/NOTIFY wakeup (plus a periodic sweep as safety
// net) pushes them to the broker at least once.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/labmanager/identity-access-service/internal/config"
	"github.com/labmanager/identity-access-service/internal/core/ports"
	"github.com/labmanager/identity-access-service/internal/observability"
)

const (
	// PostgreSQL NOTIFY/LISTEN configuration
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	// Event processing timeouts
	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	// Health check configuration
	healthCheckStaleThreshold = 5 * time.Minute

	// Batch processing limits
	maxEventsPerBatch = 100
)

// Relay listens for PostgreSQL NOTIFY signals on the outbox channel
// and publishes events to the broker.
type Relay struct {
	db            *sql.DB
	publisher     ports.LabEventPublisher
	listener      *pq.Listener
	dbURL         string
	dbCB          *gobreaker.CircuitBreaker
	metrics       *observability.Metrics
	logger        *slog.Logger
	lastProcessed time.Time
	isHealthy     bool
}

func NewRelay(db *sql.DB, dbURL string, publisher ports.LabEventPublisher, metrics *observability.Metrics, logger *slog.Logger) *Relay {
	return &Relay{
		db:            db,
		dbURL:         dbURL,
		publisher:     publisher,
		dbCB:          config.NewCircuitBreaker("Relay-PostgreSQL"),
		metrics:       metrics,
		logger:        logger,
		lastProcessed: time.Now(),
		isHealthy:     true,
	}
}

// IsHealthy reports whether the relay process is alive and responding.
// Liveness only; an open circuit breaker is degraded but recoverable
// and should not kill the pod.
func (r *Relay) IsHealthy() bool {
	return r.isHealthy
}

// IsReady reports whether the relay can currently process events.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	if time.Since(r.lastProcessed) > healthCheckStaleThreshold {
		return false
	}
	return r.isHealthy
}

// Start begins listening for outbox notifications and processing
// events. Blocks until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Error("listener error", slog.Any("error", err))
		}
	}

	r.listener = pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer r.listener.Close()

	if err := r.listener.Listen(outboxChannelName); err != nil {
		return err
	}

	r.logger.Info("listening for outbox notifications", slog.String("channel", outboxChannelName))

	// Catch up on anything enqueued while the relay was down.
	if err := r.processUnprocessedEvents(ctx); err != nil {
		r.logger.Error("startup backlog processing failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down")
			return ctx.Err()

		case notification := <-r.listener.Notify:
			if notification == nil {
				r.logger.Warn("nil notification, reconnecting")
				r.isHealthy = false
				continue
			}

			if err := r.processEventByID(ctx, notification.Extra); err != nil {
				r.logger.Error("event processing failed",
					slog.String("event_id", notification.Extra),
					slog.Any("error", err),
				)
			} else {
				r.lastProcessed = time.Now()
				r.isHealthy = true
			}

		case <-time.After(periodicProcessInterval):
			// Keep the connection alive and sweep missed events.
			go r.listener.Ping()

			if err := r.processUnprocessedEvents(ctx); err != nil {
				r.logger.Error("periodic processing failed", slog.Any("error", err))
			} else {
				r.lastProcessed = time.Now()
			}
		}
	}
}

// processEventByID processes a single event by its id.
func (r *Relay) processEventByID(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		var (
			id, eventType string
			payload       []byte
		)
		err = tx.QueryRowContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&id, &eventType, &payload)

		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.publishEvent(ctx, id, eventType, payload); err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// processUnprocessedEvents sweeps all pending events (catch-up and
// recovery path).
func (r *Relay) processUnprocessedEvents(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		rows, err := tx.QueryContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE processed_at IS NULL
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, maxEventsPerBatch)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		type record struct {
			ID        string
			EventType string
			Payload   []byte
		}

		var records []record
		for rows.Next() {
			var rec record
			if err := rows.Scan(&rec.ID, &rec.EventType, &rec.Payload); err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, rec := range records {
			if err := r.publishEvent(ctx, rec.ID, rec.EventType, rec.Payload); err != nil {
				r.logger.Error("publish failed",
					slog.String("event_id", rec.ID),
					slog.Any("error", err),
				)
				continue
			}

			if _, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, rec.ID); err != nil {
				return nil, err
			}
		}

		return nil, tx.Commit()
	})
	return err
}

// publishEvent routes an outbox row to the matching publisher method.
// An undecodable payload is logged and treated as published to avoid
// infinite retries on bad data; an unknown event type likewise.
func (r *Relay) publishEvent(ctx context.Context, id, eventType string, payload []byte) error {
	var err error
	switch eventType {
	case ports.EventPatientRegistered:
		var evt ports.PatientRegisteredEvent
		if jerr := json.Unmarshal(payload, &evt); jerr != nil {
			r.logger.Error("invalid payload", slog.String("event_id", id), slog.Any("error", jerr))
			return nil
		}
		err = r.publisher.PublishPatientRegistered(ctx, evt)
	case ports.EventStudyCreated:
		var evt ports.StudyCreatedEvent
		if jerr := json.Unmarshal(payload, &evt); jerr != nil {
			r.logger.Error("invalid payload", slog.String("event_id", id), slog.Any("error", jerr))
			return nil
		}
		err = r.publisher.PublishStudyCreated(ctx, evt)
	case ports.EventRecoveryRequested:
		var evt ports.RecoveryRequestedEvent
		if jerr := json.Unmarshal(payload, &evt); jerr != nil {
			r.logger.Error("invalid payload", slog.String("event_id", id), slog.Any("error", jerr))
			return nil
		}
		err = r.publisher.PublishRecoveryRequested(ctx, evt)
	default:
		r.logger.Warn("unknown event type", slog.String("event_id", id), slog.String("event_type", eventType))
		return nil
	}
	if err != nil {
		return err
	}

	r.metrics.EventsRelayed.WithLabelValues(eventType).Inc()
	return nil
}
