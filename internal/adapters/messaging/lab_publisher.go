package messaging

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/labmanager/identity-access-service/internal/core/ports"
)

func (rmq *RabbitMQBroker) PublishPatientRegistered(ctx context.Context, evt ports.PatientRegisteredEvent) error {
	return rmq.publish(ctx, ports.EventPatientRegistered, evt)
}

func (rmq *RabbitMQBroker) PublishStudyCreated(ctx context.Context, evt ports.StudyCreatedEvent) error {
	return rmq.publish(ctx, ports.EventStudyCreated, evt)
}

func (rmq *RabbitMQBroker) PublishRecoveryRequested(ctx context.Context, evt ports.RecoveryRequestedEvent) error {
	return rmq.publish(ctx, ports.EventRecoveryRequested, evt)
}

func (rmq *RabbitMQBroker) publish(ctx context.Context, queue string, evt any) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	_, err = rmq.cb.Execute(func() (interface{}, error) {
		return nil, rmq.ch.PublishWithContext(
			ctx,
			"",    // default exchange
			queue, // routing key = queue name
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
	})
	return err
}
