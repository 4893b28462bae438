package messaging

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/labmanager/identity-access-service/internal/config"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

// RabbitMQBroker implements ports.LabEventPublisher. One durable queue
// per event type, named after it.
type RabbitMQBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cb   *gobreaker.CircuitBreaker
}

var _ ports.LabEventPublisher = (*RabbitMQBroker)(nil)

func NewRabbitMQBroker(amqpURL string) (*RabbitMQBroker, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declare the queues (idempotent)
	for _, queue := range []string{
		ports.EventPatientRegistered,
		ports.EventStudyCreated,
		ports.EventRecoveryRequested,
	} {
		_, err = ch.QueueDeclare(
			queue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	return &RabbitMQBroker{
		conn: conn,
		ch:   ch,
		cb:   config.NewCircuitBreaker("RabbitMQ-Publisher"),
	}, nil
}

func (rmq *RabbitMQBroker) Close() error {
	if rmq.ch != nil {
		if err := rmq.ch.Close(); err != nil {
			return err
		}
	}
	if rmq.conn != nil {
		return rmq.conn.Close()
	}
	return nil
}
