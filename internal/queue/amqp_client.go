package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// AMQPClient sends and receives queue messages over a RabbitMQ broker.
// The queue is declared durable so messages survive broker restarts.
type AMQPClient struct {
	conn      *amqp.Connection
	queueName string
}

// NewAMQPClient dials the broker and declares the queue.
func NewAMQPClient(url, queueName string) (*AMQPClient, error) {
	if url == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	if queueName == "" {
		return nil, fmt.Errorf("amqp queue name is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	return &AMQPClient{conn: conn, queueName: queueName}, nil
}

// Send publishes a message to the queue through the default exchange. A
// fresh channel per publish keeps the client safe for concurrent callers.
func (a *AMQPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}

	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	err = ch.Publish("", a.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Consume reads deliveries until the context ends or the broker closes the
// channel. Every delivery is acked after handling; handler failures are
// recorded on the target row, so redelivery would only repeat a terminal
// failure.
func (a *AMQPClient) Consume(ctx context.Context, handler Handler) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer ch.Close()

	deliveries, err := ch.Consume(a.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", a.queueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}

			msg, err := DecodeMessage(d.Body)
			if err != nil {
				telemetry.Warn("queue.decode_failed", map[string]any{"error": err.Error()})
			} else if err := handler(ctx, msg); err != nil {
				telemetry.Warn("queue.handler_failed", map[string]any{
					"kind":      msg.Kind,
					"resume_id": msg.ApplicationID,
					"error":     err.Error(),
				})
			}

			if err := d.Ack(false); err != nil {
				telemetry.Warn("queue.ack_failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// Close releases the broker connection.
func (a *AMQPClient) Close() error {
	return a.conn.Close()
}

var (
	_ Client   = (*AMQPClient)(nil)
	_ Consumer = (*AMQPClient)(nil)
)
