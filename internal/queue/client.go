package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Handler processes one decoded message. Errors are recorded by the
// consumer; the message is not redelivered.
type Handler func(ctx context.Context, msg Message) error

// Consumer pulls messages from a queue backend and hands them to a handler
// until the context ends.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
}
