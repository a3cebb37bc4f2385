package mqtt

import "context"

// Client is the broker connection the time-of-day agent publishes sky
// context and receives commands through. Tests substitute a mock.
type Client interface {
	// Connect blocks until the broker accepts the connection or ctx ends
	Connect(ctx context.Context) error

	// Disconnect announces the service offline and closes the connection
	Disconnect()

	// Subscribe registers handler for topic; wildcards are allowed
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish sends payload, retained for context topics
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// IsConnected reports the current connection state
	IsConnected() bool
}

// MessageHandler is called for every message on a subscribed topic
type MessageHandler func(Message)

// Message is an incoming command or context message
type Message interface {
	Topic() string
	Payload() []byte

	// Ack acknowledges QoS 1 and 2 deliveries
	Ack()
}
