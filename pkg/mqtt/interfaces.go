package mqtt

import "context"

// Client is the broker connection shared by the collector and the result
// notifier. MockClient implements it in process for tests.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()

	// Subscribe registers handler for a topic filter; wildcards follow TopicMatches
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish blocks until the broker acknowledges or the publish timeout elapses
	Publish(topic string, qos byte, retained bool, payload []byte) error

	IsConnected() bool
}

// MessageHandler is called once per delivered message
type MessageHandler func(Message)

// Message is a delivered raw signal. Acknowledgement is handled by the client.
type Message interface {
	Topic() string
	Payload() []byte
}
