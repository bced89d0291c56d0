package mqtt

import (
	"context"
	"sync"
)

// Published is a message captured by MockClient
type Published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// MockClient is an in-process Client for tests. Publishing to a subscribed
// topic delivers the message to its handler synchronously.
type MockClient struct {
	mu        sync.Mutex
	connected bool
	handlers  map[string]MessageHandler
	published []Published

	// ConnectErr, when set, is returned by Connect
	ConnectErr error
}

// NewMockClient creates a disconnected mock
func NewMockClient() *MockClient {
	return &MockClient{handlers: make(map[string]MessageHandler)}
}

func (m *MockClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = true
	return nil
}

func (m *MockClient) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

func (m *MockClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.Lock()
	m.published = append(m.published, Published{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	var matched []MessageHandler
	for filter, h := range m.handlers {
		if TopicMatches(filter, topic) {
			matched = append(matched, h)
		}
	}
	m.mu.Unlock()

	for _, h := range matched {
		h(&mockMessage{topic: topic, payload: payload})
	}
	return nil
}

func (m *MockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Published returns a copy of every published message
func (m *MockClient) Published() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.published...)
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Topic() string { return m.topic }
func (m *mockMessage) Payload() []byte { return m.payload }
