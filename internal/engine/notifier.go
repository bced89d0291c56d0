package engine

import (
	"context"

	"github.com/saaga0h/wellness-engine/internal/wellness"
	"github.com/saaga0h/wellness-engine/pkg/mqtt"
)

// MQTTNotifier publishes results to wellness/daily/{user_id} as retained messages
type MQTTNotifier struct {
	client mqtt.Client
}

// NewMQTTNotifier creates a notifier over a connected client
func NewMQTTNotifier(client mqtt.Client) *MQTTNotifier {
	return &MQTTNotifier{client: client}
}

// PublishResult implements Notifier
func (n *MQTTNotifier) PublishResult(ctx context.Context, result wellness.DailyResult) error {
	return mqtt.PublishJSON(n.client, mqtt.DailyResultTopic(result.UserID), true, result)
}
