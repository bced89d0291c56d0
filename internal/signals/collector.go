package signals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saaga0h/wellness-engine/pkg/config"
	"github.com/saaga0h/wellness-engine/pkg/mqtt"
	"github.com/saaga0h/wellness-engine/pkg/redis"
)

// Collector receives raw wellness signals over MQTT and stores them in Redis
// where the RedisSource reads them back.
type Collector struct {
	mqtt      mqtt.Client
	redis     redis.Client
	processor *Processor
	storage   *Storage
	profiles  *ProfileStore
	cfg       *config.Config
	logger    *slog.Logger
}

// NewCollector creates a new collector with the given dependencies
func NewCollector(mqttClient mqtt.Client, redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Collector {
	return &Collector{
		mqtt:      mqttClient,
		redis:     redisClient,
		processor: NewProcessor(logger),
		storage:   NewStorage(redisClient, cfg.SignalRetentionDays, logger),
		profiles:  NewProfileStore(redisClient),
		cfg:       cfg,
		logger:    logger,
	}
}

// Start connects, subscribes and blocks until ctx is cancelled
func (c *Collector) Start(ctx context.Context) error {
	c.logger.Info("Starting signal collector",
		"service_name", c.cfg.ServiceName,
		"mqtt_broker", c.cfg.MQTTAddress())

	if err := c.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := c.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	topics := append([]string{mqtt.TopicProfiles}, c.cfg.SignalTopics...)
	for _, topic := range topics {
		if err := c.mqtt.Subscribe(topic, 1, c.handleMessage); err != nil {
			c.logger.Error("Failed to subscribe to topic", "topic", topic, "error", err)
			// Continue subscribing to other topics even if one fails
			continue
		}
	}

	c.logger.Info("Signal collector started",
		"subscribed_topics", strings.Join(topics, ", "))

	<-ctx.Done()
	c.logger.Info("Signal collector stopping")

	return nil
}

// Stop disconnects from MQTT and closes Redis
func (c *Collector) Stop() error {
	c.logger.Info("Stopping signal collector")

	c.mqtt.Disconnect()

	if err := c.redis.Close(); err != nil {
		c.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	c.logger.Info("Signal collector stopped")
	return nil
}

func (c *Collector) handleMessage(msg mqtt.Message) {
	c.Ingest(context.Background(), msg.Topic(), msg.Payload())
}

// Ingest parses and stores one raw message. Errors are logged, not returned,
// so one bad publisher cannot stall the subscription.
func (c *Collector) Ingest(ctx context.Context, topic string, payload []byte) {
	if mqtt.TopicMatches(mqtt.TopicProfiles, topic) {
		c.ingestProfile(ctx, topic, payload)
		return
	}

	signal, err := c.processor.ParseMessage(topic, payload)
	if err != nil {
		c.logger.Error("Failed to parse signal", "topic", topic, "error", err)
		return
	}

	if err := c.storage.StoreSample(ctx, signal); err != nil {
		c.logger.Error("Failed to store signal",
			"domain", signal.Sample.Domain,
			"user_id", signal.UserID,
			"error", err)
		return
	}

	c.logger.Info("Signal stored",
		"domain", signal.Sample.Domain,
		"user_id", signal.UserID)
}

func (c *Collector) ingestProfile(ctx context.Context, topic string, payload []byte) {
	userID, err := mqtt.ParseProfileTopic(topic)
	if err != nil {
		c.logger.Error("Failed to parse profile topic", "topic", topic, "error", err)
		return
	}
	msg, err := ParseProfile(payload)
	if err != nil {
		c.logger.Error("Failed to parse profile", "user_id", userID, "error", err)
		return
	}
	if err := c.profiles.Save(ctx, userID, msg); err != nil {
		c.logger.Error("Failed to store profile", "user_id", userID, "error", err)
		return
	}
	c.logger.Info("Profile stored", "user_id", userID)
}
