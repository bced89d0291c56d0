package signals

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/saaga0h/wellness-engine/internal/wellness"
	"github.com/saaga0h/wellness-engine/pkg/mqtt"
)

// metricRange is the accepted range for one metric; values outside are clamped
type metricRange struct {
	min, max float64
}

var metricRanges = map[wellness.Domain]map[string]metricRange{
	wellness.DomainMood: {
		wellness.MetricMoodScore: {1, 5},
	},
	wellness.DomainSleep: {
		wellness.MetricSleepHours:   {0, 24},
		wellness.MetricSleepQuality: {0, 100},
	},
	wellness.DomainActivity: {
		wellness.MetricSteps: {0, math.MaxInt32},
	},
	wellness.DomainRecovery: {
		wellness.MetricHRV: {0, 300},
	},
	wellness.DomainHydration: {
		wellness.MetricGlasses: {0, 8},
	},
	wellness.DomainEmotion: {
		wellness.MetricValence: {-1, 1},
		wellness.MetricArousal: {0, 1},
	},
	wellness.DomainSkin: {
		wellness.MetricSkinOverall:      {0, 100},
		wellness.MetricSkinHydration:    {0, 100},
		wellness.MetricSkinTexture:      {0, 100},
		wellness.MetricSkinOiliness:     {0, 100},
		wellness.MetricSkinRedness:      {0, 100},
		wellness.MetricSkinPigmentation: {0, 100},
	},
}

// Processor parses raw signal messages into samples
type Processor struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
		now:    time.Now,
	}
}

// SignalMessage is a parsed raw signal with routing metadata
type SignalMessage struct {
	UserID        string
	OriginalTopic string
	Sample        wellness.DomainSample
}

type rawSignal struct {
	Timestamp  *time.Time         `json:"timestamp"`
	Values     map[string]float64 `json:"values"`
	Labels     map[string]string  `json:"labels"`
	Confidence *float64           `json:"confidence"`
}

// ParseMessage parses a message from wellness/raw/{domain}/{user_id}.
// The payload may be wrapped in {"data": {...}}. Without a "values" object,
// top-level numbers are read as values and strings as labels.
func (p *Processor) ParseMessage(topic string, payload []byte) (*SignalMessage, error) {
	domainName, userID, err := mqtt.ParseRawSignalTopic(topic)
	if err != nil {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return nil, err
	}

	domain := wellness.Domain(domainName)
	ranges, known := metricRanges[domain]
	if !known {
		return nil, fmt.Errorf("unknown domain %q", domainName)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	body := payload
	if data, ok := envelope["data"]; ok {
		body = data
		envelope = nil
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse data field: %w", err)
		}
	}

	var raw rawSignal
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse signal: %w", err)
	}
	if raw.Values == nil {
		raw.Values, raw.Labels = flatFields(envelope)
	}
	if len(raw.Values) == 0 {
		return nil, fmt.Errorf("signal for %s carries no values", domain)
	}

	sample := wellness.DomainSample{
		Domain:     domain,
		Timestamp:  p.now().UTC(),
		Values:     make(map[string]float64, len(raw.Values)),
		Labels:     raw.Labels,
		Confidence: 1,
	}
	if raw.Timestamp != nil && !raw.Timestamp.IsZero() {
		sample.Timestamp = raw.Timestamp.UTC()
	}
	if raw.Confidence != nil {
		sample.Confidence = clamp(*raw.Confidence, 0, 1)
	}

	for metric, v := range raw.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if r, ok := ranges[metric]; ok {
			v = clamp(v, r.min, r.max)
		}
		sample.Values[metric] = v
	}

	p.logger.Debug("Parsed signal message",
		"domain", domain,
		"user_id", userID,
		"values", len(sample.Values))

	return &SignalMessage{
		UserID:        userID,
		OriginalTopic: topic,
		Sample:        sample,
	}, nil
}

func flatFields(fields map[string]json.RawMessage) (map[string]float64, map[string]string) {
	values := make(map[string]float64)
	var labels map[string]string

	for key, raw := range fields {
		if key == "timestamp" || key == "confidence" {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			values[key] = f
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if labels == nil {
				labels = make(map[string]string)
			}
			labels[key] = s
		}
	}
	return values, labels
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
