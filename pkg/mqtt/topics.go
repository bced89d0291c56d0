package mqtt

import (
	"fmt"
	"strings"
)

// Topic constants for the wellness signal bus
const (
	// Raw domain samples published by apps and devices (input)
	TopicRawSignals = "wellness/raw/+/+"

	// User display details (input)
	TopicProfiles = "wellness/profile/+"

	// Computed daily results (output)
	TopicDailyBase = "wellness/daily"
)

// RawSignalTopic constructs a raw signal topic for a domain and user
// Pattern: wellness/raw/{domain}/{user_id}
func RawSignalTopic(domain, userID string) string {
	return fmt.Sprintf("wellness/raw/%s/%s", domain, userID)
}

// DailyResultTopic constructs the topic a user's computed daily result is published on
// Pattern: wellness/daily/{user_id}
func DailyResultTopic(userID string) string {
	return fmt.Sprintf("%s/%s", TopicDailyBase, userID)
}

// ParseRawSignalTopic extracts domain and user from a raw signal topic
func ParseRawSignalTopic(topic string) (domain, userID string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "wellness" || parts[1] != "raw" || parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("invalid topic format: %s (expected wellness/raw/{domain}/{user_id})", topic)
	}
	return parts[2], parts[3], nil
}

// ProfileTopic constructs the topic a user's display details are published on
// Pattern: wellness/profile/{user_id}
func ProfileTopic(userID string) string {
	return fmt.Sprintf("wellness/profile/%s", userID)
}

// ParseProfileTopic extracts the user from a profile topic
func ParseProfileTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "wellness" || parts[1] != "profile" || parts[2] == "" {
		return "", fmt.Errorf("invalid topic format: %s (expected wellness/profile/{user_id})", topic)
	}
	return parts[2], nil
}

// ServiceStatusTopic is the retained online/offline topic for a service
// Pattern: wellness/status/{service_name}
func ServiceStatusTopic(serviceName string) string {
	return fmt.Sprintf("wellness/status/%s", serviceName)
}

// TopicMatches reports whether topic matches a subscription filter using
// the MQTT single-level (+) and multi-level (#) wildcards
func TopicMatches(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")

	for i, part := range f {
		if part == "#" {
			return true
		}
		if i >= len(t) {
			return false
		}
		if part != "+" && part != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}
