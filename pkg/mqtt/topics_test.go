package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawSignalTopic(t *testing.T) {
	domain, user, err := ParseRawSignalTopic(RawSignalTopic("sleep", "user-42"))
	require.NoError(t, err)
	assert.Equal(t, "sleep", domain)
	assert.Equal(t, "user-42", user)
}

func TestParseRawSignalTopic_Invalid(t *testing.T) {
	for _, topic := range []string{
		"wellness/raw/sleep",
		"wellness/daily/user-42",
		"automation/raw/motion/kitchen",
		"wellness/raw//user-42",
	} {
		_, _, err := ParseRawSignalTopic(topic)
		assert.Error(t, err, topic)
	}
}

func TestParseProfileTopic(t *testing.T) {
	user, err := ParseProfileTopic(ProfileTopic("user-42"))
	require.NoError(t, err)
	assert.Equal(t, "user-42", user)

	for _, topic := range []string{"wellness/profile", "wellness/profile/", "wellness/raw/mood/u1"} {
		_, err := ParseProfileTopic(topic)
		assert.Error(t, err, topic)
	}
	assert.False(t, TopicMatches(TopicProfiles, RawSignalTopic("mood", "u1")))
}

func TestDailyResultTopic(t *testing.T) {
	assert.Equal(t, "wellness/daily/user-42", DailyResultTopic("user-42"))
	assert.Equal(t, "wellness/status/wellness-engine", ServiceStatusTopic("wellness-engine"))
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{TopicRawSignals, "wellness/raw/mood/u1", true},
		{TopicRawSignals, "wellness/raw/mood", false},
		{TopicRawSignals, "wellness/raw/mood/u1/extra", false},
		{"wellness/#", "wellness/daily/u1", true},
		{"wellness/daily/u1", "wellness/daily/u1", true},
		{"wellness/daily/u1", "wellness/daily/u2", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TopicMatches(tt.filter, tt.topic), "%s vs %s", tt.filter, tt.topic)
	}
}

func TestMockClient_DeliversToSubscribers(t *testing.T) {
	m := NewMockClient()
	var got []string
	require.NoError(t, m.Subscribe(TopicRawSignals, 1, func(msg Message) {
		got = append(got, msg.Topic())
	}))

	require.NoError(t, m.Publish(RawSignalTopic("sleep", "u1"), 1, false, []byte(`{}`)))
	require.NoError(t, m.Publish(DailyResultTopic("u1"), 1, true, []byte(`{}`)))

	assert.Equal(t, []string{"wellness/raw/sleep/u1"}, got)
	assert.Len(t, m.Published(), 2)
}
