package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrikeMessage_ValidStrike(t *testing.T) {
	received := time.Date(2024, time.June, 12, 14, 3, 30, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(received))
	t.Cleanup(func() { SetClock(nil) })

	data := []byte(`{"countryCode":"SE","pos":{"lat":59.3293,"lon":18.0686},"meta":{"peakCurrent":5400},"time":"2024-06-12T14:03:11Z"}`)
	event, err := ParseStrikeMessage(data)

	require.NoError(t, err)
	assert.False(t, event.IsHeartbeat())
	assert.Equal(t, "SE", event.CountryCode)
	assert.Equal(t, 59.3293, event.Pos.Lat)
	assert.Equal(t, 18.0686, event.Pos.Lon)
	assert.Equal(t, 5400.0, event.PeakCurrentKA)
	assert.Equal(t, "2024-06-12T14:03:11Z", event.TimeUTC)
	assert.Equal(t, time.Date(2024, time.June, 12, 14, 3, 11, 0, time.UTC), event.OccurredAt)
	assert.Equal(t, received, event.ReceivedAt)
}

func TestParseStrikeMessage_NegativePeakCurrent(t *testing.T) {
	data := []byte(`{"countryCode":"SE","pos":{"lat":59.0,"lon":18.0},"meta":{"peakCurrent":-7200},"time":"2024-06-12T14:03:11Z"}`)
	event, err := ParseStrikeMessage(data)

	require.NoError(t, err)
	assert.Equal(t, -7200.0, event.PeakCurrentKA)
}

func TestParseStrikeMessage_Heartbeat(t *testing.T) {
	// Heartbeats carry no strike fields; only the sentinel is required.
	event, err := ParseStrikeMessage([]byte(`{"countryCode":"ZZ"}`))

	require.NoError(t, err)
	assert.True(t, event.IsHeartbeat())
	assert.Empty(t, event.TimeUTC)
}

func TestParseStrikeMessage_FailsClosed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"missing countryCode", `{"pos":{"lat":1,"lon":2},"meta":{"peakCurrent":50},"time":"2024-06-12T14:03:11Z"}`},
		{"missing pos", `{"countryCode":"SE","meta":{"peakCurrent":50},"time":"2024-06-12T14:03:11Z"}`},
		{"missing meta", `{"countryCode":"SE","pos":{"lat":1,"lon":2},"time":"2024-06-12T14:03:11Z"}`},
		{"missing peakCurrent", `{"countryCode":"SE","pos":{"lat":1,"lon":2},"meta":{},"time":"2024-06-12T14:03:11Z"}`},
		{"missing time", `{"countryCode":"SE","pos":{"lat":1,"lon":2},"meta":{"peakCurrent":50}}`},
		{"empty time", `{"countryCode":"SE","pos":{"lat":1,"lon":2},"meta":{"peakCurrent":50},"time":""}`},
		{"unparseable time", `{"countryCode":"SE","pos":{"lat":1,"lon":2},"meta":{"peakCurrent":50},"time":"yesterday"}`},
		{"mistyped peakCurrent", `{"countryCode":"SE","pos":{"lat":1,"lon":2},"meta":{"peakCurrent":"big"},"time":"2024-06-12T14:03:11Z"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStrikeMessage([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}
