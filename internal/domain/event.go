package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// HeartbeatCountryCode is the sentinel the upstream feed uses for liveness
// messages that carry no strike data.
const HeartbeatCountryCode = "ZZ"

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StrikeEvent is one decoded upstream report, either a real strike or a
// heartbeat. For heartbeats only CountryCode is meaningful.
type StrikeEvent struct {
	CountryCode   string
	Pos           Coordinate
	PeakCurrentKA float64
	TimeUTC       string    // upstream timestamp string, passed through verbatim
	OccurredAt    time.Time // TimeUTC parsed, normalized to UTC
	ReceivedAt    time.Time
}

// IsHeartbeat reports whether the event is a liveness signal rather than a
// real strike.
func (e StrikeEvent) IsHeartbeat() bool {
	return e.CountryCode == HeartbeatCountryCode
}

// Wire shape of a feed message. Pointer fields distinguish absent from
// zero-valued so validation can fail closed on missing required fields.
type strikeMessage struct {
	CountryCode *string     `json:"countryCode"`
	Pos         *Coordinate `json:"pos"`
	Meta        *strikeMeta `json:"meta"`
	Time        *string     `json:"time"`
}

type strikeMeta struct {
	PeakCurrent *float64 `json:"peakCurrent"`
}

// ParseStrikeMessage decodes and validates a single feed payload. Heartbeats
// need only a countryCode; real strikes must carry pos, meta.peakCurrent, and
// a parseable time or the message is rejected.
func ParseStrikeMessage(data []byte) (StrikeEvent, error) {
	var msg strikeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return StrikeEvent{}, fmt.Errorf("decode strike message: %w", err)
	}

	if msg.CountryCode == nil {
		return StrikeEvent{}, errors.New("strike message missing countryCode")
	}

	event := StrikeEvent{
		CountryCode: *msg.CountryCode,
		ReceivedAt:  clock.Now(),
	}
	if event.IsHeartbeat() {
		return event, nil
	}

	if msg.Pos == nil {
		return StrikeEvent{}, errors.New("strike message missing pos")
	}
	if msg.Meta == nil || msg.Meta.PeakCurrent == nil {
		return StrikeEvent{}, errors.New("strike message missing meta.peakCurrent")
	}
	if msg.Time == nil || *msg.Time == "" {
		return StrikeEvent{}, errors.New("strike message missing time")
	}

	occurredAt, err := time.Parse(time.RFC3339, *msg.Time)
	if err != nil {
		return StrikeEvent{}, fmt.Errorf("strike message time %q: %w", *msg.Time, err)
	}

	event.Pos = *msg.Pos
	event.PeakCurrentKA = *msg.Meta.PeakCurrent
	event.TimeUTC = *msg.Time
	event.OccurredAt = occurredAt.UTC()
	return event, nil
}
