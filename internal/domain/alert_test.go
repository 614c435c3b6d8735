package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayOf_NormalizesToUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	// 00:30 local on June 13 is still June 12 in UTC.
	assert.Equal(t, Day("2024-06-12"), DayOf(time.Date(2024, time.June, 13, 0, 30, 0, 0, cet)))
}

func TestParseDay(t *testing.T) {
	day, ok := ParseDay("2024-06-12T23:59:59Z")
	assert.True(t, ok)
	assert.Equal(t, Day("2024-06-12"), day)

	_, ok = ParseDay("not-a-timestamp")
	assert.False(t, ok)
}
