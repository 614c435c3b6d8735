package domain

import "time"

// AlertRecord is one persisted notification that one or more watched
// locations were struck. The JSON field names are the ledger file's wire
// format and are shared with the HTTP read surface.
type AlertRecord struct {
	Number      int      `json:"number"`
	Cities      []string `json:"cities"`
	Timestamp   string   `json:"timestamp"` // originating strike's time, verbatim
	PeakCurrent float64  `json:"peakCurrent"`
}

// Day identifies a UTC calendar day, formatted as "2006-01-02". Deduplication
// is keyed by (location, Day): a location is alerted at most once per day,
// judged by the strike's own timestamp rather than processing time.
type Day string

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(time.DateOnly))
}

// ParseDay extracts the UTC calendar day from a stored timestamp string.
// Returns false when the timestamp does not parse; such records never match a
// dedup lookup.
func ParseDay(timestamp string) (Day, bool) {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return "", false
	}
	return DayOf(t), true
}
