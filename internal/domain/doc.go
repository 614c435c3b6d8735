// Package domain models lightning strike reports and derived alerts.
//
// # Data Source
//
// Strike reports arrive over a long-lived WebSocket feed (SMHI-style). Each
// message is a self-contained JSON object:
//
//	{"countryCode": "SE", "pos": {"lat": 59.33, "lon": 18.07},
//	 "meta": {"peakCurrent": 5400}, "time": "2024-06-12T14:03:11Z"}
//
// A countryCode of "ZZ" marks a heartbeat: a liveness-only message with no
// strike data. Heartbeat discrimination is the pipeline's job; parsing only
// relaxes field requirements for them.
//
// # Units and Conventions
//
// peakCurrent is in kiloamperes and is signed: negative values indicate
// negative-polarity strokes. Deployed minimum-intensity thresholds vary by
// environment (10 kA against mock feeds, 5000 against production), so the
// threshold is configuration, never a constant.
//
// The time field is RFC 3339. It is passed through verbatim to alert records
// so the ledger reflects exactly what upstream reported; the parsed form is
// used only for UTC calendar-day deduplication.
//
// # Geofencing
//
// Proximity between a strike and a watched location uses the haversine
// great-circle distance with a mean Earth radius of 6371 km. The radius test
// is boundary-inclusive. See [DistanceKm] and [WithinRadius].
package domain
