// Command mockfeed runs a development strike feed: a WebSocket server that
// checks Basic auth and emits synthetic strikes around the catalog locations
// plus periodic heartbeats, in the upstream wire format. Point the alerter's
// FEED_URL at it to exercise the full pipeline without upstream credentials.
//
// Usage:
//
//	go run ./cmd/mockfeed -addr :8081 -catalog cities.json \
//	  -username mock -password mock
package main

import (
	"crypto/subtle"
	"encoding/json"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/couchcryptid/lightning-alert-service/internal/catalog"
	"github.com/couchcryptid/lightning-alert-service/internal/domain"
)

type server struct {
	username string
	password string
	cat      *catalog.Catalog
	strike   time.Duration
	beat     time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	catalogPath := flag.String("catalog", "cities.json", "watched-location catalog file")
	username := flag.String("username", "mock", "expected Basic auth username")
	password := flag.String("password", "mock", "expected Basic auth password")
	strikeInterval := flag.Duration("strike-interval", 2*time.Second, "delay between synthetic strikes")
	heartbeatInterval := flag.Duration("heartbeat-interval", 10*time.Second, "delay between heartbeats")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", *catalogPath, "error", err)
		os.Exit(1)
	}

	s := &server{
		username: *username,
		password: *password,
		cat:      cat,
		strike:   *strikeInterval,
		beat:     *heartbeatInterval,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)

	logger.Info("mock feed listening", "addr", *addr, "locations", cat.Len())
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("mock feed server error", "error", err)
		os.Exit(1)
	}
}

func (s *server) handleFeed(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok ||
		subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) != 1 ||
		subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) != 1 {
		w.Header().Set("WWW-Authenticate", `Basic realm="mockfeed"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	strikes := time.NewTicker(s.strike)
	defer strikes.Stop()
	heartbeats := time.NewTicker(s.beat)
	defer heartbeats.Stop()

	for {
		var payload map[string]any
		select {
		case <-strikes.C:
			payload = s.syntheticStrike()
		case <-heartbeats.C:
			payload = map[string]any{"countryCode": domain.HeartbeatCountryCode}
		case <-r.Context().Done():
			return
		}

		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("marshal payload", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Info("client disconnected", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

// syntheticStrike places a strike near a random catalog location with enough
// positional jitter that some land outside the 10 km geofence, and a peak
// current spread that straddles common threshold settings.
func (s *server) syntheticStrike() map[string]any {
	locations := s.cat.Locations()
	loc := locations[rand.Intn(len(locations))]

	// Up to roughly ±20 km in each axis.
	jitter := func() float64 { return (rand.Float64() - 0.5) * 0.36 }
	peak := rand.Float64() * 12000
	if rand.Intn(2) == 0 {
		peak = -peak
	}

	return map[string]any{
		"countryCode": "SE",
		"pos": map[string]float64{
			"lat": loc.Lat + jitter(),
			"lon": loc.Lon + jitter(),
		},
		"meta": map[string]float64{"peakCurrent": peak},
		"time": time.Now().UTC().Format(time.RFC3339),
	}
}
