package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/emergentlab/trgi/internal/sim"
)

// MetricsStreamHandler pushes the latest global metrics over a websocket at
// a fixed cadence, the live feed an external visualizer animates from.
type MetricsStreamHandler struct {
	runner   *sim.Runner
	interval time.Duration
	log      zerolog.Logger
}

// NewMetricsStreamHandler creates a metrics stream handler with a 500ms
// push interval.
func NewMetricsStreamHandler(runner *sim.Runner, log zerolog.Logger) *MetricsStreamHandler {
	return &MetricsStreamHandler{
		runner:   runner,
		interval: 500 * time.Millisecond,
		log:      log.With().Str("handler", "metrics_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/metrics/ws, upgrading to a websocket and
// streaming metrics until the client goes away.
func (h *MetricsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	h.log.Info().Str("remote", r.RemoteAddr).Msg("Metrics stream connected")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	ctx := r.Context()
	lastStep := -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.runner.Latest()
			if m.Step == lastStep {
				continue // nothing new since the last push
			}
			lastStep = m.Step

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, m)
			cancel()
			if err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
					h.log.Debug().Err(err).Msg("Metrics stream write failed")
				}
				return
			}
		}
	}
}
