package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Messages persisted by the ingress API.",
	})
	PushesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_ws_pushes_delivered_total",
		Help: "Message events enqueued to live sessions.",
	})
	PushesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_ws_pushes_dropped_total",
		Help: "Message events dropped because a session buffer was full.",
	})
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_ws_active_sessions",
		Help: "Currently registered websocket sessions.",
	})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
