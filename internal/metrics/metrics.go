package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	MessagesTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "bookfeed_stream_messages_total", Help: "Raw messages received on the stream"})
	ParseErrorsTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "bookfeed_parse_errors_total", Help: "Messages dropped as malformed"})
	TradesTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "bookfeed_trades_total", Help: "Trade events appended to the tape"})
	DepthUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "bookfeed_depth_updates_total", Help: "Depth deltas merged into the book"})
	ReconnectsTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "bookfeed_ws_reconnects_total", Help: "Websocket reconnect attempts"})
	ConnectionUp      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "bookfeed_connection_up", Help: "1 while the stream connection is open"})
	BookLevels        = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "bookfeed_book_levels", Help: "Resting levels currently in the book by side"}, []string{"side"})
)

func Init(logger *logrus.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		MessagesTotal, ParseErrorsTotal, TradesTotal, DepthUpdatesTotal,
		ReconnectsTotal, ConnectionUp, BookLevels,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
