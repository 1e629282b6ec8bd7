package udp

import "github.com/prometheus/client_golang/prometheus"

var (
	datagramsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "synapse",
		Subsystem: "udp",
		Name:      "datagrams_received_total",
		Help:      "Datagrams received by client streams and demultiplexers.",
	})
	datagramsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "synapse",
		Subsystem: "udp",
		Name:      "datagrams_sent_total",
		Help:      "Datagrams sent by client and peer streams.",
	})
	peersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "synapse",
		Subsystem: "udp",
		Name:      "peers",
		Help:      "Peers known to open demultiplexers.",
	})
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{datagramsReceived, datagramsSent, peersActive}
}
