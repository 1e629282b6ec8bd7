package mux

import "github.com/prometheus/client_golang/prometheus"

var (
	framesEncoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synapse",
		Subsystem: "mux",
		Name:      "frames_encoded_total",
		Help:      "Frames written, by message type.",
	}, []string{"type"})

	framesDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synapse",
		Subsystem: "mux",
		Name:      "frames_decoded_total",
		Help:      "Frames read, by message type.",
	}, []string{"type"})

	connectionsDisposed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "synapse",
		Subsystem: "mux",
		Name:      "connections_disposed_total",
		Help:      "Connections disposed locally or by a read loop fault.",
	})
)

// Collectors returns the package metrics for registration with a
// prometheus.Registerer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{framesEncoded, framesDecoded, connectionsDisposed}
}
