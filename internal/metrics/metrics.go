// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts events accepted by the ingest pipeline.
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loglite_events_ingested_total",
		Help: "Events written to the primary store and search index.",
	})

	// EventsReaped counts events removed by the TTL reaper.
	EventsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loglite_events_reaped_total",
		Help: "Expired events deleted from the primary store.",
	})

	// TailLinesRead counts raw lines consumed from tailed files.
	TailLinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loglite_tail_lines_read_total",
		Help: "Lines read past persisted offsets by the file tailer.",
	})
)
