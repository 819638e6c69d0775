package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus returns the registry of a long running process: build info,
// Go runtime and process collectors, plus any extra collectors given
// (e.g. the postgres pool stats of the dev backend).
func SetupPrometheus(extra ...prometheus.Collector) *prometheus.Registry {
	return NewRegistry(append([]prometheus.Collector{
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}, extra...)...)
}

// NewRegistry returns a registry holding only the given collectors.
// The CLI lives for one command, runtime collectors would be noise there.
func NewRegistry(cs ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()
	if len(cs) > 0 {
		promRegistry.MustRegister(cs...)
	}
	return promRegistry
}
