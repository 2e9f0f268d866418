package stats

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer exposes the collector's metrics registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes the run metrics in the Prometheus text format to
// path, atomically, for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
