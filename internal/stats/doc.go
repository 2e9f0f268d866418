// Package stats accumulates the statistics of one load run.
//
// The Collector is fed by the ingestion pipeline as each file finishes and
// read once at the end of the run through Snapshot. The same counters are
// kept as Prometheus metrics in a private registry so a run can leave a
// node_exporter textfile behind (WriteTextfile).
package stats
