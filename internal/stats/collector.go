package stats

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vvka-141/csvload/pkg/csvload"
)

// Failure describes one file or folder that did not load.
type Failure struct {
	Path    string
	Table   string
	Reason  string
	Message string
}

// Snapshot is a point-in-time copy of the run statistics.
type Snapshot struct {
	RunID   uuid.UUID
	Started time.Time
	Elapsed time.Duration

	FilesProcessed int
	TablesCreated  int
	RowsInserted   int64
	Errors         int

	// PartialRows counts rows committed by files that failed after their
	// first chunk. They are not part of RowsInserted.
	PartialRows int64

	// FoldersSkipped counts mapped folders that were not walked because
	// their schema could not be provisioned.
	FoldersSkipped int

	Failures []Failure
}

// Clean reports whether the run finished without file or folder errors.
func (s Snapshot) Clean() bool {
	return s.Errors == 0 && s.FoldersSkipped == 0
}

// Collector accumulates run statistics. It is safe for concurrent use.
type Collector struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time

	registry       *prometheus.Registry
	filesTotal     *prometheus.CounterVec
	rowsTotal      prometheus.Counter
	tablesTotal    prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	fileDuration   prometheus.Histogram
	lastRunSeconds prometheus.Gauge
}

// NewCollector starts the statistics of a run identified by runID. The run id
// appears in the Snapshot only, never as a metric label.
func NewCollector(runID uuid.UUID) *Collector {
	return newCollector(runID, time.Now)
}

func newCollector(runID uuid.UUID, now func() time.Time) *Collector {
	c := &Collector{
		now:      now,
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvload_files_total",
			Help: "Number of CSV files handled, by outcome",
		}, []string{"outcome"}),
		rowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvload_rows_inserted_total",
			Help: "Number of rows inserted by completely loaded files",
		}),
		tablesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvload_tables_created_total",
			Help: "Number of tables created or replaced",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvload_errors_total",
			Help: "Number of failed files and skipped folders, by reason",
		}, []string{"reason"}),
		fileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "csvload_file_duration_seconds",
			Help:    "Time taken to load one file",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~45min
		}),
		lastRunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "csvload_last_run_timestamp_seconds",
			Help: "Unix time the run started",
		}),
	}

	c.registry.MustRegister(c.filesTotal, c.rowsTotal, c.tablesTotal, c.errorsTotal, c.fileDuration, c.lastRunSeconds)

	c.snap.RunID = runID
	c.snap.Started = now()
	c.lastRunSeconds.Set(float64(c.snap.Started.Unix()))

	return c
}

// RecordFile folds the result of one file into the statistics.
//
// A completely loaded file counts as processed and adds its rows; it adds a
// table only if at least one chunk was written. A failed file counts as one
// error, whatever it left behind.
func (c *Collector) RecordFile(res csvload.FileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileDuration.Observe(res.Duration.Seconds())

	if res.Succeeded() {
		c.snap.FilesProcessed++
		c.snap.RowsInserted += res.Rows
		c.filesTotal.WithLabelValues("loaded").Inc()
		c.rowsTotal.Add(float64(res.Rows))
		if res.TableCreated() {
			c.snap.TablesCreated++
			c.tablesTotal.Inc()
		}
		return
	}

	c.snap.Errors++
	c.snap.PartialRows += res.Rows
	c.filesTotal.WithLabelValues("failed").Inc()
	c.errorsTotal.WithLabelValues(res.Reason.String()).Inc()

	msg := ""
	if res.Err != nil {
		msg = res.Err.Error()
	}
	c.snap.Failures = append(c.snap.Failures, Failure{
		Path:    res.Path,
		Table:   res.Table.String(),
		Reason:  res.Reason.String(),
		Message: msg,
	})
}

// RecordFolderSkipped notes a mapped folder that was not walked because its
// schema could not be provisioned or its directory could not be listed.
// A missing folder is only a warning and is not recorded.
func (c *Collector) RecordFolderSkipped(folder csvload.FolderMapping, path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reason := csvload.FailureRead.String()
	if errors.Is(err, csvload.ErrSchemaProvisioning) {
		reason = "schema"
	}

	c.snap.FoldersSkipped++
	c.errorsTotal.WithLabelValues(reason).Inc()

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.snap.Failures = append(c.snap.Failures, Failure{
		Path:    path,
		Table:   folder.Schema,
		Reason:  reason,
		Message: msg,
	})
}

// Snapshot returns a copy of the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.snap
	s.Elapsed = c.now().Sub(s.Started)
	s.Failures = append([]Failure(nil), c.snap.Failures...)
	return s
}
