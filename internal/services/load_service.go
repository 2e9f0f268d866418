package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/csvload/internal/db"
	"github.com/vvka-141/csvload/internal/db/manager"
	"github.com/vvka-141/csvload/internal/files/filesystem"
	"github.com/vvka-141/csvload/internal/files/loader"
	"github.com/vvka-141/csvload/internal/files/scanner"
	"github.com/vvka-141/csvload/internal/retry"
	"github.com/vvka-141/csvload/internal/stats"
	"github.com/vvka-141/csvload/pkg/csvload"
)

// Hooks observe a run while it progresses. Every field is optional.
type Hooks struct {
	OnFolder func(scanner.FolderPlan)
	OnChunk  func(loader.ChunkProgress)
	OnFile   func(csvload.FileResult)
}

// LoadService runs one complete load: connect, walk the folder mapping,
// close. Statistics go to the caller's collector.
type LoadService struct {
	connectorFactory csvload.ConnectorFactory
	fsProvider       filesystem.FileSystemProvider
	logger           csvload.Logger
	hooks            Hooks
}

// NewLoadService creates a load service.
// Panics if any dependency is nil.
func NewLoadService(
	connectorFactory csvload.ConnectorFactory,
	fsProvider filesystem.FileSystemProvider,
	logger csvload.Logger,
) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LoadService{
		connectorFactory: connectorFactory,
		fsProvider:       fsProvider,
		logger:           logger,
	}
}

// WithHooks returns a copy of the service that reports progress to hooks.
func (s *LoadService) WithHooks(hooks Hooks) *LoadService {
	clone := *s
	clone.hooks = hooks
	return &clone
}

// Load executes the run described by runCfg against the database described
// by connCfg.
//
// A connection failure aborts before any file is read and wraps
// csvload.ErrConnectionFailed. File and folder failures do not abort the
// run; they are recorded in collector and in the returned results. An
// interrupted run returns the context error together with the results
// gathered so far. The connection is closed on every path.
func (s *LoadService) Load(
	ctx context.Context,
	runCfg csvload.RunConfig,
	connCfg *csvload.ConnectionConfig,
	collector *stats.Collector,
) ([]csvload.FolderResult, error) {
	if collector == nil {
		panic("collector cannot be nil")
	}
	if err := runCfg.Validate(); err != nil {
		return nil, err
	}

	if runCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runCfg.Timeout)
		defer cancel()
	}

	session := db.NewConnectionManager(connCfg, s.connectorFactory, s.logger)
	defer session.Close()

	if err := session.Connect(ctx); err != nil {
		return nil, err
	}

	runner := s.newRunner(runCfg, session.Conn(), collector)

	results, err := runner.ProcessAll(ctx)
	if err != nil {
		s.logger.Warn("Run interrupted, no further files will be loaded: %v", err)
		return results, fmt.Errorf("run interrupted: %w", err)
	}
	return results, nil
}

func (s *LoadService) newRunner(runCfg csvload.RunConfig, conn csvload.DBConnection, collector *stats.Collector) *Runner {
	writer := loader.NewPgWriter(conn)
	if runCfg.WriteRetries > 0 {
		writer = writer.WithRetry(newWriteExecutor(runCfg.WriteRetries, s.logger))
	}

	var recorder loader.Recorder = collector
	if s.hooks.OnFile != nil {
		recorder = &hookedRecorder{next: collector, onFile: s.hooks.OnFile}
	}

	ld := loader.NewLoader(s.fsProvider, writer, recorder, loader.Options{
		ChunkSize: runCfg.ChunkSize,
		Encoding:  runCfg.Encoding,
	}, s.logger)
	if s.hooks.OnChunk != nil {
		ld = ld.WithOnChunk(s.hooks.OnChunk)
	}

	var provisioner csvload.SchemaProvisioner
	if runCfg.CreateSchemas {
		provisioner = manager.New(conn, s.logger)
	}

	runner := NewRunner(runCfg, scanner.NewScannerWithFS(s.fsProvider), provisioner, ld, collector, s.logger)
	if s.hooks.OnFolder != nil {
		runner = runner.WithOnFolder(s.hooks.OnFolder)
	}
	return runner
}

// newWriteExecutor replays chunk transactions that failed transiently.
func newWriteExecutor(retries int, logger csvload.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(retries,
		retry.WithInitialDelay(csvload.DefaultRetryInitialDelay),
		retry.WithMaxDelay(csvload.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("Chunk write attempt %d failed, retrying in %s: %v", attempt+1, delay.Round(time.Millisecond), err)
		})
}

type hookedRecorder struct {
	next   loader.Recorder
	onFile func(csvload.FileResult)
}

func (r *hookedRecorder) RecordFile(res csvload.FileResult) {
	r.next.RecordFile(res)
	r.onFile(res)
}
