// Package retry re-runs operations that fail with transient PostgreSQL
// errors, waiting between attempts with exponential backoff.
//
// csvload uses it in two places: opening the connection pool (bounded by
// connection.connect_retries) and committing a chunk transaction, where a
// serialization failure or a dropped connection rolls the chunk back and the
// whole transaction can be replayed.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3, retry.WithInitialDelay(200*time.Millisecond)),
//	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
//	    logger.Warn("retrying in %s: %v", delay, err)
//	})
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return writeChunk(ctx)
//	})
//
// A strategy with zero MaxAttempts runs the operation exactly once. Fatal
// errors (syntax errors, constraint violations, bad credentials) are returned
// immediately.
package retry
