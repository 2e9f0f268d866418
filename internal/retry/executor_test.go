package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConnectionFailure = &pgconn.PgError{Code: "08006", Message: "connection failure"}

// flakyOperation fails with err until it has been called failures times.
type flakyOperation struct {
	calls    int
	failures int
	err      error
}

func (f *flakyOperation) run(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func fastExecutor(maxAttempts int) *Executor {
	return NewExecutor(
		NewPostgreSQLErrorClassifier(),
		NewExponentialBackoff(maxAttempts, WithInitialDelay(time.Millisecond), WithJitter(0)),
	)
}

func TestExecutor_SuccessOnFirstAttempt(t *testing.T) {
	op := &flakyOperation{}

	require.NoError(t, fastExecutor(3).Execute(context.Background(), op.run))
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_SuccessAfterTransientFailures(t *testing.T) {
	op := &flakyOperation{failures: 3, err: errConnectionFailure}

	require.NoError(t, fastExecutor(5).Execute(context.Background(), op.run))
	assert.Equal(t, 4, op.calls)
}

func TestExecutor_FatalErrorIsNotRetried(t *testing.T) {
	fatal := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type bigint"}
	op := &flakyOperation{failures: 10, err: fatal}

	err := fastExecutor(5).Execute(context.Background(), op.run)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "22P02", pgErr.Code)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_ExhaustedRetries(t *testing.T) {
	op := &flakyOperation{failures: 100, err: errConnectionFailure}

	err := fastExecutor(3).Execute(context.Background(), op.run)

	require.ErrorIs(t, err, errConnectionFailure)
	assert.Equal(t, 4, op.calls, "one attempt plus three retries")
}

func TestExecutor_ZeroAttemptsRunsOnce(t *testing.T) {
	op := &flakyOperation{failures: 100, err: errConnectionFailure}

	err := fastExecutor(0).Execute(context.Background(), op.run)

	require.Error(t, err)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_TransientThenFatal(t *testing.T) {
	calls := 0
	fatal := errors.New("relation does not exist")
	err := fastExecutor(5).Execute(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errConnectionFailure
		}
		return fatal
	})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, calls)
}

func TestExecutor_ContextCancelledDuringBackoff(t *testing.T) {
	executor := NewExecutor(
		NewPostgreSQLErrorClassifier(),
		NewExponentialBackoff(10, WithInitialDelay(time.Second), WithJitter(0)),
	)
	op := &flakyOperation{failures: 100, err: errConnectionFailure}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := executor.Execute(ctx, op.run)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_OnRetryCallback(t *testing.T) {
	type call struct {
		attempt int
		delay   time.Duration
	}
	var calls []call

	base := fastExecutor(5)
	executor := base.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		assert.ErrorIs(t, err, errConnectionFailure)
		calls = append(calls, call{attempt, delay})
	})
	op := &flakyOperation{failures: 2, err: errConnectionFailure}

	require.NoError(t, executor.Execute(context.Background(), op.run))
	assert.Equal(t, []call{{0, time.Millisecond}, {1, 2 * time.Millisecond}}, calls)

	// The original executor has no callback.
	calls = nil
	require.NoError(t, base.Execute(context.Background(), (&flakyOperation{failures: 1, err: errConnectionFailure}).run))
	assert.Empty(t, calls)
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, NewExponentialBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), nil) })
}
