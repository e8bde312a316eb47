package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

type scriptedChecker struct {
	states []GatewayState
	errs   []error
	calls  int
}

func (c *scriptedChecker) CheckStatus(context.Context, string) (GatewayState, error) {
	i := c.calls
	c.calls++
	if i >= len(c.states) {
		i = len(c.states) - 1
	}
	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	return c.states[i], err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestPoller(t *testing.T, checker StatusChecker, attempts int, grace time.Duration) *Poller {
	t.Helper()
	poller, err := NewPoller(checker, config.PhonePeConfig{
		PollInterval: time.Millisecond,
		PollAttempts: attempts,
		PollGrace:    grace,
	}, nil, testLogger())
	require.NoError(t, err)
	// fire timers immediately so tests never sleep
	poller.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	return poller
}

func TestPollReturnsSuccessWhenGatewayCompletes(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{states: []GatewayState{GatewayStatePending, GatewayStatePending, GatewayStateSuccess}}
	poller := newTestPoller(t, checker, 10, 0)

	outcome, err := poller.Poll(context.Background(), "VD-TEST-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 3, checker.calls)
}

func TestPollStopsOnFailure(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{states: []GatewayState{GatewayStateFailed}}
	poller := newTestPoller(t, checker, 10, 0)

	outcome, err := poller.Poll(context.Background(), "VD-TEST-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, 1, checker.calls)
}

func TestPollExpiresAfterAttemptBudget(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{states: []GatewayState{GatewayStatePending}}
	poller := newTestPoller(t, checker, 5, 0)

	outcome, err := poller.Poll(context.Background(), "VD-TEST-3")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, outcome)
	assert.Equal(t, 5, checker.calls)
}

func TestPollGraceCheckCanStillSucceed(t *testing.T) {
	t.Parallel()

	// pending through the whole budget, success on the grace-period check
	checker := &scriptedChecker{states: []GatewayState{
		GatewayStatePending, GatewayStatePending, GatewayStatePending, GatewayStateSuccess,
	}}
	poller := newTestPoller(t, checker, 3, time.Millisecond)

	outcome, err := poller.Poll(context.Background(), "VD-TEST-4")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 4, checker.calls)
}

func TestPollTreatsCheckErrorsAsPending(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{
		states: []GatewayState{GatewayStatePending, GatewayStateSuccess},
		errs:   []error{errors.New("gateway hiccup"), nil},
	}
	poller := newTestPoller(t, checker, 10, 0)

	outcome, err := poller.Poll(context.Background(), "VD-TEST-5")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestPollHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &scriptedChecker{states: []GatewayState{GatewayStatePending}}
	poller := newTestPoller(t, checker, 10, 0)

	outcome, err := poller.Poll(ctx, "VD-TEST-6")
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, checker.calls, "no gateway calls after cancellation")
}
