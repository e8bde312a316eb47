package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	"github.com/viraldeals/viraldeals-backend/pkg/metrics"
)

const gatewayLabel = "phonepe"

// Outcome is the terminal result of one polling run.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeExpired   Outcome = "expired"
	OutcomeCancelled Outcome = "cancelled"
)

// StatusChecker asks the gateway for a payment's current state.
type StatusChecker interface {
	CheckStatus(ctx context.Context, merchantTransactionID string) (GatewayState, error)
}

// Poller drives a bounded status-polling loop for one payment. It issues a
// fixed number of checks at a fixed interval, then one last check after a
// grace period before declaring the payment expired. Cancelling the context
// stops the loop immediately.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
	attempts int
	grace    time.Duration
	metrics  *metrics.PaymentPollMetrics
	logg     *logger.Logger

	// after is swapped in tests to avoid real waits
	after func(d time.Duration) <-chan time.Time
}

// NewPoller builds a poller from configuration.
func NewPoller(checker StatusChecker, cfg config.PhonePeConfig, pollMetrics *metrics.PaymentPollMetrics, logg *logger.Logger) (*Poller, error) {
	if checker == nil {
		return nil, fmt.Errorf("status checker is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = 20
	}
	return &Poller{
		checker:  checker,
		interval: interval,
		attempts: attempts,
		grace:    cfg.PollGrace,
		metrics:  pollMetrics,
		logg:     logg,
		after:    time.After,
	}, nil
}

// Poll runs the loop to a terminal outcome. The returned error is non-nil
// only for cancellation; gateway errors are treated as pending and retried
// within the attempt budget.
func (p *Poller) Poll(ctx context.Context, merchantTransactionID string) (Outcome, error) {
	ctx = p.logg.WithTransactionID(ctx, merchantTransactionID)
	started := time.Now()

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if done := p.check(ctx, merchantTransactionID); done != "" {
			return p.finish(ctx, done, started), cancellationErr(ctx, done)
		}

		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return p.finish(ctx, OutcomeCancelled, started), ctx.Err()
		case <-p.after(p.interval):
		}
	}

	// one final look after the grace period before giving up on the payment
	if p.grace > 0 {
		select {
		case <-ctx.Done():
			return p.finish(ctx, OutcomeCancelled, started), ctx.Err()
		case <-p.after(p.grace):
		}
		if done := p.check(ctx, merchantTransactionID); done != "" {
			return p.finish(ctx, done, started), cancellationErr(ctx, done)
		}
	}

	return p.finish(ctx, OutcomeExpired, started), nil
}

// check performs one status request and returns the terminal outcome, or
// empty while the payment is still pending.
func (p *Poller) check(ctx context.Context, merchantTransactionID string) Outcome {
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	p.metrics.IncAttempt(gatewayLabel)

	state, err := p.checker.CheckStatus(ctx, merchantTransactionID)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
		p.logg.Warn(ctx, "payment status check failed, will retry")
		return ""
	}

	switch state {
	case GatewayStateSuccess:
		return OutcomeSuccess
	case GatewayStateFailed:
		return OutcomeFailed
	case GatewayStateExpired:
		return OutcomeExpired
	default:
		return ""
	}
}

func cancellationErr(ctx context.Context, outcome Outcome) error {
	if outcome == OutcomeCancelled {
		return ctx.Err()
	}
	return nil
}

func (p *Poller) finish(ctx context.Context, outcome Outcome, started time.Time) Outcome {
	p.metrics.ObserveOutcome(gatewayLabel, string(outcome), time.Since(started))
	p.logg.Info(p.logg.WithField(ctx, "outcome", string(outcome)), "payment polling finished")
	return outcome
}
