package verification

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Policy bounds a poll loop.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

var (
	DefaultGSTPolicy  = Policy{MaxAttempts: 20, Delay: 500 * time.Millisecond}
	DefaultBankPolicy = Policy{MaxAttempts: 30, Delay: 2 * time.Second}
)

// TimedOutMessage is shown when the budget runs out while still in progress.
const TimedOutMessage = "Verification is taking longer than expected, please try again later"

// Outcome is the result of one poll step.
type Outcome struct {
	Continue bool
	Status   Status
	Result   *Result
	Err      error
}

// Poller drives PollState through the provider's status reports.
type Poller struct {
	provider Provider
	policies map[SubjectType]Policy
	logger   *zap.Logger
	now      func() time.Time
}

// NewPoller creates a Poller. Subject types missing from policies use the
// package defaults.
func NewPoller(provider Provider, policies map[SubjectType]Policy, logger *zap.Logger) *Poller {
	merged := map[SubjectType]Policy{
		SubjectGST:  DefaultGSTPolicy,
		SubjectBank: DefaultBankPolicy,
	}
	for k, v := range policies {
		merged[k] = v
	}
	return &Poller{provider: provider, policies: merged, logger: logger, now: time.Now}
}

// Policy returns the poll policy for a subject type.
func (p *Poller) Policy(subjectType SubjectType) Policy {
	return p.policies[subjectType]
}

// Poll performs a single attempt and advances state. A terminal state is
// returned as-is without contacting the provider.
func (p *Poller) Poll(ctx context.Context, subjectType SubjectType, state *PollState) Outcome {
	if state.Status.Terminal() {
		return Outcome{Status: state.Status, Result: state.Result, Err: terminalErr(state)}
	}
	if state.MaxAttempts <= 0 {
		state.MaxAttempts = p.Policy(subjectType).MaxAttempts
	}

	status, err := p.provider.FetchStatus(ctx, subjectType, state.RequestID)
	state.AttemptCount++
	state.UpdatedAt = p.now().UTC()

	log := p.logger.With(
		zap.String("request_id", state.RequestID),
		zap.String("subject_type", string(subjectType)),
		zap.Int("attempt", state.AttemptCount),
	)

	if err != nil {
		if !IsTransient(err) && ctx.Err() == nil {
			log.Warn("unexpected poll error, treating as transient", zap.Error(err))
		} else {
			log.Debug("transient poll error", zap.Error(err))
		}
		return p.keepGoing(state, err)
	}

	switch status.Status {
	case StatusCompleted:
		if status.Result == nil {
			return p.keepGoing(state, &MalformedResponseError{Detail: "completed task without result"})
		}
		if bank := status.Result.Bank; bank != nil && !bank.AccountExists {
			state.Status = StatusFailed
			state.Message = "bank account does not exist"
			log.Info("bank verification rejected: account does not exist")
			return Outcome{Status: StatusFailed, Err: &VerificationFailedError{RequestID: state.RequestID, Reason: state.Message}}
		}
		state.Status = StatusCompleted
		state.Result = status.Result
		state.Message = ""
		log.Info("verification completed")
		return Outcome{Status: StatusCompleted, Result: status.Result}
	case StatusFailed:
		state.Status = StatusFailed
		state.Message = status.Message
		log.Info("verification failed", zap.String("reason", status.Message))
		return Outcome{Status: StatusFailed, Err: &VerificationFailedError{RequestID: state.RequestID, Reason: status.Message}}
	default:
		return p.keepGoing(state, nil)
	}
}

func (p *Poller) keepGoing(state *PollState, lastErr error) Outcome {
	if state.AttemptCount >= state.MaxAttempts {
		return p.expire(state, lastErr)
	}
	state.Status = StatusInProgress
	return Outcome{Continue: true, Status: StatusInProgress}
}

func (p *Poller) expire(state *PollState, lastErr error) Outcome {
	state.Status = StatusTimedOut
	state.Message = TimedOutMessage
	p.logger.Info("verification poll budget exhausted",
		zap.String("request_id", state.RequestID), zap.Int("attempts", state.AttemptCount))
	return Outcome{Status: StatusTimedOut, Err: &PollTimeoutError{RequestID: state.RequestID, Attempts: state.AttemptCount, LastErr: lastErr}}
}

func terminalErr(state *PollState) error {
	switch state.Status {
	case StatusFailed:
		return &VerificationFailedError{RequestID: state.RequestID, Reason: state.Message}
	case StatusTimedOut:
		return &PollTimeoutError{RequestID: state.RequestID, Attempts: state.AttemptCount}
	}
	return nil
}

var errStillPolling = errors.New("verification still in progress")

// Run polls until a terminal outcome, waiting the policy delay between
// attempts. onAttempt, if set, sees the state after every attempt; returning
// false abandons the loop. Cancelling ctx stops the loop before the next
// attempt and returns an outcome carrying ctx's error.
func (p *Poller) Run(ctx context.Context, subjectType SubjectType, state *PollState, onAttempt func(*PollState) bool) Outcome {
	policy := p.Policy(subjectType)
	if state.MaxAttempts <= 0 {
		state.MaxAttempts = policy.MaxAttempts
	}
	remaining := state.MaxAttempts - state.AttemptCount
	if remaining < 1 {
		remaining = 1
	}

	operation := func() (Outcome, error) {
		if err := ctx.Err(); err != nil {
			return Outcome{Status: state.Status}, backoff.Permanent(err)
		}
		out := p.Poll(ctx, subjectType, state)
		if onAttempt != nil && !onAttempt(state) {
			return out, backoff.Permanent(context.Canceled)
		}
		if out.Continue {
			return out, errStillPolling
		}
		return out, nil
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(uint(remaining)),
		backoff.WithMaxElapsedTime(time.Duration(remaining)*(policy.Delay+time.Minute)),
	)
	switch {
	case errors.Is(err, errStillPolling):
		// the elapsed-time guard fired before the attempt budget did
		return p.expire(state, nil)
	case err != nil:
		return Outcome{Status: state.Status, Err: err}
	}
	return out
}
