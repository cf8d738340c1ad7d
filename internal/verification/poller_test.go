package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fastPoller(t *testing.T, provider Provider, maxAttempts int) *Poller {
	policy := Policy{MaxAttempts: maxAttempts, Delay: time.Millisecond}
	return NewPoller(provider, map[SubjectType]Policy{SubjectGST: policy, SubjectBank: policy}, zaptest.NewLogger(t))
}

func newState(subjectType SubjectType, maxAttempts int) *PollState {
	return &PollState{RequestID: "req-1", SubjectType: subjectType, MaxAttempts: maxAttempts, Status: StatusPending}
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(&scriptedProvider{}, nil, zaptest.NewLogger(t))
	assert.Equal(t, 20, p.Policy(SubjectGST).MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.Policy(SubjectGST).Delay)
	assert.Equal(t, 30, p.Policy(SubjectBank).MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Policy(SubjectBank).Delay)
}

func TestPoller_Poll_TimesOutOnLastAttempt(t *testing.T) {
	provider := &scriptedProvider{}
	p := fastPoller(t, provider, 3)
	state := newState(SubjectGST, 3)
	ctx := context.Background()

	out := p.Poll(ctx, SubjectGST, state)
	assert.True(t, out.Continue)
	assert.Equal(t, StatusInProgress, state.Status)

	out = p.Poll(ctx, SubjectGST, state)
	assert.True(t, out.Continue)

	out = p.Poll(ctx, SubjectGST, state)
	assert.False(t, out.Continue)
	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Equal(t, StatusTimedOut, state.Status)
	assert.Equal(t, TimedOutMessage, state.Message)
	var timeout *PollTimeoutError
	assert.ErrorAs(t, out.Err, &timeout)
	assert.Equal(t, 3, provider.pollCount())

	// terminal states are not polled again
	out = p.Poll(ctx, SubjectGST, state)
	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Equal(t, 3, provider.pollCount())
}

func TestPoller_Run_AlwaysInProgress(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{inProgress()}}
	p := fastPoller(t, provider, 20)
	state := newState(SubjectGST, 20)

	out := p.Run(context.Background(), SubjectGST, state, nil)
	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Equal(t, 20, provider.pollCount())
	assert.Equal(t, 20, state.AttemptCount)
	assert.Nil(t, state.Result)
}

func TestPoller_Run_CompletesOnThirdAttempt(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{inProgress(), inProgress(), gstCompleted("Acme")}}
	p := fastPoller(t, provider, 20)
	state := newState(SubjectGST, 20)

	var seen []int
	out := p.Run(context.Background(), SubjectGST, state, func(s *PollState) bool {
		seen = append(seen, s.AttemptCount)
		return true
	})
	require.NoError(t, out.Err)
	assert.Equal(t, StatusCompleted, out.Status)
	require.NotNil(t, out.Result)
	assert.Equal(t, "Acme", out.Result.GST.TradeName)
	assert.Equal(t, 3, provider.pollCount())
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestPoller_Run_TransientErrorsRetried(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{
		{err: &MalformedResponseError{Detail: "empty data array"}},
		{err: &ServiceUnavailableError{Op: "status", Err: errors.New("timeout")}},
		gstCompleted("Acme"),
	}}
	p := fastPoller(t, provider, 5)
	state := newState(SubjectGST, 5)

	out := p.Run(context.Background(), SubjectGST, state, nil)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 3, provider.pollCount())
}

func TestPoller_Run_Failed(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{
		inProgress(),
		{status: &TaskStatus{Status: StatusFailed, Message: "invalid gstin"}},
	}}
	p := fastPoller(t, provider, 10)
	state := newState(SubjectGST, 10)

	out := p.Run(context.Background(), SubjectGST, state, nil)
	assert.Equal(t, StatusFailed, out.Status)
	var failed *VerificationFailedError
	require.ErrorAs(t, out.Err, &failed)
	assert.Equal(t, "invalid gstin", failed.Reason)
	assert.Equal(t, 2, provider.pollCount())
}

func TestPoller_Poll_BankAccountMissingFails(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{{status: &TaskStatus{
		Status: StatusCompleted,
		Result: &Result{Bank: &BankResult{AccountHolderName: "Jane Doe", AccountExists: false}},
	}}}}
	p := fastPoller(t, provider, 5)
	state := newState(SubjectBank, 5)

	out := p.Poll(context.Background(), SubjectBank, state)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Nil(t, state.Result)
}

func TestPoller_Run_AbandonedByCallback(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{inProgress()}}
	p := fastPoller(t, provider, 20)
	state := newState(SubjectGST, 20)

	out := p.Run(context.Background(), SubjectGST, state, func(s *PollState) bool {
		return s.AttemptCount < 2
	})
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, 2, provider.pollCount())
	assert.False(t, state.Status.Terminal())
}

func TestPoller_Run_CancelledContext(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{inProgress()}}
	p := fastPoller(t, provider, 20)
	state := newState(SubjectGST, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := p.Run(ctx, SubjectGST, state, nil)
	assert.Error(t, out.Err)
	assert.Equal(t, 0, provider.pollCount())
}
