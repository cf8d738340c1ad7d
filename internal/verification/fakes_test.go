package verification

import (
	"context"
	"sync"
)

// scriptedProvider replays a fixed sequence of status reports. The last entry
// repeats once the script runs out.
type scriptedProvider struct {
	mu        sync.Mutex
	requestID string
	createErr error
	script    []scriptStep
	creates   int
	polls     int
	subjects  []Subject
}

type scriptStep struct {
	status *TaskStatus
	err    error
}

func (p *scriptedProvider) CreateTask(ctx context.Context, subject Subject) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	p.subjects = append(p.subjects, subject)
	if p.createErr != nil {
		return "", p.createErr
	}
	return p.requestID, nil
}

func (p *scriptedProvider) FetchStatus(ctx context.Context, subjectType SubjectType, requestID string) (*TaskStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.polls
	p.polls++
	if len(p.script) == 0 {
		return &TaskStatus{Status: StatusInProgress}, nil
	}
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	step := p.script[idx]
	return step.status, step.err
}

func (p *scriptedProvider) pollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

func inProgress() scriptStep { return scriptStep{status: &TaskStatus{Status: StatusInProgress}} }

func gstCompleted(trade string) scriptStep {
	return scriptStep{status: &TaskStatus{
		Status: StatusCompleted,
		Result: &Result{GST: &GSTResult{LegalName: "Acme Private Limited", TradeName: trade, GstinStatus: "Active"}},
	}}
}
