package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeVerificationPoll = "verification:poll"
)

const (
	// QueueVerification carries provider status polls.
	QueueVerification = "verification"
	pollMaxRetry      = 5
	pollTimeout       = 30 * time.Second
)

// PollTaskPayload is the body of a verification:poll task.
type PollTaskPayload struct {
	services.PollJob
	Attempt int `json:"attempt"`
}

// --- Task Client (Enqueuing tasks) ---

// RedisOpt converts a go-redis client configuration into asynq's.
func RedisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(RedisOpt(rdb))
}

// Enqueuer is the subset of *asynq.Client used for scheduling.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler enqueues verification polls as delayed asynq tasks.
type Scheduler struct {
	client Enqueuer
	logger *zap.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(client Enqueuer, logger *zap.Logger) *Scheduler {
	return &Scheduler{client: client, logger: logger}
}

// NewPollTask builds the task for one poll attempt. The task id is derived
// from the request id and attempt so a replayed step cannot fork the chain.
func NewPollTask(job services.PollJob, attempt int, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(PollTaskPayload{PollJob: job, Attempt: attempt})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal poll task payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue(QueueVerification),
		asynq.TaskID(fmt.Sprintf("poll:%s:%s:%d", job.SubjectType, job.RequestID, attempt)),
		asynq.MaxRetry(pollMaxRetry),
		asynq.Timeout(pollTimeout),
		asynq.ProcessIn(delay),
	}
	return asynq.NewTask(TypeVerificationPoll, payload), opts, nil
}

// SchedulePoll implements services.PollScheduler.
func (s *Scheduler) SchedulePoll(ctx context.Context, job services.PollJob, attempt int, delay time.Duration) error {
	task, opts, err := NewPollTask(job, attempt, delay)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			s.logger.Debug("poll already scheduled",
				zap.String("request_id", job.RequestID), zap.Int("attempt", attempt))
			return nil
		}
		return fmt.Errorf("failed to enqueue poll task: %w", err)
	}
	s.logger.Debug("poll scheduled",
		zap.String("task_id", info.ID),
		zap.String("seller_id", job.SellerID),
		zap.String("subject_type", string(job.SubjectType)),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay))
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	verification services.IVerificationService
	scheduler    services.PollScheduler
	logger       *zap.Logger
}

func NewTaskProcessor(verificationSvc services.IVerificationService, scheduler services.PollScheduler, logger *zap.Logger) *TaskProcessor {
	return &TaskProcessor{verification: verificationSvc, scheduler: scheduler, logger: logger}
}

// SetupServer configures an asynq server for the background worker.
func SetupServer(rdb *redis.Client, concurrency int, logger *zap.Logger) *asynq.Server {
	return asynq.NewServer(
		RedisOpt(rdb),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueVerification: 6,
				"default":         3,
			},
			Logger: logger.Sugar(),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)
}

// Mux registers the task handlers.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerificationPoll, p.HandleVerificationPollTask)
	return mux
}

// --- Task Handlers ---

// HandleVerificationPollTask performs one poll step and schedules the next
// one while the verification is still in progress.
func (p *TaskProcessor) HandleVerificationPollTask(ctx context.Context, t *asynq.Task) error {
	var payload PollTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal poll task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.SellerID == "" || payload.RequestID == "" {
		return fmt.Errorf("incomplete poll task payload: %w", asynq.SkipRetry)
	}

	out, err := p.verification.HandlePoll(ctx, payload.PollJob)
	if err != nil {
		return p.retryOrFail(ctx, payload.PollJob, fmt.Errorf("poll step for %s failed: %w", payload.RequestID, err))
	}
	if !out.Continue {
		p.logger.Debug("poll chain finished",
			zap.String("request_id", payload.RequestID),
			zap.String("status", string(out.Status)))
		return nil
	}
	if err := p.scheduler.SchedulePoll(ctx, payload.PollJob, out.Attempt, out.Delay); err != nil {
		return p.retryOrFail(ctx, payload.PollJob, err)
	}
	return nil
}

// isFinalRetry reports whether asynq will archive the task if this run fails.
var isFinalRetry = func(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	return ok && retried >= maxRetry
}

// retryOrFail returns err for asynq to retry. On the last retry the poll
// state is marked failed first so the verification does not stay pending.
func (p *TaskProcessor) retryOrFail(ctx context.Context, job services.PollJob, err error) error {
	if !isFinalRetry(ctx) {
		return err
	}
	if failErr := p.verification.FailPoll(context.WithoutCancel(ctx), job, err); failErr != nil {
		p.logger.Error("failed to mark abandoned verification",
			zap.String("request_id", job.RequestID), zap.Error(failErr))
	}
	return err
}
