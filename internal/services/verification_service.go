package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marketplace/sellerhub/internal/models"
	"marketplace/sellerhub/internal/verification"
)

var (
	// ErrAlreadyVerified is returned when triggering verification of a subject
	// that already carries a verified badge.
	ErrAlreadyVerified = errors.New("already verified")
	// ErrVerificationInFlight is returned while a verification for the same
	// subject is still running.
	ErrVerificationInFlight = errors.New("verification already in progress")
)

// triggerLockTTL bounds how long a crashed trigger can block the next one.
const triggerLockTTL = 30 * time.Second

// SaveFailedMessage is shown when a verification finished at the provider but
// its outcome could not be recorded.
const SaveFailedMessage = "could not save verification result, please try again"

// PollJob identifies one verification request to poll.
type PollJob struct {
	SellerID    string                   `json:"seller_id"`
	SubjectType verification.SubjectType `json:"subject_type"`
	RequestID   string                   `json:"request_id"`
}

// PollScheduler runs the next poll of a job after delay. Implemented by the
// asynq task client; when nil the service polls in-process.
type PollScheduler interface {
	SchedulePoll(ctx context.Context, job PollJob, attempt int, delay time.Duration) error
}

// VerificationView is what the seller sees for one subject.
type VerificationView struct {
	SubjectType  verification.SubjectType `json:"subject_type"`
	Status       verification.Status      `json:"status"`
	Verified     bool                     `json:"verified"`
	RequestID    string                   `json:"request_id,omitempty"`
	AttemptCount int                      `json:"attempt_count"`
	MaxAttempts  int                      `json:"max_attempts,omitempty"`
	Message      string                   `json:"message,omitempty"`
	UpdatedAt    *time.Time               `json:"updated_at,omitempty"`
}

// StepOutcome is the result of HandlePoll.
type StepOutcome struct {
	// Continue is set when another poll must be scheduled after Delay.
	Continue bool
	Delay    time.Duration
	Attempt  int
	Status   verification.Status
}

// IVerificationService orchestrates GST and bank verification for sellers.
type IVerificationService interface {
	Start(ctx context.Context, sellerID string, subjectType verification.SubjectType) (*VerificationView, error)
	Status(ctx context.Context, sellerID string, subjectType verification.SubjectType) (*VerificationView, error)
	InputChanged(ctx context.Context, sellerID string, subjectTypes ...verification.SubjectType) error
	HandlePoll(ctx context.Context, job PollJob) (*StepOutcome, error)
	FailPoll(ctx context.Context, job PollJob, cause error) error
	Shutdown()
}

type verificationService struct {
	sellers   ISellerService
	initiator *verification.Initiator
	poller    *verification.Poller
	store     verification.StateStore
	tracker   *verification.Tracker
	scheduler PollScheduler
	logger    *zap.Logger
	now       func() time.Time

	// root of all inline poll loops; cancelled by Shutdown
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewVerificationService creates the verification orchestrator. A nil
// scheduler selects in-process polling.
func NewVerificationService(
	sellers ISellerService,
	initiator *verification.Initiator,
	poller *verification.Poller,
	store verification.StateStore,
	scheduler PollScheduler,
	logger *zap.Logger,
) IVerificationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &verificationService{
		sellers:   sellers,
		initiator: initiator,
		poller:    poller,
		store:     store,
		tracker:   verification.NewTracker(),
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

func trackerKey(sellerID string, subjectType verification.SubjectType) string {
	return sellerID + ":" + string(subjectType)
}

// Start validates the seller's current input for subjectType, creates one
// provider task and schedules polling.
func (s *verificationService) Start(ctx context.Context, sellerID string, subjectType verification.SubjectType) (*VerificationView, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Status == models.SellerStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if verification.IsVerified(seller, subjectType) {
		return nil, ErrAlreadyVerified
	}
	subject := verification.SubjectOf(seller, subjectType)
	if err := subject.Validate(); err != nil {
		return nil, err
	}

	locked, err := s.store.Lock(ctx, sellerID, subjectType, triggerLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrVerificationInFlight
	}
	defer func() {
		if err := s.store.Unlock(context.WithoutCancel(ctx), sellerID, subjectType); err != nil {
			s.logger.Warn("failed to release verification lock", zap.Error(err))
		}
	}()

	current, err := s.store.Load(ctx, sellerID, subjectType)
	if err != nil {
		return nil, err
	}
	if current != nil && !current.Status.Terminal() && current.SubjectKey == subject.Key() {
		return nil, ErrVerificationInFlight
	}

	req, err := s.initiator.Initiate(ctx, subject)
	if err != nil {
		return nil, err
	}
	policy := s.poller.Policy(subjectType)
	state := verification.NewPollState(*req, policy)
	if err := s.store.Begin(ctx, sellerID, state); err != nil {
		return nil, err
	}

	job := PollJob{SellerID: sellerID, SubjectType: subjectType, RequestID: req.RequestID}
	if s.scheduler != nil {
		if err := s.scheduler.SchedulePoll(ctx, job, 1, policy.Delay); err != nil {
			_ = s.store.Clear(context.WithoutCancel(ctx), sellerID, subjectType)
			return nil, &verification.ServiceUnavailableError{Op: "schedule", Err: err}
		}
	} else {
		s.runInline(job, state, policy.Delay)
	}

	s.logger.Info("verification started",
		zap.String("seller_id", sellerID),
		zap.String("subject_type", string(subjectType)),
		zap.String("request_id", req.RequestID))
	return viewOf(subjectType, state, false), nil
}

// Status reports the verification state of subjectType for the seller's
// current input. A state recorded for a different input reads as idle.
func (s *verificationService) Status(ctx context.Context, sellerID string, subjectType verification.SubjectType) (*VerificationView, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if verification.IsVerified(seller, subjectType) {
		return &VerificationView{SubjectType: subjectType, Status: verification.StatusCompleted, Verified: true}, nil
	}
	state, err := s.store.Load(ctx, sellerID, subjectType)
	if err != nil {
		return nil, err
	}
	if state == nil || state.SubjectKey != verification.SubjectOf(seller, subjectType).Key() {
		return &VerificationView{SubjectType: subjectType, Status: verification.StatusIdle}, nil
	}
	if state.Status == verification.StatusCompleted {
		// completed but the form patch did not land
		return &VerificationView{SubjectType: subjectType, Status: verification.StatusIdle}, nil
	}
	return viewOf(subjectType, state, false), nil
}

func viewOf(subjectType verification.SubjectType, state *verification.PollState, verified bool) *VerificationView {
	updated := state.UpdatedAt
	return &VerificationView{
		SubjectType:  subjectType,
		Status:       state.Status,
		Verified:     verified,
		RequestID:    state.RequestID,
		AttemptCount: state.AttemptCount,
		MaxAttempts:  state.MaxAttempts,
		Message:      state.Message,
		UpdatedAt:    &updated,
	}
}

// InputChanged discards in-flight polls for the given subjects. Pending
// polls find their request gone and stop without contacting the provider.
func (s *verificationService) InputChanged(ctx context.Context, sellerID string, subjectTypes ...verification.SubjectType) error {
	for _, st := range subjectTypes {
		s.tracker.Invalidate(trackerKey(sellerID, st))
		if err := s.store.Clear(ctx, sellerID, st); err != nil {
			return err
		}
		s.logger.Debug("verification reset",
			zap.String("seller_id", sellerID), zap.String("subject_type", string(st)))
	}
	return nil
}

// HandlePoll performs one poll step for job. Infrastructure errors are
// returned so the caller can retry the step; verification outcomes are not
// errors.
func (s *verificationService) HandlePoll(ctx context.Context, job PollJob) (*StepOutcome, error) {
	log := s.logger.With(
		zap.String("seller_id", job.SellerID),
		zap.String("subject_type", string(job.SubjectType)),
		zap.String("request_id", job.RequestID))

	state, err := s.store.Load(ctx, job.SellerID, job.SubjectType)
	if err != nil {
		return nil, err
	}
	if state == nil || state.RequestID != job.RequestID {
		log.Debug("dropping poll for superseded request")
		return &StepOutcome{Status: verification.StatusIdle}, nil
	}
	if state.Status.Terminal() {
		return &StepOutcome{Status: state.Status, Attempt: state.AttemptCount}, nil
	}

	out := s.poller.Poll(ctx, job.SubjectType, state)
	if out.Status == verification.StatusCompleted {
		if err := s.finalize(ctx, job, state); err != nil {
			if !errors.Is(err, ErrStaleVerification) {
				return nil, err
			}
			log.Info("discarding verification result for changed input")
		}
	}

	stale, err := s.store.Save(ctx, job.SellerID, state)
	if err != nil {
		return nil, err
	}
	if stale {
		log.Debug("request superseded during poll")
		return &StepOutcome{Status: verification.StatusIdle}, nil
	}
	return &StepOutcome{
		Continue: out.Continue,
		Delay:    s.poller.Policy(job.SubjectType).Delay,
		Attempt:  state.AttemptCount + 1,
		Status:   state.Status,
	}, nil
}

// FailPoll marks job's poll state failed after its worker gave up on it, so
// the seller can trigger again. A superseded or finished request is left alone.
func (s *verificationService) FailPoll(ctx context.Context, job PollJob, cause error) error {
	state, err := s.store.Load(ctx, job.SellerID, job.SubjectType)
	if err != nil {
		return err
	}
	if state == nil || state.RequestID != job.RequestID || state.Status.Terminal() {
		return nil
	}
	state.Status = verification.StatusFailed
	state.Message = SaveFailedMessage
	state.UpdatedAt = s.now()
	if _, err := s.store.Save(ctx, job.SellerID, state); err != nil {
		return err
	}
	s.logger.Warn("verification abandoned",
		zap.String("seller_id", job.SellerID),
		zap.String("subject_type", string(job.SubjectType)),
		zap.String("request_id", job.RequestID),
		zap.Error(cause))
	return nil
}

// finalize reduces a completed result onto the seller's form. The request
// must still be the current one for the subject: an input edited and then
// restored in the meantime has the same subject value but a cleared request.
func (s *verificationService) finalize(ctx context.Context, job PollJob, state *verification.PollState) error {
	current, err := s.store.Load(ctx, job.SellerID, job.SubjectType)
	if err != nil {
		return err
	}
	if current == nil || current.RequestID != job.RequestID {
		return ErrStaleVerification
	}
	seller, err := s.sellers.FindByID(ctx, job.SellerID)
	if err != nil {
		return err
	}
	subject := verification.SubjectOf(seller, job.SubjectType)
	if subject.Key() != state.SubjectKey {
		return ErrStaleVerification
	}
	patch, err := verification.Reduce(job.SubjectType, state.Result, seller, s.now())
	if err != nil {
		return fmt.Errorf("failed to reduce verification result: %w", err)
	}
	if err := s.sellers.ApplyVerification(ctx, job.SellerID, subject, patch); err != nil {
		return err
	}
	s.logger.Info("verification applied",
		zap.String("seller_id", job.SellerID),
		zap.String("subject_type", string(job.SubjectType)),
		zap.String("request_id", job.RequestID))
	return nil
}

// runInline polls job in a goroutine under a tracker handle.
func (s *verificationService) runInline(job PollJob, state *verification.PollState, delay time.Duration) {
	h := s.tracker.Begin(s.baseCtx, trackerKey(job.SellerID, job.SubjectType), job.RequestID)
	log := s.logger.With(
		zap.String("seller_id", job.SellerID),
		zap.String("subject_type", string(job.SubjectType)),
		zap.String("request_id", job.RequestID))

	go func() {
		defer s.tracker.Finish(h)
		ctx := h.Context()

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		onAttempt := func(st *verification.PollState) bool {
			if !s.tracker.IsCurrent(h) {
				return false
			}
			if st.Status.Terminal() {
				return true
			}
			stale, err := s.store.Save(ctx, job.SellerID, st)
			if err != nil {
				log.Warn("failed to save poll state", zap.Error(err))
				return true
			}
			return !stale
		}

		out := s.poller.Run(ctx, job.SubjectType, state, onAttempt)
		if !state.Status.Terminal() || !s.tracker.IsCurrent(h) {
			log.Debug("inline poll abandoned", zap.Error(out.Err))
			return
		}

		if state.Status == verification.StatusCompleted {
			if err := s.finalize(ctx, job, state); err != nil {
				if errors.Is(err, ErrStaleVerification) {
					log.Info("discarding verification result for changed input")
				} else {
					log.Error("failed to apply verification result", zap.Error(err))
					state.Status = verification.StatusFailed
					state.Message = SaveFailedMessage
				}
			}
		}
		if _, err := s.store.Save(ctx, job.SellerID, state); err != nil {
			log.Warn("failed to save final poll state", zap.Error(err))
		}
	}()
}

// Shutdown stops all inline poll loops.
func (s *verificationService) Shutdown() {
	s.cancel()
}
