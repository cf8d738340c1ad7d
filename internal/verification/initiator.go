package verification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Initiator validates a subject and creates the provider task for it.
type Initiator struct {
	provider Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewInitiator creates an Initiator.
func NewInitiator(provider Provider, logger *zap.Logger) *Initiator {
	return &Initiator{provider: provider, logger: logger, now: time.Now}
}

// Initiate validates the subject and submits it. Malformed input fails with
// *ValidationError before any network call; provider failures surface as
// *ServiceUnavailableError.
func (i *Initiator) Initiate(ctx context.Context, subject Subject) (*Request, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}

	requestID, err := i.provider.CreateTask(ctx, subject)
	if err != nil {
		i.logger.Warn("verification task creation failed",
			zap.String("subject_type", string(subject.Type)), zap.Error(err))
		if IsServiceUnavailable(err) || IsValidation(err) {
			return nil, err
		}
		return nil, &ServiceUnavailableError{Op: "create", Err: err}
	}

	i.logger.Info("verification task created",
		zap.String("subject_type", string(subject.Type)), zap.String("request_id", requestID))
	return &Request{
		SubjectType: subject.Type,
		Subject:     subject,
		RequestID:   requestID,
		CreatedAt:   i.now().UTC(),
	}, nil
}
