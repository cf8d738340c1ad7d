package db

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsRetryable reports whether a failed operation may be attempted again.
type IsRetryable func(err error) bool

const (
	DefaultMaxRetries = 3
	retryStep         = 50 * time.Millisecond
)

// Try executes op, retrying duplicate key errors up to DefaultMaxRetries times.
func Try(ctx context.Context, op Operation) error {
	return WithRetries(ctx, op, DefaultMaxRetries, IsMongoDuplicateKeyError)
}

// WithRetries runs op once plus up to maxRetries retries while retryable
// reports true. Other errors are returned immediately.
func WithRetries(ctx context.Context, op Operation, maxRetries int, retryable IsRetryable) error {
	operation := func() (struct{}, error) {
		err := op()
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryStep
	b.RandomizationFactor = 0
	b.Multiplier = 2
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxRetries+1)),
	)
	return err
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}
