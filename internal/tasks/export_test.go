package tasks

import "context"

// SetFinalRetry overrides the final-retry check until the returned func runs.
func SetFinalRetry(f func(context.Context) bool) (restore func()) {
	prev := isFinalRetry
	isFinalRetry = f
	return func() { isFinalRetry = prev }
}
