package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rpggio/tflies/internal/repository"
)

var (
	retryInitialInterval = 20 * time.Millisecond
	retryMaxElapsed      = 2 * time.Second
)

// withRetry runs op until it succeeds, fails with a non-busy error, or the
// backoff budget runs out.
func withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxElapsedTime = retryMaxElapsed

	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))

	if isBusy(err) {
		return fmt.Errorf("%w: %v", repository.ErrBusy, err)
	}
	return err
}
