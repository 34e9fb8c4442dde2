package webclient

import (
	"context"
	"net/http"
	"time"
)

type AttemptFunc func() (status int, body []byte, err error)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retry describes an exponential backoff policy. The delay before retry n
// (0-based) is InitialDelay * 2^n, capped at MaxDelay when set.
type Retry struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Sleep        SleepFunc
	ShouldRetry  func(status int, err error) bool
}

// Do runs fn until it succeeds or the attempts are exhausted, returning the
// last status, body and error observed.
func (r Retry) Do(ctx context.Context, fn AttemptFunc) (int, []byte, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := r.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = TimerSleep
	}
	shouldRetry := r.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = RetryTransient
	}

	var (
		status int
		body   []byte
		err    error
	)
	for i := 0; i < attempts; i++ {
		status, body, err = fn()
		if !shouldRetry(status, err) {
			return status, body, err
		}
		if i == attempts-1 {
			break
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return status, body, sleepErr
		}
		delay *= 2
		if r.MaxDelay > 0 && delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}
	return status, body, err
}

// DoWithRetry retries the attempt function on transient errors (429/5xx) or non-nil errors.
func DoWithRetry(ctx context.Context, attempts int, initialDelay time.Duration, fn AttemptFunc) (int, []byte, error) {
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	return Retry{
		Attempts:     attempts,
		InitialDelay: initialDelay,
		MaxDelay:     30 * time.Second,
	}.Do(ctx, fn)
}

// RetryTransient retries network errors, 429 and 5xx responses.
func RetryTransient(status int, err error) bool {
	if err != nil {
		return true
	}
	return status == http.StatusTooManyRequests || status >= 500
}

// RetryUnsuccessful retries network errors and any non-2xx response.
func RetryUnsuccessful(status int, err error) bool {
	if err != nil {
		return true
	}
	return status < 200 || status > 299
}

// TimerSleep is the default SleepFunc.
func TimerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
