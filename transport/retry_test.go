package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vitalia"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleeper captures every backoff delay instead of sleeping.
type recordingSleeper struct {
	delays []time.Duration
	err    error
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return s.err
}

func newTestRetrier(policy Policy, s *recordingSleeper) *Retrier {
	r := NewRetrier(policy)
	r.sleep = s.sleep
	return r
}

func TestRetrier_Do(t *testing.T) {
	tests := []struct {
		name           string
		failures       int
		policy         Policy
		wantErr        bool
		wantAttempts   int
		expectedDelays []time.Duration
	}{
		{
			name:           "first attempt succeeds",
			failures:       0,
			policy:         DefaultPolicy(),
			wantAttempts:   1,
			expectedDelays: nil,
		},
		{
			name:         "three failures then success",
			failures:     3,
			policy:       DefaultPolicy(),
			wantAttempts: 4,
			expectedDelays: []time.Duration{
				time.Second, 2 * time.Second, 4 * time.Second,
			},
		},
		{
			name:         "failures equal to max retries still succeed",
			failures:     5,
			policy:       DefaultPolicy(),
			wantAttempts: 6,
			expectedDelays: []time.Duration{
				time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
			},
		},
		{
			name:         "retries exhausted",
			failures:     10,
			policy:       DefaultPolicy(),
			wantErr:      true,
			wantAttempts: 6,
			expectedDelays: []time.Duration{
				time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
			},
		},
		{
			name:           "zero retries makes a single attempt",
			failures:       1,
			policy:         Policy{MaxRetries: 0, InitialBackoff: time.Second},
			wantErr:        true,
			wantAttempts:   1,
			expectedDelays: nil,
		},
		{
			name:           "custom initial backoff doubles",
			failures:       2,
			policy:         Policy{MaxRetries: 2, InitialBackoff: 10 * time.Millisecond},
			wantAttempts:   3,
			expectedDelays: []time.Duration{10 * time.Millisecond, 20 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			r := newTestRetrier(tt.policy, sleeper)

			attempts := 0
			err := r.Do(context.Background(), func(ctx context.Context) error {
				attempts++
				if attempts <= tt.failures {
					return fmt.Errorf("failure %d", attempts)
				}
				return nil
			})

			assert.Equal(t, tt.wantAttempts, attempts)
			assert.Equal(t, tt.expectedDelays, sleeper.delays)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var reqErr *vitalia.RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.wantAttempts, reqErr.Attempts)
			assert.EqualError(t, reqErr.Err, fmt.Sprintf("failure %d", tt.wantAttempts))
		})
	}
}

func TestRetrier_EachDelayDoublesThePrevious(t *testing.T) {
	sleeper := &recordingSleeper{}
	r := newTestRetrier(DefaultPolicy(), sleeper)

	_ = r.Do(context.Background(), func(ctx context.Context) error { return errors.New("down") })

	require.Len(t, sleeper.delays, 5)
	for k := 1; k < len(sleeper.delays); k++ {
		assert.Equal(t, 2*sleeper.delays[k-1], sleeper.delays[k])
	}
}

func TestRetrier_PropagatesFinalFailureUnchanged(t *testing.T) {
	sentinel := errors.New("503 Service Unavailable")
	r := newTestRetrier(Policy{MaxRetries: 1, InitialBackoff: time.Millisecond}, &recordingSleeper{})

	err := r.Do(context.Background(), func(ctx context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestRetrier_StopsWhenSleepIsCancelled(t *testing.T) {
	sleeper := &recordingSleeper{err: context.Canceled}
	r := newTestRetrier(DefaultPolicy(), sleeper)

	attempts := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("down")
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)

	var reqErr *vitalia.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 1, reqErr.Attempts)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestPolicyFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  vitalia.RetryConfig
		want Policy
	}{
		{
			name: "defaults",
			cfg:  vitalia.RetryConfig{MaxRetries: 5, InitialBackoff: time.Second},
			want: Policy{MaxRetries: 5, InitialBackoff: time.Second},
		},
		{
			name: "negative retries clamp to zero",
			cfg:  vitalia.RetryConfig{MaxRetries: -2, InitialBackoff: time.Second},
			want: Policy{MaxRetries: 0, InitialBackoff: time.Second},
		},
		{
			name: "zero backoff uses default",
			cfg:  vitalia.RetryConfig{MaxRetries: 3},
			want: Policy{MaxRetries: 3, InitialBackoff: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PolicyFromConfig(tt.cfg))
		})
	}
}
