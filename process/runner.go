//go:build unix

package process

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kbukum/procspawn/errors"
	"github.com/kbukum/procspawn/logger"
)

// RetryConfig controls how a Runner retries launches.
type RetryConfig struct {
	// MaxAttempts is the total number of launch attempts. Zero or one means
	// no retry.
	MaxAttempts uint `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// ApplyDefaults fills unset backoff durations.
func (c *RetryConfig) ApplyDefaults() {
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 5 * time.Second
	}
}

// Runner runs commands, retrying launches that failed for transient reasons
// (PIPE_FAILED, FORK_FAILED). Once a child exists its outcome is final and
// never retried. ctx cancels the waits between attempts.
type Runner struct {
	spawner *Spawner
	cfg     RetryConfig
}

// NewRunner creates a Runner on s (the default Spawner when nil).
func NewRunner(s *Spawner, cfg RetryConfig) *Runner {
	if s == nil {
		s = Default()
	}
	cfg.ApplyDefaults()
	return &Runner{spawner: s, cfg: cfg}
}

// Run runs cmd. A launch failure leaves cmd unstarted, so the same Command
// is reused for the next attempt.
func (r *Runner) Run(ctx context.Context, cmd *Command) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialBackoff
	b.MaxInterval = r.cfg.MaxBackoff

	attempts := r.cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := r.spawner.Run(ctx, cmd)
		if err == nil {
			return struct{}{}, nil
		}
		if cmd.Pid != 0 || !errors.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.spawner.logger().WithContext(ctx).Warn("launch failed, retrying", logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldCode, string(errors.CodeOf(err)),
				logger.FieldError, err.Error(),
				"retry_in_ms", next.Milliseconds(),
			))
		}),
	)

	var perm *backoff.PermanentError
	if stderrors.As(err, &perm) {
		return perm.Err
	}
	return err
}
