package llm

import (
	"context"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agenterr"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/specialist"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 8 * time.Second
	maxRetryAttempts      = 10
)

// RetryPolicy bounds the retries around a generation call. Attempts counts the
// first call, so Attempts=1 disables retrying.
type RetryPolicy struct {
	Attempts       int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns three attempts with exponential backoff from 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  defaultRetryAttempts,
		BaseDelay: defaultRetryBaseDelay,
		MaxDelay:  defaultRetryMaxDelay,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 || p.Attempts > maxRetryAttempts {
		p.Attempts = defaultRetryAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultRetryBaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	return retry.WithMaxRetries(uint64(p.Attempts-1), b) // #nosec G115 -- bounded by normalized
}

// RetryingGenerator retries transient failures of the wrapped Generator.
// Malformed-state errors are returned on the first occurrence.
type RetryingGenerator struct {
	next   Generator
	policy RetryPolicy
	logger *zap.Logger
}

func NewRetryingGenerator(next Generator, policy RetryPolicy, logger *zap.Logger) *RetryingGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingGenerator{next: next, policy: policy.normalized(), logger: logger}
}

// Generate implements Generator.
func (g *RetryingGenerator) Generate(ctx context.Context, messages []types.Message, tools []specialist.Definition) (types.Message, error) {
	var (
		out     types.Message
		attempt int
	)
	err := retry.Do(ctx, g.policy.backoff(), func(ctx context.Context) error {
		attempt++
		msg, err := g.call(ctx, messages, tools)
		if err == nil {
			out = msg
			return nil
		}
		if ctx.Err() == nil && agenterr.IsTransient(err) && attempt < g.policy.Attempts {
			g.logger.Warn("Generation failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.policy.Attempts),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return types.Message{}, err
	}
	return out, nil
}

func (g *RetryingGenerator) call(ctx context.Context, messages []types.Message, tools []specialist.Definition) (types.Message, error) {
	if g.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.policy.AttemptTimeout)
		defer cancel()
	}
	return g.next.Generate(ctx, messages, tools)
}
