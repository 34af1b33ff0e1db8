package questions

import (
	"context"
	"errors"
	"strings"
	"time"

	"intervuex/internal/metrics"
	"intervuex/internal/utils"

	"go.uber.org/zap"
)

type generateResult struct {
	out *Generated
	err error
}

type fallbackGenerator struct {
	primary  Generator
	fallback Generator
	timeout  time.Duration
	logger   *zap.Logger
}

// WithFallback bounds primary by timeout and serves the request from fallback when the
// primary errors, returns nothing or runs out of time.
func WithFallback(primary, fallback Generator, timeout time.Duration, logger *zap.Logger) Generator {
	return &fallbackGenerator{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   utils.OrNop(logger),
	}
}

func (g *fallbackGenerator) Name() string {
	return g.primary.Name() + "+" + g.fallback.Name()
}

func (g *fallbackGenerator) Generate(ctx context.Context, req Request) (*Generated, error) {
	pctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		out, err := g.primary.Generate(pctx, req)
		done <- generateResult{out: out, err: err}
	}()

	var reason string
	select {
	case res := <-done:
		if res.err == nil && res.out != nil && strings.TrimSpace(res.out.Text) != "" {
			return res.out, nil
		}
		reason = "error"
		if errors.Is(res.err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		g.logger.Warn("question generator failed, using fallback",
			zap.String("session_id", req.SessionID),
			zap.String("generator", g.primary.Name()),
			zap.Error(res.err))
	case <-pctx.Done():
		reason = "timeout"
		g.logger.Warn("question generator timed out, using fallback",
			zap.String("session_id", req.SessionID),
			zap.String("generator", g.primary.Name()),
			zap.Duration("timeout", g.timeout))
	}

	metrics.GeneratorFallback(reason)
	return g.fallback.Generate(ctx, req)
}
