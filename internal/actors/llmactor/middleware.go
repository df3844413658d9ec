package llmactor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ahrav/portflow/internal/ports"
)

// The decorators below compose around a CoreLLM exactly as the teacher's
// llm.Middleware chain does, condensed into this one file since §11 drops
// the circuit-breaker and standalone rate-limiter middleware types —
// their one surviving concern, request pacing, is folded into the retry
// decorator instead of kept as a fifth decorator type.

// --- timeout ---

type timeoutLLM struct {
	next    CoreLLM
	timeout time.Duration
}

func withTimeout(next CoreLLM, d time.Duration) CoreLLM { return &timeoutLLM{next: next, timeout: d} }

func (t *timeoutLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoRequest(ctx, prompt, opts)
}

func (t *timeoutLLM) GetModel() string  { return t.next.GetModel() }
func (t *timeoutLLM) SetModel(m string) { t.next.SetModel(m) }

// --- retry (with an embedded rate limiter) ---

type retryOptions struct {
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
	ratePerSecond float64
	rateBurst     int
}

type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	limiter    *rate.Limiter
}

func withRetry(next CoreLLM, o retryOptions) CoreLLM {
	r := &retryLLM{
		next:       next,
		maxRetries: o.maxRetries,
		baseDelay:  o.baseDelay,
		maxDelay:   o.maxDelay,
	}
	if o.baseDelay <= 0 {
		r.baseDelay = time.Second
	}
	if o.maxDelay <= 0 {
		r.maxDelay = 30 * time.Second
	}
	if o.ratePerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(o.ratePerSecond), o.rateBurst)
	}
	return r
}

func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", 0, 0, fmt.Errorf("llmactor: rate limit: %w", err)
			}
		}

		response, tokensIn, tokensOut, err := r.next.DoRequest(ctx, prompt, opts)
		attempts++
		if err == nil {
			return response, tokensIn, tokensOut, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	return "", 0, 0, fmt.Errorf("llmactor: request failed after %d attempts: %w", attempts, lastErr)
}

func isRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

func (r *retryLLM) calculateDelay(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := r.baseDelay * time.Duration(int64(1)<<uint(attempt))
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)
	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

func (r *retryLLM) GetModel() string  { return r.next.GetModel() }
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }

// --- tracing ---

type tracedLLM struct {
	next     CoreLLM
	tracer   trace.Tracer
	provider string
}

func withTracing(next CoreLLM, provider string) CoreLLM {
	return &tracedLLM{next: next, tracer: otel.Tracer("portflow/llmactor"), provider: provider}
}

func (t *tracedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, span := t.tracer.Start(ctx, "llmactor.DoRequest", trace.WithAttributes(
		attribute.String("llm.provider", t.provider),
		attribute.String("llm.model", t.next.GetModel()),
		attribute.Int("llm.prompt.length", len(prompt)),
	))
	defer span.End()

	response, tokensIn, tokensOut, err := t.next.DoRequest(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response, tokensIn, tokensOut, err
	}
	span.SetAttributes(
		attribute.Int("llm.tokens.input", tokensIn),
		attribute.Int("llm.tokens.output", tokensOut),
	)
	return response, tokensIn, tokensOut, nil
}

func (t *tracedLLM) GetModel() string  { return t.next.GetModel() }
func (t *tracedLLM) SetModel(m string) { t.next.SetModel(m) }

// --- metrics ---

type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

func withMetrics(next CoreLLM, collector ports.MetricsCollector) CoreLLM {
	return &metricsLLM{next: next, collector: collector}
}

func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	if m.collector == nil {
		return response, tokensIn, tokensOut, err
	}

	labels := map[string]string{"model": m.next.GetModel(), "status": "success"}
	if err != nil {
		labels["status"] = "error"
	}

	m.collector.RecordHistogram("llmactor_latency_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("llmactor_requests_total", 1, labels)
	if err == nil {
		m.collector.RecordCounter("llmactor_tokens_total", float64(tokensIn), mergeLabel(labels, "token_type", "input"))
		m.collector.RecordCounter("llmactor_tokens_total", float64(tokensOut), mergeLabel(labels, "token_type", "output"))
	}

	return response, tokensIn, tokensOut, err
}

func mergeLabel(base map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(base)+1)
	for bk, bv := range base {
		out[bk] = bv
	}
	out[k] = v
	return out
}

func (m *metricsLLM) GetModel() string      { return m.next.GetModel() }
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
