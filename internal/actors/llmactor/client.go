package llmactor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/portflow/internal/ports"
)

// CoreLLM is the minimal provider interface, adapted from the teacher's
// llm.CoreLLM: a single request/response method plus model accessors. It
// is what the middleware decorators in middleware.go wrap.
type CoreLLM interface {
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)
	GetModel() string
	SetModel(model string)
}

// providerFactory builds a CoreLLM from a Config. Registered by each
// provider file's init, mirroring the teacher's providerFactories map.
type providerFactory func(Config) (CoreLLM, error)

var providerFactories = map[string]providerFactory{}

func registerProvider(name string, f providerFactory) { providerFactories[name] = f }

// Config holds the construction-time settings for an Actor: provider
// selection, credentials, and the middleware decorators to apply.
type Config struct {
	// APIKey authenticates requests to the provider.
	APIKey string
	// Model is the provider-specific model identifier.
	Model string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
	// RequestTimeout bounds a single underlying request.
	RequestTimeout time.Duration
	// MaxRetries is the number of retries attempted after the first
	// failed request; 0 disables retrying.
	MaxRetries int
	// RetryBaseDelay and RetryMaxDelay bound the exponential backoff
	// used between retries.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// RateLimitPerSecond, if > 0, caps outbound requests through a
	// token-bucket limiter composed into the retry decorator.
	RateLimitPerSecond float64
	RateLimitBurst     int
	// Collector, if non-nil, receives Prometheus-backed counters and
	// histograms for each request (see middleware.go).
	Collector ports.MetricsCollector
}

// ActorID is the convention-following id of this actor implementation.
const ActorID = "portflow:llm.complete"

var _ ports.Actor = (*Actor)(nil)

// Actor is a single-input ("prompt"), single-output ("completion") Actor
// that completes a prompt against a configured LLM provider. It defaults
// IsLazy()==true like any other actor (§11): repeated identical prompts
// benefit from the engine's lazy reuse policy exactly as a pure function
// would.
type Actor struct {
	id     string
	core   CoreLLM
	tracer trace.Tracer
	prio   int
}

// NewFromConfig builds an Actor for providerType ("anthropic" or
// "openai"), composing the middleware chain (tracing, metrics, timeout,
// retry) around the resolved provider client. This condenses the
// teacher's full health-checked client registry into one factory, since
// the Graph Configuration's ActorRegistry (§10) already supplies
// factory/registration indirection one layer up.
func NewFromConfig(id, providerType string, cfg Config) (*Actor, error) {
	if cfg.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("llmactor: unknown provider %q", providerType)
	}

	core, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("llmactor: build %s provider: %w", providerType, err)
	}

	core = withTracing(core, providerType)
	core = withMetrics(core, cfg.Collector)
	if cfg.RequestTimeout > 0 {
		core = withTimeout(core, cfg.RequestTimeout)
	}
	if cfg.MaxRetries > 0 {
		core = withRetry(core, retryOptions{
			maxRetries:    cfg.MaxRetries,
			baseDelay:     cfg.RetryBaseDelay,
			maxDelay:      cfg.RetryMaxDelay,
			ratePerSecond: cfg.RateLimitPerSecond,
			rateBurst:     cfg.RateLimitBurst,
		})
	}

	return &Actor{
		id:     id,
		core:   core,
		tracer: otel.Tracer("portflow/llmactor"),
	}, nil
}

func (a *Actor) Inputs() []string  { return []string{"prompt"} }
func (a *Actor) Outputs() []string { return []string{"completion"} }
func (a *Actor) IsLazy() bool      { return true }
func (a *Actor) Priority() int     { return a.prio }
func (a *Actor) ID() string        { return a.id }

// Invoke completes in[0] (the prompt, a string) against the configured
// provider and returns the completion text as its sole output.
func (a *Actor) Invoke(ctx context.Context, in []any) ([]any, error) {
	prompt, ok := in[0].(string)
	if !ok {
		return nil, fmt.Errorf("llmactor: prompt must be a string, got %T", in[0])
	}

	response, _, _, err := a.core.DoRequest(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	return []any{response}, nil
}
