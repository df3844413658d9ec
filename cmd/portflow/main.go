// Command portflow compiles a declarative graph configuration (§10) and
// runs a single evaluation over it, in the spirit of the teacher's
// cmd/generate_benchmark_dataset: a small flag-driven entry point using
// only the standard library's log package, no dedicated logging library
// (§12 "Logging").
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/portflow/internal/actors/llmactor"
	"github.com/ahrav/portflow/internal/actors/textmatch"
	"github.com/ahrav/portflow/internal/config"
	"github.com/ahrav/portflow/internal/env"
	"github.com/ahrav/portflow/internal/eval"
	"github.com/ahrav/portflow/internal/observability"
	"github.com/ahrav/portflow/internal/ports"
	"github.com/ahrav/portflow/internal/wfstate"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a graph configuration YAML file")
		algorithm  = flag.String("algorithm", "brute", "evaluation algorithm: brute or lazy")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) instead of exiting after the run")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("portflow: -config is required")
	}

	registry := defaultRegistry()
	loader := config.NewLoader(registry)

	compiled, err := loader.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("portflow: load config: %v", err)
	}

	state := wfstate.New(compiled.Graph)
	environment := env.New()
	exID := environment.NewExecution()

	for _, p := range compiled.Params {
		pid, err := compiled.Graph.InPort(p.Vertex, p.Port)
		if err != nil {
			log.Fatalf("portflow: resolve param port: %v", err)
		}
		if err := state.StoreParam(pid, p.Value, exID); err != nil {
			log.Fatalf("portflow: seed param: %v", err)
		}
	}

	var metrics ports.MetricsCollector
	if *metricsAddr != "" {
		promMetrics := observability.NewPrometheusMetrics()
		metrics = promMetrics
		go serveMetrics(*metricsAddr)
	}
	obs := observability.New(compiled.Graph, metrics, *algorithm)

	ctx := context.Background()
	opts := eval.Options{Observer: obs}

	switch *algorithm {
	case "lazy":
		err = eval.Lazy(ctx, compiled.Graph, state, environment, nil, opts)
	case "brute":
		err = eval.Brute(ctx, compiled.Graph, state, environment, nil, opts)
	default:
		log.Fatalf("portflow: unknown algorithm %q (want brute or lazy)", *algorithm)
	}
	if err != nil {
		log.Fatalf("portflow: evaluation failed: %v", err)
	}

	for _, pv := range state.Items() {
		log.Printf("port %d = %v", pv.PID, pv.Value)
	}

	if *metricsAddr != "" {
		log.Printf("serving metrics on %s (ctrl-c to exit)", *metricsAddr)
		select {}
	}
}

// defaultRegistry pre-populates an ActorRegistry with every built-in
// actor type from §11, so a graph configuration can reference them by
// type name ("text.fuzzy_match", "llm.complete") without the caller
// wiring factories itself.
func defaultRegistry() *config.ActorRegistry {
	registry := config.NewActorRegistry()

	registry.RegisterFactory("text.fuzzy_match", func(id string, params map[string]any) (ports.Actor, error) {
		threshold, _ := params["threshold"].(float64)
		caseSensitive, _ := params["case_sensitive"].(bool)
		return textmatch.New(id, textmatch.Config{Threshold: threshold, CaseSensitive: caseSensitive})
	})

	registry.RegisterFactory("llm.complete", func(id string, params map[string]any) (ports.Actor, error) {
		provider, _ := params["provider"].(string)
		apiKey, _ := params["api_key"].(string)
		if apiKey == "" {
			apiKey = os.Getenv(envKeyFor(provider))
		}
		model, _ := params["model"].(string)
		maxRetries, _ := params["max_retries"].(int)

		return llmactor.NewFromConfig(id, provider, llmactor.Config{
			APIKey:         apiKey,
			Model:          model,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     maxRetries,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  30 * time.Second,
		})
	})

	return registry
}

func envKeyFor(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("portflow: metrics server stopped: %v", err)
	}
}
