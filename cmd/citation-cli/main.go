// Command citation-cli runs the pipeline's sync path (spec §4.2-§4.6) over a
// local text file, for exercising extraction, clustering, and verification
// without standing up a queue or a long-running worker process. It backs its
// required progress store with an embedded miniredis instance rather than a
// real Redis deployment, since the point of this command is local,
// throwaway runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/citationengine/engine/internal/config"
	"github.com/citationengine/engine/internal/logging"
	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/engine"
	"github.com/citationengine/engine/pkg/store"
	"github.com/citationengine/engine/pkg/verify"
)

func main() {
	inputPath := flag.String("input", "", "path to a text file to extract citations from (required)")
	configPath := flag.String("config", os.Getenv("ALTERNATE_SOURCES_CONFIG"), "path to the alternate-sources YAML config")
	verbose := flag.Bool("verbose", false, "enable development-mode (human-readable) logging")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "citation-cli: -input is required")
		os.Exit(2)
	}

	text, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "citation-cli: failed to read %s: %v\n", *inputPath, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "citation-cli: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewLogger(logging.Options{Development: *verbose})

	mr, err := miniredis.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "citation-cli: failed to start embedded store: %v\n", err)
		os.Exit(1)
	}
	defer mr.Close()

	client := store.NewClient(&redis.Options{Addr: mr.Addr()}, logr.Discard())
	defer client.Close()
	progress := store.NewProgressStore(client)

	limiter := verify.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	verifier := &verify.Verifier{
		Client:      verify.NewClient(cfg.Authority.BaseURL, cfg.Authority.APIKey),
		RateLimiter: verify.NewRateLimiterFacade(func(ctx context.Context) error { return verify.WaitForToken(ctx, limiter) }),
		Breaker:     verify.NewCircuitBreaker("authority"),
		Log:         log,
	}
	for _, alt := range cfg.AlternateSources {
		verifier.Alternates = append(verifier.Alternates, verify.NewHTTPAlternateSource(alt.Name, alt.BaseURL))
	}

	pipeline := &engine.Pipeline{Progress: progress, Verifier: verifier, Log: log}
	job := &citation.Job{ID: uuid.NewString(), Status: citation.JobQueued, Mode: citation.ModeSync}

	result, err := pipeline.Run(context.Background(), job, string(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "citation-cli: pipeline failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "citation-cli: failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
