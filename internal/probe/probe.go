// Package probe checks the reachability of the service's backing stores
// and publishes the result to the gRPC health service.
package probe

import (
	"context"
	"sort"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/eventhub-server/internal/logger"
)

// Pinger is anything that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Checks names the dependencies that must be reachable for the service to
// be ready.
type Checks map[string]Pinger

// Result is the outcome of one check; Err is nil when it passed.
type Result struct {
	Name string
	Err  error
}

// Run pings every dependency, each bounded by timeout, and returns the
// results sorted by name.
func (c Checks) Run(ctx context.Context, timeout time.Duration) []Result {
	results := make([]Result, 0, len(c))
	for name, p := range c {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		results = append(results, Result{Name: name, Err: p.Ping(checkCtx)})
		cancel()
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Healthy reports whether every result passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// Prober periodically runs Checks and mirrors the outcome into the overall
// ("") status of a gRPC health server.
type Prober struct {
	health   *health.Server
	checks   Checks
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
}

func NewProber(hs *health.Server, checks Checks, interval time.Duration, logger *logger.Logger) *Prober {
	return &Prober{
		health:   hs,
		checks:   checks,
		interval: interval,
		timeout:  interval / 2,
		logger:   logger,
	}
}

// Probe runs the checks once and publishes the result.
func (p *Prober) Probe(ctx context.Context) bool {
	results := p.checks.Run(ctx, p.timeout)
	for _, r := range results {
		if r.Err != nil {
			p.logger.Warn("Prober: dependency unreachable",
				"dependency", r.Name,
				"error", r.Err.Error())
		}
	}

	status := healthpb.HealthCheckResponse_NOT_SERVING
	ok := Healthy(results)
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	p.health.SetServingStatus("", status)

	return ok
}

// Run probes immediately and then every interval until ctx is done, at
// which point the health server is shut down so clients see NOT_SERVING.
func (p *Prober) Run(ctx context.Context) {
	p.Probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.health.Shutdown()
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
