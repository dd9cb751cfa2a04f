// Package health implements liveness probing, grounded on the teacher's
// internal/health package. It is a supplemented feature (SPEC_FULL.md):
// spec.md's transport contract already exposes Alive(), but nothing in
// the original crate aggregates that across a server's connected clients
// for an operator-facing health check — a natural extension given the
// teacher's own health-checker idiom.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kurble/mirror/transport"
)

// Probe performs one health check. Check returns nil if healthy.
type Probe interface {
	Check(ctx context.Context) error
	Name() string
}

// ProbeResult is the outcome of running one Probe, with the latency it
// took to decide.
type ProbeResult struct {
	Name    string
	Healthy bool
	Latency time.Duration
	Error   error
}

// AggregatedStatus is the outcome of running every registered Probe.
type AggregatedStatus struct {
	Healthy bool
	Probes  []ProbeResult
}

// Checker runs a registered set of Probes and aggregates their results.
type Checker struct {
	mu     sync.Mutex
	probes []Probe
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// RegisterProbe adds probe to the set Check runs.
func (c *Checker) RegisterProbe(probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, probe)
}

// Check runs every registered probe and returns the aggregate status.
func (c *Checker) Check(ctx context.Context) AggregatedStatus {
	c.mu.Lock()
	probes := append([]Probe(nil), c.probes...)
	c.mu.Unlock()

	status := AggregatedStatus{Healthy: true}
	for _, p := range probes {
		result := CheckWithResult(ctx, p)
		if !result.Healthy {
			status.Healthy = false
		}
		status.Probes = append(status.Probes, result)
	}
	return status
}

// CheckWithResult runs one Probe and measures its latency.
func CheckWithResult(ctx context.Context, probe Probe) ProbeResult {
	start := time.Now()
	err := probe.Check(ctx)
	return ProbeResult{
		Name:    probe.Name(),
		Healthy: err == nil,
		Latency: time.Since(start),
		Error:   err,
	}
}

// RemoteProbe reports a transport.Remote unhealthy once it is no longer
// alive, letting a host wire every connected client into the same
// Checker its other dependencies use.
type RemoteProbe struct {
	name   string
	remote transport.Remote
}

// NewRemoteProbe names a liveness probe over remote.
func NewRemoteProbe(name string, remote transport.Remote) *RemoteProbe {
	return &RemoteProbe{name: name, remote: remote}
}

// Name implements Probe.
func (p *RemoteProbe) Name() string { return p.name }

// Check implements Probe: unhealthy once the transport reports !Alive().
func (p *RemoteProbe) Check(context.Context) error {
	if !p.remote.Alive() {
		return fmt.Errorf("transport %q is not alive", p.name)
	}
	return nil
}
