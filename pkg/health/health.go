// Package health runs named readiness checks concurrently and serves the
// aggregate as liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

const (
	defaultCheckTimeout = 2 * time.Second
	readyTimeout        = 5 * time.Second
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

type entry struct {
	name     string
	check    Check
	critical bool
}

// Checker holds the registered checks. A failing critical check takes the
// report down; a failing optional one degrades it.
type Checker struct {
	mu      sync.RWMutex
	entries []entry
	timeout time.Duration
	logger  *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		timeout: defaultCheckTimeout,
		logger:  slog.Default().With("component", "health"),
	}
}

// SetTimeout bounds each check. A check still running after d is reported as
// failed and left to observe its cancelled context.
func (c *Checker) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

func (c *Checker) Register(name string, check Check) { c.add(entry{name, check, true}) }

func (c *Checker) RegisterOptional(name string, check Check) { c.add(entry{name, check, false}) }

// add replaces a check registered under the same name.
func (c *Checker) add(e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = slices.DeleteFunc(c.entries, func(old entry) bool { return old.name == e.name })
	c.entries = append(c.entries, e)
}

// Run executes every check concurrently and folds the results.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	entries := slices.Clone(c.entries)
	timeout := c.timeout
	c.mu.RUnlock()

	results := make([]ComponentHealth, len(entries))
	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			results[i] = c.probe(ctx, e, timeout)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(entries)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for i, e := range entries {
		r := results[i]
		report.Components[e.name] = r
		switch {
		case r.Status == StatusDown:
			report.Status = StatusDown
		case r.Status == StatusDegraded && report.Status == StatusUp:
			report.Status = StatusDegraded
		}
	}
	return report
}

func (c *Checker) probe(ctx context.Context, e entry, timeout time.Duration) ComponentHealth {
	start := time.Now()
	err := withTimeout(ctx, timeout, e.check)
	res := ComponentHealth{Status: StatusUp, Latency: time.Since(start).Round(time.Microsecond).String()}
	if err == nil {
		return res
	}
	res.Status, res.Message = StatusDegraded, err.Error()
	if e.critical {
		res.Status = StatusDown
	}
	c.logger.Warn("health check failed", "check", e.name, "critical", e.critical, "error", err)
	return res
}

// withTimeout returns when check does or when timeout passes. A non-positive
// timeout waits for check.
func withTimeout(ctx context.Context, timeout time.Duration, check Check) error {
	if timeout <= 0 {
		return check(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- check(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w after %v", apperrors.ErrTimeout, timeout)
		}
		return ctx.Err()
	}
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 200 unless a critical check is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		report := c.Run(ctx)
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
