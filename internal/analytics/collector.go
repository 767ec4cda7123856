package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/resilience"
)

// Publisher is the part of kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration

	// Dropped is called for every event lost to a full buffer or a failed
	// publish.
	Dropped func(n int)
	// BreakerState reports the publish circuit breaker's transitions.
	BreakerState func(resilience.State)
}

// Collector buffers events and publishes them in batches from a single
// goroutine. Record never blocks.
type Collector struct {
	pub     Publisher
	cfg     CollectorConfig
	breaker *resilience.CircuitBreaker
	events  chan QueryEvent
	done    chan struct{}
	logger  *slog.Logger
}

func NewCollector(pub Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.Dropped == nil {
		cfg.Dropped = func(int) {}
	}
	breakerCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	}
	if cfg.BreakerState != nil {
		breakerCfg.OnStateChange = func(_, to resilience.State) { cfg.BreakerState(to) }
	}
	breaker := resilience.NewCircuitBreaker("analytics-publish", breakerCfg)
	return &Collector{
		pub:     pub,
		cfg:     cfg,
		breaker: breaker,
		events:  make(chan QueryEvent, cfg.BufferSize),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "analytics-collector"),
	}
}

// Start runs the publish loop until Close is called.
func (c *Collector) Start() {
	go c.run()
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
	)
}

// Record queues event, dropping it if the buffer is full.
func (c *Collector) Record(event QueryEvent) {
	select {
	case c.events <- event:
	default:
		c.cfg.Dropped(1)
		c.logger.Warn("analytics event dropped, buffer full", "query", event.Query)
	}
}

// Close stops accepting events, publishes what is buffered and waits for the
// loop to exit. Record must not be called afterwards.
func (c *Collector) Close() {
	close(c.events)
	<-c.done
}

func (c *Collector) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		c.publish(batch)
		batch = batch[:0]
	}
	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, kafka.Event{Key: event.Query, Value: event})
			if len(batch) >= c.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (c *Collector) publish(batch []kafka.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.pub.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.cfg.Dropped(len(batch))
		c.logger.Error("failed to publish analytics events", "count", len(batch), "error", err)
	}
}
