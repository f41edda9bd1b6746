// Package metrics provides in-process counters for the notification pipeline
// with periodic snapshot reporting to Redis, so operators can observe the
// error rate of a loop that deliberately never fails.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SnapshotKey is the Redis key the collector reports under.
	SnapshotKey = "metrics:notification-service"
	// SnapshotTTL is how long a snapshot stays in Redis if not refreshed.
	SnapshotTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing snapshots.
	DefaultReportInterval = 30 * time.Second
)

// Snapshot is the JSON document written to Redis and served by the stats
// endpoint.
type Snapshot struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	EventsReceived         uint64 `json:"events_received"`
	EventsDiscarded        uint64 `json:"events_discarded"`
	EventsProcessed        uint64 `json:"events_processed"`
	NotificationsPersisted uint64 `json:"notifications_persisted"`
	BroadcastsPublished    uint64 `json:"broadcasts_published"`
	MappingsAutoCreated    uint64 `json:"mappings_auto_created"`
	ProcessingErrors       uint64 `json:"processing_errors"`

	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`
}

// Collector accumulates pipeline counters and reports them to Redis.
// All record methods are safe for concurrent use.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	eventsReceived         atomic.Uint64
	eventsDiscarded        atomic.Uint64
	eventsProcessed        atomic.Uint64
	notificationsPersisted atomic.Uint64
	broadcastsPublished    atomic.Uint64
	mappingsAutoCreated    atomic.Uint64
	processingErrors       atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector. redisClient may be nil, in which case
// counters still accumulate but nothing is reported.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing snapshots to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins periodic snapshot reporting until the context is cancelled
// or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeSnapshot(context.Background()) // Final write
				return
			case <-c.stopCh:
				c.writeSnapshot(context.Background()) // Final write
				return
			case <-ticker.C:
				c.writeSnapshot(ctx)
			}
		}
	}()
}

// Stop stops the reporting goroutine and flushes a final snapshot.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordEventReceived counts an inbound event read from the bus.
func (c *Collector) RecordEventReceived() { c.eventsReceived.Add(1) }

// RecordEventDiscarded counts an event dropped by validation.
func (c *Collector) RecordEventDiscarded() { c.eventsDiscarded.Add(1) }

// RecordEventProcessed counts an event that ran the full pipeline.
func (c *Collector) RecordEventProcessed(latency time.Duration) {
	c.eventsProcessed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// RecordNotificationsPersisted counts persisted notification records.
func (c *Collector) RecordNotificationsPersisted(n int) {
	if n > 0 {
		c.notificationsPersisted.Add(uint64(n))
	}
}

// RecordBroadcastsPublished counts successful channel publishes.
func (c *Collector) RecordBroadcastsPublished(n int) {
	if n > 0 {
		c.broadcastsPublished.Add(uint64(n))
	}
}

// RecordMappingAutoCreated counts a default mapping provisioned for a new topic.
func (c *Collector) RecordMappingAutoCreated() { c.mappingsAutoCreated.Add(1) }

// RecordError counts a swallowed per-event failure of any stage.
func (c *Collector) RecordError() { c.processingErrors.Add(1) }

// GetSnapshot returns current counters without writing to Redis.
func (c *Collector) GetSnapshot() *Snapshot {
	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	return &Snapshot{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            time.Now().UTC(),
		EventsReceived:         c.eventsReceived.Load(),
		EventsDiscarded:        c.eventsDiscarded.Load(),
		EventsProcessed:        c.eventsProcessed.Load(),
		NotificationsPersisted: c.notificationsPersisted.Load(),
		BroadcastsPublished:    c.broadcastsPublished.Load(),
		MappingsAutoCreated:    c.mappingsAutoCreated.Load(),
		ProcessingErrors:       c.processingErrors.Load(),
		AvgProcessingLatencyNs: avgLatencyNs,
	}
}

// writeSnapshot writes the current snapshot to Redis.
func (c *Collector) writeSnapshot(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()
	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics snapshot", "service", c.serviceName, "error", err)
		return
	}

	if err := c.redis.Set(ctx, SnapshotKey, data, SnapshotTTL).Err(); err != nil {
		slog.Error("Failed to write metrics snapshot to Redis", "service", c.serviceName, "error", err)
		return
	}

	slog.Debug("Metrics snapshot written to Redis", "service", c.serviceName, "key", SnapshotKey)
}
