// Package processor runs the event pipeline: validate, resolve the topic's
// mapping, look up recipients, persist the fan-out batch, broadcast.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"notification-service/internal/broadcast"
	"notification-service/internal/directory"
	"notification-service/internal/events"
	"notification-service/internal/fanout"
)

// Processor consumes events and drives each one through the pipeline.
// Per-event failures of any stage are logged and counted, never propagated:
// the consume loop only stops when its context is cancelled.
type Processor struct {
	consumer    MessageConsumer
	mappings    MappingResolver
	directory   RecipientResolver
	fanout      NotificationFanout
	broadcaster Broadcaster
	metrics     MetricsRecorder
}

// New creates a processor. metrics may be nil.
func New(
	consumer MessageConsumer,
	mappings MappingResolver,
	directory RecipientResolver,
	fanout NotificationFanout,
	broadcaster Broadcaster,
	metrics MetricsRecorder,
) *Processor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Processor{
		consumer:    consumer,
		mappings:    mappings,
		directory:   directory,
		fanout:      fanout,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

// Run consumes events until the context is cancelled. Offsets are committed
// after each message is handled, including messages that were discarded, so
// a malformed or invalid event is never redelivered.
func (p *Processor) Run(ctx context.Context) error {
	slog.Info("Starting event processor")

	for {
		event, msg, err := p.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Event processor stopping", "reason", ctx.Err())
				return ctx.Err()
			}
			if msg != nil {
				// Malformed payload. Advance past it rather than
				// redelivering it forever.
				slog.Warn("Discarding undecodable message",
					"topic", msg.Topic,
					"offset", msg.Offset,
					"error", err,
				)
				p.metrics.RecordEventDiscarded()
				p.commit(ctx, msg)
				continue
			}
			slog.Error("Failed to read from Kafka", "error", err)
			p.metrics.RecordError()
			continue
		}

		p.metrics.RecordEventReceived()
		p.handle(ctx, event, msg.Topic)
		p.commit(ctx, msg)
	}
}

// handle runs one event through the pipeline.
func (p *Processor) handle(ctx context.Context, event *events.Event, topic string) {
	start := time.Now()

	if !event.Valid() {
		slog.Warn("Discarding invalid event",
			"topic", topic,
			"type", event.Type,
			"source_component", event.SourceComponent,
			"organization", event.Organization,
			"priority", event.Priority,
		)
		p.metrics.RecordEventDiscarded()
		return
	}

	org := directory.NormalizeOrganization(event.Organization)

	// A mapping-store failure drops the event: degrading to unrestricted
	// targeting would over-deliver a role-restricted topic to the whole
	// organization.
	resolution, err := p.mappings.Resolve(ctx, topic)
	if err != nil {
		slog.Error("Failed to resolve event mapping, dropping event",
			"topic", topic,
			"type", event.Type,
			"error", err,
		)
		p.metrics.RecordError()
		return
	}
	if resolution.IsDefault {
		p.metrics.RecordMappingAutoCreated()
	}

	var recipients []directory.User
	if resolution.Unrestricted() {
		recipients = p.directory.UsersByOrganization(ctx, org)
	} else {
		recipients = p.directory.UsersByRolesAndOrganization(ctx, resolution.Roles, org)
	}

	// One template document feeds both stages, so the broadcast carries
	// exactly the timestamp the persisted rows got.
	template := fanout.Template(event)

	// Persistence and broadcast are independent side effects of the same
	// event: a failed batch write is logged but does not suppress the
	// realtime publish.
	rows, err := p.fanout.Deliver(ctx, recipients, template)
	if err != nil {
		slog.Error("Failed to persist notifications for event",
			"topic", topic,
			"type", event.Type,
			"error", err,
		)
		p.metrics.RecordError()
	} else {
		p.metrics.RecordNotificationsPersisted(rows)
	}

	channels := broadcast.ChannelsFor(resolution.Roles, org)
	published, err := p.broadcaster.Broadcast(ctx, channels, template)
	if err != nil {
		slog.Error("Failed to broadcast event",
			"topic", topic,
			"type", event.Type,
			"error", err,
		)
		p.metrics.RecordError()
	} else {
		p.metrics.RecordBroadcastsPublished(published)
	}

	p.metrics.RecordEventProcessed(time.Since(start))

	slog.Info("Event processed",
		"topic", topic,
		"type", event.Type,
		"organization", org,
		"recipients", len(recipients),
		"rows", rows,
		"channels", len(channels),
	)
}

// commit advances the consumer offset. A commit failure is logged only: the
// message was already handled, and at-least-once delivery means a redelivery
// is acceptable.
func (p *Processor) commit(ctx context.Context, msg *kafka.Message) {
	if err := p.consumer.CommitMessage(ctx, msg); err != nil {
		slog.Error("Failed to commit offset",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		p.metrics.RecordError()
	}
}
