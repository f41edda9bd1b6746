package processor

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"notification-service/internal/database"
	"notification-service/internal/directory"
	"notification-service/internal/events"
	"notification-service/internal/mappings"
)

// consumed is one scripted ReadMessage result.
type consumed struct {
	event *events.Event
	msg   *kafka.Message
	err   error
}

// fakeConsumer replays a scripted message sequence and cancels the run
// context once the script is exhausted, so Run terminates.
type fakeConsumer struct {
	script    []consumed
	pos       int
	cancel    context.CancelFunc
	committed []kafka.Message
	commitErr error
}

func (f *fakeConsumer) ReadMessage(ctx context.Context) (*events.Event, *kafka.Message, error) {
	if f.pos >= len(f.script) {
		f.cancel()
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	c := f.script[f.pos]
	f.pos++
	return c.event, c.msg, c.err
}

func (f *fakeConsumer) CommitMessage(_ context.Context, msg *kafka.Message) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, *msg)
	return nil
}

func (f *fakeConsumer) Close() error { return nil }

type fakeMappings struct {
	resolutions map[string]mappings.Resolution
	resolved    []string
	err         error
}

func (f *fakeMappings) Resolve(_ context.Context, topic string) (mappings.Resolution, error) {
	f.resolved = append(f.resolved, topic)
	if f.err != nil {
		return mappings.Resolution{}, f.err
	}
	if res, ok := f.resolutions[topic]; ok {
		return res, nil
	}
	return mappings.Resolution{IsDefault: true}, nil
}

type roleCall struct {
	roles []string
	org   string
}

type fakeDirectory struct {
	byOrg     map[string][]directory.User
	byRole    map[string][]directory.User
	orgCalls  []string
	roleCalls []roleCall
}

func (f *fakeDirectory) UsersByOrganization(_ context.Context, org string) []directory.User {
	f.orgCalls = append(f.orgCalls, org)
	return f.byOrg[org]
}

func (f *fakeDirectory) UsersByRolesAndOrganization(_ context.Context, roles []string, org string) []directory.User {
	f.roleCalls = append(f.roleCalls, roleCall{roles: roles, org: org})
	var all []directory.User
	for _, role := range roles {
		all = append(all, f.byRole[role]...)
	}
	return all
}

type delivered struct {
	recipients []directory.User
	template   database.Notification
}

type fakeFanout struct {
	deliveries []delivered
	err        error
}

func (f *fakeFanout) Deliver(_ context.Context, recipients []directory.User, template database.Notification) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deliveries = append(f.deliveries, delivered{recipients: recipients, template: template})
	return len(recipients) + 1, nil
}

type broadcasted struct {
	channels []string
	payload  any
}

type fakeBroadcaster struct {
	broadcasts []broadcasted
	err        error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, channels []string, payload any) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.broadcasts = append(f.broadcasts, broadcasted{channels: channels, payload: payload})
	return len(channels), nil
}

type fakeMetrics struct {
	received    int
	discarded   int
	processed   int
	persisted   int
	broadcastsN int
	autoCreated int
	errs        int
}

func (f *fakeMetrics) RecordEventReceived()               { f.received++ }
func (f *fakeMetrics) RecordEventDiscarded()              { f.discarded++ }
func (f *fakeMetrics) RecordEventProcessed(time.Duration) { f.processed++ }
func (f *fakeMetrics) RecordNotificationsPersisted(n int) { f.persisted += n }
func (f *fakeMetrics) RecordBroadcastsPublished(n int)    { f.broadcastsN += n }
func (f *fakeMetrics) RecordMappingAutoCreated()          { f.autoCreated++ }
func (f *fakeMetrics) RecordError()                       { f.errs++ }

var errBoom = errors.New("boom")
