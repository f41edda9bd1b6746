package mappings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notification-service/internal/database"
)

type fakeStore struct {
	mu        sync.Mutex
	mappings  map[string]*database.EventMapping
	getErr    error
	creates   []database.EventMapping
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{mappings: map[string]*database.EventMapping{}}
}

func (f *fakeStore) GetMappingByTopic(_ context.Context, topic string) (*database.EventMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.mappings[topic]
	if !ok {
		return nil, database.ErrMappingNotFound
	}
	return m, nil
}

func (f *fakeStore) CreateMapping(_ context.Context, mapping database.EventMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, mapping)
	return f.createErr
}

func (f *fakeStore) createdMappings() []database.EventMapping {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.EventMapping(nil), f.creates...)
}

func awaitProvision(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case topic := <-ch:
		return topic
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for background mapping provision")
		return ""
	}
}

func TestResolver_Resolve_ExistingMapping(t *testing.T) {
	store := newFakeStore()
	store.mappings["order-status"] = &database.EventMapping{
		Topic:     "order-status",
		UserRoles: []string{"OPERATOR", "ADMIN"},
	}

	r := NewResolver(store)
	res, err := r.Resolve(context.Background(), "order-status")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if res.IsDefault {
		t.Error("Resolve() IsDefault = true, want false for an existing mapping")
	}
	if len(res.Roles) != 2 {
		t.Errorf("Resolve() roles = %v, want the mapping's 2 roles", res.Roles)
	}
	if res.Unrestricted() {
		t.Error("Resolve() Unrestricted() = true, want false for specific roles")
	}
	if len(store.createdMappings()) != 0 {
		t.Error("Resolve() created a mapping for an already mapped topic")
	}
}

func TestResolver_Resolve_UnknownTopicProvisionsDefault(t *testing.T) {
	store := newFakeStore()
	provisioned := make(chan string, 1)
	r := NewResolver(store)
	r.provisioned = provisioned

	res, err := r.Resolve(context.Background(), "new-topic")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !res.IsDefault {
		t.Error("Resolve() IsDefault = false, want true for an unknown topic")
	}
	if !res.Unrestricted() {
		t.Error("Resolve() Unrestricted() = false, want unrestricted targeting")
	}

	awaitProvision(t, provisioned)
	creates := store.createdMappings()
	if len(creates) != 1 {
		t.Fatalf("Background provisioning created %d mappings, want 1", len(creates))
	}
	created := creates[0]
	if created.Topic != "new-topic" {
		t.Errorf("Created mapping topic = %q, want new-topic", created.Topic)
	}
	if len(created.UserRoles) != 1 || created.UserRoles[0] != database.RoleAll {
		t.Errorf("Created mapping roles = %v, want [ALL]", created.UserRoles)
	}
	if created.Description != "Event mapping for topic 'new-topic'" {
		t.Errorf("Created mapping description = %q", created.Description)
	}
}

func TestResolver_Resolve_ConcurrentProvisionConflictIsBenign(t *testing.T) {
	store := newFakeStore()
	store.createErr = database.ErrMappingExists
	provisioned := make(chan string, 1)
	r := NewResolver(store)
	r.provisioned = provisioned

	res, err := r.Resolve(context.Background(), "racy-topic")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.IsDefault {
		t.Error("Resolve() IsDefault = false, want true")
	}
	// The conflict is swallowed; provisioning still completes.
	awaitProvision(t, provisioned)
}

func TestResolver_Resolve_LookupErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")

	r := NewResolver(store)
	res, err := r.Resolve(context.Background(), "order-status")

	// A store failure must not widen delivery for a possibly restricted
	// topic; the caller drops the event instead.
	if err == nil {
		t.Fatalf("Resolve() = %+v with nil error, want error on lookup failure", res)
	}
	if res.IsDefault {
		t.Error("Resolve() IsDefault = true on a lookup failure")
	}
	if len(store.createdMappings()) != 0 {
		t.Error("Resolve() provisioned a mapping on a transient lookup failure")
	}
}

func TestResolution_Unrestricted(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{name: "empty roles", roles: nil, want: true},
		{name: "ALL sentinel", roles: []string{database.RoleAll}, want: true},
		{name: "ALL among others", roles: []string{"OPERATOR", database.RoleAll}, want: true},
		{name: "specific roles", roles: []string{"OPERATOR", "ADMIN"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolution{Roles: tt.roles}
			if got := res.Unrestricted(); got != tt.want {
				t.Errorf("Unrestricted() = %v, want %v", got, tt.want)
			}
		})
	}
}
