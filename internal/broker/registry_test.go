package broker

import (
	"errors"
	"testing"
)

func TestRegistryAssignsDistinctIDs(t *testing.T) {
	b := newTestBroker(t, Options{})

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		client := b.Admit()
		if _, dup := seen[client.ID]; dup {
			t.Fatalf("duplicate client id %q", client.ID)
		}
		seen[client.ID] = struct{}{}
	}

	if got := b.Count(); got != 100 {
		t.Fatalf("expected 100 clients, got %d", got)
	}
}

func TestRegistryRemoveDecrementsCountOnce(t *testing.T) {
	b := newTestBroker(t, Options{})

	client := b.Admit()
	other := b.Admit()

	b.Remove(client.ID)
	if got := b.Count(); got != 1 {
		t.Fatalf("expected 1 client after remove, got %d", got)
	}

	// Second removal of the same id is a no-op.
	b.Remove(client.ID)
	if got := b.Count(); got != 1 {
		t.Fatalf("expected count unchanged after duplicate remove, got %d", got)
	}

	if _, ok := b.Get(other.ID); !ok {
		t.Fatalf("unrelated client disappeared")
	}
}

func TestRegistryRemoveDetachesRooms(t *testing.T) {
	b := newTestBroker(t, Options{})

	client := b.Admit()
	b.rooms.Join(client.ID, "general")
	b.rooms.Join(client.ID, "random")

	b.Remove(client.ID)

	if _, err := b.ClientRooms(client.ID); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound after remove, got %v", err)
	}
	if members := b.rooms.MembersOf("general"); len(members) != 0 {
		t.Fatalf("expected empty room after remove, got %v", members)
	}
}

func TestRegistryRemoveClosesTransport(t *testing.T) {
	b := newTestBroker(t, Options{})

	client := b.Admit()
	b.Remove(client.ID)

	select {
	case <-client.Done():
	default:
		t.Fatalf("expected client transport released on remove")
	}
}
