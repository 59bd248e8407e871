package sse

import "testing"

func TestBroadcast(t *testing.T) {
	clients := NewClients()

	a := &Client{Msg: make(chan Event, 1)}
	b := &Client{Msg: make(chan Event, 1)}
	clients.Add(a)
	clients.Add(b)

	clients.Broadcast(Event{Kind: EventCreated, Slug: "hello-world"})

	for _, c := range []*Client{a, b} {
		select {
		case event := <-c.Msg:
			if event.Kind != EventCreated || event.Slug != "hello-world" {
				t.Errorf("event = %+v", event)
			}
		default:
			t.Error("client did not receive the broadcast")
		}
	}
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	clients := NewClients()

	full := &Client{Msg: make(chan Event)} // no buffer, nobody reading
	clients.Add(full)

	// Must not block.
	clients.Broadcast(Event{Kind: EventDeleted, Slug: "gone"})
}

func TestDeleteClosesChannel(t *testing.T) {
	clients := NewClients()

	c := &Client{Msg: make(chan Event, 1)}
	clients.Add(c)
	clients.Delete(c)

	if _, ok := <-c.Msg; ok {
		t.Error("channel still open after Delete")
	}

	clients.Broadcast(Event{Kind: EventUpdated, Slug: "x"})
}
