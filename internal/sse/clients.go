// Package sse provides Server-Sent Events client management so listing
// screens can react to post lifecycle changes.
package sse

import (
	"sync"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

type Event struct {
	Kind EventKind
	Slug string
}

type Client struct {
	Msg chan Event
}

type Clients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewClients() *Clients {
	return &Clients{
		clients: make(map[*Client]bool),
	}
}

func (s *Clients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *Clients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
	close(client.Msg)
}

// Broadcast fans the event out to every connected client. Slow clients are
// skipped rather than blocked on.
func (s *Clients) Broadcast(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.Msg <- event:
		default:
		}
	}
}
