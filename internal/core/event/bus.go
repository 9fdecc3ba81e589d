package event

import (
	"errors"
	"fmt"

	"github.com/l1jgo/gameobject/internal/core/hash"
)

var (
	ErrSocketExists  = errors.New("socket already exists")
	ErrSocketUnknown = errors.New("unknown socket")
)

// Socket addresses one named queue on a Bus.
type Socket hash.Hash

// Event is a single posted message.
type Event struct {
	ID      hash.Hash
	Payload any
}

// socket is double-buffered: events posted during dispatch N are delivered by
// dispatch N+1.
type socket struct {
	name  string
	front []Event
	back  []Event
}

// Bus owns a set of sockets. It is not safe for concurrent use; the game loop
// is its only caller.
type Bus struct {
	sockets map[Socket]*socket
}

func NewBus() *Bus {
	return &Bus{
		sockets: make(map[Socket]*socket),
	}
}

// NewSocket creates the socket for name.
func (b *Bus) NewSocket(name string) (Socket, error) {
	s := Socket(hash.String(name))
	if _, ok := b.sockets[s]; ok {
		return 0, fmt.Errorf("%w: %s", ErrSocketExists, name)
	}
	b.sockets[s] = &socket{
		name:  name,
		front: make([]Event, 0, 64),
		back:  make([]Event, 0, 64),
	}
	return s, nil
}

// DeleteSocket drops the socket and any undelivered events.
func (b *Bus) DeleteSocket(s Socket) {
	delete(b.sockets, s)
}

// Post queues an event into the socket's back buffer.
func (b *Bus) Post(s Socket, id hash.Hash, payload any) error {
	sock, ok := b.sockets[s]
	if !ok {
		return ErrSocketUnknown
	}
	sock.back = append(sock.back, Event{ID: id, Payload: payload})
	return nil
}

// Pending returns the number of events waiting for the next dispatch.
func (b *Bus) Pending(s Socket) int {
	sock, ok := b.sockets[s]
	if !ok {
		return 0
	}
	return len(sock.back)
}

// Dispatch rotates back→front and delivers every front-buffer event to fn in
// post order. It returns the number of events delivered.
func (b *Bus) Dispatch(s Socket, fn func(Event)) int {
	sock, ok := b.sockets[s]
	if !ok {
		return 0
	}
	sock.front, sock.back = sock.back, sock.front[:0]
	for i := range sock.front {
		fn(sock.front[i])
	}
	n := len(sock.front)
	// Drop payload references so they can be collected.
	clear(sock.front)
	sock.front = sock.front[:0]
	return n
}

// Close drops every socket.
func (b *Bus) Close() {
	clear(b.sockets)
}
