package main

import (
	"time"
)

// Session is one registered client's identity. A connection that has not
// completed the register handshake has no Session and cannot touch room
// state.
type Session struct {
	client       *client
	Name         string
	JoinedAt     time.Time
	LastActivity time.Time
}

// registry maps live connections to their sessions. Only the room goroutine
// touches it, so no locking.
type registry struct {
	sessions map[*client]*Session
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[*client]*Session),
	}
}

func (reg *registry) add(c *client, sess *Session) {
	reg.sessions[c] = sess
}

func (reg *registry) get(c *client) *Session {
	return reg.sessions[c]
}

// remove returns the removed session, or nil if the client was never
// registered (or already removed).
func (reg *registry) remove(c *client) *Session {
	sess, ok := reg.sessions[c]
	if !ok {
		return nil
	}
	delete(reg.sessions, c)

	return sess
}

func (reg *registry) count() int {
	return len(reg.sessions)
}
