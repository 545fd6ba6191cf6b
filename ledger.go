package main

import (
	"time"
)

const chatHistoryLimit = 50

type ChatMessage struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// messageLedger keeps the last chatHistoryLimit messages, oldest first.
// The whole buffer is wiped on rollover.
type messageLedger struct {
	messages  []ChatMessage
	lastClear int64
}

func newMessageLedger(now int64) *messageLedger {
	return &messageLedger{
		lastClear: now,
	}
}

func (l *messageLedger) append(msg ChatMessage) {
	l.messages = append(l.messages, msg)
	if len(l.messages) > chatHistoryLimit {
		l.messages = l.messages[1:]
	}
}

func (l *messageLedger) snapshot() []ChatMessage {
	out := make([]ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// maybeRollover clears the buffer once interval has elapsed since the last
// clear. Callers are expected to check it on a timer tick, so the clear can
// lag the boundary by at most one tick period.
func (l *messageLedger) maybeRollover(now int64, interval time.Duration) bool {
	if now-l.lastClear < interval.Milliseconds() {
		return false
	}

	l.messages = nil
	l.lastClear = now

	return true
}
