package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// newTestRoom builds a room with a controllable clock and timers disabled,
// so tests drive every event by hand through handle.
func newTestRoom(start time.Time) (*Room, *fakeClock) {
	cfg := &Config{
		pingInterval:     20 * time.Second,
		sweepInterval:    15 * time.Second,
		idleTimeout:      60 * time.Second,
		rolloverInterval: time.Hour,
	}

	clk := &fakeClock{now: start}

	r := newRoom(cfg)
	r.clock = clk.Now
	r.schedule = func(time.Duration, event) {}
	r.ledger = newMessageLedger(r.now())

	return r, clk
}

func newTestClient() *client {
	return &client{
		send: make(chan []byte, 64),
	}
}

// drain decodes every event currently buffered for a client.
func drain(t *testing.T, c *client) []map[string]any {
	t.Helper()

	var out []map[string]any
	for {
		select {
		case payload := <-c.send:
			var m map[string]any
			require.NoError(t, json.Unmarshal(payload, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func eventTypes(events []map[string]any) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev["type"].(string))
	}
	return types
}

func registerClient(t *testing.T, r *Room, name string) *client {
	t.Helper()

	c := newTestClient()
	r.handle(commandEvent{c: c, cmd: registerCmd{Username: name}})
	drain(t, c)

	return c
}

func TestRegisterHandshake(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	c := newTestClient()
	r.handle(commandEvent{c: c, cmd: registerCmd{Username: "alice"}})

	events := drain(t, c)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"history", "user_info", "user_count"}, eventTypes(events))
	assert.Equal(t, "alice", events[1]["username"])
	assert.Equal(t, float64(1), events[2]["userCount"])

	sess := r.reg.get(c)
	require.NotNil(t, sess)
	assert.Equal(t, "alice", sess.Name)
}

func TestRegisterGeneratesName(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	c := newTestClient()
	r.handle(commandEvent{c: c, cmd: registerCmd{}})

	events := drain(t, c)
	require.Len(t, events, 3)
	assert.NotEmpty(t, events[1]["username"])
}

func TestRegisterAnnouncesJoinToOthers(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := newTestClient()
	r.handle(commandEvent{c: b, cmd: registerCmd{Username: "bob"}})

	joined := drain(t, a)
	require.Len(t, joined, 1)
	assert.Equal(t, "user_joined", joined[0]["type"])
	assert.Equal(t, "bob", joined[0]["username"])
	assert.Equal(t, float64(2), joined[0]["userCount"])

	// The joiner hears about itself via user_count, not user_joined.
	assert.NotContains(t, eventTypes(drain(t, b)), "user_joined")
}

func TestUnregisteredSenderIgnored(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	b := registerClient(t, r, "bob")

	lurker := newTestClient()
	r.handle(commandEvent{c: lurker, cmd: chatCmd{Text: "hi"}})

	assert.Empty(t, drain(t, b))
	assert.Empty(t, r.ledger.snapshot())
	assert.Nil(t, r.reg.get(lurker))
}

func TestChatFanout(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(commandEvent{c: a, cmd: chatCmd{Text: "hi"}})

	for _, c := range []*client{a, b} {
		events := drain(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, "message", events[0]["type"])
		assert.Equal(t, "alice", events[0]["username"])
		assert.Equal(t, "hi", events[0]["text"])
	}

	require.Len(t, r.ledger.snapshot(), 1)
}

func TestSetUsername(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(commandEvent{c: a, cmd: setUsernameCmd{Username: "alicia"}})

	events := drain(t, b)
	require.Len(t, events, 1)
	assert.Equal(t, "username_changed", events[0]["type"])
	assert.Equal(t, "alice", events[0]["oldUsername"])
	assert.Equal(t, "alicia", events[0]["newUsername"])

	assert.Equal(t, "alicia", r.reg.get(a).Name)
}

func TestTypingExcludesSender(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(commandEvent{c: a, cmd: typingStartCmd{}})
	r.handle(commandEvent{c: a, cmd: typingStopCmd{}})

	assert.Empty(t, drain(t, a))
	assert.Equal(t, []string{"user_typing", "user_typing_stop"}, eventTypes(drain(t, b)))
}

func TestReactionFanout(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(commandEvent{c: a, cmd: reactionCmd{MessageID: "m1", Emoji: "🔥", Count: 2}})

	events := drain(t, b)
	require.Len(t, events, 1)
	assert.Equal(t, "reaction", events[0]["type"])
	assert.Equal(t, "alice", events[0]["username"])
	assert.Equal(t, "🔥", events[0]["emoji"])
	assert.Equal(t, float64(2), events[0]["count"])
}

func TestDisconnectAnnouncesDeparture(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(commandEvent{c: b, cmd: disconnectCmd{}})

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "user_left", events[0]["type"])
	assert.Equal(t, "bob", events[0]["username"])
	assert.Equal(t, float64(1), events[0]["userCount"])

	assert.Nil(t, r.reg.get(b))
	assert.Equal(t, 1, r.reg.count())
}

func TestDuplicateDisconnectIsNoop(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(disconnectEvent{c: b})
	r.handle(disconnectEvent{c: b})

	assert.Len(t, drain(t, a), 1)
	assert.Equal(t, 1, r.reg.count())
}

func TestBroadcastFailureEvictsSession(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")

	// A session whose outbound buffer is already full counts as dead.
	stuck := &client{send: make(chan []byte, 8)}
	r.handle(commandEvent{c: stuck, cmd: registerCmd{Username: "bob"}})
	drain(t, a)
	drain(t, stuck)
	for range cap(stuck.send) {
		stuck.send <- []byte("wedged")
	}

	r.handle(commandEvent{c: a, cmd: chatCmd{Text: "hi"}})

	events := drain(t, a)
	require.Len(t, events, 2)
	assert.Equal(t, "message", events[0]["type"])
	assert.Equal(t, "user_left", events[1]["type"])
	assert.Equal(t, "bob", events[1]["username"])

	assert.Nil(t, r.reg.get(stuck))
}

func TestHeartbeatPingsSessions(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")

	r.handle(heartbeatTickEvent{})

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "ping", events[0]["type"])
}

func TestIdleSweepEvictsSilentSessions(t *testing.T) {
	r, clk := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	clk.advance(45 * time.Second)
	r.handle(commandEvent{c: a, cmd: pongCmd{}})

	clk.advance(20 * time.Second)
	r.handle(sweepTickEvent{})

	// Bob has been silent for 65s; Alice ponged 20s ago.
	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "user_left", events[0]["type"])
	assert.Equal(t, "bob", events[0]["username"])

	assert.Nil(t, r.reg.get(b))
	assert.NotNil(t, r.reg.get(a))
	assert.True(t, b.closed)
}

func TestIdleSweepWithWedgedBuffers(t *testing.T) {
	r, clk := newTestRoom(time.Unix(1700000000, 0))

	// Both sessions go idle with full buffers, so evicting either one
	// cascades into dropping the other during the departure broadcast.
	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	for len(a.send) < cap(a.send) {
		a.send <- []byte("wedged")
	}
	for len(b.send) < cap(b.send) {
		b.send <- []byte("wedged")
	}

	clk.advance(90 * time.Second)
	require.NotPanics(t, func() {
		r.sweepIdle()
	})

	assert.Equal(t, 0, r.reg.count())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRegisterFailedCatchUpSkipsJoinAnnouncement(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")

	// The joiner's buffer can only hold part of the catch-up sequence, so
	// it is dropped mid-handshake.
	b := &client{send: make(chan []byte, 2)}
	r.handle(commandEvent{c: b, cmd: registerCmd{Username: "bob"}})

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "user_left", events[0]["type"])

	assert.Nil(t, r.reg.get(b))
	assert.True(t, b.closed)
}

func TestPongRefreshesActivityWithoutSideEffects(t *testing.T) {
	r, clk := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	before := r.reg.get(a).LastActivity

	clk.advance(10 * time.Second)
	r.handle(commandEvent{c: a, cmd: pongCmd{}})

	assert.Empty(t, drain(t, a))
	assert.True(t, r.reg.get(a).LastActivity.After(before))
}

func TestRolloverClearsHistoriesOnce(t *testing.T) {
	r, clk := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	r.handle(commandEvent{c: a, cmd: chatCmd{Text: "hi"}})
	r.handle(commandEvent{c: a, cmd: initMathGameCmd{}})
	r.handle(commandEvent{c: a, cmd: initHangmanGameCmd{}})
	drain(t, a)

	// One tick period elapses; the clear fires exactly once.
	clk.advance(time.Hour)
	r.handle(rolloverTickEvent{})

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "chat_cleared", events[0]["type"])

	assert.Empty(t, r.ledger.snapshot())

	// Both games are still in flight, so their records survive the clear.
	assert.Len(t, r.math.snapshots(), 1)
	assert.Len(t, r.hangman.snapshots(), 1)

	// An immediate second tick is a no-op.
	r.handle(rolloverTickEvent{})
	assert.Empty(t, drain(t, a))
}

func TestLateJoinerReceivesActiveRaceLeaderboards(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	r.handle(commandEvent{c: a, cmd: initRaceCmd{}})

	started := drain(t, a)
	require.Len(t, started, 1)
	raceID := started[0]["raceId"].(string)

	r.handle(commandEvent{c: a, cmd: submitScoreCmd{RaceID: raceID, Score: float64(42)}})
	drain(t, a)

	b := newTestClient()
	r.handle(commandEvent{c: b, cmd: registerCmd{Username: "bob"}})

	events := drain(t, b)
	require.Len(t, events, 4)
	assert.Equal(t, "leaderboard_update", events[3]["type"])
	assert.Equal(t, raceID, events[3]["raceId"])
}

func TestHandlerPanicIsConfined(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")

	require.NotPanics(t, func() {
		r.handle(commandEvent{c: nil, cmd: chatCmd{Text: "boom"}})
	})

	// The room still works afterwards.
	r.handle(commandEvent{c: a, cmd: chatCmd{Text: "still here"}})
	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "still here", events[0]["text"])
}
