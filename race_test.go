package main

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitScoreValidation(t *testing.T) {
	tests := []struct {
		name  string
		score any
		code  string
	}{
		{"negative", float64(-1), errInvalidScore},
		{"over maximum", float64(101), errInvalidScore},
		{"not a number", "abc", errInvalidScore},
		{"missing", nil, errInvalidScore},
		{"boolean", true, errInvalidScore},
		{"infinite", math.Inf(1), errInvalidScore},
		{"nan", math.NaN(), errInvalidScore},
		{"zero", float64(0), ""},
		{"maximum", float64(100), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newRaceBook()
			race := b.create(1000)

			lb, code := b.submit(race.id, "alice", tt.score, 2000)
			assert.Equal(t, tt.code, code)

			if tt.code != "" {
				assert.Nil(t, lb)
				assert.Empty(t, race.scores)
			} else {
				assert.Len(t, lb, 1)
			}
		})
	}
}

func TestSubmitScoreUnknownRace(t *testing.T) {
	b := newRaceBook()

	// A bad score is reported as such even when the race doesn't exist.
	_, code := b.submit("nope", "alice", "abc", 1000)
	assert.Equal(t, errInvalidScore, code)

	_, code = b.submit("nope", "alice", float64(50), 1000)
	assert.Equal(t, errRaceNotFound, code)
}

func TestSubmitScoreCooldown(t *testing.T) {
	b := newRaceBook()
	race := b.create(0)

	_, code := b.submit(race.id, "alice", float64(10), 1000)
	require.Empty(t, code)

	// Within the 10s window.
	_, code = b.submit(race.id, "alice", float64(20), 6000)
	assert.Equal(t, errRateLimited, code)

	// Someone else is unaffected.
	_, code = b.submit(race.id, "bob", float64(20), 6000)
	assert.Empty(t, code)

	// After the window.
	_, code = b.submit(race.id, "alice", float64(20), 11_000)
	assert.Empty(t, code)
}

func TestSubmitScoreOverwrites(t *testing.T) {
	b := newRaceBook()
	race := b.create(0)

	_, code := b.submit(race.id, "alice", float64(10), 1000)
	require.Empty(t, code)

	lb, code := b.submit(race.id, "alice", float64(5), 12_000)
	require.Empty(t, code)

	// One entry per user, last write wins.
	require.Len(t, lb, 1)
	assert.Equal(t, 5.0, lb[0].Score)
}

func TestSubmitScoreRounds(t *testing.T) {
	b := newRaceBook()
	race := b.create(0)

	lb, code := b.submit(race.id, "alice", 3.14159, 1000)
	require.Empty(t, code)
	assert.Equal(t, 3.14, lb[0].Score)
}

func TestLeaderboardOrdering(t *testing.T) {
	b := newRaceBook()
	race := b.create(0)

	_, code := b.submit(race.id, "carol", 3.2, 1000)
	require.Empty(t, code)
	_, code = b.submit(race.id, "alice", 7.5, 2000)
	require.Empty(t, code)
	lb, code := b.submit(race.id, "bob", 3.2, 3000)
	require.Empty(t, code)

	require.Len(t, lb, 3)
	assert.Equal(t, "alice", lb[0].Username)
	// Equal scores rank by earlier submission.
	assert.Equal(t, "carol", lb[1].Username)
	assert.Equal(t, "bob", lb[2].Username)
}

func TestLeaderboardTruncated(t *testing.T) {
	b := newRaceBook()
	race := b.create(0)

	var lb []raceEntry
	for i := range 60 {
		var code string
		lb, code = b.submit(race.id, fmt.Sprintf("user%02d", i), float64(i%100), int64(1000+i))
		require.Empty(t, code)
	}

	assert.Len(t, lb, leaderboardLimit)
}

func TestRaceExpiry(t *testing.T) {
	b := newRaceBook()
	race := b.create(0)

	_, code := b.submit(race.id, "alice", float64(10), 1000)
	require.Empty(t, code)

	b.expire(race.id)

	_, code = b.submit(race.id, "alice", float64(10), int64(raceTTL.Milliseconds())+1)
	assert.Equal(t, errRaceNotFound, code)

	// Cooldown records die with the race.
	assert.Empty(t, b.cooldowns)
	assert.Empty(t, b.activeIDs())
}

func TestRoomSchedulesRaceExpiry(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	var scheduled []event
	r.schedule = func(d time.Duration, ev event) {
		assert.Equal(t, raceTTL, d)
		scheduled = append(scheduled, ev)
	}

	a := registerClient(t, r, "alice")
	r.handle(commandEvent{c: a, cmd: initRaceCmd{}})

	started := drain(t, a)
	require.Len(t, started, 1)
	assert.Equal(t, "interactive_race", started[0]["type"])
	raceID := started[0]["raceId"].(string)

	require.Len(t, scheduled, 1)
	assert.Equal(t, raceExpiredEvent{raceID: raceID}, scheduled[0])

	// Firing the expiry makes the race unreachable.
	r.handle(scheduled[0])
	r.handle(commandEvent{c: a, cmd: submitScoreCmd{RaceID: raceID, Score: float64(10)}})

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0]["type"])
	assert.Equal(t, errRaceNotFound, events[0]["code"])
}

func TestRaceErrorGoesToSenderOnly(t *testing.T) {
	r, _ := newTestRoom(time.Unix(1700000000, 0))

	a := registerClient(t, r, "alice")
	b := registerClient(t, r, "bob")
	drain(t, a)

	r.handle(commandEvent{c: a, cmd: submitScoreCmd{RaceID: "nope", Score: "abc"}})

	events := drain(t, a)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0]["type"])
	assert.Equal(t, errInvalidScore, events[0]["code"])

	assert.Empty(t, drain(t, b))
}

func TestConcurrentRaces(t *testing.T) {
	b := newRaceBook()
	first := b.create(0)
	second := b.create(1)

	require.NotEqual(t, first.id, second.id)

	_, code := b.submit(first.id, "alice", float64(10), 1000)
	require.Empty(t, code)
	lb, code := b.submit(second.id, "alice", float64(20), 2000)
	require.Empty(t, code)

	// Scores and cooldowns are scoped per race.
	require.Len(t, lb, 1)
	assert.Equal(t, 20.0, lb[0].Score)
	assert.Len(t, b.activeIDs(), 2)
}
