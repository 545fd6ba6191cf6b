package main

import (
	"crypto/rand"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	raceTTL          = 120 * time.Second
	raceCooldown     = 10 * time.Second
	leaderboardLimit = 50
)

// raceEntry is the public leaderboard projection: name and score only.
type raceEntry struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

type raceScore struct {
	score float64
	at    int64
}

type race struct {
	id      string
	started int64
	scores  map[string]raceScore
}

// raceBook tracks every live race plus the per-(race, user) submission
// cooldowns. Cooldown records die with their race.
type raceBook struct {
	races     map[string]*race
	cooldowns map[string]int64
}

func newRaceBook() *raceBook {
	return &raceBook{
		races:     make(map[string]*race),
		cooldowns: make(map[string]int64),
	}
}

// newRaceID mints a time-prefixed id with a crypto-random base36 suffix.
func newRaceID(now int64) string {
	const letters = "0123456789abcdefghijklmnopqrstuvwxyz"

	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, 5)
	for i := range out {
		out[i] = letters[int(buf[i])%len(letters)]
	}

	return strconv.FormatInt(now, 36) + string(out)
}

func (b *raceBook) create(now int64) *race {
	r := &race{
		id:      newRaceID(now),
		started: now,
		scores:  make(map[string]raceScore),
	}
	b.races[r.id] = r

	return r
}

// expire removes a race along with its scores and cooldown records.
func (b *raceBook) expire(id string) {
	delete(b.races, id)

	for key := range b.cooldowns {
		if strings.HasPrefix(key, id+"|") {
			delete(b.cooldowns, key)
		}
	}
}

// submit validates and records a score, returning the updated leaderboard, or
// an error code when the submission is rejected. Checks run in a fixed order:
// score shape first, then race existence, then the cooldown.
func (b *raceBook) submit(id, username string, rawScore any, now int64) ([]raceEntry, string) {
	score, ok := rawScore.(float64)
	if !ok || math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 100 {
		return nil, errInvalidScore
	}

	r, ok := b.races[id]
	if !ok {
		return nil, errRaceNotFound
	}

	key := id + "|" + username
	if last, ok := b.cooldowns[key]; ok && now-last < raceCooldown.Milliseconds() {
		return nil, errRateLimited
	}

	// One entry per user per race; resubmission overwrites.
	r.scores[username] = raceScore{
		score: math.Round(score*100) / 100,
		at:    now,
	}
	b.cooldowns[key] = now

	return b.leaderboard(id), ""
}

// leaderboard sorts by score descending, breaking ties by earlier submission,
// truncated to the top leaderboardLimit entries.
func (b *raceBook) leaderboard(id string) []raceEntry {
	r, ok := b.races[id]
	if !ok {
		return nil
	}

	type ranked struct {
		username string
		raceScore
	}

	all := make([]ranked, 0, len(r.scores))
	for username, s := range r.scores {
		all = append(all, ranked{username, s})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].at < all[j].at
	})

	if len(all) > leaderboardLimit {
		all = all[:leaderboardLimit]
	}

	entries := make([]raceEntry, 0, len(all))
	for _, e := range all {
		entries = append(entries, raceEntry{Username: e.username, Score: e.score})
	}

	return entries
}

// activeIDs lists live races in creation order, for late-joiner snapshots.
func (b *raceBook) activeIDs() []string {
	ids := make([]string, 0, len(b.races))
	for id := range b.races {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return b.races[ids[i]].started < b.races[ids[j]].started
	})

	return ids
}
