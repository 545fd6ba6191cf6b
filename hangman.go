package main

import (
	"sort"

	"github.com/google/uuid"
)

type hangmanSubmission struct {
	username string
	elapsed  int64 // milliseconds since game start
	correct  bool
	at       int64
}

// hangmanGame stays active until superseded; there is no server timeout.
// The full word is broadcast at start, so masking and guessing are entirely
// client-side and only the reported outcome reaches the server.
type hangmanGame struct {
	id      string
	word    string
	hint    string
	started int64
	subs    []hangmanSubmission
	winner  string
	winTime int64
	ended   bool
}

type hangmanBook struct {
	active  *hangmanGame
	history []*hangmanGame
}

func newHangmanBook() *hangmanBook {
	return &hangmanBook{}
}

// start picks a fresh word and supersedes any running game, which is
// returned so the caller can announce its end.
func (b *hangmanBook) start(now int64) (g, prev *hangmanGame) {
	prev = b.active
	if prev != nil {
		prev.ended = true
	}

	pick := randomHangmanWord()
	g = &hangmanGame{
		id:      uuid.NewString(),
		word:    pick.word,
		hint:    pick.hint,
		started: now,
	}

	b.active = g
	b.history = append(b.history, g)
	if len(b.history) > gameHistoryLimit {
		b.history = b.history[1:]
	}

	return g, prev
}

// submit records a reported outcome for the active game. Elapsed time comes
// from the server clock; the correctness claim cannot be audited and is
// taken as-is. Submissions naming a superseded gameID are dropped.
func (b *hangmanBook) submit(gameID, username string, correct bool, now int64) (g *hangmanGame, firstWin bool) {
	g = b.active
	if g == nil || g.id != gameID {
		return nil, false
	}

	elapsed := now - g.started

	g.subs = append(g.subs, hangmanSubmission{
		username: username,
		elapsed:  elapsed,
		correct:  correct,
		at:       now,
	})

	if correct && g.winner == "" {
		g.winner = username
		g.winTime = elapsed
		firstWin = true
	}

	return g, firstWin
}

func (g *hangmanGame) leaderboard() []gameEntry {
	subs := make([]hangmanSubmission, len(g.subs))
	copy(subs, g.subs)

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].correct != subs[j].correct {
			return subs[i].correct
		}
		return subs[i].elapsed < subs[j].elapsed
	})

	if len(subs) > leaderboardLimit {
		subs = subs[:leaderboardLimit]
	}

	entries := make([]gameEntry, 0, len(subs))
	for _, s := range subs {
		entries = append(entries, gameEntry{Username: s.username, Time: float64(s.elapsed), Correct: s.correct})
	}

	return entries
}

type hangmanSnapshot struct {
	GameID      string      `json:"gameId"`
	Word        string      `json:"word"`
	Hint        string      `json:"hint"`
	StartTime   int64       `json:"startTime"`
	Completed   bool        `json:"completed"`
	Winner      string      `json:"winner,omitempty"`
	Leaderboard []gameEntry `json:"leaderboard"`
}

func (b *hangmanBook) snapshots() []hangmanSnapshot {
	out := make([]hangmanSnapshot, 0, len(b.history))
	for _, g := range b.history {
		out = append(out, hangmanSnapshot{
			GameID:      g.id,
			Word:        g.word,
			Hint:        g.hint,
			StartTime:   g.started,
			Completed:   g.ended,
			Winner:      g.winner,
			Leaderboard: g.leaderboard(),
		})
	}

	return out
}

// clearHistory drops finished games, keeping the active game's record so a
// joiner arriving mid-round still sees it in the history snapshot.
func (b *hangmanBook) clearHistory() {
	b.history = nil
	if b.active != nil {
		b.history = append(b.history, b.active)
	}
}
