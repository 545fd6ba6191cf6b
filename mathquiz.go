package main

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	mathWindow       = 30 * time.Second
	gameHistoryLimit = 20
)

// gameEntry is the shared leaderboard row for the math quiz and hangman:
// winners rank before losers, faster before slower. Time is seconds for the
// math quiz and milliseconds for hangman, matching what each widget renders.
type gameEntry struct {
	Username string  `json:"username"`
	Time     float64 `json:"time"`
	Correct  bool    `json:"correct"`
}

type mathSubmission struct {
	username string
	elapsed  float64 // seconds since game start
	correct  bool
	at       int64
}

type mathGame struct {
	id      string
	problem string
	answer  int
	started int64
	ends    int64
	subs    []mathSubmission
	winner  string
	winTime float64
	ended   bool
}

// mathQuiz holds the single active game plus a bounded history of past
// games so late joiners can render completed rounds.
type mathQuiz struct {
	active  *mathGame
	history []*mathGame
}

func newMathQuiz() *mathQuiz {
	return &mathQuiz{}
}

var mathOperators = []string{"+", "-", "×"}

func newMathProblem() (problem string, answer int) {
	a := rand.IntN(50) + 1
	b := rand.IntN(50) + 1
	op := mathOperators[rand.IntN(len(mathOperators))]

	switch op {
	case "+":
		answer = a + b
	case "-":
		answer = a - b
	case "×":
		answer = a * b
	}

	return fmt.Sprintf("%d %s %d", a, op, b), answer
}

// start creates a new game unless one is already running.
func (q *mathQuiz) start(now int64) *mathGame {
	if q.active != nil {
		return nil
	}

	problem, answer := newMathProblem()
	g := &mathGame{
		id:      uuid.NewString(),
		problem: problem,
		answer:  answer,
		started: now,
		ends:    now + mathWindow.Milliseconds(),
	}

	q.active = g
	q.history = append(q.history, g)
	if len(q.history) > gameHistoryLimit {
		q.history = q.history[1:]
	}

	return g
}

// submit records an answer against the active game. Elapsed time and
// correctness both come from the server's own clock and stored answer.
// firstWin is true only for the submission that decides the game.
func (q *mathQuiz) submit(gameID, username string, answer float64, now int64) (g *mathGame, firstWin bool) {
	g = q.active
	if g == nil || g.id != gameID || now >= g.ends {
		return nil, false
	}

	correct := answer == float64(g.answer)
	elapsed := float64(now-g.started) / 1000

	g.subs = append(g.subs, mathSubmission{
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

// end closes the active game if it still matches gameID, guarding against a
// stale timer firing after a newer game has replaced it.
func (q *mathQuiz) end(gameID string) *mathGame {
	g := q.active
	if g == nil || g.id != gameID {
		return nil
	}

	g.ended = true
	q.active = nil

	return g
}

func (g *mathGame) leaderboard() []gameEntry {
	subs := make([]mathSubmission, len(g.subs))
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
		entries = append(entries, gameEntry{Username: s.username, Time: s.elapsed, Correct: s.correct})
	}

	return entries
}

type mathSnapshot struct {
	GameID      string      `json:"gameId"`
	Problem     string      `json:"problem"`
	StartTime   int64       `json:"startTime"`
	EndTime     int64       `json:"endTime"`
	Completed   bool        `json:"completed"`
	Winner      string      `json:"winner,omitempty"`
	Leaderboard []gameEntry `json:"leaderboard"`
}

func (q *mathQuiz) snapshots() []mathSnapshot {
	out := make([]mathSnapshot, 0, len(q.history))
	for _, g := range q.history {
		out = append(out, mathSnapshot{
			GameID:      g.id,
			Problem:     g.problem,
			StartTime:   g.started,
			EndTime:     g.ends,
			Completed:   g.ended,
			Winner:      g.winner,
			Leaderboard: g.leaderboard(),
		})
	}

	return out
}

// clearHistory drops finished games. The active game keeps its record so a
// joiner arriving mid-round still sees it in the history snapshot.
func (q *mathQuiz) clearHistory() {
	q.history = nil
	if q.active != nil {
		q.history = append(q.history, q.active)
	}
}
