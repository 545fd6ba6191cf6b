package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Room events. Everything that mutates room state, timer callbacks included,
// arrives through one channel and is handled by one goroutine, so no room
// state needs locking.
type event interface {
	isEvent()
}

type commandEvent struct {
	c   *client
	cmd command
}

type disconnectEvent struct {
	c *client
}

type heartbeatTickEvent struct{}

type sweepTickEvent struct{}

type rolloverTickEvent struct{}

type raceExpiredEvent struct {
	raceID string
}

type mathDeadlineEvent struct {
	gameID string
}

func (commandEvent) isEvent()       {}
func (disconnectEvent) isEvent()    {}
func (heartbeatTickEvent) isEvent() {}
func (sweepTickEvent) isEvent()     {}
func (rolloverTickEvent) isEvent()  {}
func (raceExpiredEvent) isEvent()   {}
func (mathDeadlineEvent) isEvent()  {}

// Room owns all state for the single shared room: sessions, chat history,
// and the three game engines.
type Room struct {
	cfg    *Config
	events chan event
	done   chan struct{}

	reg     *registry
	ledger  *messageLedger
	races   *raceBook
	math    *mathQuiz
	hangman *hangmanBook

	clock    func() time.Time
	schedule func(d time.Duration, ev event)
}

func newRoom(cfg *Config) *Room {
	r := &Room{
		cfg:     cfg,
		events:  make(chan event, 256),
		done:    make(chan struct{}),
		reg:     newRegistry(),
		races:   newRaceBook(),
		math:    newMathQuiz(),
		hangman: newHangmanBook(),
		clock:   time.Now,
	}
	r.ledger = newMessageLedger(r.now())
	r.schedule = func(d time.Duration, ev event) {
		time.AfterFunc(d, func() {
			r.post(ev)
		})
	}

	return r
}

func (r *Room) now() int64 {
	return r.clock().UnixMilli()
}

// post delivers an event to the room loop, giving up once the room is gone.
func (r *Room) post(ev event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Room) run(ctx context.Context) {
	heartbeat := time.NewTicker(r.cfg.pingInterval)
	defer heartbeat.Stop()
	sweep := time.NewTicker(r.cfg.sweepInterval)
	defer sweep.Stop()
	rollover := time.NewTicker(r.cfg.rolloverInterval)
	defer rollover.Stop()

	for {
		select {
		case <-ctx.Done():
			close(r.done)
			r.closeAll()
			return
		case ev := <-r.events:
			r.handle(ev)
		case <-heartbeat.C:
			r.handle(heartbeatTickEvent{})
		case <-sweep.C:
			r.handle(sweepTickEvent{})
		case <-rollover.C:
			r.handle(rolloverTickEvent{})
		}
	}
}

// handle processes one event to completion. A panic from a single handler is
// confined here so bad input can never take the room down.
func (r *Room) handle(ev event) {
	defer func() {
		if rec := recover(); rec != nil {
			logf(r.cfg, "ROOM: Recovered from handler panic: %v", rec)
		}
	}()

	switch ev := ev.(type) {
	case commandEvent:
		r.handleCommand(ev.c, ev.cmd)
	case disconnectEvent:
		r.dropClient(ev.c, true)
	case heartbeatTickEvent:
		r.broadcast(pingEvent{Type: "ping"}, nil)
	case sweepTickEvent:
		r.sweepIdle()
	case rolloverTickEvent:
		r.maybeRollover()
	case raceExpiredEvent:
		r.races.expire(ev.raceID)
	case mathDeadlineEvent:
		r.endMathGame(ev.gameID)
	}
}

// handleCommand dispatches an inbound command. Anything but register from an
// unregistered connection is ignored without feedback.
func (r *Room) handleCommand(c *client, cmd command) {
	if c.closed {
		return
	}

	sess := r.reg.get(c)
	if sess == nil {
		if reg, ok := cmd.(registerCmd); ok {
			r.register(c, reg.Username)
		}
		return
	}

	sess.LastActivity = r.clock()

	switch cmd := cmd.(type) {
	case registerCmd:
		// Already registered.
	case chatCmd:
		r.handleChat(sess, cmd)
	case setUsernameCmd:
		r.handleSetUsername(sess, cmd)
	case typingStartCmd:
		r.broadcast(typingEvent{Type: "user_typing", Username: sess.Name}, c)
	case typingStopCmd:
		r.broadcast(typingEvent{Type: "user_typing_stop", Username: sess.Name}, c)
	case reactionCmd:
		r.broadcast(reactionEvent{
			Type:      "reaction",
			MessageID: cmd.MessageID,
			Emoji:     cmd.Emoji,
			Username:  sess.Name,
			Count:     cmd.Count,
		}, nil)
	case initRaceCmd:
		r.startRace()
	case submitScoreCmd:
		r.handleScore(sess, cmd)
	case initMathGameCmd:
		r.startMathGame()
	case submitMathAnswerCmd:
		r.handleMathAnswer(sess, cmd)
	case initHangmanGameCmd:
		r.startHangmanGame()
	case submitHangmanResultCmd:
		r.handleHangmanResult(sess, cmd)
	case pongCmd:
		// Activity already refreshed above; nothing else to do.
	case disconnectCmd:
		r.dropClient(c, true)
	}
}

// register completes the handshake: the session is created, caught up on
// room state, and announced to everyone else.
func (r *Room) register(c *client, requested string) {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = randomName()
	}

	now := r.clock()
	sess := &Session{
		client:       c,
		Name:         name,
		JoinedAt:     now,
		LastActivity: now,
	}
	r.reg.add(c, sess)

	r.sendTo(c, historyEvent{
		Type:         "history",
		Messages:     r.ledger.snapshot(),
		MathGames:    r.math.snapshots(),
		HangmanGames: r.hangman.snapshots(),
	})
	r.sendTo(c, userInfoEvent{Type: "user_info", Username: name})
	r.sendTo(c, userCountEvent{Type: "user_count", UserCount: r.reg.count()})

	// Late joiners still see in-progress races.
	for _, id := range r.races.activeIDs() {
		r.sendTo(c, raceLeaderboardEvent{
			Type:        "leaderboard_update",
			RaceID:      id,
			Leaderboard: r.races.leaderboard(id),
		})
	}

	// The catch-up sends may already have overflowed the joiner's buffer
	// and dropped it; a departed user must not be announced as joining.
	if c.closed {
		return
	}

	r.broadcast(presenceEvent{
		Type:      "user_joined",
		Username:  name,
		Timestamp: now.UnixMilli(),
		UserCount: r.reg.count(),
	}, c)

	logf(r.cfg, "ROOM: %q joined (%d online)", name, r.reg.count())
}

func (r *Room) handleChat(sess *Session, cmd chatCmd) {
	msg := ChatMessage{
		Username:  sess.Name,
		Text:      cmd.Text,
		Timestamp: r.now(),
	}

	r.ledger.append(msg)

	r.broadcast(chatEvent{
		Type:      "message",
		Username:  msg.Username,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}, nil)
}

func (r *Room) handleSetUsername(sess *Session, cmd setUsernameCmd) {
	newName := strings.TrimSpace(cmd.Username)
	if newName == "" {
		return
	}

	oldName := sess.Name
	sess.Name = newName

	r.broadcast(usernameChangedEvent{
		Type:        "username_changed",
		OldUsername: oldName,
		NewUsername: newName,
		Timestamp:   r.now(),
	}, nil)

	logf(r.cfg, "ROOM: %q renamed to %q", oldName, newName)
}

func (r *Room) startRace() {
	race := r.races.create(r.now())

	r.broadcast(raceStartedEvent{
		Type:      "interactive_race",
		RaceID:    race.id,
		Timestamp: race.started,
	}, nil)

	r.schedule(raceTTL, raceExpiredEvent{raceID: race.id})

	logf(r.cfg, "RACE: Started race %s", race.id)
}

func (r *Room) handleScore(sess *Session, cmd submitScoreCmd) {
	leaderboard, code := r.races.submit(cmd.RaceID, sess.Name, cmd.Score, r.now())
	if code != "" {
		r.sendTo(sess.client, errorEvent{
			Type:    "error",
			Code:    code,
			Message: errorMessage(code),
		})
		return
	}

	r.broadcast(raceLeaderboardEvent{
		Type:        "leaderboard_update",
		RaceID:      cmd.RaceID,
		Leaderboard: leaderboard,
	}, nil)
}

func errorMessage(code string) string {
	switch code {
	case errInvalidScore:
		return "Score must be a number between 0 and 100."
	case errRaceNotFound:
		return "That race no longer exists."
	case errRateLimited:
		return "Please wait before submitting another score."
	default:
		return "Something went wrong."
	}
}

func (r *Room) startMathGame() {
	g := r.math.start(r.now())
	if g == nil {
		return
	}

	r.broadcast(mathStartedEvent{
		Type:      "math_game_start",
		GameID:    g.id,
		Problem:   g.problem,
		StartTime: g.started,
		EndTime:   g.ends,
	}, nil)

	r.schedule(mathWindow, mathDeadlineEvent{gameID: g.id})

	logf(r.cfg, "MATH: Started game %s (%s)", g.id, g.problem)
}

func (r *Room) handleMathAnswer(sess *Session, cmd submitMathAnswerCmd) {
	if cmd.Answer == nil {
		return
	}

	g, firstWin := r.math.submit(cmd.GameID, sess.Name, *cmd.Answer, r.now())
	if g == nil {
		return
	}

	r.broadcast(mathLeaderboardEvent{
		Type:        "math_game_leaderboard_update",
		GameID:      g.id,
		Leaderboard: g.leaderboard(),
	}, nil)

	if firstWin {
		r.broadcast(mathWonEvent{
			Type:   "math_game_won",
			GameID: g.id,
			Winner: g.winner,
			Time:   g.winTime,
		}, nil)

		logf(r.cfg, "MATH: %q won game %s in %.2fs", g.winner, g.id, g.winTime)
	}
}

func (r *Room) endMathGame(gameID string) {
	g := r.math.end(gameID)
	if g == nil {
		return
	}

	r.broadcast(mathEndedEvent{
		Type:        "math_game_end",
		GameID:      g.id,
		Winner:      g.winner,
		Leaderboard: g.leaderboard(),
		Timestamp:   r.now(),
	}, nil)
}

func (r *Room) startHangmanGame() {
	g, prev := r.hangman.start(r.now())

	if prev != nil {
		r.broadcast(hangmanEndedEvent{
			Type:        "hangman_game_end",
			GameID:      prev.id,
			Winner:      prev.winner,
			Leaderboard: prev.leaderboard(),
			Timestamp:   r.now(),
		}, nil)
	}

	r.broadcast(hangmanStartedEvent{
		Type:      "hangman_game_start",
		GameID:    g.id,
		Word:      g.word,
		Hint:      g.hint,
		StartTime: g.started,
	}, nil)

	logf(r.cfg, "HANGMAN: Started game %s (%q)", g.id, g.word)
}

func (r *Room) handleHangmanResult(sess *Session, cmd submitHangmanResultCmd) {
	g, firstWin := r.hangman.submit(cmd.GameID, sess.Name, cmd.Correct, r.now())
	if g == nil {
		return
	}

	r.broadcast(hangmanLeaderboardEvent{
		Type:        "hangman_leaderboard_update",
		GameID:      g.id,
		Leaderboard: g.leaderboard(),
	}, nil)

	if firstWin {
		r.broadcast(hangmanWonEvent{
			Type:   "hangman_game_won",
			GameID: g.id,
			Winner: g.winner,
			Time:   g.winTime,
		}, nil)

		logf(r.cfg, "HANGMAN: %q won game %s in %dms", g.winner, g.id, g.winTime)
	}
}

// broadcast serializes an event once and fans it out to every registered
// session except the excluded one. A session whose buffer cannot take the
// write is treated as dead and removed.
func (r *Room) broadcast(ev any, exclude *client) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logf(r.cfg, "ROOM: Failed to serialize event: %v", err)
		return
	}

	var dead []*client
	for c := range r.reg.sessions {
		if c == exclude {
			continue
		}
		if !c.trySend(payload) {
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		r.dropClient(c, true)
	}
}

// sendTo delivers an event to a single session, with the same dead-connection
// handling as broadcast.
func (r *Room) sendTo(c *client, ev any) {
	if c.closed {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logf(r.cfg, "ROOM: Failed to serialize event: %v", err)
		return
	}

	if !c.trySend(payload) {
		r.dropClient(c, true)
	}
}

// dropClient removes a connection from the room and, when it held a
// registered session, announces the departure.
func (r *Room) dropClient(c *client, notify bool) {
	sess := r.reg.remove(c)

	if !c.closed {
		c.closed = true
		close(c.send)
	}

	if sess == nil {
		return
	}

	if notify {
		r.broadcast(presenceEvent{
			Type:      "user_left",
			Username:  sess.Name,
			Timestamp: r.now(),
			UserCount: r.reg.count(),
		}, nil)
	}

	logf(r.cfg, "ROOM: %q left (%d online)", sess.Name, r.reg.count())
}

// sweepIdle evicts sessions that have not sent anything for the configured
// idle timeout.
func (r *Room) sweepIdle() {
	cutoff := r.clock().Add(-r.cfg.idleTimeout)

	// Names are captured up front: evicting one session can cascade into
	// dropping another whose buffer is full, so the registry may no longer
	// hold a client by the time the loop reaches it.
	type evicted struct {
		c    *client
		name string
	}

	var idle []evicted
	for c, sess := range r.reg.sessions {
		if sess.LastActivity.Before(cutoff) {
			idle = append(idle, evicted{c, sess.Name})
		}
	}

	for _, e := range idle {
		logf(r.cfg, "ROOM: Evicting idle session %q", e.name)
		r.dropClient(e.c, true)
	}
}

// maybeRollover wipes chat and game histories once the rollover interval has
// elapsed, announcing the clear to everyone.
func (r *Room) maybeRollover() {
	now := r.now()
	if !r.ledger.maybeRollover(now, r.cfg.rolloverInterval) {
		return
	}

	r.math.clearHistory()
	r.hangman.clearHistory()

	r.broadcast(chatClearedEvent{Type: "chat_cleared", Timestamp: now}, nil)

	logf(r.cfg, "ROOM: Rolled over chat and game history")
}

func (r *Room) closeAll() {
	for c := range r.reg.sessions {
		delete(r.reg.sessions, c)
		if !c.closed {
			c.closed = true
			close(c.send)
		}
	}
}
