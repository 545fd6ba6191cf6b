package main

import (
	"encoding/json"
	"fmt"
)

// Inbound commands. Every message a client may send decodes into exactly one
// of these variants; the room dispatches on the concrete type, so adding a
// message type means adding a variant here and a case there.
type command interface {
	isCommand()
}

type registerCmd struct {
	Username string
}

type chatCmd struct {
	Text string
}

type setUsernameCmd struct {
	Username string
}

type typingStartCmd struct{}

type typingStopCmd struct{}

type reactionCmd struct {
	MessageID string
	Emoji     string
	Count     int
}

type initRaceCmd struct{}

type submitScoreCmd struct {
	RaceID string
	Score  any
}

type initMathGameCmd struct{}

type submitMathAnswerCmd struct {
	GameID string
	Answer *float64
}

type initHangmanGameCmd struct{}

type submitHangmanResultCmd struct {
	GameID  string
	Correct bool
}

type pongCmd struct{}

type disconnectCmd struct{}

func (registerCmd) isCommand()            {}
func (chatCmd) isCommand()                {}
func (setUsernameCmd) isCommand()         {}
func (typingStartCmd) isCommand()         {}
func (typingStopCmd) isCommand()          {}
func (reactionCmd) isCommand()            {}
func (initRaceCmd) isCommand()            {}
func (submitScoreCmd) isCommand()         {}
func (initMathGameCmd) isCommand()        {}
func (submitMathAnswerCmd) isCommand()    {}
func (initHangmanGameCmd) isCommand()     {}
func (submitHangmanResultCmd) isCommand() {}
func (pongCmd) isCommand()                {}
func (disconnectCmd) isCommand()          {}

// clientEnvelope is the single JSON object all inbound messages arrive as.
// Score stays untyped so a bogus value can be answered with INVALID_SCORE
// instead of being dropped as unparseable.
type clientEnvelope struct {
	Type        string   `json:"type"`
	Username    string   `json:"username,omitempty"`
	Text        string   `json:"text,omitempty"`
	MessageID   string   `json:"messageId,omitempty"`
	Emoji       string   `json:"emoji,omitempty"`
	Count       int      `json:"count,omitempty"`
	RaceID      string   `json:"raceId,omitempty"`
	Score       any      `json:"score,omitempty"`
	GameID      string   `json:"gameId,omitempty"`
	Answer      *float64 `json:"answer,omitempty"`
	ElapsedTime *float64 `json:"elapsedTime,omitempty"`
	Time        *float64 `json:"time,omitempty"`
	Correct     bool     `json:"correct,omitempty"`
}

func parseCommand(data []byte) (command, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case "register":
		return registerCmd{Username: env.Username}, nil
	case "message":
		return chatCmd{Text: env.Text}, nil
	case "set_username":
		return setUsernameCmd{Username: env.Username}, nil
	case "typing_start":
		return typingStartCmd{}, nil
	case "typing_stop":
		return typingStopCmd{}, nil
	case "reaction":
		return reactionCmd{MessageID: env.MessageID, Emoji: env.Emoji, Count: env.Count}, nil
	case "init_race":
		return initRaceCmd{}, nil
	case "submit_score":
		return submitScoreCmd{RaceID: env.RaceID, Score: env.Score}, nil
	case "init_math_game":
		return initMathGameCmd{}, nil
	case "submit_math_answer":
		// elapsedTime is accepted on the wire but ranking uses the
		// server clock, so it never leaves the envelope.
		return submitMathAnswerCmd{GameID: env.GameID, Answer: env.Answer}, nil
	case "init_hangman_game":
		return initHangmanGameCmd{}, nil
	case "submit_hangman_result":
		return submitHangmanResultCmd{GameID: env.GameID, Correct: env.Correct}, nil
	case "pong":
		return pongCmd{}, nil
	case "disconnect":
		return disconnectCmd{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

// Error codes surfaced to the offending session only.
const (
	errInvalidScore = "INVALID_SCORE"
	errRaceNotFound = "RACE_NOT_FOUND"
	errRateLimited  = "RATE_LIMITED"
)

// Outbound events. Each carries its own type tag so a single marshal
// produces the full wire envelope.

type historyEvent struct {
	Type         string            `json:"type"` // "history"
	Messages     []ChatMessage     `json:"messages"`
	MathGames    []mathSnapshot    `json:"mathGames"`
	HangmanGames []hangmanSnapshot `json:"hangmanGames"`
}

type userInfoEvent struct {
	Type     string `json:"type"` // "user_info"
	Username string `json:"username"`
}

type userCountEvent struct {
	Type      string `json:"type"` // "user_count"
	UserCount int    `json:"userCount"`
}

type presenceEvent struct {
	Type      string `json:"type"` // "user_joined" or "user_left"
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
	UserCount int    `json:"userCount"`
}

type usernameChangedEvent struct {
	Type        string `json:"type"` // "username_changed"
	OldUsername string `json:"oldUsername"`
	NewUsername string `json:"newUsername"`
	Timestamp   int64  `json:"timestamp"`
}

type chatEvent struct {
	Type      string `json:"type"` // "message"
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type typingEvent struct {
	Type     string `json:"type"` // "user_typing" or "user_typing_stop"
	Username string `json:"username"`
}

type reactionEvent struct {
	Type      string `json:"type"` // "reaction"
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Username  string `json:"username"`
	Count     int    `json:"count"`
}

type chatClearedEvent struct {
	Type      string `json:"type"` // "chat_cleared"
	Timestamp int64  `json:"timestamp"`
}

type pingEvent struct {
	Type string `json:"type"` // "ping"
}

type raceStartedEvent struct {
	Type      string `json:"type"` // "interactive_race"
	RaceID    string `json:"raceId"`
	Timestamp int64  `json:"timestamp"`
}

type raceLeaderboardEvent struct {
	Type        string      `json:"type"` // "leaderboard_update"
	RaceID      string      `json:"raceId"`
	Leaderboard []raceEntry `json:"leaderboard"`
}

type errorEvent struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

type mathStartedEvent struct {
	Type      string `json:"type"` // "math_game_start"
	GameID    string `json:"gameId"`
	Problem   string `json:"problem"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type mathLeaderboardEvent struct {
	Type        string      `json:"type"` // "math_game_leaderboard_update"
	GameID      string      `json:"gameId"`
	Leaderboard []gameEntry `json:"leaderboard"`
}

type mathWonEvent struct {
	Type   string  `json:"type"` // "math_game_won"
	GameID string  `json:"gameId"`
	Winner string  `json:"winner"`
	Time   float64 `json:"time"`
}

type mathEndedEvent struct {
	Type        string      `json:"type"` // "math_game_end"
	GameID      string      `json:"gameId"`
	Winner      string      `json:"winner,omitempty"`
	Leaderboard []gameEntry `json:"leaderboard"`
	Timestamp   int64       `json:"timestamp"`
}

type hangmanStartedEvent struct {
	Type      string `json:"type"` // "hangman_game_start"
	GameID    string `json:"gameId"`
	Word      string `json:"word"`
	Hint      string `json:"hint"`
	StartTime int64  `json:"startTime"`
}

type hangmanLeaderboardEvent struct {
	Type        string      `json:"type"` // "hangman_leaderboard_update"
	GameID      string      `json:"gameId"`
	Leaderboard []gameEntry `json:"leaderboard"`
}

type hangmanWonEvent struct {
	Type   string `json:"type"` // "hangman_game_won"
	GameID string `json:"gameId"`
	Winner string `json:"winner"`
	Time   int64  `json:"time"`
}

type hangmanEndedEvent struct {
	Type        string      `json:"type"` // "hangman_game_end"
	GameID      string      `json:"gameId"`
	Winner      string      `json:"winner,omitempty"`
	Leaderboard []gameEntry `json:"leaderboard"`
	Timestamp   int64       `json:"timestamp"`
}
