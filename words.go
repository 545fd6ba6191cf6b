package main

import (
	"math/rand/v2"
)

type hangmanWord struct {
	word string
	hint string
}

// Curated pool for hangman rounds. Words are uppercase because the client
// keyboard only submits uppercase letters.
var hangmanWords = []hangmanWord{
	{"MIDNIGHT", "When both clock hands point straight up"},
	{"CONFETTI", "Falls when somebody wins"},
	{"KEYBOARD", "You are probably touching one right now"},
	{"AVOCADO", "Green fruit with a giant pit"},
	{"GALAXY", "Home to billions of stars"},
	{"WHISTLE", "Makes a sound without words"},
	{"VOLCANO", "Mountain with a temper"},
	{"PENGUIN", "Bird in a tuxedo"},
	{"SANDWICH", "Lunch between two slices"},
	{"TORNADO", "Spinning column of wind"},
	{"BLIZZARD", "Snowstorm turned up to eleven"},
	{"JUKEBOX", "Coin-operated music machine"},
	{"LANTERN", "Portable light from before flashlights"},
	{"OCTOPUS", "Eight arms, three hearts"},
	{"PYRAMID", "Ancient pointy tomb"},
	{"UMBRELLA", "Useless once the wind picks up"},
	{"HAMMOCK", "Nap suspended between two trees"},
	{"GLACIER", "River of ice in slow motion"},
	{"COMPASS", "Always knows which way is north"},
	{"WAFFLE", "Breakfast with a grid"},
}

func randomHangmanWord() hangmanWord {
	return hangmanWords[rand.IntN(len(hangmanWords))]
}
