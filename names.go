package main

import (
	"math/rand/v2"
)

type nameBucket struct {
	adjectives []string
	nouns      []string
}

// One bucket per letter so generated names always alliterate.
var nameBuckets = []nameBucket{
	{[]string{"Absurd", "Awkward", "Anxious", "Angry"}, []string{"Armadillos", "Avocados", "Accordions", "Anchovies"}},
	{[]string{"Bamboozled", "Beefy", "Bonkers", "Burpy"}, []string{"Burritos", "Baboons", "Bagpipes", "Biscuits"}},
	{[]string{"Confused", "Chunky", "Caffeinated", "Clumsy"}, []string{"Cabbages", "Chihuahuas", "Coconuts", "Cactus"}},
	{[]string{"Derpy", "Dramatic", "Doughy", "Drippy"}, []string{"Donuts", "Dumplings", "Doorknobs", "Dingoes"}},
	{[]string{"Existential", "Exploding", "Eccentric", "Elastic"}, []string{"Eggplants", "Earlobes", "Elbows", "Emus"}},
	{[]string{"Flabby", "Funky", "Ferocious", "Fluffy"}, []string{"Flamingos", "Fajitas", "Fungus", "Ferrets"}},
	{[]string{"Grumpy", "Greasy", "Giggly", "Glitchy"}, []string{"Giraffes", "Gherkins", "Goblins", "Grandmas"}},
	{[]string{"Hysterical", "Hairy", "Hollow", "Hypnotic"}, []string{"Hamsters", "Hotdogs", "Hedgehogs", "Hipsters"}},
	{[]string{"Irrational", "Itchy", "Inverted", "Invisible"}, []string{"Iguanas", "Icebergs", "Insects", "Impostors"}},
	{[]string{"Jiggly", "Jazzy", "Jittery", "Judgmental"}, []string{"Jellybeans", "Jackrabbits", "Jalapenos", "Jumpsuits"}},
	{[]string{"Kooky", "Knobbly", "Knotty", "Klutzy"}, []string{"Kangaroos", "Kazoos", "Kebabs", "Kittens"}},
	{[]string{"Lumpy", "Loopy", "Lazy", "Long"}, []string{"Llamas", "Lobsters", "Loaves", "Lemons"}},
	{[]string{"Mushy", "Manic", "Moist", "Melodramatic"}, []string{"Muffins", "Meatballs", "Manatees", "Mustaches"}},
	{[]string{"Nervous", "Noodle", "Naughty", "Noisy"}, []string{"Narwhals", "Nuggets", "Ninjas", "Noses"}},
	{[]string{"Oddball", "Oily", "Overcooked", "Obnoxious"}, []string{"Ostriches", "Onions", "Omelets", "Octopuses"}},
	{[]string{"Pudgy", "Panic", "Peculiar", "Potato"}, []string{"Pickles", "Pigeons", "Pancakes", "Poodles"}},
	{[]string{"Queasy", "Quirky", "Questionable", "Quivering"}, []string{"Quokkas", "Quesadillas", "Quacks", "Queens"}},
	{[]string{"Round", "Rusty", "Rebellious", "Roasted"}, []string{"Raccoons", "Ravioli", "Roosters", "Radishes"}},
	{[]string{"Soggy", "Spicy", "Squeaky", "Suspicious"}, []string{"Sausages", "Sloths", "Squirrels", "Sandwiches"}},
	{[]string{"Tubby", "Twitchy", "Tasty", "Terrified"}, []string{"Toasters", "Turnips", "Tacos", "Turkeys"}},
	{[]string{"Unhinged", "Unwashed", "Useless", "Unlucky"}, []string{"Unicorns", "Underwear", "Utensils", "Uncles"}},
	{[]string{"Violent", "Vague", "Vengeful", "Vegetarian"}, []string{"Vultures", "Vacuums", "Vegetables", "Velociraptors"}},
	{[]string{"Wobbly", "Wiggly", "Whiny", "Wrinkly"}, []string{"Walruses", "Waffles", "Weasels", "Wombats"}},
	{[]string{"Xtra", "Xenon", "Xeric"}, []string{"Xylophones", "X-rays"}},
	{[]string{"Yelling", "Yeasty", "Yawning", "Yucky"}, []string{"Yetis", "Yogurts", "Yams", "Yoyos"}},
	{[]string{"Zesty", "Zonked", "Zigzag", "Zealous"}, []string{"Zombies", "Zucchinis", "Zebras", "Zippers"}},
}

// randomName draws a uniformly random letter bucket, then a uniformly random
// adjective and noun from it. Collisions between sessions are allowed.
func randomName() string {
	bucket := nameBuckets[rand.IntN(len(nameBuckets))]
	adj := bucket.adjectives[rand.IntN(len(bucket.adjectives))]
	noun := bucket.nouns[rand.IntN(len(bucket.nouns))]

	return adj + " " + noun
}
