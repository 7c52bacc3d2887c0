package integrity

// FireLevel describes the visual intensity of a kept-promise streak.
type FireLevel struct {
	Level int
	Name  string
	Emoji string
	Color string
	Min   int
}

// fireLevels is a step function over streak length, ordered by Min.
var fireLevels = []FireLevel{
	{Level: 0, Name: "Cold", Emoji: "🪨", Color: "gray", Min: 0},
	{Level: 1, Name: "Spark", Emoji: "✨", Color: "yellow", Min: 1},
	{Level: 2, Name: "Kindled", Emoji: "🔥", Color: "orange", Min: 3},
	{Level: 3, Name: "Burning", Emoji: "🔥🔥", Color: "red", Min: 7},
	{Level: 4, Name: "Blazing", Emoji: "🔥🔥🔥", Color: "crimson", Min: 14},
	{Level: 5, Name: "Inferno", Emoji: "🌋", Color: "purple", Min: 30},
}

// StreakFireLevel returns the fire level for a current streak length.
// Level 0 at streak 0; negative inputs are treated as 0.
func StreakFireLevel(currentStreak int) FireLevel {
	if currentStreak < 0 {
		currentStreak = 0
	}
	level := fireLevels[0]
	for _, fl := range fireLevels {
		if currentStreak >= fl.Min {
			level = fl
		}
	}
	return level
}
