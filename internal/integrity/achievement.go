package integrity

// Stats are the aggregate counters achievements are judged against.
type Stats struct {
	TotalKept      int
	CurrentStreak  int
	TotalBroken    int
	GoalsCompleted int
	TotalWitnesses int
}

// Achievement unlocks when its predicate holds over the user's stats.
// Evaluation is idempotent for identical stats.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Emoji       string
	Unlocked    func(Stats) bool
}

// Achievements is the static predicate table.
var Achievements = []Achievement{
	{
		ID: "first_promise", Name: "First Promise", Emoji: "🤝",
		Description: "Keep your first promise",
		Unlocked:    func(s Stats) bool { return s.TotalKept >= 1 },
	},
	{
		ID: "on_a_roll", Name: "On a Roll", Emoji: "🎯",
		Description: "Keep 5 promises in a row",
		Unlocked:    func(s Stats) bool { return s.CurrentStreak >= 5 },
	},
	{
		ID: "unstoppable", Name: "Unstoppable", Emoji: "🚀",
		Description: "Keep 10 promises in a row",
		Unlocked:    func(s Stats) bool { return s.CurrentStreak >= 10 },
	},
	{
		ID: "comeback", Name: "The Comeback", Emoji: "🔄",
		Description: "Rebuild a 3-streak after breaking a promise",
		Unlocked:    func(s Stats) bool { return s.TotalBroken >= 1 && s.CurrentStreak >= 3 },
	},
	{
		ID: "finisher", Name: "Finisher", Emoji: "🏁",
		Description: "Complete a goal end to end",
		Unlocked:    func(s Stats) bool { return s.GoalsCompleted >= 1 },
	},
	{
		ID: "iron_will", Name: "Iron Will", Emoji: "⚔️",
		Description: "Keep 25 promises total",
		Unlocked:    func(s Stats) bool { return s.TotalKept >= 25 },
	},
	{
		ID: "in_the_open", Name: "In the Open", Emoji: "👀",
		Description: "Have 10 witnesses watch your promises",
		Unlocked:    func(s Stats) bool { return s.TotalWitnesses >= 10 },
	},
}

// UnlockedAchievements returns every achievement whose predicate holds.
func UnlockedAchievements(s Stats) []Achievement {
	var unlocked []Achievement
	for _, a := range Achievements {
		if a.Unlocked(s) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}
