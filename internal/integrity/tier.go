package integrity

// Tier is a named band of the integrity score with display metadata.
// Bands are inclusive on both ends and partition [0,100] with no gap or
// overlap; totality is enforced by the table shape, not branching logic.
type Tier struct {
	ID      string
	Name    string
	Rarity  string
	Shield  string
	Tagline string
	Color   string
	Min     int
	Max     int
}

// KeptPromiseDelta is the score gained per kept promise.
const KeptPromiseDelta = 2

// Tiers is the static band table, ordered worst to best.
var Tiers = []Tier{
	{ID: "shattered", Name: "Shattered", Rarity: "common", Shield: "cracked", Tagline: "Pick up the pieces", Color: "slate", Min: 0, Max: 19},
	{ID: "mending", Name: "Mending", Rarity: "common", Shield: "patched", Tagline: "Repairs in progress", Color: "zinc", Min: 20, Max: 39},
	{ID: "rising", Name: "Rising", Rarity: "uncommon", Shield: "bronze", Tagline: "Momentum is building", Color: "amber", Min: 40, Max: 54},
	{ID: "steady", Name: "Steady", Rarity: "rare", Shield: "silver", Tagline: "Your word holds weight", Color: "sky", Min: 55, Max: 69},
	{ID: "trusted", Name: "Trusted", Rarity: "epic", Shield: "gold", Tagline: "People bet on you", Color: "violet", Min: 70, Max: 84},
	{ID: "legendary", Name: "Legendary", Rarity: "legendary", Shield: "radiant", Tagline: "Unbreakable", Color: "rose", Min: 85, Max: 100},
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TierFor maps a score to its tier. Total over [0,100]; out-of-range inputs
// are clamped first.
func TierFor(score int) Tier {
	score = clampScore(score)
	for _, t := range Tiers {
		if score >= t.Min && score <= t.Max {
			return t
		}
	}
	// Unreachable while the table partitions [0,100].
	return Tiers[len(Tiers)-1]
}

// NextTier returns the tier immediately above the current one, or nil at the
// top band.
func NextTier(score int) *Tier {
	score = clampScore(score)
	for i, t := range Tiers {
		if score >= t.Min && score <= t.Max {
			if i == len(Tiers)-1 {
				return nil
			}
			next := Tiers[i+1]
			return &next
		}
	}
	return nil
}

// ProgressToNextTier is the linear position of score within its band as a
// percentage. Always 100 at the top band.
func ProgressToNextTier(score int) int {
	score = clampScore(score)
	t := TierFor(score)
	if NextTier(score) == nil {
		return 100
	}
	return (score - t.Min) * 100 / (t.Max - t.Min)
}

// PromisesToNextTier is the number of kept promises still needed to reach the
// next band. 0 at the top band.
func PromisesToNextTier(score int) int {
	score = clampScore(score)
	next := NextTier(score)
	if next == nil {
		return 0
	}
	gap := next.Min - score
	return (gap + KeptPromiseDelta - 1) / KeptPromiseDelta
}

// percentileCurve is a deterministic piecewise-linear approximation of the
// score distribution, used only for the "Top N%" display label. Points are
// (score, percentile) and strictly ordered by score.
var percentileCurve = [][2]int{
	{0, 100},
	{20, 95},
	{40, 80},
	{55, 60},
	{70, 35},
	{85, 10},
	{100, 1},
}

// Percentile maps a score to a display percentile in [1,100]. Monotonically
// non-increasing in score.
func Percentile(score int) int {
	score = clampScore(score)
	for i := 1; i < len(percentileCurve); i++ {
		lo, hi := percentileCurve[i-1], percentileCurve[i]
		if score > hi[0] {
			continue
		}
		// Linear interpolation between curve points.
		span := hi[0] - lo[0]
		drop := lo[1] - hi[1]
		return lo[1] - (score-lo[0])*drop/span
	}
	return 1
}
