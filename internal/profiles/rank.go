package profiles

// Member ranks, lowest first.
const (
	RankNewbie    = "Newbie"
	RankExplorer  = "Explorer"
	RankBuilder   = "Builder"
	RankDeveloper = "Developer"
	RankHacker    = "Hacker"
)

// RankForPoints maps a points balance onto the rank ladder.
func RankForPoints(points int) string {
	switch {
	case points <= 100:
		return RankNewbie
	case points <= 300:
		return RankExplorer
	case points <= 600:
		return RankBuilder
	case points <= 1000:
		return RankDeveloper
	default:
		return RankHacker
	}
}
