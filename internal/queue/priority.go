package queue

// Priority scores used for the default queue ordering.
const (
	ScoreLow    = 1
	ScoreMedium = 2
	ScoreHigh   = 3
)

const (
	urgentAgeDays   = 7
	highAgeDays     = 10
	highValueAmount = 10000
)

// PriorityScore combines queue age and the external priority flag. Each tier
// is an OR of the two signals, so an old set scores high even when flagged
// low.
func PriorityScore(set DocumentSet) int {
	switch {
	case set.DaysInQueue > highAgeDays || set.PriorityFlag == PriorityHigh:
		return ScoreHigh
	case set.DaysInQueue > urgentAgeDays || set.PriorityFlag == PriorityMedium:
		return ScoreMedium
	default:
		return ScoreLow
	}
}

// ScoreLabel names a priority score.
func ScoreLabel(score int) string {
	switch score {
	case ScoreHigh:
		return "high"
	case ScoreMedium:
		return "medium"
	default:
		return "low"
	}
}
