package game

// Scoring parameters. One point per second remaining, ten per unasked
// question, and a bonus for finishing under ten questions.
const (
	pointsPerQuestion = 10
	bonusThreshold    = 10
)

// Score computes the final score for a round outcome. Deterministic in its
// inputs; losing outcomes always score zero.
func Score(won bool, questionsAsked, secondsRemaining int) int {
	if !won {
		return 0
	}

	questionPoints := (QuestionBudget - questionsAsked) * pointsPerQuestion
	if questionPoints < 0 {
		questionPoints = 0
	}

	bonusPoints := 0
	if questionsAsked < bonusThreshold {
		bonusPoints = (bonusThreshold - questionsAsked) * pointsPerQuestion
	}

	return questionPoints + bonusPoints + secondsRemaining
}
