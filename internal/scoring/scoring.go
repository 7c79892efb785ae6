// Package scoring converts answer outcomes into points. Pure and
// deterministic; everything stateful lives in the session controller.
package scoring

const (
	// BasePoints is awarded for any correct answer.
	BasePoints = 10

	// SpeedBonus is added when a correct answer lands inside the bonus window.
	SpeedBonus = 5

	// SpeedBonusWindowMs is exclusive: a latency of exactly 7000ms earns no bonus.
	SpeedBonusWindowMs = 7000

	// MaxQuestionPoints is the most a single question can yield. Forfeit
	// auto-wins credit the opponent this amount per remaining question.
	MaxQuestionPoints = BasePoints + SpeedBonus
)

// Score returns the points for one answer.
func Score(correct bool, responseLatencyMs int64) int {
	if !correct {
		return 0
	}
	points := BasePoints
	if responseLatencyMs < SpeedBonusWindowMs {
		points += SpeedBonus
	}
	return points
}
