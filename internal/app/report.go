package app

import (
	"fmt"

	"scholarspath-quiz/internal/domain"
)

// ScoreAnswers counts answers that match the correct label. answers[i] belongs to
// questions[i]; missing or empty entries are unanswered.
func ScoreAnswers(questions domain.QuestionSet, answers []domain.Label) int {
	score := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] != "" && answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// BuildReport derives the review for a submitted attempt. It has no side effects and
// returns equal reports for equal inputs.
func BuildReport(questions domain.QuestionSet, answers []domain.Label) domain.Report {
	report := domain.Report{
		Total:   len(questions),
		Entries: make([]domain.ReviewEntry, 0, len(questions)),
	}
	for i, q := range questions {
		var answer domain.Label
		if i < len(answers) {
			answer = answers[i]
		}
		correct := answer != "" && answer == q.CorrectAnswer
		if correct {
			report.Score++
		}
		report.Entries = append(report.Entries, domain.ReviewEntry{
			Index:         i,
			Question:      q.Text,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}
	if report.Total > 0 {
		report.Percentage = 100 * float64(report.Score) / float64(report.Total)
	}
	report.Tier = TierFor(report.Percentage)
	return report
}

// TierFor maps a percentage onto the four feedback bands.
func TierFor(percentage float64) domain.Tier {
	switch {
	case percentage >= 100:
		return domain.TierFlawless
	case percentage >= 80:
		return domain.TierExcellent
	case percentage >= 60:
		return domain.TierGood
	default:
		return domain.TierKeepPracticing
	}
}

// FormatRemaining renders seconds as MM:SS. Minutes are zero-padded to two digits but
// not capped.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
