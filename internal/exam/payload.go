package exam

import (
	"fmt"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// BuildSubmitRequest returns one record per question, in question order.
// Unanswered questions are sent with an empty value.
func BuildSubmitRequest(questions []models.Question, answers map[string]string) models.SubmitRequest {
	records := make([]models.AnswerRecord, 0, len(questions))
	for _, q := range questions {
		records = append(records, models.AnswerRecord{
			QuestionID: q.ID,
			Value:      answers[q.ID],
		})
	}
	return models.SubmitRequest{Answers: records}
}

// FormatClock renders seconds as m:ss
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
