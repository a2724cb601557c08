package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/followuplab/internal/models"
)

func caseResult(caseID, questionID, userID int64, followups int) models.CaseResult {
	return models.CaseResult{
		Case:      models.ExperimentCase{ID: caseID, QuestionID: questionID, UserID: userID},
		Question:  models.Question{ID: questionID, Text: "same text"},
		User:      models.User{ID: userID},
		Followups: make([]models.FollowupQuestion, followups),
	}
}

func TestAggregate(t *testing.T) {
	report := Aggregate([]models.CaseResult{
		caseResult(1, 10, 200, 1),
		caseResult(2, 11, 100, 0),
		caseResult(3, 11, 200, 2),
		caseResult(4, 12, 100, 1),
	})

	require.Len(t, report.Groups, 2)
	assert.Equal(t, int64(200), report.Groups[0].User.ID)
	assert.Equal(t, int64(100), report.Groups[1].User.ID)

	var ids []int64
	for _, c := range report.Groups[0].Cases {
		ids = append(ids, c.Case.ID)
	}
	assert.Equal(t, []int64{1, 3}, ids)

	assert.Equal(t, Summary{Users: 2, Questions: 3, Cases: 4, Followups: 4}, report.Summary)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	assert.Empty(t, report.Groups)
	assert.NotNil(t, report.Groups)
	assert.Equal(t, Summary{}, report.Summary)
}
