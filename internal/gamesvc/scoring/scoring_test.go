package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

func question() *models.Question {
	return &models.Question{
		ID:                 1,
		Text:               "Which planet is known as the red planet?",
		Options:            []string{"Venus", "Mars", "Jupiter", "Mercury"},
		CorrectAnswerIndex: 1,
		Category:           "science",
		TimeLimitSec:       20,
	}
}

func TestScore(t *testing.T) {
	q := question()

	tests := []struct {
		name         string
		answerIndex  int
		priorCorrect int
		want         Result
	}{
		{"correct first", 1, 0, Result{IsCorrect: true, Points: 150}},
		{"correct third", 1, 2, Result{IsCorrect: true, Points: 150}},
		{"correct fourth no bonus", 1, 3, Result{IsCorrect: true, Points: 100}},
		{"wrong", 0, 0, Result{IsCorrect: false, Points: 0}},
		{"unanswered", models.UnansweredIndex, 0, Result{IsCorrect: false, Points: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(q, tt.answerIndex, tt.priorCorrect))
		})
	}
}

func TestScoreBatchSpeedBonusOrder(t *testing.T) {
	q := question()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var answers []*models.Answer
	for i := 0; i < 5; i++ {
		answers = append(answers, &models.Answer{
			TeamID:      string(rune('a' + i)),
			AnswerIndex: 1,
			AnsweredAt:  base.Add(time.Duration(5-i) * time.Second), // reverse order
		})
	}
	// one wrong answer in between
	answers = append(answers, &models.Answer{
		TeamID:      "z",
		AnswerIndex: 3,
		AnsweredAt:  base,
	})

	scored := ScoreBatch(q, answers)

	byTeam := map[string]*models.Answer{}
	for _, a := range scored {
		assert.True(t, a.Scored)
		byTeam[a.TeamID] = a
	}

	// teams e, d, c answered fastest among the correct ones
	assert.Equal(t, 150, byTeam["e"].PointsAwarded)
	assert.Equal(t, 150, byTeam["d"].PointsAwarded)
	assert.Equal(t, 150, byTeam["c"].PointsAwarded)
	assert.Equal(t, 100, byTeam["b"].PointsAwarded)
	assert.Equal(t, 100, byTeam["a"].PointsAwarded)
	assert.Equal(t, 0, byTeam["z"].PointsAwarded)
	assert.False(t, byTeam["z"].IsCorrect)
}

func TestScoreBatchIdempotent(t *testing.T) {
	q := question()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	answers := []*models.Answer{
		{TeamID: "t1", AnswerIndex: 1, AnsweredAt: base},
		{TeamID: "t2", AnswerIndex: 0, AnsweredAt: base.Add(time.Second)},
		{TeamID: "t3", AnswerIndex: models.UnansweredIndex, AnsweredAt: base.Add(2 * time.Second)},
	}

	first := ScoreBatch(q, answers)
	snapshot := map[string]int{}
	for _, a := range first {
		snapshot[a.TeamID] = a.PointsAwarded
	}

	second := ScoreBatch(q, first)
	for _, a := range second {
		assert.Equal(t, snapshot[a.TeamID], a.PointsAwarded)
	}
}

func TestScoreBatchUnansweredIsZero(t *testing.T) {
	q := question()

	scored := ScoreBatch(q, []*models.Answer{
		{TeamID: "t1", AnswerIndex: models.UnansweredIndex},
	})

	assert.False(t, scored[0].IsCorrect)
	assert.Equal(t, 0, scored[0].PointsAwarded)
	assert.Equal(t, "unanswered", scored[0].SelectedAnswer())
}

func TestDenseRanks(t *testing.T) {
	scores := []*models.TeamScore{
		{TeamID: "t1", TotalScore: 300},
		{TeamID: "t2", TotalScore: 100},
		{TeamID: "t3", TotalScore: 300},
	}

	ranked := DenseRanks(scores)

	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.Equal(t, 3, ranked[2].Rank)
	assert.Equal(t, 100, ranked[2].TotalScore)
}

func TestDenseRanksAllTied(t *testing.T) {
	scores := []*models.TeamScore{
		{TeamID: "t1", TotalScore: 200},
		{TeamID: "t2", TotalScore: 200},
		{TeamID: "t3", TotalScore: 200},
	}

	for _, s := range DenseRanks(scores) {
		assert.Equal(t, 1, s.Rank)
	}
}
