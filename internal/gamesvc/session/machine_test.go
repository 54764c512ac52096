package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

func sess(status models.Status, index int, ready bool) *models.Session {
	return &models.Session{
		Code:                 "AB12CD",
		Status:               status,
		CurrentQuestionIndex: index,
		QuestionOrder:        []int64{11, 12, 13},
		ResultsReady:         ready,
		IsActive:             true,
	}
}

func TestNextHappyPath(t *testing.T) {
	tests := []struct {
		name    string
		sess    *models.Session
		in      Input
		want    models.Status
		advance bool
	}{
		{"start game", sess(models.StatusWaiting, 0, false), Input{Trigger: TriggerHostStart}, models.StatusCategory, false},
		{"category card elapses", sess(models.StatusCategory, 0, false), Input{Trigger: TriggerTimer}, models.StatusQuestionDisplay, false},
		{"all teams answered", sess(models.StatusQuestionDisplay, 0, false), Input{Trigger: TriggerAllAnswered}, models.StatusAnswerCollection, false},
		{"host closes question", sess(models.StatusQuestionDisplay, 0, false), Input{Trigger: TriggerHostForce}, models.StatusAnswerCollection, false},
		{"processing complete", sess(models.StatusAnswerCollection, 0, false), Input{Trigger: TriggerProcessed}, models.StatusAnswerReveal, false},
		{"host advances to next question", sess(models.StatusAnswerReveal, 0, true), Input{Trigger: TriggerHostAdvance}, models.StatusQuestionDisplay, true},
		{"reveal times out to leaderboard", sess(models.StatusAnswerReveal, 0, true), Input{Trigger: TriggerTimer}, models.StatusLeaderboard, false},
		{"leaderboard to next question", sess(models.StatusLeaderboard, 0, true), Input{Trigger: TriggerTimer}, models.StatusQuestionDisplay, true},
		{"leaderboard to new category", sess(models.StatusLeaderboard, 0, true), Input{Trigger: TriggerTimer, CategoryChanged: true}, models.StatusCategory, true},
		{"last question ends game", sess(models.StatusAnswerReveal, 2, true), Input{Trigger: TriggerHostAdvance}, models.StatusGameEnd, false},
		{"leaderboard ends game", sess(models.StatusLeaderboard, 2, true), Input{Trigger: TriggerHostAdvance}, models.StatusGameEnd, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Next(tt.sess, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.To)
			assert.Equal(t, tt.advance, tr.AdvanceIndex)
		})
	}
}

func TestNextRejectsIllegalTriggers(t *testing.T) {
	tests := []struct {
		name string
		sess *models.Session
		in   Input
	}{
		{"cannot start twice", sess(models.StatusCategory, 0, false), Input{Trigger: TriggerHostStart}},
		{"cannot reveal from waiting", sess(models.StatusWaiting, 0, false), Input{Trigger: TriggerProcessed}},
		{"cannot answer during reveal", sess(models.StatusAnswerReveal, 0, true), Input{Trigger: TriggerAllAnswered}},
		{"game end is terminal", sess(models.StatusGameEnd, 2, true), Input{Trigger: TriggerHostAdvance}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Next(tt.sess, tt.in)
			var inv *ErrInvalidTransition
			require.ErrorAs(t, err, &inv)
		})
	}
}

func TestNextBlocksAdvanceBeforeResultsReady(t *testing.T) {
	_, err := Next(sess(models.StatusAnswerReveal, 0, false), Input{Trigger: TriggerHostAdvance})
	require.Error(t, err)

	_, err = Next(sess(models.StatusLeaderboard, 0, false), Input{Trigger: TriggerTimer})
	require.Error(t, err)
}

func TestScheduleStamps(t *testing.T) {
	tr, err := Next(sess(models.StatusWaiting, 0, false), Input{Trigger: TriggerHostStart})
	require.NoError(t, err)
	assert.Equal(t, CategoryCardDuration, tr.Schedule)

	tr, err = Next(sess(models.StatusAnswerCollection, 0, false), Input{Trigger: TriggerProcessed})
	require.NoError(t, err)
	assert.Equal(t, RevealDuration, tr.Schedule)

	tr, err = Next(sess(models.StatusCategory, 0, false), Input{Trigger: TriggerTimer})
	require.NoError(t, err)
	assert.Zero(t, tr.Schedule)
}

func TestStatusAcceptsAnswers(t *testing.T) {
	assert.True(t, models.StatusQuestionDisplay.AcceptsAnswers())
	assert.True(t, models.StatusAnswerCollection.AcceptsAnswers())
	assert.False(t, models.StatusAnswerReveal.AcceptsAnswers())
	assert.False(t, models.StatusWaiting.AcceptsAnswers())
}
