package scoring

import (
	"sort"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

const (
	// BasePoints is awarded for any correct answer.
	BasePoints = 100

	// SpeedBonusPoints goes on top of the base for the fastest correct teams.
	SpeedBonusPoints = 50

	// SpeedBonusWinners caps how many teams per question earn the speed bonus.
	SpeedBonusWinners = 3
)

// Result is the outcome of scoring one submitted (or synthesized) answer.
type Result struct {
	IsCorrect bool
	Points    int
}

// Score computes correctness and points for a single answer. priorCorrect is
// the number of correct answers recorded before this one, ordered by server
// timestamp; it must be resolved inside the batch close so concurrent
// submissions cannot each believe they were first.
func Score(q *models.Question, answerIndex int, priorCorrect int) Result {
	if answerIndex == models.UnansweredIndex {
		return Result{}
	}
	if answerIndex != q.CorrectAnswerIndex {
		return Result{}
	}

	points := BasePoints
	if priorCorrect < SpeedBonusWinners {
		points += SpeedBonusPoints
	}
	return Result{IsCorrect: true, Points: points}
}

// ScoreBatch scores every answer for one question in answeredAt order and
// returns the answers with is_correct/points_awarded filled in. Synthesized
// unanswered records score zero. Recomputation yields identical results, so
// a retried batch never double-counts.
func ScoreBatch(q *models.Question, answers []*models.Answer) []*models.Answer {
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].AnsweredAt.Before(answers[j].AnsweredAt)
	})

	correct := 0
	for _, a := range answers {
		r := Score(q, a.AnswerIndex, correct)
		a.IsCorrect = r.IsCorrect
		a.PointsAwarded = r.Points
		a.Scored = true
		if r.IsCorrect {
			correct++
		}
	}
	return answers
}

// DenseRanks assigns ranks to the given scores in place, sorting them by
// total descending. Equal totals share a rank; rank = 1 + count of strictly
// greater totals.
func DenseRanks(scores []*models.TeamScore) []*models.TeamScore {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	for i, s := range scores {
		if i > 0 && s.TotalScore == scores[i-1].TotalScore {
			s.Rank = scores[i-1].Rank
			continue
		}
		s.Rank = i + 1
	}
	return scores
}
