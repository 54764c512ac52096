package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

func snapAt(code string, status models.Status, updatedAt time.Time) *comm.SessionSnapshot {
	return &comm.SessionSnapshot{
		Session: &models.Session{Code: code, Status: status, UpdatedAt: updatedAt},
	}
}

func TestOfferDiscardsStaleSnapshots(t *testing.T) {
	var mu sync.Mutex
	var applied []models.Status

	w := &Watcher{
		GameCode: "AAAA11",
		Apply: func(s *comm.SessionSnapshot) {
			mu.Lock()
			applied = append(applied, s.Session.Status)
			mu.Unlock()
		},
	}

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	w.offer(snapAt("AAAA11", models.StatusQuestionDisplay, base.Add(2*time.Second)))

	// a late poll result from before the push must not roll the view back
	w.offer(snapAt("AAAA11", models.StatusCategory, base.Add(time.Second)))

	// same instant is not newer either
	w.offer(snapAt("AAAA11", models.StatusCategory, base.Add(2*time.Second)))

	w.offer(snapAt("AAAA11", models.StatusAnswerCollection, base.Add(3*time.Second)))

	assert.Equal(t, []models.Status{models.StatusQuestionDisplay, models.StatusAnswerCollection}, applied)
}

func TestOfferIgnoresEmptySnapshots(t *testing.T) {
	w := &Watcher{
		Apply: func(*comm.SessionSnapshot) {
			t.Fatal("apply called for empty snapshot")
		},
	}

	w.offer(nil)
	w.offer(&comm.SessionSnapshot{})
}

func TestRunPollsWithoutPush(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var fetchMu sync.Mutex
	fetches := 0

	var mu sync.Mutex
	var applied []time.Time

	w := &Watcher{
		GameCode:     "AAAA11",
		PollInterval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context, gameCode string) (*comm.SessionSnapshot, error) {
			fetchMu.Lock()
			fetches++
			n := fetches
			fetchMu.Unlock()
			// every other poll returns the same record again
			return snapAt(gameCode, models.StatusCategory, base.Add(time.Duration(n/2)*time.Second)), nil
		},
		Apply: func(s *comm.SessionSnapshot) {
			mu.Lock()
			applied = append(applied, s.Session.UpdatedAt)
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, applied)
	for i := 1; i < len(applied); i++ {
		assert.True(t, applied[i].After(applied[i-1]), "view must only move forward")
	}
}
