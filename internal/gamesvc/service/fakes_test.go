package service

import (
	"context"
	"sync"
	"time"

	"github.com/avvvet/trivia-services/internal/comm"
	"github.com/avvvet/trivia-services/internal/gamesvc/models"
	"github.com/avvvet/trivia-services/internal/gamesvc/store"
)

// memStore drives every store interface with the same conditional-write
// semantics the mongo stores rely on: fenced transitions, first-write-wins
// answer upserts, and a monotonic server clock for timestamps.
type memStore struct {
	mu           sync.Mutex
	sessions     map[string]*models.Session
	teams        map[string]*models.Team
	answers      map[string]*models.Answer
	questions    map[int64]*models.Question
	questionList []*models.Question
	now          time.Time
}

func newMemStore(questions ...*models.Question) *memStore {
	m := &memStore{
		sessions:  map[string]*models.Session{},
		teams:     map[string]*models.Team{},
		answers:   map[string]*models.Answer{},
		questions: map[int64]*models.Question{},
		now:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	for _, q := range questions {
		m.questions[q.ID] = q
		m.questionList = append(m.questionList, q)
	}
	return m
}

// tick is the fake server clock; every write gets a strictly later stamp.
func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Millisecond)
	return m.now
}

func (m *memStore) Create(_ context.Context, sess *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sess.Code]; ok {
		return store.ErrConflict
	}
	cp := *sess
	m.sessions[sess.Code] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, code string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[code]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func fenceEqual(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func (m *memStore) Transition(_ context.Context, code string, w store.TransitionWrite) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[code]
	if !ok || sess.Status != w.From || !fenceEqual(sess.TransitionScheduledAt, w.Fence) {
		return nil, store.ErrConflict
	}

	now := m.tick()
	sess.Status = w.To
	sess.UpdatedAt = now
	if w.AdvanceIndex {
		sess.CurrentQuestionIndex++
		sess.ResultsReady = false
	}
	if w.ResultsReady != nil {
		sess.ResultsReady = *w.ResultsReady
	}
	if w.MarkStarted {
		started := now
		sess.StartedAt = &started
	}
	if w.Category != nil {
		sess.CurrentCategory = *w.Category
	}
	if w.ScheduleMs > 0 {
		at := now
		sess.TransitionScheduledAt = &at
		sess.TransitionDurationMs = w.ScheduleMs
	} else {
		sess.TransitionScheduledAt = nil
		sess.TransitionDurationMs = 0
	}
	if w.To == models.StatusGameEnd {
		sess.IsActive = false
	}

	cp := *sess
	return &cp, nil
}

func (m *memStore) ListPendingTransitions(_ context.Context) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Session
	for _, sess := range m.sessions {
		if sess.IsActive && sess.TransitionScheduledAt != nil {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) GetOrCreate(_ context.Context, gameCode, name, id string, mascotID int) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.GameCode == gameCode && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	now := m.tick()
	team := &models.Team{
		ID:       id,
		Name:     name,
		MascotID: mascotID,
		GameCode: gameCode,
		IsActive: true,
		JoinedAt: now, UpdatedAt: now,
	}
	m.teams[id] = team
	cp := *team
	return &cp, nil
}

func (m *memStore) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListActive(_ context.Context, gameCode string) ([]*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Team
	for _, t := range m.teams {
		if t.GameCode == gameCode && t.IsActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) SetMascot(_ context.Context, teamID string, mascotID int) error {
	return m.setTeam(teamID, func(t *models.Team) { t.MascotID = mascotID })
}

func (m *memStore) SetActive(_ context.Context, teamID string, active bool) error {
	return m.setTeam(teamID, func(t *models.Team) { t.IsActive = active })
}

func (m *memStore) SetTotalScore(_ context.Context, teamID string, total int) error {
	return m.setTeam(teamID, func(t *models.Team) { t.TotalScore = total })
}

func (m *memStore) setTeam(teamID string, apply func(*models.Team)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return store.ErrNotFound
	}
	apply(t)
	t.UpdatedAt = m.tick()
	return nil
}

func (m *memStore) SubmitOnce(_ context.Context, gameCode string, questionID int64, teamID string, answerIndex int) (*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := models.AnswerID(gameCode, questionID, teamID)
	if a, ok := m.answers[id]; ok {
		cp := *a
		return &cp, nil
	}
	a := &models.Answer{
		ID:          id,
		GameCode:    gameCode,
		QuestionID:  questionID,
		TeamID:      teamID,
		AnswerIndex: answerIndex,
		AnsweredAt:  m.tick(),
	}
	m.answers[id] = a
	cp := *a
	return &cp, nil
}

func (m *memStore) SaveResult(_ context.Context, a *models.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.answers[a.ID]
	if !ok {
		cp := *a
		cp.AnsweredAt = m.tick()
		cp.Scored = true
		m.answers[a.ID] = &cp
		return nil
	}
	existing.Scored = true
	existing.IsCorrect = a.IsCorrect
	existing.PointsAwarded = a.PointsAwarded
	return nil
}

func (m *memStore) GetForQuestion(_ context.Context, gameCode string, questionID int64) ([]*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Answer
	for _, a := range m.answers {
		if a.GameCode == gameCode && a.QuestionID == questionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CountForQuestion(_ context.Context, gameCode string, questionID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.answers {
		if a.GameCode == gameCode && a.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) TotalsByTeam(_ context.Context, gameCode string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[string]int{}
	for _, a := range m.answers {
		if a.GameCode == gameCode && a.Scored {
			totals[a.TeamID] += a.PointsAwarded
		}
	}
	return totals, nil
}

func (m *memStore) GetByID(_ context.Context, questionID int64) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[questionID]
	if !ok {
		return nil, nil
	}
	return q, nil
}

func (m *memStore) ListOrdered(_ context.Context) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Question(nil), m.questionList...), nil
}

// teamStoreAdapter renames GetTeam back to the interface's Get; the fake
// cannot carry two methods named Get.
type teamStoreAdapter struct{ *memStore }

func (a teamStoreAdapter) Get(ctx context.Context, teamID string) (*models.Team, error) {
	return a.GetTeam(ctx, teamID)
}

type fakePublisher struct {
	mu        sync.Mutex
	snapshots []*comm.SessionSnapshot
}

func (p *fakePublisher) SessionChanged(snapshot *comm.SessionSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *fakePublisher) last() *comm.SessionSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.snapshots) == 0 {
		return nil
	}
	return p.snapshots[len(p.snapshots)-1]
}
