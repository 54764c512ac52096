package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/avvvet/trivia-services/internal/gamesvc/models"
)

// MascotCount is the size of the fixed avatar catalogue; mascot ids are
// 0-based indexes into it.
const MascotCount = 12

type TeamService struct {
	teams    TeamStore
	sessions *SessionService
}

func NewTeamService(teams TeamStore, sessions *SessionService) *TeamService {
	return &TeamService{teams: teams, sessions: sessions}
}

// Join adds a team to a session, or hands back the existing record when the
// same name rejoins the same code (reconnect after a dropped socket). Late
// joins are allowed any time before game end.
func (s *TeamService) Join(ctx context.Context, gameCode, name string, mascotID int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("team name is required: %w", ErrInvalidState)
	}
	if mascotID < 0 || mascotID >= MascotCount {
		return nil, fmt.Errorf("mascot %d out of range: %w", mascotID, ErrInvalidState)
	}

	sess, err := s.sessions.Get(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusGameEnd || !sess.IsActive {
		return nil, fmt.Errorf("session %s has ended: %w", gameCode, ErrInvalidState)
	}

	team, err := s.teams.GetOrCreate(ctx, gameCode, name, uuid.New().String(), mascotID)
	if err != nil {
		return nil, err
	}

	s.sessions.PublishChanged(ctx, gameCode)
	return team, nil
}

func (s *TeamService) Get(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	return team, nil
}

func (s *TeamService) SelectMascot(ctx context.Context, teamID string, mascotID int) (*models.Team, error) {
	if mascotID < 0 || mascotID >= MascotCount {
		return nil, fmt.Errorf("mascot %d out of range: %w", mascotID, ErrInvalidState)
	}

	team, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.teams.SetMascot(ctx, teamID, mascotID); err != nil {
		return nil, err
	}
	team.MascotID = mascotID

	s.sessions.PublishChanged(ctx, team.GameCode)
	return team, nil
}

// Leave soft-deletes the team. It drops out of ranking and answer
// collection but its scored answers stay on record.
func (s *TeamService) Leave(ctx context.Context, teamID string) error {
	team, err := s.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.teams.SetActive(ctx, teamID, false); err != nil {
		return err
	}

	s.sessions.PublishChanged(ctx, team.GameCode)
	return nil
}
