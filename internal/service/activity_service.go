package service

import (
	"context"
	"errors"
	"fmt"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/rag/history"
)

var ErrSessionExpired = errors.New("session expired")

// SessionTracker records which users are currently active.
type SessionTracker interface {
	Touch(ctx context.Context, userID string) error
	Active(ctx context.Context, userID string) (bool, error)
	End(ctx context.Context, userID string) error
	ActiveUsers(ctx context.Context) ([]string, error)
}

type IActivityService interface {
	StartSession(ctx context.Context, userId string) error
	// Heartbeat refreshes an active session and returns ErrSessionExpired
	// once it has lapsed.
	Heartbeat(ctx context.Context, userId string) error
	// EndSession drops the user's session and clears the listed chat
	// histories.
	EndSession(ctx context.Context, userId string, sessionIds []string) error
	ActiveSessions(ctx context.Context) (*dto.ActiveSessionsResponse, error)
}

type activityService struct {
	tracker      SessionTracker
	historyStore history.Store
	logger       logger.ILogger
}

func NewActivityService(tracker SessionTracker, historyStore history.Store, log logger.ILogger) IActivityService {
	return &activityService{tracker: tracker, historyStore: historyStore, logger: log}
}

func (s *activityService) StartSession(ctx context.Context, userId string) error {
	if err := s.tracker.Touch(ctx, userId); err != nil {
		return err
	}
	s.logger.Debug("activity", "Session started", map[string]interface{}{"user_id": userId})
	return nil
}

func (s *activityService) Heartbeat(ctx context.Context, userId string) error {
	active, err := s.tracker.Active(ctx, userId)
	if err != nil {
		return err
	}
	if !active {
		s.logger.Warn("activity", "No active session", map[string]interface{}{"user_id": userId})
		return ErrSessionExpired
	}
	return s.tracker.Touch(ctx, userId)
}

func (s *activityService) EndSession(ctx context.Context, userId string, sessionIds []string) error {
	if err := s.tracker.End(ctx, userId); err != nil {
		return err
	}
	for _, id := range sessionIds {
		h, err := s.historyStore.History(ctx, id)
		if err != nil {
			return err
		}
		if err := h.Clear(ctx); err != nil {
			return fmt.Errorf("clear history %s: %w", id, err)
		}
	}
	s.logger.Info("activity", "Session ended", map[string]interface{}{
		"user_id":          userId,
		"cleared_sessions": len(sessionIds),
	})
	return nil
}

func (s *activityService) ActiveSessions(ctx context.Context) (*dto.ActiveSessionsResponse, error) {
	users, err := s.tracker.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ActiveSessionsResponse{UserIds: users, Count: len(users)}, nil
}
