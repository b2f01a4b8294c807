package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/akovalev/go-taskmanager/internal/models"
)

const sessionKeyPrefix = "session:"

type sessionServiceImpl struct {
	logger zerolog.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewSessionService(
	logger zerolog.Logger,
	client *redis.Client,
	ttl time.Duration,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		client: client,
		ttl:    ttl,
	}
}

func (s *sessionServiceImpl) Create(ctx context.Context, userID string) (*models.Session, error) {
	now := time.Now()
	session := models.Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	sessionUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session uuid")
		return nil, err
	}
	session.ID = sessionUUID.String()

	payload, err := json.Marshal(&session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to marshal session")
		return nil, err
	}

	// The key TTL mirrors the absolute expiry, so Redis evicts dead
	// sessions on its own; the Expired check in Get is the backstop.
	err = s.client.Set(ctx, sessionKeyPrefix+session.ID, payload, s.ttl).Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to store session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("stored session")

	s.logger.Info().
		Str("user_id", userID).
		Str("session_id", session.ID).
		Msg("created session")
	return &session, nil
}

func (s *sessionServiceImpl) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Warn().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to fetch session")
		return nil, err
	}

	session := new(models.Session)
	err = json.Unmarshal(payload, session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to unmarshal session")
		return nil, err
	}

	if session.Expired(time.Now()) {
		s.logger.Warn().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Msg("fetched session")

	return session, nil
}

func (s *sessionServiceImpl) Destroy(ctx context.Context, sessionID string) error {
	affected, err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to delete session")
		return err
	}
	s.logger.Debug().
		Str("session_id", sessionID).
		Int64("affected", affected).
		Msg("deleted session")

	s.logger.Info().
		Str("session_id", sessionID).
		Msg("destroyed session")
	return nil
}
