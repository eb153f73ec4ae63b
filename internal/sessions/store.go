// Package sessions keeps each user's conversational position in Redis so the
// messaging front end can resume a multi-step flow (wallet setup, swap)
// without encoding state into UI callback strings. Entries expire after the
// configured TTL.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kuruswap-bot/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidTransition is returned when an update asks for a state the
// current state cannot legally reach.
var ErrInvalidTransition = errors.New("invalid session transition")

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// Get returns the user's session, or a fresh idle one when none is stored;
// an expired session reads the same as a missing one.
func (s *Store) Get(ctx context.Context, userID int64) (*models.Session, error) {
	data, err := s.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// Put stores the session and resets its TTL.
func (s *Store) Put(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(session.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Advance moves the session to a new state after checking the transition is
// legal, then persists it. The mutate hook updates the typed payload fields
// carried across the transition.
func (s *Store) Advance(ctx context.Context, userID int64, to string, mutate func(*models.Session)) (*models.Session, error) {
	session, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidSessionTransition(session.State, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.State, to)
	}

	session.State = to
	if to == models.SessionStateIdle {
		// Reset carries no payload across a cancel.
		*session = *models.NewSession(userID)
	}
	if mutate != nil {
		mutate(session)
	}

	if err := s.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Clear drops the session, returning the user to idle on the next Get.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
