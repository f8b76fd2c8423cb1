package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"assetd/internal/models"
)

// CreateSession opens a new browser session for the user and records the
// login in the audit trail.
func (s *Store) CreateSession(ctx context.Context, user models.User, ttl time.Duration) (models.Session, error) {
	session := models.Session{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(ttl),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		return audit(tx, &user.ID, "user.login", "user", user.ID.String(), nil)
	})
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// SessionUser resolves a session token to its user, with group
// memberships loaded. Expired and revoked sessions yield ErrNotFound.
func (s *Store) SessionUser(ctx context.Context, token string) (models.User, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "token = ?", token).Error
	if err != nil {
		return models.User{}, notFound(err)
	}
	if !session.Active(time.Now()) {
		return models.User{}, ErrNotFound
	}
	return s.GetUser(ctx, session.UserID)
}

// RevokeSession ends the session identified by token. Revoking an unknown
// token is not an error.
func (s *Store) RevokeSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.First(&session, "token = ?", token).Error
		if err != nil {
			if notFound(err) == ErrNotFound {
				return nil
			}
			return err
		}
		now := time.Now()
		if err := tx.Model(&session).Update("revoked_at", &now).Error; err != nil {
			return err
		}
		return audit(tx, &session.UserID, "user.logout", "user", session.UserID.String(), nil)
	})
}
