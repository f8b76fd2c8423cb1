package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"assetd/internal/models"
)

// CreateUser registers a new account with a bcrypt hashed password.
func (s *Store) CreateUser(ctx context.Context, username, name, password string, superuser bool) (models.User, error) {
	errs := ValidationError{}
	username = strings.TrimSpace(username)
	if username == "" {
		errs["username"] = "username is required"
	}
	if password == "" {
		errs["password"] = "password is required"
	}
	if len(errs) > 0 {
		return models.User{}, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Superuser:    superuser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate verifies the username/password pair and returns the user
// with group memberships loaded. Unknown usernames and wrong passwords
// both yield ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Groups").
		First(&user, "username = ?", strings.TrimSpace(username)).Error
	if err != nil {
		if notFound(err) == ErrNotFound {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads one user with group memberships.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Groups").First(&user, "id = ?", id).Error
	if err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

// ListUsers returns all accounts ordered by username, for the assign
// dropdown and the admin CLI.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Preload("Groups").Order("username").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// AddUserToGroup puts the named user into the named group, creating the
// group if it does not exist yet.
func (s *Store) AddUserToGroup(ctx context.Context, username, groupName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "username = ?", username).Error; err != nil {
			return notFound(err)
		}
		var group models.Group
		if err := tx.Where(models.Group{Name: groupName}).FirstOrCreate(&group).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Groups").Append(&group)
	})
}
