package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// AccountService handles registration, login, and account deletion.
type AccountService struct {
	store  repository.Store
	tokens *auth.TokenManager
}

// NewAccountService creates a new account service
func NewAccountService(store repository.Store, tokens *auth.TokenManager) *AccountService {
	return &AccountService{
		store:  store,
		tokens: tokens,
	}
}

// Register creates a new account with the User role and returns it with a
// signed token.
func (s *AccountService) Register(ctx context.Context, username, passwordHash, email string) (*models.User, string, error) {
	if username == "" || passwordHash == "" {
		return nil, "", fmt.Errorf("%w: username and password are required", models.ErrValidation)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Role:         models.RoleUser,
	}
	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, "", err
	}
	user.ID = id

	token, err := s.tokens.Sign(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the account with a signed token.
// Unknown usernames and wrong passwords are indistinguishable to the
// caller.
func (s *AccountService) Login(ctx context.Context, username, passwordHash string) (*models.User, string, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", fmt.Errorf("%w: bad credentials", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, "", err
	}
	if user.PasswordHash != passwordHash {
		return nil, "", fmt.Errorf("%w: bad credentials", models.ErrUnauthorized)
	}

	token, err := s.tokens.Sign(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// DeleteAccount removes an account: its own by the account owner, any
// account by an admin. Either way the caller must prove possession of
// their own password, so a stolen session token alone cannot wipe an
// account. Cart lines and favorites are deleted; order history is
// retained anonymized.
func (s *AccountService) DeleteAccount(ctx context.Context, p *auth.Principal, targetUserID int64, passwordHash string) error {
	if p == nil {
		return models.ErrUnauthorized
	}
	if p.UserID != targetUserID && p.Role != models.RoleAdmin {
		return fmt.Errorf("%w: cannot delete another user's account", models.ErrForbidden)
	}

	actor, err := s.store.UserByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if passwordHash == "" || actor.PasswordHash != passwordHash {
		return fmt.Errorf("%w: credential mismatch", models.ErrValidation)
	}

	if err := s.store.DeleteUser(ctx, targetUserID); err != nil {
		return err
	}
	log.Printf("[ACCOUNT] Account deleted: user_id=%d by=%d", targetUserID, p.UserID)
	return nil
}
