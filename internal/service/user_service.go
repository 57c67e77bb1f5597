package service

import (
	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/google/uuid"
)

// UserService handles user lookup and the Auth0 login upsert.
type UserService struct {
	userRepo domain.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo domain.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// AuthResult contains the outcome of user authentication
type AuthResult struct {
	User      *domain.User
	IsNewUser bool
}

// AuthenticateUser creates the user on first login or returns the existing
// record.
func (s *UserService) AuthenticateUser(auth0ID, email string, name, pictureURL *string) (*AuthResult, error) {
	existing, err := s.userRepo.GetByAuth0ID(auth0ID)
	if err == nil {
		return &AuthResult{User: existing, IsNewUser: false}, nil
	}
	if err != domain.ErrUserNotFound {
		return nil, err
	}

	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name, pictureURL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, IsNewUser: true}, nil
}

// GetUserByAuth0ID returns the user for an Auth0 subject.
func (s *UserService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// UpdateName changes the user's display name.
func (s *UserService) UpdateName(auth0ID, name string) (*domain.User, error) {
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	return s.userRepo.UpdateName(auth0ID, name)
}

// GetUserIDByAuth0ID satisfies the auth middleware and WebSocket user lookup
// interfaces.
func (s *UserService) GetUserIDByAuth0ID(auth0ID string) (uuid.UUID, error) {
	user, err := s.userRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
