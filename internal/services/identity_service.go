package services

import (
	"context"
	"errors"

	"taskboard-be/internal/models"
	"taskboard-be/internal/repository"
	"taskboard-be/internal/utils"
)

// ErrUnauthenticated is returned when a credential does not resolve to a
// registered user.
var ErrUnauthenticated = errors.New("services: unauthenticated")

// IdentityService is the identity gate: it turns a bearer token into the
// actor a request runs as. Token and password internals stay in utils.
type IdentityService struct {
	users UserStore
}

func NewIdentityService(users UserStore) *IdentityService {
	return &IdentityService{users: users}
}

// ResolveActor validates token and loads the user it names.
func (s *IdentityService) ResolveActor(ctx context.Context, token, secret string) (models.Actor, error) {
	claims, err := utils.ValidateToken(token, secret)
	if err != nil {
		return models.Actor{}, errors.Join(ErrUnauthenticated, err)
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Actor{}, ErrUnauthenticated
		}
		return models.Actor{}, storeError(err, CodeUserNotFound)
	}
	return ActorFromUser(user), nil
}

// ActorFromUser builds the actor identity of a user.
func ActorFromUser(u *models.User) models.Actor {
	lower := u.EmailLower
	if lower == "" {
		lower = utils.FoldEmail(u.Email)
	}
	return models.Actor{UserID: u.ID, Email: u.Email, EmailLower: lower, Name: u.Name}
}

// RegisterUser creates a user profile, used by the operator CLI.
func (s *IdentityService) RegisterUser(ctx context.Context, email, name string) (*models.User, error) {
	if !utils.LooksLikeEmail(email) {
		return nil, validationError("email", "Valid email is required")
	}
	lower := utils.FoldEmail(email)
	if _, err := s.users.FindByEmail(ctx, lower); err == nil {
		return nil, conflictError(string(KindConflict), "User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err, CodeUserNotFound)
	}
	user := &models.User{ID: newID(), Email: email, EmailLower: lower, Name: utils.CleanLine(name)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError(err, CodeUserNotFound)
	}
	return user, nil
}

// FindUser looks a user up by email.
func (s *IdentityService) FindUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, utils.FoldEmail(email))
	if err != nil {
		return nil, storeError(err, CodeUserNotFound)
	}
	return user, nil
}
