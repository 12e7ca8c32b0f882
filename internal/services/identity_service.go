package services

import (
	"context"
	"errors"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/identity"
	"ambulance-dispatch/pkg/logger"
)

// IdentityService turns a bearer credential into the acting user.
type IdentityService interface {
	Resolve(ctx context.Context, credential string) (*models.Actor, error)
}

type identityService struct {
	verifier identity.Verifier
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

// NewIdentityService reads the role from the verified claims, falling back
// to the user profile when the credential does not carry one.
func NewIdentityService(verifier identity.Verifier, userRepo interfaces.UserRepository, log *logger.Logger) IdentityService {
	return &identityService{
		verifier: verifier,
		userRepo: userRepo,
		logger:   log,
	}
}

func (s *identityService) Resolve(ctx context.Context, credential string) (*models.Actor, error) {
	if credential == "" {
		return nil, utils.NewAuthError("credential is required", nil)
	}

	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, identity.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, utils.NewDependencyError("identity provider unavailable", err)
		}
		return nil, utils.NewAuthError(utils.MsgInvalidToken, err)
	}

	if role := models.Role(claims.Role); role != "" {
		if !role.IsValid() {
			return nil, utils.NewUnauthorizedError("unknown role " + claims.Role)
		}
		return &models.Actor{ID: claims.UserID, Role: role}, nil
	}

	if s.userRepo == nil {
		return nil, utils.NewUnauthorizedError("actor has no dispatch role")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewUnauthorizedError("actor has no dispatch profile")
		}
		s.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to load user profile")
		return nil, utils.NewDependencyError("user profile unavailable", err)
	}
	if !user.Role.IsValid() {
		return nil, utils.NewUnauthorizedError("actor has no dispatch role")
	}

	return &models.Actor{ID: user.ID, Role: user.Role}, nil
}
