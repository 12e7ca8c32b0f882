package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/identity"
	"ambulance-dispatch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsVerifier(claims *identity.Claims, err error) *mockVerifier {
	return &mockVerifier{VerifyFunc: func(context.Context, string) (*identity.Claims, error) {
		return claims, err
	}}
}

func TestIdentityResolve_RoleFromClaims(t *testing.T) {
	users := &mockUserRepository{GetByIDFunc: func(context.Context, string) (*models.User, error) {
		t.Fatal("profile lookup not expected")
		return nil, nil
	}}
	svc := NewIdentityService(claimsVerifier(&identity.Claims{UserID: "amb-1", Role: "ambulance_driver"}, nil), users, logger.Discard())

	actor, err := svc.Resolve(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, &models.Actor{ID: "amb-1", Role: models.RoleAmbulanceDriver}, actor)
}

func TestIdentityResolve_RoleFromProfile(t *testing.T) {
	users := &mockUserRepository{GetByIDFunc: func(_ context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Role: models.RoleHospitalAdmin}, nil
	}}
	svc := NewIdentityService(claimsVerifier(&identity.Claims{UserID: "admin-1"}, nil), users, logger.Discard())

	actor, err := svc.Resolve(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleHospitalAdmin, actor.Role)
	assert.Equal(t, "admin-1", actor.ID)
}

func TestIdentityResolve_Failures(t *testing.T) {
	ctx := context.Background()
	okClaims := &identity.Claims{UserID: "u-1"}
	profile := func(user *models.User, err error) *mockUserRepository {
		return &mockUserRepository{GetByIDFunc: func(context.Context, string) (*models.User, error) { return user, err }}
	}

	tests := []struct {
		name       string
		credential string
		verifier   *mockVerifier
		users      interfaces.UserRepository
		want       *utils.AppError
	}{
		{"empty credential", "", claimsVerifier(okClaims, nil), nil, utils.ErrAuth},
		{"expired token", "t", claimsVerifier(nil, fmt.Errorf("expired: %w", identity.ErrInvalidCredential)), nil, utils.ErrAuth},
		{"provider down", "t", claimsVerifier(nil, identity.ErrUnavailable), nil, utils.ErrDependency},
		{"deadline", "t", claimsVerifier(nil, context.DeadlineExceeded), nil, utils.ErrDependency},
		{"unknown claim role", "t", claimsVerifier(&identity.Claims{UserID: "u-1", Role: "root"}, nil), nil, utils.ErrUnauthorized},
		{"no profile store", "t", claimsVerifier(okClaims, nil), nil, utils.ErrUnauthorized},
		{"no profile", "t", claimsVerifier(okClaims, nil), profile(nil, interfaces.ErrNotFound), utils.ErrUnauthorized},
		{"profile store down", "t", claimsVerifier(okClaims, nil), profile(nil, errors.New("timeout")), utils.ErrDependency},
		{"profile without role", "t", claimsVerifier(okClaims, nil), profile(&models.User{ID: "u-1"}, nil), utils.ErrUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewIdentityService(tc.verifier, tc.users, logger.Discard())
			actor, err := svc.Resolve(ctx, tc.credential)
			assert.Nil(t, actor)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestIdentityResolve_EmptyCredentialSkipsVerifier(t *testing.T) {
	v := claimsVerifier(&identity.Claims{UserID: "u"}, nil)
	svc := NewIdentityService(v, nil, logger.Discard())

	_, err := svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, utils.ErrAuth)
	assert.Zero(t, v.calls)
}
