package services

import (
	"context"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
)

// Dashboard paths a session can resolve to
const (
	PathDashboard        = "/dashboard"
	PathAdminDashboard   = "/dashboard/admin"
	PathNurseDashboard   = "/dashboard/nurse"
	PathPatientDashboard = "/dashboard/patient"
	PathHome             = "/"
)

// ProfileStore reads profiles and nurse rows
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetNurseByUserID(ctx context.Context, userID string) (*models.Nurse, error)
}

// AccessService decides which portal a user belongs in
type AccessService struct {
	store ProfileStore
}

// NewAccessService creates an access service
func NewAccessService(s ProfileStore) *AccessService {
	return &AccessService{store: s}
}

// ResolveDashboard returns the path a signed-in user lands on
func (a *AccessService) ResolveDashboard(ctx context.Context, userID string) (string, error) {
	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PathDashboard, nil
		}
		return "", errors.Wrap(err, "finding profile")
	}

	switch profile.Role {
	case models.RoleAdmin:
		return PathAdminDashboard, nil
	case models.RoleNurse:
		nurse, err := a.store.GetNurseByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return PathNurseApplicationPending, nil
			}
			return "", errors.Wrap(err, "finding nurse")
		}
		if nurse.Status == models.NurseStatusApproved {
			return PathNurseDashboard, nil
		}
		return PathNurseApplicationPending, nil
	case models.RolePatient:
		return PathPatientDashboard, nil
	default:
		return PathDashboard, nil
	}
}

// Profile loads the signed-in user's profile
func (a *AccessService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "finding profile")
	}
	return profile, nil
}

// RequireRole loads the profile and checks it has the given role
func (a *AccessService) RequireRole(ctx context.Context, userID string, role models.Role) (*models.Profile, error) {
	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWrongRole
		}
		return nil, errors.Wrap(err, "finding profile")
	}
	if profile.Role != role {
		return nil, ErrWrongRole
	}
	return profile, nil
}

// RequireApprovedNurse checks the user is a nurse whose application was approved
func (a *AccessService) RequireApprovedNurse(ctx context.Context, userID string) (*models.Profile, *models.Nurse, error) {
	profile, err := a.RequireRole(ctx, userID, models.RoleNurse)
	if err != nil {
		return nil, nil, err
	}

	nurse, err := a.store.GetNurseByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNurseNotApproved
		}
		return nil, nil, errors.Wrap(err, "finding nurse")
	}
	if nurse.Status != models.NurseStatusApproved {
		return nil, nil, ErrNurseNotApproved
	}
	return profile, nurse, nil
}

// RedirectFor maps an access error to where the client should go instead
func RedirectFor(err error) string {
	switch {
	case errors.Is(err, ErrNurseNotApproved):
		return PathNurseApplicationPending
	case errors.Is(err, ErrWrongRole):
		return PathHome
	default:
		return ""
	}
}
