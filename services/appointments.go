package services

import (
	"context"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AppointmentService moves appointments through their lifecycle
type AppointmentService struct {
	store  store.Store
	access *AccessService
	logger zerolog.Logger
}

// NewAppointmentService creates an appointment service
func NewAppointmentService(s store.Store, access *AccessService, logger zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		store:  s,
		access: access,
		logger: logger.With().Str("component", "appointments").Logger(),
	}
}

func (s *AppointmentService) isAdmin(ctx context.Context, userID string) (bool, error) {
	_, err := s.access.RequireRole(ctx, userID, models.RoleAdmin)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrWrongRole) {
		return false, nil
	}
	return false, err
}

// CancelAppointment cancels a scheduled appointment. Only its patient or an admin may cancel it.
func (s *AppointmentService) CancelAppointment(ctx context.Context, userID, id string) (*models.Appointment, error) {
	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "finding appointment")
	}

	if appointment.PatientID != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, ErrWrongRole
		}
	}

	return s.transition(ctx, appointment, models.AppointmentStatusCancelled)
}

// CompleteAppointment marks a scheduled visit done. Only the approved nurse assigned to it or an admin may complete it.
func (s *AppointmentService) CompleteAppointment(ctx context.Context, userID, id string) (*models.Appointment, error) {
	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "finding appointment")
	}

	admin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admin {
		if _, _, err := s.access.RequireApprovedNurse(ctx, userID); err != nil {
			return nil, err
		}
		if appointment.NurseID == nil || *appointment.NurseID != userID {
			return nil, ErrWrongRole
		}
	}

	return s.transition(ctx, appointment, models.AppointmentStatusCompleted)
}

// AssignNurse assigns an approved nurse to an appointment. nurseUserID is the nurse's user ID.
func (s *AppointmentService) AssignNurse(ctx context.Context, appointmentID, nurseUserID string) (*models.Appointment, error) {
	if _, _, err := s.access.RequireApprovedNurse(ctx, nurseUserID); err != nil {
		if errors.Is(err, ErrWrongRole) {
			return nil, validationErrorf("User is not a nurse")
		}
		return nil, err
	}

	appointment, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, errors.Wrap(err, "finding appointment")
	}
	if appointment.Status != models.AppointmentStatusScheduled {
		return nil, errors.Wrapf(ErrInvalidState, "appointment is %s", appointment.Status)
	}

	appointment.NurseID = &nurseUserID
	if err := s.store.UpdateAppointment(ctx, appointment); err != nil {
		return nil, errors.Wrap(err, "updating appointment")
	}

	s.logger.Info().Str("appointment_id", appointment.ID).Str("nurse_id", nurseUserID).Msg("nurse assigned")
	return appointment, nil
}

func (s *AppointmentService) transition(ctx context.Context, appointment *models.Appointment, to models.AppointmentStatus) (*models.Appointment, error) {
	if appointment.Status != models.AppointmentStatusScheduled {
		return nil, errors.Wrapf(ErrInvalidState, "appointment is %s", appointment.Status)
	}

	appointment.Status = to
	if err := s.store.UpdateAppointment(ctx, appointment); err != nil {
		return nil, errors.Wrap(err, "updating appointment")
	}

	s.logger.Info().Str("appointment_id", appointment.ID).Str("status", string(to)).Msg("appointment updated")
	return appointment, nil
}
