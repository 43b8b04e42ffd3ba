package services

import (
	"context"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DecisionNotifier tells applicants the outcome of their nurse application
type DecisionNotifier interface {
	SendNurseDecision(ctx context.Context, to, decision string) (*DecisionResult, error)
}

// NurseService reviews nurse applications and assigns patients to nurses
type NurseService struct {
	store    store.Store
	notifier DecisionNotifier
	logger   zerolog.Logger
}

// NewNurseService creates a nurse service
func NewNurseService(s store.Store, notifier DecisionNotifier, logger zerolog.Logger) *NurseService {
	return &NurseService{
		store:    s,
		notifier: notifier,
		logger:   logger.With().Str("component", "nurses").Logger(),
	}
}

// ListApplications lists nurse applications with the applicant's email. An empty status lists all.
func (s *NurseService) ListApplications(ctx context.Context, status models.NurseStatus) ([]*models.NurseApplication, error) {
	if status != "" && !status.Valid() {
		return nil, validationErrorf("Unknown application status %q", status)
	}
	return listApplications(ctx, s.store, status)
}

// ApproveNurse approves an application and notifies the applicant
func (s *NurseService) ApproveNurse(ctx context.Context, nurseID string) (*models.Nurse, error) {
	return s.decide(ctx, nurseID, models.NurseStatusApproved)
}

// RejectNurse rejects an application and notifies the applicant
func (s *NurseService) RejectNurse(ctx context.Context, nurseID string) (*models.Nurse, error) {
	return s.decide(ctx, nurseID, models.NurseStatusRejected)
}

func (s *NurseService) decide(ctx context.Context, nurseID string, status models.NurseStatus) (*models.Nurse, error) {
	if err := s.store.UpdateNurseStatus(ctx, nurseID, status); err != nil {
		return nil, errors.Wrap(err, "updating nurse status")
	}

	nurse, err := s.store.GetNurse(ctx, nurseID)
	if err != nil {
		return nil, errors.Wrap(err, "finding nurse")
	}

	log := s.logger.With().Str("nurse_id", nurse.ID).Str("status", string(status)).Logger()
	log.Info().Msg("nurse application reviewed")

	profile, err := s.store.GetProfile(ctx, nurse.UserID)
	if err != nil {
		log.Error().Err(err).Msg("applicant profile not found, decision email not sent")
		return nurse, nil
	}

	if _, err := s.notifier.SendNurseDecision(ctx, profile.Email, string(status)); err != nil {
		log.Error().Err(err).Str("to", profile.Email).Msg("failed to send decision email")
	}
	return nurse, nil
}

// AssignPatient links a patient to an approved nurse. nurseID is the nurse row ID.
func (s *NurseService) AssignPatient(ctx context.Context, nurseID, patientUserID string) (*models.NursePatientLink, error) {
	nurse, err := s.store.GetNurse(ctx, nurseID)
	if err != nil {
		return nil, errors.Wrap(err, "finding nurse")
	}
	if nurse.Status != models.NurseStatusApproved {
		return nil, ErrNurseNotApproved
	}

	patient, err := s.store.GetPatientByUserID(ctx, patientUserID)
	if err != nil {
		return nil, errors.Wrap(err, "finding patient")
	}

	link := &models.NursePatientLink{
		NurseID:      nurse.ID,
		PatientID:    patient.ID,
		DateAssigned: time.Now(),
	}
	if err := s.store.CreateLink(ctx, link); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyAssigned
		}
		return nil, errors.Wrap(err, "linking patient")
	}

	s.logger.Info().Str("nurse_id", nurse.ID).Str("patient_id", patient.ID).Msg("patient assigned")
	return link, nil
}
