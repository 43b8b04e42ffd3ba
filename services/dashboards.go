package services

import (
	"context"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
)

// DateLayout is the appointment date format
const DateLayout = "2006-01-02"

// GeneralDashboard is the fallback dashboard shown at /dashboard
type GeneralDashboard struct {
	Profile      *models.Profile       `json:"profile"`
	Appointments []*models.Appointment `json:"appointments"`
}

// PatientDashboard lists the patient's appointments
type PatientDashboard struct {
	Profile      *models.Profile       `json:"profile"`
	Patient      *models.Patient       `json:"patient,omitempty"`
	Appointments []*models.Appointment `json:"appointments"`
	Stats        models.PatientStats   `json:"stats"`
}

// NurseDashboard lists the nurse's assigned appointments
type NurseDashboard struct {
	Profile      *models.Profile       `json:"profile"`
	Nurse        *models.Nurse         `json:"nurse"`
	Appointments []*models.Appointment `json:"appointments"`
	Stats        models.NurseStats     `json:"stats"`
}

// AdminDashboard shows totals and the applications waiting for review
type AdminDashboard struct {
	Stats               models.AdminStats          `json:"stats"`
	PendingApplications []*models.NurseApplication `json:"pending_applications"`
}

// DashboardService builds the per-role dashboards
type DashboardService struct {
	store  store.Store
	access *AccessService
	now    func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(s store.Store, access *AccessService) *DashboardService {
	return &DashboardService{store: s, access: access, now: time.Now}
}

// General returns the profile and whichever appointments belong to it
func (d *DashboardService) General(ctx context.Context, userID string) (*GeneralDashboard, error) {
	profile, err := d.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "finding profile")
	}

	dash := &GeneralDashboard{Profile: profile, Appointments: []*models.Appointment{}}
	var filter models.AppointmentFilter
	switch profile.Role {
	case models.RolePatient:
		filter.PatientID = userID
	case models.RoleNurse:
		filter.NurseID = userID
	default:
		return dash, nil
	}

	dash.Appointments, err = d.store.ListAppointments(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing appointments")
	}
	return dash, nil
}

// Patient returns the patient dashboard
func (d *DashboardService) Patient(ctx context.Context, userID string) (*PatientDashboard, error) {
	profile, err := d.access.RequireRole(ctx, userID, models.RolePatient)
	if err != nil {
		return nil, err
	}

	appointments, err := d.store.ListAppointments(ctx, models.AppointmentFilter{PatientID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "listing appointments")
	}

	dash := &PatientDashboard{Profile: profile, Appointments: appointments}
	if patient, err := d.store.GetPatientByUserID(ctx, userID); err == nil {
		dash.Patient = patient
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, "finding patient")
	}

	for _, a := range appointments {
		switch a.Status {
		case models.AppointmentStatusScheduled:
			dash.Stats.UpcomingAppointments++
		case models.AppointmentStatusCompleted:
			dash.Stats.CompletedAppointments++
		}
	}
	return dash, nil
}

// Nurse returns the nurse dashboard. Only approved nurses get one.
func (d *DashboardService) Nurse(ctx context.Context, userID string) (*NurseDashboard, error) {
	profile, nurse, err := d.access.RequireApprovedNurse(ctx, userID)
	if err != nil {
		return nil, err
	}

	appointments, err := d.store.ListAppointments(ctx, models.AppointmentFilter{NurseID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "listing appointments")
	}

	assigned, err := d.store.CountLinksForNurse(ctx, nurse.ID)
	if err != nil {
		return nil, errors.Wrap(err, "counting patients")
	}

	dash := &NurseDashboard{Profile: profile, Nurse: nurse, Appointments: appointments}
	dash.Stats.AssignedPatients = assigned

	today := d.now().Format(DateLayout)
	for _, a := range appointments {
		switch a.Status {
		case models.AppointmentStatusScheduled:
			if a.AppointmentDate == today {
				dash.Stats.TodayAppointments++
			}
		case models.AppointmentStatusCompleted:
			dash.Stats.CompletedVisits++
		}
	}
	return dash, nil
}

// Admin returns the admin dashboard
func (d *DashboardService) Admin(ctx context.Context, userID string) (*AdminDashboard, error) {
	if _, err := d.access.RequireRole(ctx, userID, models.RoleAdmin); err != nil {
		return nil, err
	}

	var stats models.AdminStats
	var err error
	if stats.TotalNurses, err = d.store.CountNurses(ctx, ""); err != nil {
		return nil, errors.Wrap(err, "counting nurses")
	}
	if stats.TotalPatients, err = d.store.CountPatients(ctx); err != nil {
		return nil, errors.Wrap(err, "counting patients")
	}
	if stats.TotalAppointments, err = d.store.CountAppointments(ctx); err != nil {
		return nil, errors.Wrap(err, "counting appointments")
	}

	pending, err := listApplications(ctx, d.store, models.NurseStatusPending)
	if err != nil {
		return nil, err
	}
	stats.PendingApplications = len(pending)

	return &AdminDashboard{Stats: stats, PendingApplications: pending}, nil
}

// listApplications joins nurse rows with the applicant's email
func listApplications(ctx context.Context, s store.Store, status models.NurseStatus) ([]*models.NurseApplication, error) {
	nurses, err := s.ListNurses(ctx, status)
	if err != nil {
		return nil, errors.Wrap(err, "listing nurses")
	}

	apps := make([]*models.NurseApplication, 0, len(nurses))
	for _, n := range nurses {
		app := &models.NurseApplication{Nurse: *n}
		if profile, err := s.GetProfile(ctx, n.UserID); err == nil {
			app.Email = profile.Email
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, errors.Wrap(err, "finding applicant profile")
		}
		apps = append(apps, app)
	}
	return apps, nil
}
