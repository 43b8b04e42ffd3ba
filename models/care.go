package models

import (
	"time"
)

type NurseStatus string
type AppointmentStatus string

const (
	NurseStatusPending  NurseStatus = "pending"
	NurseStatusApproved NurseStatus = "approved"
	NurseStatusRejected NurseStatus = "rejected"

	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is a known application status.
func (s NurseStatus) Valid() bool {
	switch s {
	case NurseStatusPending, NurseStatusApproved, NurseStatusRejected:
		return true
	}
	return false
}

// Nurse is a nurse application. Only approved nurses may use the nurse portal.
type Nurse struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	FullName        string      `json:"full_name"`
	Specialization  string      `json:"specialization"`
	ExperienceYears int         `json:"experience_years"`
	LicenseURL      *string     `json:"license_url"`
	Status          NurseStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NurseApplication pairs a nurse row with the applicant's sign-in email.
type NurseApplication struct {
	Nurse
	Email string `json:"email"`
}

// Patient holds the patient details captured at sign-up.
type Patient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Gender    *string   `json:"gender"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

// NursePatientLink assigns a patient to a nurse. Both IDs are row IDs, not user IDs.
type NursePatientLink struct {
	ID           string    `json:"id"`
	NurseID      string    `json:"nurse_id"`
	PatientID    string    `json:"patient_id"`
	DateAssigned time.Time `json:"date_assigned"`
}

// Appointment is a scheduled home visit. PatientID and NurseID are user IDs.
type Appointment struct {
	ID               string            `json:"id"`
	PatientID        string            `json:"patient_id"`
	NurseID          *string           `json:"nurse_id"`
	ServiceType      string            `json:"service_type"`
	AppointmentDate  string            `json:"appointment_date"`
	AppointmentTime  string            `json:"appointment_time"`
	Status           AppointmentStatus `json:"status"`
	Notes            *string           `json:"notes"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// AppointmentFilter narrows appointment listings. Empty fields are ignored.
type AppointmentFilter struct {
	PatientID string
	NurseID   string
}

// AdminStats are the counters on the admin dashboard.
type AdminStats struct {
	TotalNurses         int `json:"total_nurses"`
	TotalPatients       int `json:"total_patients"`
	TotalAppointments   int `json:"total_appointments"`
	PendingApplications int `json:"pending_applications"`
}

// NurseStats are the counters on the nurse dashboard.
type NurseStats struct {
	AssignedPatients  int `json:"assigned_patients"`
	TodayAppointments int `json:"today_appointments"`
	CompletedVisits   int `json:"completed_visits"`
}

// PatientStats are the counters on the patient dashboard.
type PatientStats struct {
	UpcomingAppointments  int `json:"upcoming_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
}
