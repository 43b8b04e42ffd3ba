// store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an account already uses the email
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicate is returned when a row with the same natural key already exists
	ErrDuplicate = errors.New("already exists")
)

// AccountStore persists credentials and profiles
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	DeleteAccount(ctx context.Context, id string) error
}

// CareStore persists nurses, patients, their links and appointments
type CareStore interface {
	CreateNurse(ctx context.Context, nurse *models.Nurse) error
	GetNurse(ctx context.Context, id string) (*models.Nurse, error)
	GetNurseByUserID(ctx context.Context, userID string) (*models.Nurse, error)
	ListNurses(ctx context.Context, status models.NurseStatus) ([]*models.Nurse, error)
	UpdateNurseStatus(ctx context.Context, id string, status models.NurseStatus) error
	CountNurses(ctx context.Context, status models.NurseStatus) (int, error)

	CreatePatient(ctx context.Context, patient *models.Patient) error
	GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error)
	CountPatients(ctx context.Context) (int, error)

	CreateLink(ctx context.Context, link *models.NursePatientLink) error
	CountLinksForNurse(ctx context.Context, nurseID string) (int, error)

	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	GetAppointmentByPaymentReference(ctx context.Context, reference string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error)
	UpdateAppointment(ctx context.Context, appointment *models.Appointment) error
	CountAppointments(ctx context.Context) (int, error)
}

// BookingStore persists bookings and their payment history
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetBookingByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	ListBookings(ctx context.Context, limit, offset int) ([]*models.BookingSummary, error)
	ListStaleBookings(ctx context.Context, before time.Time) ([]*models.Booking, error)
	AddPaymentEvent(ctx context.Context, event models.PaymentEvent) error
	GetPaymentEvents(ctx context.Context, bookingID string) ([]models.PaymentEvent, error)
	GetBookingStats(ctx context.Context, now time.Time) (*models.BookingStats, error)
}

// ContentStore persists blog posts and contact messages
type ContentStore interface {
	CreateBlogPost(ctx context.Context, post *models.BlogPost) error
	GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error)
	ListBlogPosts(ctx context.Context, category string, publishedOnly bool) ([]*models.BlogPost, error)
	CountBlogPosts(ctx context.Context) (int, error)

	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	ListContactMessages(ctx context.Context, limit, offset int) ([]*models.ContactMessage, error)
}

// Store is everything the service persists
type Store interface {
	AccountStore
	CareStore
	BookingStore
	ContentStore
	Close() error
}

// paginate clamps offset and limit to a slice of length n
func paginate(n, limit, offset int) (int, int) {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := start + limit
	if limit <= 0 || end > n {
		end = n
	}
	return start, end
}

// isStale reports whether a booking is still waiting for payment and was created before the cutoff
func isStale(b *models.Booking, before time.Time) bool {
	return (b.Status == models.BookingStatusCreated || b.Status == models.BookingStatusPending) &&
		b.CreatedAt.Before(before)
}
