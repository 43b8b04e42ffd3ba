// store/memory_store.go
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It backs development runs and tests.
type MemoryStore struct {
	accounts      map[string]*models.Account // id -> account
	emailIndex    map[string]string          // lower(email) -> account id
	profiles      map[string]*models.Profile
	nurses        map[string]*models.Nurse
	nurseByUser   map[string]string // userID -> nurseID
	patients      map[string]*models.Patient
	patientByUser map[string]string // userID -> patientID
	links         map[string]*models.NursePatientLink
	appointments  map[string]*models.Appointment

	bookings       map[string]*models.Booking
	references     map[string]string // reference -> bookingID
	paymentIntents map[string]string // paymentIntentID -> bookingID
	events         map[string][]models.PaymentEvent

	posts    map[string]*models.BlogPost
	messages []*models.ContactMessage

	mu sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:       make(map[string]*models.Account),
		emailIndex:     make(map[string]string),
		profiles:       make(map[string]*models.Profile),
		nurses:         make(map[string]*models.Nurse),
		nurseByUser:    make(map[string]string),
		patients:       make(map[string]*models.Patient),
		patientByUser:  make(map[string]string),
		links:          make(map[string]*models.NursePatientLink),
		appointments:   make(map[string]*models.Appointment),
		bookings:       make(map[string]*models.Booking),
		references:     make(map[string]string),
		paymentIntents: make(map[string]string),
		events:         make(map[string][]models.PaymentEvent),
		posts:          make(map[string]*models.BlogPost),
	}
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// CreateAccount stores the account and its profile together
func (s *MemoryStore) CreateAccount(_ context.Context, account *models.Account, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(account.Email)
	if _, exists := s.emailIndex[key]; exists {
		return ErrDuplicateEmail
	}

	account.ID = newID(account.ID)
	stamp(&account.CreatedAt)
	profile.ID = account.ID
	profile.CreatedAt = account.CreatedAt

	accountCopy := *account
	profileCopy := *profile
	s.accounts[account.ID] = &accountCopy
	s.profiles[profile.ID] = &profileCopy
	s.emailIndex[key] = account.ID

	return nil
}

// GetAccountByEmail retrieves an account by email, ignoring case
func (s *MemoryStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.emailIndex[strings.ToLower(email)]
	if !exists {
		return nil, fmt.Errorf("account %s: %w", email, ErrNotFound)
	}
	accountCopy := *s.accounts[id]
	return &accountCopy, nil
}

// GetProfile retrieves a profile by user ID
func (s *MemoryStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, exists := s.profiles[id]
	if !exists {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	profileCopy := *profile
	return &profileCopy, nil
}

// DeleteAccount removes an account with its profile and role rows
func (s *MemoryStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	delete(s.emailIndex, strings.ToLower(account.Email))
	delete(s.accounts, id)
	delete(s.profiles, id)
	if nurseID, ok := s.nurseByUser[id]; ok {
		delete(s.nurses, nurseID)
		delete(s.nurseByUser, id)
	}
	if patientID, ok := s.patientByUser[id]; ok {
		delete(s.patients, patientID)
		delete(s.patientByUser, id)
	}
	return nil
}

// CreateNurse stores a nurse application
func (s *MemoryStore) CreateNurse(_ context.Context, nurse *models.Nurse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nurse.ID = newID(nurse.ID)
	stamp(&nurse.CreatedAt)
	nurse.UpdatedAt = nurse.CreatedAt
	if nurse.Status == "" {
		nurse.Status = models.NurseStatusPending
	}

	nurseCopy := *nurse
	s.nurses[nurse.ID] = &nurseCopy
	s.nurseByUser[nurse.UserID] = nurse.ID
	return nil
}

// GetNurse retrieves a nurse by row ID
func (s *MemoryStore) GetNurse(_ context.Context, id string) (*models.Nurse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nurse, exists := s.nurses[id]
	if !exists {
		return nil, fmt.Errorf("nurse %s: %w", id, ErrNotFound)
	}
	nurseCopy := *nurse
	return &nurseCopy, nil
}

// GetNurseByUserID retrieves the nurse row owned by a user
func (s *MemoryStore) GetNurseByUserID(ctx context.Context, userID string) (*models.Nurse, error) {
	s.mu.RLock()
	id, exists := s.nurseByUser[userID]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("nurse for user %s: %w", userID, ErrNotFound)
	}
	return s.GetNurse(ctx, id)
}

// ListNurses lists nurses oldest first, optionally filtered by status
func (s *MemoryStore) ListNurses(_ context.Context, status models.NurseStatus) ([]*models.Nurse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nurses := make([]*models.Nurse, 0, len(s.nurses))
	for _, nurse := range s.nurses {
		if status != "" && nurse.Status != status {
			continue
		}
		nurseCopy := *nurse
		nurses = append(nurses, &nurseCopy)
	}

	sort.Slice(nurses, func(i, j int) bool {
		return nurses[i].CreatedAt.Before(nurses[j].CreatedAt)
	})
	return nurses, nil
}

// UpdateNurseStatus sets the application status
func (s *MemoryStore) UpdateNurseStatus(_ context.Context, id string, status models.NurseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nurse, exists := s.nurses[id]
	if !exists {
		return fmt.Errorf("nurse %s: %w", id, ErrNotFound)
	}
	nurse.Status = status
	nurse.UpdatedAt = time.Now()
	return nil
}

// CountNurses counts nurses, optionally filtered by status
func (s *MemoryStore) CountNurses(_ context.Context, status models.NurseStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		return len(s.nurses), nil
	}
	count := 0
	for _, nurse := range s.nurses {
		if nurse.Status == status {
			count++
		}
	}
	return count, nil
}

// CreatePatient stores patient details
func (s *MemoryStore) CreatePatient(_ context.Context, patient *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient.ID = newID(patient.ID)
	stamp(&patient.CreatedAt)

	patientCopy := *patient
	s.patients[patient.ID] = &patientCopy
	s.patientByUser[patient.UserID] = patient.ID
	return nil
}

// GetPatientByUserID retrieves the patient row owned by a user
func (s *MemoryStore) GetPatientByUserID(_ context.Context, userID string) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.patientByUser[userID]
	if !exists {
		return nil, fmt.Errorf("patient for user %s: %w", userID, ErrNotFound)
	}
	patientCopy := *s.patients[id]
	return &patientCopy, nil
}

// CountPatients counts patients
func (s *MemoryStore) CountPatients(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients), nil
}

// CreateLink assigns a patient to a nurse
func (s *MemoryStore) CreateLink(_ context.Context, link *models.NursePatientLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.links {
		if existing.NurseID == link.NurseID && existing.PatientID == link.PatientID {
			return fmt.Errorf("nurse %s patient %s: %w", link.NurseID, link.PatientID, ErrDuplicate)
		}
	}

	link.ID = newID(link.ID)
	stamp(&link.DateAssigned)

	linkCopy := *link
	s.links[link.ID] = &linkCopy
	return nil
}

// CountLinksForNurse counts patients assigned to a nurse row
func (s *MemoryStore) CountLinksForNurse(_ context.Context, nurseID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, link := range s.links {
		if link.NurseID == nurseID {
			count++
		}
	}
	return count, nil
}

// CreateAppointment stores an appointment
func (s *MemoryStore) CreateAppointment(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appointment.PaymentReference != "" {
		for _, existing := range s.appointments {
			if existing.PaymentReference == appointment.PaymentReference {
				return fmt.Errorf("appointment for payment %s: %w", appointment.PaymentReference, ErrDuplicate)
			}
		}
	}

	appointment.ID = newID(appointment.ID)
	stamp(&appointment.CreatedAt)
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusScheduled
	}

	appointmentCopy := *appointment
	s.appointments[appointment.ID] = &appointmentCopy
	return nil
}

// GetAppointment retrieves an appointment by ID
func (s *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, exists := s.appointments[id]
	if !exists {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	appointmentCopy := *appointment
	return &appointmentCopy, nil
}

// GetAppointmentByPaymentReference retrieves the appointment created for a booking payment
func (s *MemoryStore) GetAppointmentByPaymentReference(_ context.Context, reference string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, appointment := range s.appointments {
		if reference != "" && appointment.PaymentReference == reference {
			appointmentCopy := *appointment
			return &appointmentCopy, nil
		}
	}
	return nil, fmt.Errorf("appointment for payment %s: %w", reference, ErrNotFound)
}

// ListAppointments lists appointments by date and time, earliest first
func (s *MemoryStore) ListAppointments(_ context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]*models.Appointment, 0)
	for _, appointment := range s.appointments {
		if filter.PatientID != "" && appointment.PatientID != filter.PatientID {
			continue
		}
		if filter.NurseID != "" && (appointment.NurseID == nil || *appointment.NurseID != filter.NurseID) {
			continue
		}
		appointmentCopy := *appointment
		appointments = append(appointments, &appointmentCopy)
	}

	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].AppointmentDate != appointments[j].AppointmentDate {
			return appointments[i].AppointmentDate < appointments[j].AppointmentDate
		}
		return appointments[i].AppointmentTime < appointments[j].AppointmentTime
	})
	return appointments, nil
}

// UpdateAppointment replaces an existing appointment
func (s *MemoryStore) UpdateAppointment(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appointments[appointment.ID]; !exists {
		return fmt.Errorf("appointment %s: %w", appointment.ID, ErrNotFound)
	}
	appointmentCopy := *appointment
	s.appointments[appointment.ID] = &appointmentCopy
	return nil
}

// CountAppointments counts appointments
func (s *MemoryStore) CountAppointments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments), nil
}

// CreateBooking creates a new booking
func (s *MemoryStore) CreateBooking(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.Reference == "" {
		return fmt.Errorf("booking reference cannot be empty")
	}
	if _, exists := s.references[booking.Reference]; exists {
		return fmt.Errorf("booking reference %s already exists", booking.Reference)
	}

	booking.ID = newID(booking.ID)
	stamp(&booking.CreatedAt)
	booking.UpdatedAt = booking.CreatedAt

	bookingCopy := *booking
	s.bookings[booking.ID] = &bookingCopy
	s.references[booking.Reference] = booking.ID
	if booking.Payment.StripePaymentIntentID != "" {
		s.paymentIntents[booking.Payment.StripePaymentIntentID] = booking.ID
	}
	return nil
}

// GetBooking retrieves a booking by ID
func (s *MemoryStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, exists := s.bookings[id]
	if !exists {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}

	// Return a copy to prevent external modifications
	bookingCopy := *booking
	return &bookingCopy, nil
}

// GetBookingByReference retrieves a booking by its payment reference
func (s *MemoryStore) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	s.mu.RLock()
	id, exists := s.references[reference]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("booking with reference %s: %w", reference, ErrNotFound)
	}
	return s.GetBooking(ctx, id)
}

// GetBookingByPaymentIntent retrieves a booking by Stripe payment intent ID
func (s *MemoryStore) GetBookingByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	s.mu.RLock()
	id, exists := s.paymentIntents[paymentIntentID]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("booking with payment intent %s: %w", paymentIntentID, ErrNotFound)
	}
	return s.GetBooking(ctx, id)
}

// UpdateBooking updates an existing booking
func (s *MemoryStore) UpdateBooking(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.ID]; !exists {
		return fmt.Errorf("booking %s: %w", booking.ID, ErrNotFound)
	}

	booking.UpdatedAt = time.Now()
	bookingCopy := *booking
	s.bookings[booking.ID] = &bookingCopy
	if booking.Payment.StripePaymentIntentID != "" {
		s.paymentIntents[booking.Payment.StripePaymentIntentID] = booking.ID
	}
	return nil
}

// ListBookings retrieves bookings newest first with pagination
func (s *MemoryStore) ListBookings(_ context.Context, limit, offset int) ([]*models.BookingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookingList := make([]*models.Booking, 0, len(s.bookings))
	for _, booking := range s.bookings {
		bookingList = append(bookingList, booking)
	}

	// Sort by creation date (newest first)
	sort.Slice(bookingList, func(i, j int) bool {
		return bookingList[i].CreatedAt.After(bookingList[j].CreatedAt)
	})

	start, end := paginate(len(bookingList), limit, offset)
	summaries := make([]*models.BookingSummary, 0, end-start)
	for _, booking := range bookingList[start:end] {
		summaries = append(summaries, booking.Summary())
	}
	return summaries, nil
}

// ListStaleBookings lists unpaid bookings created before the cutoff
func (s *MemoryStore) ListStaleBookings(_ context.Context, before time.Time) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stale := make([]*models.Booking, 0)
	for _, booking := range s.bookings {
		if isStale(booking, before) {
			bookingCopy := *booking
			stale = append(stale, &bookingCopy)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].CreatedAt.Before(stale[j].CreatedAt)
	})
	return stale, nil
}

// AddPaymentEvent adds a payment event
func (s *MemoryStore) AddPaymentEvent(_ context.Context, event models.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = newID(event.ID)
	event.CreatedAt = time.Now()

	s.events[event.BookingID] = append(s.events[event.BookingID], event)
	return nil
}

// GetPaymentEvents retrieves payment events for a booking
func (s *MemoryStore) GetPaymentEvents(_ context.Context, bookingID string) ([]models.PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, exists := s.events[bookingID]
	if !exists {
		return []models.PaymentEvent{}, nil
	}

	// Return a copy
	eventsCopy := make([]models.PaymentEvent, len(events))
	copy(eventsCopy, events)
	return eventsCopy, nil
}

// GetBookingStats calculates booking payment statistics
func (s *MemoryStore) GetBookingStats(_ context.Context, now time.Time) (*models.BookingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.BookingStats{}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	for _, booking := range s.bookings {
		stats.TotalBookings++
		amount := float64(booking.Payment.Amount) / 100

		switch booking.Status {
		case models.BookingStatusCreated, models.BookingStatusPending:
			stats.PendingBookings++
		case models.BookingStatusPaid:
			stats.PaidBookings++
			stats.TotalRevenue += amount
			if !booking.CreatedAt.Before(today) {
				stats.RevenueToday += amount
			}
			if !booking.CreatedAt.Before(thisMonth) {
				stats.RevenueThisMonth += amount
			}
		case models.BookingStatusRefunded:
			stats.RefundedBookings++
		}
	}

	if stats.PaidBookings > 0 {
		stats.AverageBookingValue = stats.TotalRevenue / float64(stats.PaidBookings)
	}
	return stats, nil
}

// CreateBlogPost stores a blog post
func (s *MemoryStore) CreateBlogPost(_ context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = newID(post.ID)
	stamp(&post.CreatedAt)

	postCopy := *post
	s.posts[post.ID] = &postCopy
	return nil
}

// GetBlogPost retrieves a blog post by ID
func (s *MemoryStore) GetBlogPost(_ context.Context, id string) (*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("blog post %s: %w", id, ErrNotFound)
	}
	postCopy := *post
	return &postCopy, nil
}

// ListBlogPosts lists posts newest first, optionally by category
func (s *MemoryStore) ListBlogPosts(_ context.Context, category string, publishedOnly bool) ([]*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*models.BlogPost, 0, len(s.posts))
	for _, post := range s.posts {
		if publishedOnly && !post.Published {
			continue
		}
		if category != "" && post.Category != category {
			continue
		}
		postCopy := *post
		posts = append(posts, &postCopy)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// CountBlogPosts counts all posts, published or not
func (s *MemoryStore) CountBlogPosts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts), nil
}

// CreateContactMessage stores a contact form submission
func (s *MemoryStore) CreateContactMessage(_ context.Context, msg *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = newID(msg.ID)
	stamp(&msg.CreatedAt)

	msgCopy := *msg
	s.messages = append(s.messages, &msgCopy)
	return nil
}

// ListContactMessages lists messages newest first
func (s *MemoryStore) ListContactMessages(_ context.Context, limit, offset int) ([]*models.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]*models.ContactMessage, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0; i-- {
		msgCopy := *s.messages[i]
		messages = append(messages, &msgCopy)
	}

	start, end := paginate(len(messages), limit, offset)
	return messages[start:end], nil
}
