package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ReferencePrefix starts every payment reference
const ReferencePrefix = "DMC"

// BookingRequest is the booking form
type BookingRequest struct {
	ServiceType     string `json:"service_type"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Address         string `json:"address"`
	PreferredNurse  string `json:"preferred_nurse"`
	Notes           string `json:"notes"`
}

// BookingResult is what the client needs to open the payment form
type BookingResult struct {
	Booking        *models.Booking `json:"booking"`
	ClientSecret   string          `json:"client_secret"`
	PublishableKey string          `json:"publishable_key,omitempty"`
}

// BookingDetails is a booking with its payment history
type BookingDetails struct {
	Booking *models.Booking       `json:"booking"`
	Events  []models.PaymentEvent `json:"events"`
}

// BookingConfig holds payment settings
type BookingConfig struct {
	PublishableKey string
	Expiry         time.Duration
}

// BookingNotifier sends booking emails
type BookingNotifier interface {
	SendBookingConfirmation(ctx context.Context, booking *models.Booking) error
	SendRefundNotification(ctx context.Context, booking *models.Booking) error
}

// BookingService takes bookings through payment to a scheduled appointment
type BookingService struct {
	store    store.Store
	gateway  PaymentGateway
	notifier BookingNotifier
	access   *AccessService
	catalog  *Catalog
	cfg      BookingConfig
	logger   zerolog.Logger
	now      func() time.Time

	// serializes status changes so a payment is finalized once
	mu sync.Mutex
}

// NewBookingService creates a booking service
func NewBookingService(s store.Store, gateway PaymentGateway, notifier BookingNotifier, access *AccessService, catalog *Catalog, cfg BookingConfig, logger zerolog.Logger) *BookingService {
	return &BookingService{
		store:    s,
		gateway:  gateway,
		notifier: notifier,
		access:   access,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger.With().Str("component", "booking").Logger(),
		now:      time.Now,
	}
}

// NewReference builds a payment reference from the time and the user ID
func NewReference(now time.Time, userID string) string {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%d_%s", ReferencePrefix, now.UnixMilli(), short)
}

// AppointmentNotes is the notes text stored on the appointment created by a booking
func AppointmentNotes(b *models.Booking) string {
	return fmt.Sprintf("Address: %s\nPreferred Nurse: %s\nNotes: %s\nPayment Reference: %s",
		b.Address, b.PreferredNurse, b.Notes, b.Reference)
}

func (s *BookingService) validate(req *BookingRequest) (models.Plan, error) {
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	req.AppointmentDate = strings.TrimSpace(req.AppointmentDate)
	req.AppointmentTime = strings.TrimSpace(req.AppointmentTime)
	req.Address = strings.TrimSpace(req.Address)
	req.PreferredNurse = strings.TrimSpace(req.PreferredNurse)
	req.Notes = strings.TrimSpace(req.Notes)

	plan, ok := s.catalog.Plan(req.ServiceType)
	if !ok {
		return plan, validationErrorf("Please select a valid plan")
	}

	now := s.now()
	date, err := time.ParseInLocation(DateLayout, req.AppointmentDate, now.Location())
	if err != nil {
		return plan, validationErrorf("Appointment date must be in YYYY-MM-DD format")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return plan, validationErrorf("Appointment date cannot be in the past")
	}

	if !validTimeSlot(req.AppointmentTime) {
		return plan, validationErrorf("Please select a valid time slot")
	}
	if req.Address == "" {
		return plan, validationErrorf("Address is required")
	}
	return plan, nil
}

// CreateBooking validates the form, stores the booking and opens a payment for it
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req BookingRequest) (*BookingResult, error) {
	profile, err := s.access.RequireRole(ctx, userID, models.RolePatient)
	if err != nil {
		return nil, err
	}

	plan, err := s.validate(&req)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Reference:       NewReference(s.now(), userID),
		PatientID:       userID,
		CustomerEmail:   profile.Email,
		ServiceType:     plan.Name,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Address:         req.Address,
		PreferredNurse:  req.PreferredNurse,
		Notes:           req.Notes,
		Payment: models.PaymentInfo{
			Amount:   plan.Price,
			Currency: plan.Currency,
			Status:   models.PaymentStatusPending,
		},
		Status: models.BookingStatusCreated,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "creating booking")
	}

	intent, err := s.gateway.CreateIntent(ctx, plan.Price, plan.Currency, map[string]string{
		"booking_id":       booking.ID,
		"reference":        booking.Reference,
		"service_type":     booking.ServiceType,
		"appointment_date": booking.AppointmentDate,
		"customer_email":   booking.CustomerEmail,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("payment intent creation failed")
		booking.Status = models.BookingStatusCanceled
		booking.Payment.Status = models.PaymentStatusFailed
		if uerr := s.store.UpdateBooking(ctx, booking); uerr != nil {
			s.logger.Error().Err(uerr).Str("booking_id", booking.ID).Msg("failed to mark booking canceled")
		}
		return nil, errors.Wrap(ErrPaymentFailed, err.Error())
	}

	booking.Payment.StripePaymentIntentID = intent.ID
	booking.Status = models.BookingStatusPending
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "updating booking")
	}

	s.addEvent(ctx, booking.ID, "booking_created", models.PaymentStatusPending, map[string]interface{}{
		"payment_intent_id": intent.ID,
		"amount":            plan.Price,
		"currency":          plan.Currency,
	})

	s.logger.Info().Str("booking_id", booking.ID).Str("reference", booking.Reference).Msg("booking created")
	return &BookingResult{
		Booking:        booking,
		ClientSecret:   intent.ClientSecret,
		PublishableKey: s.cfg.PublishableKey,
	}, nil
}

// canView allows the booking's patient and admins
func (s *BookingService) canView(ctx context.Context, userID string, booking *models.Booking) error {
	if booking.PatientID == userID {
		return nil
	}
	_, err := s.access.RequireRole(ctx, userID, models.RoleAdmin)
	return err
}

// GetBooking returns a booking and its payment history by reference
func (s *BookingService) GetBooking(ctx context.Context, userID, reference string) (*BookingDetails, error) {
	booking, err := s.store.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, errors.Wrap(err, "finding booking")
	}
	if err := s.canView(ctx, userID, booking); err != nil {
		return nil, err
	}

	events, err := s.store.GetPaymentEvents(ctx, booking.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing payment events")
	}
	return &BookingDetails{Booking: booking, Events: events}, nil
}

// ConfirmBooking syncs the booking with the provider after the client finishes paying
func (s *BookingService) ConfirmBooking(ctx context.Context, userID, reference string) (*models.Booking, error) {
	booking, err := s.store.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, errors.Wrap(err, "finding booking")
	}
	if err := s.canView(ctx, userID, booking); err != nil {
		return nil, err
	}
	if booking.Payment.StripePaymentIntentID == "" {
		return booking, nil
	}

	intent, err := s.gateway.GetIntent(ctx, booking.Payment.StripePaymentIntentID)
	if err != nil {
		return nil, errors.Wrap(ErrPaymentFailed, err.Error())
	}

	switch intent.Status {
	case models.PaymentStatusSucceeded:
		return s.HandlePaymentSucceeded(ctx, intent)
	case models.PaymentStatusCanceled:
		return s.HandlePaymentCanceled(ctx, intent)
	case models.PaymentStatusFailed:
		return s.HandlePaymentFailed(ctx, intent)
	default:
		return booking, nil
	}
}

// HandlePaymentSucceeded marks the booking paid and schedules the appointment.
// Repeated calls for the same payment do nothing.
func (s *BookingService) HandlePaymentSucceeded(ctx context.Context, intent *PaymentIntent) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.store.GetBookingByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return nil, errors.Wrap(err, "finding booking")
	}

	switch booking.Status {
	case models.BookingStatusPaid, models.BookingStatusRefunded:
		s.logger.Debug().Str("booking_id", booking.ID).Msg("payment already processed")
		return booking, nil
	}

	appointment, err := s.appointmentFor(ctx, booking)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking.Status = models.BookingStatusPaid
	booking.AppointmentID = appointment.ID
	booking.Payment.Status = models.PaymentStatusSucceeded
	booking.Payment.ProcessedAt = &now
	if intent.Method != "" {
		booking.Payment.Method = intent.Method
	}
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "updating booking")
	}

	s.addEvent(ctx, booking.ID, "payment_succeeded", models.PaymentStatusSucceeded, map[string]interface{}{
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
		"payment_method":    intent.Method,
		"appointment_id":    appointment.ID,
	})

	if err := s.notifier.SendBookingConfirmation(ctx, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to send booking confirmation")
	}

	s.logger.Info().Str("booking_id", booking.ID).Str("appointment_id", appointment.ID).Msg("booking paid")
	return booking, nil
}

// appointmentFor returns the appointment scheduled for a paid booking, creating it
// on the first delivery. A retried delivery reuses the appointment an earlier
// attempt created before it failed to mark the booking paid.
func (s *BookingService) appointmentFor(ctx context.Context, booking *models.Booking) (*models.Appointment, error) {
	existing, err := s.store.GetAppointmentByPaymentReference(ctx, booking.Reference)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, "finding appointment")
	}

	appointment := &models.Appointment{
		PatientID:        booking.PatientID,
		ServiceType:      booking.ServiceType,
		AppointmentDate:  booking.AppointmentDate,
		AppointmentTime:  booking.AppointmentTime,
		Status:           models.AppointmentStatusScheduled,
		Notes:            models.StringPtr(AppointmentNotes(booking)),
		PaymentReference: booking.Reference,
	}
	if err := s.store.CreateAppointment(ctx, appointment); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			existing, err := s.store.GetAppointmentByPaymentReference(ctx, booking.Reference)
			return existing, errors.Wrap(err, "finding appointment")
		}
		return nil, errors.Wrap(err, "creating appointment")
	}
	return appointment, nil
}

// HandlePaymentFailed records a failed payment attempt. The booking stays open for another attempt.
func (s *BookingService) HandlePaymentFailed(ctx context.Context, intent *PaymentIntent) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.store.GetBookingByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return nil, errors.Wrap(err, "finding booking")
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusCreated {
		return booking, nil
	}

	booking.Payment.Status = models.PaymentStatusFailed
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "updating booking")
	}

	s.addEvent(ctx, booking.ID, "payment_failed", models.PaymentStatusFailed, map[string]interface{}{
		"payment_intent_id": intent.ID,
		"failure_code":      intent.FailureCode,
		"failure_message":   intent.FailureMessage,
	})
	s.logger.Warn().Str("booking_id", booking.ID).Str("failure_code", intent.FailureCode).Msg("payment failed")
	return booking, nil
}

// HandlePaymentCanceled closes a booking whose payment was canceled
func (s *BookingService) HandlePaymentCanceled(ctx context.Context, intent *PaymentIntent) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.store.GetBookingByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return nil, errors.Wrap(err, "finding booking")
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusCreated {
		return booking, nil
	}

	booking.Status = models.BookingStatusCanceled
	booking.Payment.Status = models.PaymentStatusCanceled
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "updating booking")
	}

	s.addEvent(ctx, booking.ID, "payment_canceled", models.PaymentStatusCanceled, map[string]interface{}{
		"payment_intent_id": intent.ID,
	})
	return booking, nil
}

// ListBookings lists bookings newest first
func (s *BookingService) ListBookings(ctx context.Context, limit, offset int) ([]*models.BookingSummary, error) {
	bookings, err := s.store.ListBookings(ctx, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "listing bookings")
	}
	return bookings, nil
}

// BookingStats summarizes booking revenue
func (s *BookingService) BookingStats(ctx context.Context) (*models.BookingStats, error) {
	stats, err := s.store.GetBookingStats(ctx, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "calculating booking stats")
	}
	return stats, nil
}

// RefundBooking refunds a paid booking and cancels its appointment
func (s *BookingService) RefundBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, errors.Wrap(err, "finding booking")
	}
	if booking.Status != models.BookingStatusPaid {
		return nil, errors.Wrap(ErrInvalidState, "only paid bookings can be refunded")
	}
	if booking.Payment.StripePaymentIntentID == "" {
		return nil, errors.Wrap(ErrInvalidState, "no payment intent found for this booking")
	}

	refundID, err := s.gateway.Refund(ctx, booking.Payment.StripePaymentIntentID)
	if err != nil {
		return nil, errors.Wrap(ErrPaymentFailed, err.Error())
	}

	now := s.now()
	booking.Status = models.BookingStatusRefunded
	booking.Payment.Status = models.PaymentStatusRefunded
	booking.Payment.RefundedAt = &now
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "updating booking")
	}

	if booking.AppointmentID != "" {
		if appointment, err := s.store.GetAppointment(ctx, booking.AppointmentID); err == nil {
			if appointment.Status == models.AppointmentStatusScheduled {
				appointment.Status = models.AppointmentStatusCancelled
				if err := s.store.UpdateAppointment(ctx, appointment); err != nil {
					s.logger.Error().Err(err).Str("appointment_id", appointment.ID).Msg("failed to cancel refunded appointment")
				}
			}
		} else {
			s.logger.Error().Err(err).Str("appointment_id", booking.AppointmentID).Msg("refunded booking appointment missing")
		}
	}

	s.addEvent(ctx, booking.ID, "booking_refunded", models.PaymentStatusRefunded, map[string]interface{}{
		"refund_id":   refundID,
		"refunded_at": now,
	})

	if err := s.notifier.SendRefundNotification(ctx, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to send refund notification")
	}
	return booking, nil
}

// ExpireStaleBookings closes bookings left unpaid for longer than the expiry and cancels their payments.
// It returns how many bookings were expired.
func (s *BookingService) ExpireStaleBookings(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.cfg.Expiry)
	stale, err := s.store.ListStaleBookings(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "listing stale bookings")
	}

	expired := 0
	for _, booking := range stale {
		if id := booking.Payment.StripePaymentIntentID; id != "" {
			if err := s.gateway.CancelIntent(ctx, id); err != nil {
				s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to cancel payment intent")
			}
		}

		booking.Status = models.BookingStatusExpired
		booking.Payment.Status = models.PaymentStatusCanceled
		if err := s.store.UpdateBooking(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to expire booking")
			continue
		}
		s.addEvent(ctx, booking.ID, "booking_expired", models.PaymentStatusCanceled, map[string]interface{}{
			"cutoff": cutoff,
		})
		expired++
	}

	if expired > 0 {
		s.logger.Info().Int("count", expired).Msg("expired stale bookings")
	}
	return expired, nil
}

func (s *BookingService) addEvent(ctx context.Context, bookingID, eventType string, status models.PaymentStatus, data map[string]interface{}) {
	err := s.store.AddPaymentEvent(ctx, models.PaymentEvent{
		BookingID: bookingID,
		EventType: eventType,
		Status:    status,
		Data:      data,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", bookingID).Str("event", eventType).Msg("failed to record payment event")
	}
}
