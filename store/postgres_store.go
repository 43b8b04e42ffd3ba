// store/postgres_store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures
const uniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// OpenDB opens and pings a PostgreSQL connection pool
func OpenDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := OpenDB(databaseURL)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an already opened pool
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB exposes the pool for migrations
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// limitArg maps a non-positive limit to NULL, which PostgreSQL reads as LIMIT ALL
func limitArg(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

func offsetArg(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// CreateAccount inserts the account and its profile in one transaction
func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account, profile *models.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	account.ID = newID(account.ID)
	stamp(&account.CreatedAt)
	profile.ID = account.ID
	profile.CreatedAt = account.CreatedAt

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		account.ID, account.Email, account.PasswordHash, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, email, role, first_name, last_name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		profile.ID, profile.Email, profile.Role,
		nullString(profile.FirstName), nullString(profile.LastName), nullString(profile.Phone),
		profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return tx.Commit()
}

// DeleteAccount removes an account. Profiles and role rows go with it through ON DELETE CASCADE.
func (s *PostgresStore) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOneRow(res, "account", id)
}

// GetAccountByEmail retrieves an account by email, ignoring case
func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM accounts WHERE lower(email) = lower($1)`, email).
		Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetProfile retrieves a profile by user ID
func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	var firstName, lastName, phone sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, first_name, last_name, phone, created_at
		FROM profiles WHERE id = $1`, id).
		Scan(&profile.ID, &profile.Email, &profile.Role, &firstName, &lastName, &phone, &profile.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile.FirstName = stringPtr(firstName)
	profile.LastName = stringPtr(lastName)
	profile.Phone = stringPtr(phone)
	return &profile, nil
}

const nurseColumns = `id, user_id, full_name, specialization, experience_years, license_url, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNurse(row rowScanner) (*models.Nurse, error) {
	var nurse models.Nurse
	var licenseURL sql.NullString
	err := row.Scan(
		&nurse.ID,
		&nurse.UserID,
		&nurse.FullName,
		&nurse.Specialization,
		&nurse.ExperienceYears,
		&licenseURL,
		&nurse.Status,
		&nurse.CreatedAt,
		&nurse.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	nurse.LicenseURL = stringPtr(licenseURL)
	return &nurse, nil
}

// CreateNurse stores a nurse application
func (s *PostgresStore) CreateNurse(ctx context.Context, nurse *models.Nurse) error {
	nurse.ID = newID(nurse.ID)
	stamp(&nurse.CreatedAt)
	nurse.UpdatedAt = nurse.CreatedAt
	if nurse.Status == "" {
		nurse.Status = models.NurseStatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nurses (`+nurseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		nurse.ID, nurse.UserID, nurse.FullName, nurse.Specialization, nurse.ExperienceYears,
		nullString(nurse.LicenseURL), nurse.Status, nurse.CreatedAt, nurse.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert nurse: %w", err)
	}
	return nil
}

// GetNurse retrieves a nurse by row ID
func (s *PostgresStore) GetNurse(ctx context.Context, id string) (*models.Nurse, error) {
	nurse, err := scanNurse(s.db.QueryRowContext(ctx, `SELECT `+nurseColumns+` FROM nurses WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("nurse %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get nurse: %w", err)
	}
	return nurse, nil
}

// GetNurseByUserID retrieves the nurse row owned by a user
func (s *PostgresStore) GetNurseByUserID(ctx context.Context, userID string) (*models.Nurse, error) {
	nurse, err := scanNurse(s.db.QueryRowContext(ctx, `SELECT `+nurseColumns+` FROM nurses WHERE user_id = $1`, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("nurse for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get nurse: %w", err)
	}
	return nurse, nil
}

// ListNurses lists nurses oldest first, optionally filtered by status
func (s *PostgresStore) ListNurses(ctx context.Context, status models.NurseStatus) ([]*models.Nurse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nurseColumns+` FROM nurses
		WHERE ($1::text = '' OR status = $1)
		ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list nurses: %w", err)
	}
	defer rows.Close()

	nurses := make([]*models.Nurse, 0)
	for rows.Next() {
		nurse, err := scanNurse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nurse: %w", err)
		}
		nurses = append(nurses, nurse)
	}
	return nurses, rows.Err()
}

// UpdateNurseStatus sets the application status
func (s *PostgresStore) UpdateNurseStatus(ctx context.Context, id string, status models.NurseStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE nurses SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update nurse status: %w", err)
	}
	return expectOneRow(res, "nurse", id)
}

// CountNurses counts nurses, optionally filtered by status
func (s *PostgresStore) CountNurses(ctx context.Context, status models.NurseStatus) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM nurses WHERE ($1::text = '' OR status = $1)`, string(status))
}

// CreatePatient stores patient details
func (s *PostgresStore) CreatePatient(ctx context.Context, patient *models.Patient) error {
	patient.ID = newID(patient.ID)
	stamp(&patient.CreatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (id, user_id, full_name, gender, age, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		patient.ID, patient.UserID, patient.FullName, nullString(patient.Gender), nullInt(patient.Age), patient.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

// GetPatientByUserID retrieves the patient row owned by a user
func (s *PostgresStore) GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	var patient models.Patient
	var gender sql.NullString
	var age sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, gender, age, created_at
		FROM patients WHERE user_id = $1`, userID).
		Scan(&patient.ID, &patient.UserID, &patient.FullName, &gender, &age, &patient.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	patient.Gender = stringPtr(gender)
	patient.Age = intPtr(age)
	return &patient, nil
}

// CountPatients counts patients
func (s *PostgresStore) CountPatients(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM patients`)
}

// CreateLink assigns a patient to a nurse
func (s *PostgresStore) CreateLink(ctx context.Context, link *models.NursePatientLink) error {
	link.ID = newID(link.ID)
	stamp(&link.DateAssigned)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nurse_patient_links (id, nurse_id, patient_id, date_assigned)
		VALUES ($1, $2, $3, $4)`,
		link.ID, link.NurseID, link.PatientID, link.DateAssigned)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("nurse %s patient %s: %w", link.NurseID, link.PatientID, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert nurse patient link: %w", err)
	}
	return nil
}

// CountLinksForNurse counts patients assigned to a nurse row
func (s *PostgresStore) CountLinksForNurse(ctx context.Context, nurseID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM nurse_patient_links WHERE nurse_id = $1`, nurseID)
}

const appointmentColumns = `id, patient_id, nurse_id, service_type, appointment_date, appointment_time, status, notes, payment_reference, created_at`

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appointment models.Appointment
	var nurseID, notes sql.NullString
	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&nurseID,
		&appointment.ServiceType,
		&appointment.AppointmentDate,
		&appointment.AppointmentTime,
		&appointment.Status,
		&notes,
		&appointment.PaymentReference,
		&appointment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	appointment.NurseID = stringPtr(nurseID)
	appointment.Notes = stringPtr(notes)
	return &appointment, nil
}

// CreateAppointment stores an appointment
func (s *PostgresStore) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	appointment.ID = newID(appointment.ID)
	stamp(&appointment.CreatedAt)
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusScheduled
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		appointment.ID, appointment.PatientID, nullString(appointment.NurseID), appointment.ServiceType,
		appointment.AppointmentDate, appointment.AppointmentTime, appointment.Status,
		nullString(appointment.Notes), appointment.PaymentReference, appointment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("appointment for payment %s: %w", appointment.PaymentReference, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by ID
func (s *PostgresStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := scanAppointment(s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}

// GetAppointmentByPaymentReference retrieves the appointment created for a booking payment
func (s *PostgresStore) GetAppointmentByPaymentReference(ctx context.Context, reference string) (*models.Appointment, error) {
	appointment, err := scanAppointment(s.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE payment_reference = $1 AND payment_reference <> ''`, reference))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("appointment for payment %s: %w", reference, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}

// ListAppointments lists appointments by date and time, earliest first
func (s *PostgresStore) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE ($1::text = '' OR patient_id = $1) AND ($2::text = '' OR nurse_id = $2)
		ORDER BY appointment_date ASC, appointment_time ASC`, filter.PatientID, filter.NurseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]*models.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

// UpdateAppointment updates the mutable appointment fields
func (s *PostgresStore) UpdateAppointment(ctx context.Context, appointment *models.Appointment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE appointments SET
			nurse_id = $2, service_type = $3, appointment_date = $4,
			appointment_time = $5, status = $6, notes = $7
		WHERE id = $1`,
		appointment.ID, nullString(appointment.NurseID), appointment.ServiceType,
		appointment.AppointmentDate, appointment.AppointmentTime, appointment.Status,
		nullString(appointment.Notes))
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return expectOneRow(res, "appointment", appointment.ID)
}

// CountAppointments counts appointments
func (s *PostgresStore) CountAppointments(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM appointments`)
}

const bookingColumns = `
	id, reference, patient_id, customer_email, service_type, appointment_date, appointment_time,
	address, preferred_nurse, notes, status, appointment_id,
	stripe_payment_intent_id, amount, currency, payment_status, payment_method,
	processed_at, refunded_at, created_at, updated_at`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var appointmentID, intentID sql.NullString
	var processedAt, refundedAt sql.NullTime
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.PatientID,
		&booking.CustomerEmail,
		&booking.ServiceType,
		&booking.AppointmentDate,
		&booking.AppointmentTime,
		&booking.Address,
		&booking.PreferredNurse,
		&booking.Notes,
		&booking.Status,
		&appointmentID,
		&intentID,
		&booking.Payment.Amount,
		&booking.Payment.Currency,
		&booking.Payment.Status,
		&booking.Payment.Method,
		&processedAt,
		&refundedAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.AppointmentID = appointmentID.String
	booking.Payment.StripePaymentIntentID = intentID.String
	booking.Payment.ProcessedAt = timePtr(processedAt)
	booking.Payment.RefundedAt = timePtr(refundedAt)
	return &booking, nil
}

func emptyToNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateBooking creates a new booking in the database
func (s *PostgresStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Reference == "" {
		return fmt.Errorf("booking reference cannot be empty")
	}
	booking.ID = newID(booking.ID)
	stamp(&booking.CreatedAt)
	booking.UpdatedAt = booking.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		booking.ID,
		booking.Reference,
		booking.PatientID,
		booking.CustomerEmail,
		booking.ServiceType,
		booking.AppointmentDate,
		booking.AppointmentTime,
		booking.Address,
		booking.PreferredNurse,
		booking.Notes,
		booking.Status,
		emptyToNull(booking.AppointmentID),
		emptyToNull(booking.Payment.StripePaymentIntentID),
		booking.Payment.Amount,
		booking.Payment.Currency,
		booking.Payment.Status,
		booking.Payment.Method,
		booking.Payment.ProcessedAt,
		booking.Payment.RefundedAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (s *PostgresStore) getBookingWhere(ctx context.Context, column, value string) (*models.Booking, error) {
	booking, err := scanBooking(s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+column+` = $1`, value))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("booking with %s %s: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *PostgresStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.getBookingWhere(ctx, "id", id)
}

// GetBookingByReference retrieves a booking by its payment reference
func (s *PostgresStore) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return s.getBookingWhere(ctx, "reference", reference)
}

// GetBookingByPaymentIntent retrieves a booking by Stripe payment intent ID
func (s *PostgresStore) GetBookingByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	return s.getBookingWhere(ctx, "stripe_payment_intent_id", paymentIntentID)
}

// UpdateBooking updates an existing booking
func (s *PostgresStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET
			status = $2, appointment_id = $3, stripe_payment_intent_id = $4,
			amount = $5, currency = $6, payment_status = $7, payment_method = $8,
			processed_at = $9, refunded_at = $10, updated_at = $11
		WHERE id = $1`,
		booking.ID,
		booking.Status,
		emptyToNull(booking.AppointmentID),
		emptyToNull(booking.Payment.StripePaymentIntentID),
		booking.Payment.Amount,
		booking.Payment.Currency,
		booking.Payment.Status,
		booking.Payment.Method,
		booking.Payment.ProcessedAt,
		booking.Payment.RefundedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return expectOneRow(res, "booking", booking.ID)
}

// ListBookings retrieves bookings newest first with pagination
func (s *PostgresStore) ListBookings(ctx context.Context, limit, offset int) ([]*models.BookingSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limitArg(limit), offsetArg(offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.BookingSummary, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		summaries = append(summaries, booking.Summary())
	}
	return summaries, rows.Err()
}

// ListStaleBookings lists unpaid bookings created before the cutoff
func (s *PostgresStore) ListStaleBookings(ctx context.Context, before time.Time) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status IN ($1, $2) AND created_at < $3
		ORDER BY created_at ASC`,
		models.BookingStatusCreated, models.BookingStatusPending, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// AddPaymentEvent adds a payment event
func (s *PostgresStore) AddPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	event.ID = newID(event.ID)
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to encode payment event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_events (id, booking_id, event_type, status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.BookingID, event.EventType, event.Status, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert payment event: %w", err)
	}
	return nil
}

// GetPaymentEvents retrieves payment events for a booking
func (s *PostgresStore) GetPaymentEvents(ctx context.Context, bookingID string) ([]models.PaymentEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, booking_id, event_type, status, data, created_at
		FROM payment_events
		WHERE booking_id = $1
		ORDER BY created_at ASC`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment events: %w", err)
	}
	defer rows.Close()

	events := make([]models.PaymentEvent, 0)
	for rows.Next() {
		var event models.PaymentEvent
		var data []byte
		if err := rows.Scan(&event.ID, &event.BookingID, &event.EventType, &event.Status, &data, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment event: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.Data); err != nil {
				return nil, fmt.Errorf("failed to decode payment event data: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// GetBookingStats calculates booking payment statistics
func (s *PostgresStore) GetBookingStats(ctx context.Context, now time.Time) (*models.BookingStats, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats models.BookingStats
	var totalRevenue, revenueToday, revenueThisMonth int64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('created', 'pending')),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'refunded'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid' AND created_at >= $1), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid' AND created_at >= $2), 0)
		FROM bookings`, today, thisMonth).Scan(
		&stats.TotalBookings,
		&stats.PendingBookings,
		&stats.PaidBookings,
		&stats.RefundedBookings,
		&totalRevenue,
		&revenueToday,
		&revenueThisMonth,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	stats.TotalRevenue = float64(totalRevenue) / 100
	stats.RevenueToday = float64(revenueToday) / 100
	stats.RevenueThisMonth = float64(revenueThisMonth) / 100
	if stats.PaidBookings > 0 {
		stats.AverageBookingValue = stats.TotalRevenue / float64(stats.PaidBookings)
	}
	return &stats, nil
}

const blogColumns = `id, title, content, excerpt, image_url, author_id, category, published, created_at`

func scanBlogPost(row rowScanner) (*models.BlogPost, error) {
	var post models.BlogPost
	var excerpt, imageURL, authorID sql.NullString
	err := row.Scan(&post.ID, &post.Title, &post.Content, &excerpt, &imageURL, &authorID,
		&post.Category, &post.Published, &post.CreatedAt)
	if err != nil {
		return nil, err
	}
	post.Excerpt = stringPtr(excerpt)
	post.ImageURL = stringPtr(imageURL)
	post.AuthorID = stringPtr(authorID)
	return &post, nil
}

// CreateBlogPost stores a blog post
func (s *PostgresStore) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	post.ID = newID(post.ID)
	stamp(&post.CreatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blog_posts (`+blogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		post.ID, post.Title, post.Content, nullString(post.Excerpt), nullString(post.ImageURL),
		nullString(post.AuthorID), post.Category, post.Published, post.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert blog post: %w", err)
	}
	return nil
}

// GetBlogPost retrieves a blog post by ID
func (s *PostgresStore) GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error) {
	post, err := scanBlogPost(s.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("blog post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}
	return post, nil
}

// ListBlogPosts lists posts newest first, optionally by category
func (s *PostgresStore) ListBlogPosts(ctx context.Context, category string, publishedOnly bool) ([]*models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts`
	var conditions []string
	var args []interface{}
	if category != "" {
		args = append(args, category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if publishedOnly {
		conditions = append(conditions, "published")
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.BlogPost, 0)
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// CountBlogPosts counts all posts, published or not
func (s *PostgresStore) CountBlogPosts(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM blog_posts`)
}

// CreateContactMessage stores a contact form submission
func (s *PostgresStore) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	msg.ID = newID(msg.ID)
	stamp(&msg.CreatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.Name, msg.Email, msg.Message, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

// ListContactMessages lists messages newest first
func (s *PostgresStore) ListContactMessages(ctx context.Context, limit, offset int) ([]*models.ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, created_at FROM contact_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limitArg(limit), offsetArg(offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ContactMessage, 0)
	for rows.Next() {
		var msg models.ContactMessage
		if err := rows.Scan(&msg.ID, &msg.Name, &msg.Email, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
