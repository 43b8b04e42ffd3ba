package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/storage"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory PaymentGateway
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	intents   map[string]*PaymentIntent
	metadata  map[string]map[string]string
	canceled  []string
	refunded  []string
	createErr error
	refundErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:  make(map[string]*PaymentIntent),
		metadata: make(map[string]map[string]string),
	}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("pi_test_%d", g.seq)
	intent := &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
		Status:       models.PaymentStatusPending,
	}
	g.intents[id] = intent
	g.metadata[id] = metadata
	copied := *intent
	return &copied, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	copied := *intent
	return &copied, nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if intent, ok := g.intents[id]; ok {
		intent.Status = models.PaymentStatusCanceled
	}
	g.canceled = append(g.canceled, id)
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, intentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunded = append(g.refunded, intentID)
	return "re_" + intentID, nil
}

// settle sets the status the provider reports for an intent
func (g *fakeGateway) settle(id string, status models.PaymentStatus) *PaymentIntent {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent := g.intents[id]
	intent.Status = status
	intent.Method = models.PaymentMethodCard
	copied := *intent
	return &copied
}

// recordingBackend keeps sent emails in memory
type recordingBackend struct {
	mu        sync.Mutex
	sent      []Email
	err       error
	simulated bool
}

func (b *recordingBackend) Send(_ context.Context, email Email) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, email)
	return nil
}

func (b *recordingBackend) Simulated() bool {
	return b.simulated
}

func (b *recordingBackend) emails() []Email {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Email(nil), b.sent...)
}

// testClock advances one second on every read so references stay unique
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	store        *store.MemoryStore
	files        *storage.FileStore
	fs           afero.Fs
	gateway      *fakeGateway
	mail         *recordingBackend
	clock        *testClock
	catalog      *Catalog
	access       *AccessService
	auth         *AuthService
	email        *EmailService
	dashboards   *DashboardService
	bookings     *BookingService
	nurses       *NurseService
	appointments *AppointmentService
	content      *ContentService
}

// testToday is the date the test clock starts on
var testToday = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	s := store.NewMemoryStore()
	fs := afero.NewMemMapFs()
	files := storage.NewFileStoreFs(fs, "http://localhost:8080")
	gateway := newFakeGateway()
	mail := &recordingBackend{simulated: true}
	clock := &testClock{t: testToday}
	catalog := NewCatalog("ngn")
	access := NewAccessService(s)

	email := NewEmailService(mail, EmailConfig{
		FromEmail:    "noreply@example.com",
		FromName:     "Diamond Masters Care",
		SupportEmail: "support@example.com",
		CompanyName:  "Diamond Masters Care",
		FrontendURL:  "http://localhost:5173",
	}, logger)

	auth := NewAuthService(s, files, access, AuthConfig{
		Secret: "test-secret",
		Issuer: "carebook-test",
		TTL:    time.Hour,
	}, logger)
	auth.now = clock.Now

	dashboards := NewDashboardService(s, access)
	dashboards.now = clock.Now

	bookings := NewBookingService(s, gateway, email, access, catalog, BookingConfig{
		PublishableKey: "pk_test_123",
		Expiry:         24 * time.Hour,
	}, logger)
	bookings.now = clock.Now

	return &testEnv{
		store:        s,
		files:        files,
		fs:           fs,
		gateway:      gateway,
		mail:         mail,
		clock:        clock,
		catalog:      catalog,
		access:       access,
		auth:         auth,
		email:        email,
		dashboards:   dashboards,
		bookings:     bookings,
		nurses:       NewNurseService(s, email, logger),
		appointments: NewAppointmentService(s, access, logger),
		content:      NewContentService(s, email, logger),
	}
}

func (e *testEnv) patient(t *testing.T, email string) *models.Profile {
	t.Helper()
	session, err := e.auth.Register(context.Background(), Registration{
		Email:     email,
		Password:  "password123",
		FirstName: "Ada",
		LastName:  "Obi",
	})
	require.NoError(t, err)
	return session.User
}

func (e *testEnv) nurse(t *testing.T, email string, approve bool) (*models.Profile, *models.Nurse) {
	t.Helper()
	ctx := context.Background()
	session, err := e.auth.SignUpNurse(ctx, NurseSignup{
		Email:           email,
		Password:        "password123",
		FullName:        "Grace Nurse",
		Specialization:  "Home care",
		ExperienceYears: 4,
	}, nil)
	require.NoError(t, err)

	nurse, err := e.store.GetNurseByUserID(ctx, session.User.ID)
	require.NoError(t, err)
	if approve {
		nurse, err = e.nurses.ApproveNurse(ctx, nurse.ID)
		require.NoError(t, err)
	}
	return session.User, nurse
}

func (e *testEnv) admin(t *testing.T, email string) *models.Profile {
	t.Helper()
	profile, err := e.auth.CreateAdmin(context.Background(), email, "password123", "Site", "Admin")
	require.NoError(t, err)
	return profile
}

// scheduledAppointment books and pays for an appointment
func (e *testEnv) scheduledAppointment(t *testing.T, patientID string) (*models.Booking, *models.Appointment) {
	t.Helper()
	ctx := context.Background()
	result, err := e.bookings.CreateBooking(ctx, patientID, validBookingRequest())
	require.NoError(t, err)

	intent := e.gateway.settle(result.Booking.Payment.StripePaymentIntentID, models.PaymentStatusSucceeded)
	booking, err := e.bookings.HandlePaymentSucceeded(ctx, intent)
	require.NoError(t, err)

	appointment, err := e.store.GetAppointment(ctx, booking.AppointmentID)
	require.NoError(t, err)
	return booking, appointment
}

func validBookingRequest() BookingRequest {
	return BookingRequest{
		ServiceType:     PlanOneTime,
		AppointmentDate: "2026-03-12",
		AppointmentTime: "10:00",
		Address:         "12 Marina Road, Lagos",
		PreferredNurse:  "Patricia Smith",
		Notes:           "Ring the bell twice",
	}
}

// flakyStore fails the next N calls of selected writes
type flakyStore struct {
	*store.MemoryStore
	updateBookingFailures int
	createPatientFailures int
	createNurseFailures   int
}

var errStoreUnavailable = fmt.Errorf("store unavailable")

func (s *flakyStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	if s.updateBookingFailures > 0 {
		s.updateBookingFailures--
		return errStoreUnavailable
	}
	return s.MemoryStore.UpdateBooking(ctx, booking)
}

func (s *flakyStore) CreatePatient(ctx context.Context, patient *models.Patient) error {
	if s.createPatientFailures > 0 {
		s.createPatientFailures--
		return errStoreUnavailable
	}
	return s.MemoryStore.CreatePatient(ctx, patient)
}

func (s *flakyStore) CreateNurse(ctx context.Context, nurse *models.Nurse) error {
	if s.createNurseFailures > 0 {
		s.createNurseFailures--
		return errStoreUnavailable
	}
	return s.MemoryStore.CreateNurse(ctx, nurse)
}

// bookingsOn builds a booking service over s sharing the env's gateway, mail and clock
func (e *testEnv) bookingsOn(s store.Store) *BookingService {
	bookings := NewBookingService(s, e.gateway, e.email, e.access, e.catalog, BookingConfig{
		PublishableKey: "pk_test_123",
		Expiry:         24 * time.Hour,
	}, zerolog.Nop())
	bookings.now = e.clock.Now
	return bookings
}

// authOn builds an auth service over s
func (e *testEnv) authOn(s AuthStore) *AuthService {
	auth := NewAuthService(s, e.files, e.access, AuthConfig{
		Secret: "test-secret",
		Issuer: "carebook-test",
		TTL:    time.Hour,
	}, zerolog.Nop())
	auth.now = e.clock.Now
	return auth
}
