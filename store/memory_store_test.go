package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	account := &models.Account{Email: "Jane@Example.com", PasswordHash: "hash"}
	profile := &models.Profile{Email: "Jane@Example.com", Role: models.RolePatient}
	require.NoError(t, s.CreateAccount(ctx, account, profile))
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, account.ID, profile.ID)

	err := s.CreateAccount(ctx, &models.Account{Email: "jane@example.com"}, &models.Profile{Role: models.RolePatient})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	found, err := s.GetAccountByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = s.GetAccountByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetProfileReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	account := &models.Account{Email: "copy@example.com"}
	require.NoError(t, s.CreateAccount(ctx, account, &models.Profile{Email: "copy@example.com", Role: models.RoleNurse}))

	profile, err := s.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	profile.Role = models.RoleAdmin

	again, err := s.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNurse, again.Role)
}

func TestNurseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := &models.Nurse{UserID: "u1", FullName: "Ada Obi", CreatedAt: time.Now().Add(-time.Hour)}
	second := &models.Nurse{UserID: "u2", FullName: "Bola Ade"}
	require.NoError(t, s.CreateNurse(ctx, first))
	require.NoError(t, s.CreateNurse(ctx, second))
	assert.Equal(t, models.NurseStatusPending, first.Status)

	byUser, err := s.GetNurseByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, byUser.ID)

	require.NoError(t, s.UpdateNurseStatus(ctx, second.ID, models.NurseStatusApproved))

	pending, err := s.ListNurses(ctx, models.NurseStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	all, err := s.ListNurses(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	count, err := s.CountNurses(ctx, models.NurseStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = s.UpdateNurseStatus(ctx, "missing", models.NurseStatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAppointmentsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	nurse := "nurse-user"

	require.NoError(t, s.CreateAppointment(ctx, &models.Appointment{PatientID: "p1", AppointmentDate: "2026-03-02", AppointmentTime: "09:00"}))
	require.NoError(t, s.CreateAppointment(ctx, &models.Appointment{PatientID: "p1", NurseID: &nurse, AppointmentDate: "2026-03-01", AppointmentTime: "15:00"}))
	require.NoError(t, s.CreateAppointment(ctx, &models.Appointment{PatientID: "p2", NurseID: &nurse, AppointmentDate: "2026-03-01", AppointmentTime: "10:00"}))

	mine, err := s.ListAppointments(ctx, models.AppointmentFilter{PatientID: "p1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2026-03-01", mine[0].AppointmentDate)
	assert.Equal(t, models.AppointmentStatusScheduled, mine[0].Status)

	assigned, err := s.ListAppointments(ctx, models.AppointmentFilter{NurseID: nurse})
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.Equal(t, "10:00", assigned[0].AppointmentTime)
	assert.Equal(t, "15:00", assigned[1].AppointmentTime)
}

func TestBookingIndexes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	booking := &models.Booking{
		Reference: "DMC_1_abcdefgh",
		PatientID: "p1",
		Status:    models.BookingStatusCreated,
		Payment:   models.PaymentInfo{Amount: 2500000, Currency: "ngn", Status: models.PaymentStatusPending},
	}
	require.NoError(t, s.CreateBooking(ctx, booking))
	assert.Error(t, s.CreateBooking(ctx, &models.Booking{Reference: "DMC_1_abcdefgh"}))

	_, err := s.GetBookingByPaymentIntent(ctx, "pi_123")
	assert.ErrorIs(t, err, ErrNotFound)

	booking.Payment.StripePaymentIntentID = "pi_123"
	booking.Status = models.BookingStatusPending
	require.NoError(t, s.UpdateBooking(ctx, booking))

	byIntent, err := s.GetBookingByPaymentIntent(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, byIntent.ID)

	byRef, err := s.GetBookingByReference(ctx, "DMC_1_abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, byRef.Status)
}

func TestListStaleBookings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "old-pending", Status: models.BookingStatusPending, CreatedAt: old}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "old-paid", Status: models.BookingStatusPaid, CreatedAt: old}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "fresh", Status: models.BookingStatusCreated}))

	stale, err := s.ListStaleBookings(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old-pending", stale[0].Reference)
}

func TestGetBookingStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "a", Status: models.BookingStatusPaid, Payment: models.PaymentInfo{Amount: 10000}}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "b", Status: models.BookingStatusPaid, Payment: models.PaymentInfo{Amount: 30000}}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "c", Status: models.BookingStatusPending, Payment: models.PaymentInfo{Amount: 50000}}))
	require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: "d", Status: models.BookingStatusRefunded, Payment: models.PaymentInfo{Amount: 70000}}))

	stats, err := s.GetBookingStats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalBookings)
	assert.Equal(t, 2, stats.PaidBookings)
	assert.Equal(t, 1, stats.PendingBookings)
	assert.Equal(t, 1, stats.RefundedBookings)
	assert.InDelta(t, 400.0, stats.TotalRevenue, 0.001)
	assert.InDelta(t, 200.0, stats.AverageBookingValue, 0.001)
	assert.InDelta(t, 400.0, stats.RevenueToday, 0.001)
}

func TestListBookingsPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now().Add(-time.Hour)

	for i, ref := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.CreateBooking(ctx, &models.Booking{Reference: ref, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	page, err := s.ListBookings(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "r3", page[0].Reference)

	rest, err := s.ListBookings(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "r1", rest[0].Reference)

	none, err := s.ListBookings(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPaymentEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	events, err := s.GetPaymentEvents(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, s.AddPaymentEvent(ctx, models.PaymentEvent{BookingID: "b1", EventType: "payment_intent.succeeded", Status: models.PaymentStatusSucceeded}))
	events, err = s.GetPaymentEvents(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestBlogPostsFiltering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateBlogPost(ctx, &models.BlogPost{Title: "Draft", Category: "health", CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, s.CreateBlogPost(ctx, &models.BlogPost{Title: "Old", Category: "health", Published: true, CreatedAt: time.Now().Add(-2 * time.Hour)}))
	require.NoError(t, s.CreateBlogPost(ctx, &models.BlogPost{Title: "New", Category: "news", Published: true}))

	published, err := s.ListBlogPosts(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "New", published[0].Title)

	health, err := s.ListBlogPosts(ctx, "health", false)
	require.NoError(t, err)
	assert.Len(t, health, 2)

	count, err := s.CountBlogPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestContactMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateContactMessage(ctx, &models.ContactMessage{Name: name, Email: name + "@example.com", Message: "hi"}))
	}

	messages, err := s.ListContactMessages(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "third", messages[0].Name)
	assert.Equal(t, "second", messages[1].Name)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		n, limit, offset int
		start, end       int
	}{
		{10, 0, 0, 0, 10},
		{10, 3, 0, 0, 3},
		{10, 3, 9, 9, 10},
		{10, 3, 20, 10, 10},
		{10, 3, -1, 0, 3},
	}
	for _, tt := range tests {
		start, end := paginate(tt.n, tt.limit, tt.offset)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestDeleteAccountReleasesEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	account := &models.Account{Email: "ada@example.com"}
	require.NoError(t, s.CreateAccount(ctx, account, &models.Profile{Email: "ada@example.com", Role: models.RolePatient}))
	require.NoError(t, s.CreatePatient(ctx, &models.Patient{UserID: account.ID, FullName: "Ada Obi"}))

	require.NoError(t, s.DeleteAccount(ctx, account.ID))
	_, err := s.GetProfile(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetPatientByUserID(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, account.ID), ErrNotFound)

	require.NoError(t, s.CreateAccount(ctx, &models.Account{Email: "ada@example.com"}, &models.Profile{Role: models.RolePatient}))
}

func TestAppointmentPaymentReferenceIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	paid := &models.Appointment{PatientID: "p1", AppointmentDate: "2026-05-01", AppointmentTime: "09:00", PaymentReference: "DMC_1_abc"}
	require.NoError(t, s.CreateAppointment(ctx, paid))

	err := s.CreateAppointment(ctx, &models.Appointment{PatientID: "p1", PaymentReference: "DMC_1_abc"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := s.GetAppointmentByPaymentReference(ctx, "DMC_1_abc")
	require.NoError(t, err)
	assert.Equal(t, paid.ID, found.ID)

	// appointments created without a payment never collide
	require.NoError(t, s.CreateAppointment(ctx, &models.Appointment{PatientID: "p1"}))
	require.NoError(t, s.CreateAppointment(ctx, &models.Appointment{PatientID: "p1"}))
	_, err = s.GetAppointmentByPaymentReference(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateLinkRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateLink(ctx, &models.NursePatientLink{NurseID: "n1", PatientID: "p1"}))
	assert.ErrorIs(t, s.CreateLink(ctx, &models.NursePatientLink{NurseID: "n1", PatientID: "p1"}), ErrDuplicate)
	require.NoError(t, s.CreateLink(ctx, &models.NursePatientLink{NurseID: "n1", PatientID: "p2"}))

	count, err := s.CountLinksForNurse(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
