package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingResult struct {
	Booking        *models.Booking `json:"booking"`
	ClientSecret   string          `json:"client_secret"`
	PublishableKey string          `json:"publishable_key"`
}

func bookingForm() map[string]string {
	return map[string]string{
		"service_type":     services.PlanOneTime,
		"appointment_date": time.Now().AddDate(0, 0, 7).Format(services.DateLayout),
		"appointment_time": "10:00",
		"address":          "12 Marina Road, Lagos",
		"preferred_nurse":  "Patricia Smith",
		"notes":            "Ring the bell twice",
	}
}

func (ts *testServer) book(t *testing.T, token string) bookingResult {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/bookings", token, bookingForm())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result bookingResult
	decode(t, w, &result)
	return result
}

// signedWebhook posts a payment intent event signed the way Stripe signs webhooks
func (ts *testServer) signedWebhook(t *testing.T, eventType, intentID, secret string) *httptest.ResponseRecorder {
	t.Helper()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": "2020-08-27",
		"type": %q,
		"data": {"object": {
			"id": %q,
			"object": "payment_intent",
			"amount": 2500000,
			"currency": "ngn",
			"status": "succeeded",
			"payment_method": {"id": "pm_test_1", "object": "payment_method", "type": "card"}
		}}
	}`, eventType, intentID))

	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", timestamp, payload)))
	signature := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", timestamp, signature))
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestCreateBooking(t *testing.T) {
	ts := newTestServer(t, testConfig())
	token := ts.login(t, "/api/auth/login", ts.register(t, "ada@example.com").User.Email).AccessToken

	result := ts.book(t, token)
	assert.Equal(t, "pk_test_123", result.PublishableKey)
	assert.NotEmpty(t, result.ClientSecret)
	assert.Equal(t, models.BookingStatusPending, result.Booking.Status)
	assert.Equal(t, int64(2500000), result.Booking.Payment.Amount)
	assert.Regexp(t, `^DMC_\d+_`, result.Booking.Reference)

	w := ts.do(t, http.MethodGet, "/api/bookings/"+result.Booking.Reference, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details struct {
		Booking *models.Booking       `json:"booking"`
		Events  []models.PaymentEvent `json:"events"`
	}
	decode(t, w, &details)
	require.Len(t, details.Events, 1)
	assert.Equal(t, "booking_created", details.Events[0].EventType)

	other := ts.login(t, "/api/auth/login", ts.register(t, "other@example.com").User.Email).AccessToken
	w = ts.do(t, http.MethodGet, "/api/bookings/"+result.Booking.Reference, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/bookings/DMC_missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())
	token := ts.login(t, "/api/auth/login", ts.register(t, "ada@example.com").User.Email).AccessToken

	tests := []struct {
		name    string
		field   string
		value   string
		message string
	}{
		{"unknown plan", "service_type", "Weekly plan", "Please select a valid plan"},
		{"bad date", "appointment_date", "12/03/2026", "Appointment date must be in YYYY-MM-DD format"},
		{"past date", "appointment_date", "2020-01-01", "Appointment date cannot be in the past"},
		{"bad slot", "appointment_time", "08:30", "Please select a valid time slot"},
		{"no address", "address", " ", "Address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := bookingForm()
			form[tt.field] = tt.value

			w := ts.do(t, http.MethodPost, "/api/bookings", token, form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.message, body.Error)
		})
	}

	w := ts.do(t, http.MethodPost, "/api/bookings", "", bookingForm())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSchedulesAppointment(t *testing.T) {
	ts := newTestServer(t, testConfig())
	token := ts.login(t, "/api/auth/login", ts.register(t, "ada@example.com").User.Email).AccessToken
	result := ts.book(t, token)
	intentID := result.Booking.Payment.StripePaymentIntentID

	w := ts.signedWebhook(t, "payment_intent.succeeded", intentID, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// a redelivered event does not schedule twice
	w = ts.signedWebhook(t, "payment_intent.succeeded", intentID, webhookSecret)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/bookings/"+result.Booking.Reference, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var details struct {
		Booking *models.Booking `json:"booking"`
	}
	decode(t, w, &details)
	assert.Equal(t, models.BookingStatusPaid, details.Booking.Status)
	assert.Equal(t, models.PaymentMethodCard, details.Booking.Payment.Method)

	w = ts.do(t, http.MethodGet, "/api/dashboard/patient", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash services.PatientDashboard
	decode(t, w, &dash)
	require.Len(t, dash.Appointments, 1)
	assert.Equal(t, models.AppointmentStatusScheduled, dash.Appointments[0].Status)
	assert.Equal(t, result.Booking.Reference, dash.Appointments[0].PaymentReference)

	w = ts.do(t, http.MethodPost, "/api/appointments/"+dash.Appointments[0].ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/appointments/"+dash.Appointments[0].ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	ts := newTestServer(t, testConfig())

	w := ts.signedWebhook(t, "payment_intent.succeeded", "pi_unknown", "whsec_wrong")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRequiresConfiguredSecret(t *testing.T) {
	cfg := testConfig()
	cfg.StripeWebhookSecret = ""
	ts := newTestServer(t, cfg)
	token := ts.login(t, "/api/auth/login", ts.register(t, "ada@example.com").User.Email).AccessToken
	result := ts.book(t, token)

	intentID := result.Booking.Payment.StripePaymentIntentID
	w := ts.signedWebhook(t, "payment_intent.succeeded", intentID, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	booking, err := ts.store.GetBookingByReference(context.Background(), result.Booking.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Empty(t, booking.AppointmentID)
}

func TestWebhookUnknownIntentIsAcknowledged(t *testing.T) {
	ts := newTestServer(t, testConfig())

	w := ts.signedWebhook(t, "payment_intent.succeeded", "pi_unknown", webhookSecret)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.signedWebhook(t, "charge.refunded", "pi_unknown", webhookSecret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
}

func TestConfirmBookingAndRefund(t *testing.T) {
	ts := newTestServer(t, testConfig())
	admin := ts.adminToken(t)
	token := ts.login(t, "/api/auth/login", ts.register(t, "ada@example.com").User.Email).AccessToken
	result := ts.book(t, token)

	w := ts.do(t, http.MethodPost, "/api/bookings/"+result.Booking.Reference+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var booking models.Booking
	decode(t, w, &booking)
	assert.Equal(t, models.BookingStatusPending, booking.Status, "unpaid intents leave the booking open")

	ts.gateway.succeed(result.Booking.Payment.StripePaymentIntentID)
	w = ts.do(t, http.MethodPost, "/api/bookings/"+result.Booking.Reference+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &booking)
	assert.Equal(t, models.BookingStatusPaid, booking.Status)

	w = ts.do(t, http.MethodGet, "/api/admin/bookings/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.BookingStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalBookings)

	w = ts.do(t, http.MethodGet, "/api/admin/bookings?limit=5", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Bookings []*models.BookingSummary `json:"bookings"`
		Limit    int                      `json:"limit"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Bookings, 1)
	assert.Equal(t, 5, list.Limit)

	w = ts.do(t, http.MethodPost, "/api/admin/bookings/"+booking.ID+"/refund", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &booking)
	assert.Equal(t, models.BookingStatusRefunded, booking.Status)

	w = ts.do(t, http.MethodPost, "/api/admin/bookings/"+booking.ID+"/refund", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAssignAndCompleteOverHTTP(t *testing.T) {
	ts := newTestServer(t, testConfig())
	admin := ts.adminToken(t)
	patient := ts.register(t, "ada@example.com")
	token := ts.login(t, "/api/auth/login", patient.User.Email).AccessToken

	nurse := signUpNurse(t, ts, "grace@example.com", nil)
	nurseRow, err := ts.store.GetNurseByUserID(context.Background(), nurse.User.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/admin/nurses/"+nurseRow.ID+"/approve", admin, nil).Code)
	nurseToken := ts.login(t, "/api/auth/login", "grace@example.com").AccessToken

	w := ts.do(t, http.MethodPost, "/api/admin/nurses/"+nurseRow.ID+"/patients", admin, map[string]string{"patient_id": patient.User.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/admin/nurses/"+nurseRow.ID+"/patients", admin, map[string]string{"patient_id": patient.User.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	result := ts.book(t, token)
	ts.gateway.succeed(result.Booking.Payment.StripePaymentIntentID)
	w = ts.do(t, http.MethodPost, "/api/bookings/"+result.Booking.Reference+"/confirm", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var booking models.Booking
	decode(t, w, &booking)

	w = ts.do(t, http.MethodPost, "/api/admin/appointments/"+booking.AppointmentID+"/assign", admin, map[string]string{"nurse_id": nurse.User.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/appointments/"+booking.AppointmentID+"/complete", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/appointments/"+booking.AppointmentID+"/complete", nurseToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var appointment models.Appointment
	decode(t, w, &appointment)
	assert.Equal(t, models.AppointmentStatusCompleted, appointment.Status)

	w = ts.do(t, http.MethodGet, "/api/dashboard/nurse", nurseToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash services.NurseDashboard
	decode(t, w, &dash)
	assert.Equal(t, 1, dash.Stats.AssignedPatients)
	assert.Equal(t, 1, dash.Stats.CompletedVisits)
}
