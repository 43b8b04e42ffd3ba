// models/booking.go
package models

import (
	"time"
)

type PaymentStatus string
type BookingStatus string
type PaymentMethod string

const (
	// Payment statuses
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusRefunded  PaymentStatus = "refunded"

	// Booking statuses
	BookingStatusCreated  BookingStatus = "created"
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusPaid     BookingStatus = "paid"
	BookingStatusCanceled BookingStatus = "canceled"
	BookingStatusRefunded BookingStatus = "refunded"
	BookingStatusExpired  BookingStatus = "expired"

	// Payment methods
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodLink  PaymentMethod = "link"
	PaymentMethodBank  PaymentMethod = "bank_transfer"
	PaymentMethodOther PaymentMethod = "other"
)

// Booking is a patient's paid request for a home visit. The appointment row
// is only created once the payment succeeds.
type Booking struct {
	ID              string        `json:"id"`
	Reference       string        `json:"reference"`
	PatientID       string        `json:"patient_id"`
	CustomerEmail   string        `json:"customer_email"`
	ServiceType     string        `json:"service_type"`
	AppointmentDate string        `json:"appointment_date"`
	AppointmentTime string        `json:"appointment_time"`
	Address         string        `json:"address"`
	PreferredNurse  string        `json:"preferred_nurse,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Payment         PaymentInfo   `json:"payment"`
	Status          BookingStatus `json:"status"`
	AppointmentID   string        `json:"appointment_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PaymentInfo holds payment-related information
type PaymentInfo struct {
	StripePaymentIntentID string        `json:"stripe_payment_intent_id,omitempty"`
	Amount                int64         `json:"amount"` // Amount in minor units
	Currency              string        `json:"currency"`
	Status                PaymentStatus `json:"status"`
	Method                PaymentMethod `json:"method,omitempty"`
	ProcessedAt           *time.Time    `json:"processed_at,omitempty"`
	RefundedAt            *time.Time    `json:"refunded_at,omitempty"`
}

// PaymentEvent represents payment status changes
type PaymentEvent struct {
	ID        string                 `json:"id"`
	BookingID string                 `json:"booking_id"`
	EventType string                 `json:"event_type"`
	Status    PaymentStatus          `json:"status"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// BookingSummary provides a summary view of bookings
type BookingSummary struct {
	ID              string        `json:"id"`
	Reference       string        `json:"reference"`
	CustomerEmail   string        `json:"customer_email"`
	ServiceType     string        `json:"service_type"`
	AppointmentDate string        `json:"appointment_date"`
	TotalAmount     float64       `json:"total_amount"`
	Currency        string        `json:"currency"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

// BookingStats provides statistics about booking payments
type BookingStats struct {
	TotalBookings       int     `json:"total_bookings"`
	TotalRevenue        float64 `json:"total_revenue"`
	PendingBookings     int     `json:"pending_bookings"`
	PaidBookings        int     `json:"paid_bookings"`
	RefundedBookings    int     `json:"refunded_bookings"`
	AverageBookingValue float64 `json:"average_booking_value"`
	RevenueToday        float64 `json:"revenue_today"`
	RevenueThisMonth    float64 `json:"revenue_this_month"`
}

// Summary converts a booking into its list view
func (b *Booking) Summary() *BookingSummary {
	return &BookingSummary{
		ID:              b.ID,
		Reference:       b.Reference,
		CustomerEmail:   b.CustomerEmail,
		ServiceType:     b.ServiceType,
		AppointmentDate: b.AppointmentDate,
		TotalAmount:     float64(b.Payment.Amount) / 100,
		Currency:        b.Payment.Currency,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
	}
}
