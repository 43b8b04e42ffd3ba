// handlers/webhook_handlers.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// HandleStripeWebhook applies payment intent events to their bookings
func (h *Handlers) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.config.StripeWebhookSecret == "" {
		h.logger.Error().Msg("webhook received but STRIPE_WEBHOOK_SECRET is not set")
		respondWithError(w, http.StatusServiceUnavailable, "Webhooks are not configured")
		return
	}

	const MaxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("reading webhook body")
		respondWithError(w, http.StatusServiceUnavailable, "Error reading request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.config.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook signature verification failed")
		respondWithError(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	log := h.logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

	var handle func(r *http.Request, intent *services.PaymentIntent) (*models.Booking, error)
	switch event.Type {
	case "payment_intent.succeeded":
		handle = func(r *http.Request, intent *services.PaymentIntent) (*models.Booking, error) {
			return h.svc.Bookings.HandlePaymentSucceeded(r.Context(), intent)
		}
	case "payment_intent.payment_failed":
		handle = func(r *http.Request, intent *services.PaymentIntent) (*models.Booking, error) {
			return h.svc.Bookings.HandlePaymentFailed(r.Context(), intent)
		}
	case "payment_intent.canceled":
		handle = func(r *http.Request, intent *services.PaymentIntent) (*models.Booking, error) {
			return h.svc.Bookings.HandlePaymentCanceled(r.Context(), intent)
		}
	default:
		log.Debug().Msg("unhandled event type")
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var paymentIntent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
		log.Error().Err(err).Msg("parsing payment intent")
		respondWithError(w, http.StatusBadRequest, "Invalid payment intent payload")
		return
	}

	booking, err := handle(r, services.IntentFromStripe(&paymentIntent))
	switch {
	case errors.Is(err, store.ErrNotFound):
		// intents created outside this service
		log.Warn().Str("payment_intent", paymentIntent.ID).Msg("no booking for payment intent")
	case err != nil:
		log.Error().Err(err).Str("payment_intent", paymentIntent.ID).Msg("applying payment event")
		respondWithError(w, http.StatusInternalServerError, "Error processing event")
		return
	default:
		log.Info().Str("booking", booking.Reference).Str("status", string(booking.Status)).Msg("payment event applied")
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
