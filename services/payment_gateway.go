package services

import (
	"context"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
)

// PaymentIntent is the provider-neutral view of a payment
type PaymentIntent struct {
	ID             string
	ClientSecret   string
	Amount         int64
	Currency       string
	Status         models.PaymentStatus
	Method         models.PaymentMethod
	FailureCode    string
	FailureMessage string
}

// PaymentGateway creates and manages payments with the provider
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) error
	Refund(ctx context.Context, intentID string) (string, error)
}

// StripeGateway is the Stripe PaymentIntents implementation of PaymentGateway
type StripeGateway struct {
	intents paymentintent.Client
	refunds refund.Client
}

// NewStripeGateway creates a gateway using the given secret key
func NewStripeGateway(secretKey string) *StripeGateway {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeGateway{
		intents: paymentintent.Client{B: backend, Key: secretKey},
		refunds: refund.Client{B: backend, Key: secretKey},
	}
}

// CreateIntent creates a payment intent with automatic payment methods
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata,
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "creating payment intent")
	}
	return fromStripeIntent(pi), nil
}

// GetIntent fetches the current state of a payment intent
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("payment_method")

	pi, err := g.intents.Get(id, params)
	if err != nil {
		return nil, errors.Wrap(err, "fetching payment intent")
	}
	return fromStripeIntent(pi), nil
}

// CancelIntent cancels a payment intent that has not been paid
func (g *StripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := g.intents.Cancel(id, params); err != nil {
		return errors.Wrap(err, "canceling payment intent")
	}
	return nil
}

// Refund refunds the full amount of a payment intent and returns the refund ID
func (g *StripeGateway) Refund(ctx context.Context, intentID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx

	r, err := g.refunds.New(params)
	if err != nil {
		return "", errors.Wrap(err, "creating refund")
	}
	return r.ID, nil
}

// IntentFromStripe converts a webhook payload into a PaymentIntent
func IntentFromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	return fromStripeIntent(pi)
}

func fromStripeIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	intent := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       convertStripeStatus(pi.Status),
		Method:       getPaymentMethod(pi.PaymentMethod),
	}
	if pi.LastPaymentError != nil {
		intent.FailureCode = string(pi.LastPaymentError.Code)
		intent.FailureMessage = pi.LastPaymentError.Msg
	}
	return intent
}

// convertStripeStatus converts Stripe payment intent status to our internal status
func convertStripeStatus(status stripe.PaymentIntentStatus) models.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentStatusCanceled
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresCapture:
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusFailed
	}
}

// getPaymentMethod extracts payment method information from Stripe payment method
func getPaymentMethod(pm *stripe.PaymentMethod) models.PaymentMethod {
	if pm == nil {
		return ""
	}

	switch pm.Type {
	case stripe.PaymentMethodTypeCard:
		return models.PaymentMethodCard
	case stripe.PaymentMethodTypeLink:
		return models.PaymentMethodLink
	case stripe.PaymentMethodTypeCustomerBalance:
		return models.PaymentMethodBank
	default:
		return models.PaymentMethodOther
	}
}
