// services/email_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aymerick/douceur/inliner"
	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Nurse decision email content
const (
	DecisionApproved = "approved"

	approvedSubject = "Your Nurse Application Has Been Approved!"
	approvedMessage = "Congratulations! Your nurse application has been approved. You can now log in to your account and start taking appointments. Welcome to our healthcare team!"
	rejectedSubject = "Update on Your Nurse Application"
	rejectedMessage = "Thank you for your interest in joining our healthcare team. Unfortunately, your nurse application was not approved at this time. Please review your credentials and feel free to reapply in the future."
)

// EmailConfig holds sender and branding settings
type EmailConfig struct {
	FromEmail    string
	FromName     string
	SupportEmail string
	CompanyName  string
	FrontendURL  string
}

// EmailService renders and sends the service's emails
type EmailService struct {
	backend MailBackend
	cfg     EmailConfig
	logger  zerolog.Logger
}

// EmailData is passed to every template
type EmailData struct {
	CompanyName  string
	SupportEmail string
	Heading      string
	Name         string
	Message      string
	Approved     bool
	Booking      *models.Booking
	ActionURL    string
	ActionText   string
}

// DecisionResult is the response of the nurse decision email function
type DecisionResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Details DecisionDetails `json:"details"`
}

// DecisionDetails echoes what was sent
type DecisionDetails struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Decision string `json:"decision"`
}

// NewEmailService creates a new email service
func NewEmailService(backend MailBackend, cfg EmailConfig, logger zerolog.Logger) *EmailService {
	return &EmailService{
		backend: backend,
		cfg:     cfg,
		logger:  logger.With().Str("component", "email").Logger(),
	}
}

// DecisionEmail returns the subject and message for a decision. Anything but "approved" reads as a rejection.
func DecisionEmail(decision string) (string, string) {
	if decision == DecisionApproved {
		return approvedSubject, approvedMessage
	}
	return rejectedSubject, rejectedMessage
}

// SendNurseDecision tells an applicant the outcome of their application
func (e *EmailService) SendNurseDecision(ctx context.Context, to, decision string) (*DecisionResult, error) {
	to = strings.TrimSpace(to)
	decision = strings.TrimSpace(decision)
	if to == "" || decision == "" {
		return nil, validationErrorf("Missing email or decision")
	}

	subject, message := DecisionEmail(decision)
	data := e.baseData()
	data.Heading = "Nurse Application"
	data.Message = message
	data.Approved = decision == DecisionApproved
	if data.Approved {
		data.ActionURL = e.cfg.FrontendURL + PathLogin
		data.ActionText = "Log in"
	}

	htmlBody, err := e.renderTemplate("nurse_decision.html", data)
	if err != nil {
		return nil, err
	}

	e.logger.Info().Str("to", to).Str("decision", decision).Str("subject", subject).Msg("sending nurse decision email")
	if err := e.send(ctx, []string{to}, "", subject, htmlBody, message); err != nil {
		return nil, err
	}

	result := &DecisionResult{
		Success: true,
		Message: "Email notification sent",
		Details: DecisionDetails{To: to, Subject: subject, Decision: decision},
	}
	if e.backend.Simulated() {
		result.Message = "Email notification sent (simulated)"
	}
	return result, nil
}

// SendBookingConfirmation confirms a paid booking to the patient
func (e *EmailService) SendBookingConfirmation(ctx context.Context, booking *models.Booking) error {
	subject := fmt.Sprintf("Appointment Confirmed - %s", booking.Reference)

	data := e.baseData()
	data.Heading = "Appointment Confirmed"
	data.Booking = booking
	data.ActionURL = e.cfg.FrontendURL + PathPatientDashboard
	data.ActionText = "View your appointments"

	htmlBody, err := e.renderTemplate("booking_confirmation.html", data)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Your %s appointment on %s at %s is confirmed. Payment reference: %s",
		booking.ServiceType, booking.AppointmentDate, booking.AppointmentTime, booking.Reference)
	return e.send(ctx, []string{booking.CustomerEmail}, "", subject, htmlBody, text)
}

// SendRefundNotification tells the patient their booking was refunded
func (e *EmailService) SendRefundNotification(ctx context.Context, booking *models.Booking) error {
	subject := fmt.Sprintf("Refund Processed - %s", booking.Reference)

	data := e.baseData()
	data.Heading = "Refund Processed"
	data.Booking = booking

	htmlBody, err := e.renderTemplate("refund_notification.html", data)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Your payment for booking %s has been refunded.", booking.Reference)
	return e.send(ctx, []string{booking.CustomerEmail}, "", subject, htmlBody, text)
}

// ContactBody formats a contact form submission as plain text
func ContactBody(msg *models.ContactMessage) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", msg.Name, msg.Email, msg.Message)
}

// SendContactMessage forwards a contact form submission to the support inbox
func (e *EmailService) SendContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	to := e.cfg.SupportEmail
	if to == "" {
		to = e.cfg.FromEmail
	}
	if to == "" {
		e.logger.Warn().Msg("no support inbox configured, contact message not forwarded")
		return nil
	}

	subject := fmt.Sprintf("Contact Form Submission from %s", e.cfg.CompanyName)
	return e.send(ctx, []string{to}, msg.Email, subject, "", ContactBody(msg))
}

func (e *EmailService) baseData() EmailData {
	return EmailData{
		CompanyName:  e.cfg.CompanyName,
		SupportEmail: e.cfg.SupportEmail,
	}
}

func (e *EmailService) send(ctx context.Context, to []string, replyTo, subject, htmlBody, text string) error {
	from := e.cfg.FromEmail
	if e.cfg.FromName != "" && from != "" {
		from = fmt.Sprintf("%s <%s>", e.cfg.FromName, e.cfg.FromEmail)
	}

	email := Email{
		From:    from,
		To:      to,
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    htmlBody,
		Text:    text,
	}
	if err := e.backend.Send(ctx, email); err != nil {
		return errors.Wrapf(err, "sending %q", subject)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"money": func(amount int64, currency string) string {
		return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), float64(amount)/100)
	},
}

// renderTemplate renders an email template and inlines its stylesheet for mail clients
func (e *EmailService) renderTemplate(templateName string, data EmailData) (string, error) {
	tmpl, err := template.New(templateName).Funcs(templateFuncs).Parse(getEmailTemplate(templateName))
	if err != nil {
		return "", errors.Wrapf(err, "parsing template %s", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "executing template %s", templateName)
	}

	html, err := inliner.Inline(buf.String())
	if err != nil {
		return "", errors.Wrap(err, "inlining styles")
	}
	return html, nil
}

// getEmailTemplate returns email template content
func getEmailTemplate(templateName string) string {
	switch templateName {
	case "nurse_decision.html":
		return nurseDecisionTemplate
	case "booking_confirmation.html":
		return bookingConfirmationTemplate
	case "refund_notification.html":
		return refundNotificationTemplate
	default:
		return basicEmailTemplate
	}
}

const emailStyles = `
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #f4f8fb; padding: 20px; }
        .header { background: #0b6e99; color: white; padding: 20px; text-align: center; }
        .content { background: white; padding: 30px; }
        .details { background: #f5f5f5; padding: 20px; margin: 20px 0; }
        .success { background: #d4edda; border: 1px solid #c3e6cb; color: #155724; padding: 15px; margin: 20px 0; }
        .notice { background: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; margin: 20px 0; }
        .button { background: #0b6e99; color: white; padding: 12px 24px; text-decoration: none; display: inline-block; margin: 20px 0; }
        .footer { text-align: center; margin-top: 30px; color: #666; }
    </style>`

const nurseDecisionTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Heading}}</title>` + emailStyles + `
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.CompanyName}}</h1>
            <h2>{{.Heading}}</h2>
        </div>
        <div class="content">
            <div class="{{if .Approved}}success{{else}}notice{{end}}">{{.Message}}</div>
            {{if .ActionURL}}<a href="{{.ActionURL}}" class="button">{{.ActionText}}</a>{{end}}
            {{if .SupportEmail}}<p>Questions? Contact us at {{.SupportEmail}}.</p>{{end}}
        </div>
        <div class="footer">
            <p>&copy; {{.CompanyName}}</p>
        </div>
    </div>
</body>
</html>
`

const bookingConfirmationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Heading}}</title>` + emailStyles + `
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.CompanyName}}</h1>
            <h2>{{.Heading}}</h2>
        </div>
        <div class="content">
            <div class="success">Your payment was received and your home visit is booked.</div>
            <div class="details">
                <p><strong>Plan:</strong> {{.Booking.ServiceType}}</p>
                <p><strong>Date:</strong> {{.Booking.AppointmentDate}} at {{.Booking.AppointmentTime}}</p>
                <p><strong>Address:</strong> {{.Booking.Address}}</p>
                {{if .Booking.PreferredNurse}}<p><strong>Preferred nurse:</strong> {{.Booking.PreferredNurse}}</p>{{end}}
                <p><strong>Amount paid:</strong> {{money .Booking.Payment.Amount .Booking.Payment.Currency}}</p>
                <p><strong>Payment reference:</strong> {{.Booking.Reference}}</p>
            </div>
            {{if .ActionURL}}<a href="{{.ActionURL}}" class="button">{{.ActionText}}</a>{{end}}
            {{if .SupportEmail}}<p>If you need to reschedule, contact us at {{.SupportEmail}}.</p>{{end}}
        </div>
        <div class="footer">
            <p>&copy; {{.CompanyName}}</p>
        </div>
    </div>
</body>
</html>
`

const refundNotificationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Heading}}</title>` + emailStyles + `
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.CompanyName}}</h1>
            <h2>{{.Heading}}</h2>
        </div>
        <div class="content">
            <div class="notice">
                Your payment of <strong>{{money .Booking.Payment.Amount .Booking.Payment.Currency}}</strong>
                for booking {{.Booking.Reference}} has been refunded and the appointment was cancelled.
            </div>
            <p>Refunds usually reach your account within 5-10 business days.</p>
        </div>
        <div class="footer">
            <p>&copy; {{.CompanyName}}</p>
        </div>
    </div>
</body>
</html>
`

const basicEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Heading}}</title>` + emailStyles + `
</head>
<body>
    <div class="container">
        <div class="header"><h1>{{.CompanyName}}</h1></div>
        <div class="content"><p>{{.Message}}</p></div>
    </div>
</body>
</html>
`
