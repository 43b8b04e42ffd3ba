package services

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/storage"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// Post-signup destinations
const (
	PathSignupSuccess           = "/signup-success"
	PathLogin                   = "/login"
	PathLoginAdmin              = "/login-admin"
	PathNurseApplicationPending = "/nurse-application-pending"
)

// NurseSignupMessage is shown after a nurse application is submitted
const NurseSignupMessage = "Your application has been submitted for review. You will receive an email once approved."

// Claims are the JWT claims issued on sign in
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is returned by every successful sign in or sign up
type Session struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        *models.Profile `json:"user"`
	Redirect    string          `json:"redirect"`
	Message     string          `json:"message,omitempty"`
}

// PatientSignup is the short patient sign-up form
type PatientSignup struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Age      *int   `json:"age"`
}

// Registration is the general register form
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NurseSignup is the nurse application form
type NurseSignup struct {
	Email           string `json:"email" schema:"email"`
	Password        string `json:"password" schema:"password"`
	FullName        string `json:"full_name" schema:"full_name"`
	Specialization  string `json:"specialization" schema:"specialization"`
	ExperienceYears int    `json:"experience_years" schema:"experience_years"`
}

// Upload is a file attached to a form
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Uploader stores files in named buckets
type Uploader interface {
	Upload(ctx context.Context, bucket, name, contentType string, r io.Reader) (*storage.Object, error)
}

// AuthStore is the persistence AuthService needs
type AuthStore interface {
	store.AccountStore
	CreateNurse(ctx context.Context, nurse *models.Nurse) error
	CreatePatient(ctx context.Context, patient *models.Patient) error
}

// AuthConfig holds token settings
type AuthConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// AuthService signs users up and in and issues access tokens
type AuthService struct {
	store  AuthStore
	files  Uploader
	access *AccessService
	cfg    AuthConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewAuthService creates an auth service
func NewAuthService(s AuthStore, files Uploader, access *AccessService, cfg AuthConfig, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:  s,
		files:  files,
		access: access,
		cfg:    cfg,
		logger: logger.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" {
		return validationErrorf("Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return validationErrorf("Please enter a valid email address")
	}
	if len(password) < MinPasswordLength {
		return validationErrorf("Password should be at least %d characters", MinPasswordLength)
	}
	return nil
}

// createAccount hashes the password and stores the account with its profile
func (s *AuthService) createAccount(ctx context.Context, email, password string, profile *models.Profile) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	account := &models.Account{Email: email, PasswordHash: string(hash)}
	profile.Email = email
	if err := s.store.CreateAccount(ctx, account, profile); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, errors.Wrap(err, "creating account")
	}
	return account, nil
}

// SignUpPatient creates a patient account from the short sign-up form
func (s *AuthService) SignUpPatient(ctx context.Context, form PatientSignup) (*Session, error) {
	email := normalizeEmail(form.Email)
	if err := validateCredentials(email, form.Password); err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(form.FullName)
	if fullName == "" {
		return nil, validationErrorf("Full name is required")
	}
	if form.Age != nil && *form.Age < 0 {
		return nil, validationErrorf("Age must be a positive number")
	}

	profile := &models.Profile{Role: models.RolePatient}
	account, err := s.createAccount(ctx, email, form.Password, profile)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{
		UserID:   account.ID,
		FullName: fullName,
		Gender:   models.StringPtr(strings.TrimSpace(form.Gender)),
		Age:      form.Age,
	}
	if err := s.store.CreatePatient(ctx, patient); err != nil {
		s.discardAccount(ctx, account.ID)
		return nil, errors.Wrap(err, "creating patient")
	}

	s.logger.Info().Str("user_id", account.ID).Msg("patient signed up")
	return s.newSession(profile, PathSignupSuccess)
}

// Register creates a patient account from the register form
func (s *AuthService) Register(ctx context.Context, form Registration) (*Session, error) {
	email := normalizeEmail(form.Email)
	if err := validateCredentials(email, form.Password); err != nil {
		return nil, err
	}
	first := strings.TrimSpace(form.FirstName)
	last := strings.TrimSpace(form.LastName)
	if first == "" || last == "" {
		return nil, validationErrorf("First and last name are required")
	}

	profile := &models.Profile{
		Role:      models.RolePatient,
		FirstName: models.StringPtr(first),
		LastName:  models.StringPtr(last),
	}
	account, err := s.createAccount(ctx, email, form.Password, profile)
	if err != nil {
		return nil, err
	}

	patient := &models.Patient{UserID: account.ID, FullName: first + " " + last}
	if err := s.store.CreatePatient(ctx, patient); err != nil {
		s.discardAccount(ctx, account.ID)
		return nil, errors.Wrap(err, "creating patient")
	}

	s.logger.Info().Str("user_id", account.ID).Msg("patient registered")
	return s.newSession(profile, PathLogin)
}

// SignUpNurse creates a nurse account and a pending application. A failed license
// upload does not fail the sign up; the application is stored without a license.
func (s *AuthService) SignUpNurse(ctx context.Context, form NurseSignup, license *Upload) (*Session, error) {
	email := normalizeEmail(form.Email)
	if err := validateCredentials(email, form.Password); err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(form.FullName)
	if fullName == "" {
		return nil, validationErrorf("Full name is required")
	}
	specialization := strings.TrimSpace(form.Specialization)
	if specialization == "" {
		return nil, validationErrorf("Specialization is required")
	}
	if form.ExperienceYears < 0 {
		return nil, validationErrorf("Years of experience must be a positive number")
	}

	profile := &models.Profile{Role: models.RoleNurse}
	account, err := s.createAccount(ctx, email, form.Password, profile)
	if err != nil {
		return nil, err
	}

	var licenseURL *string
	if license != nil && s.files != nil {
		name := storage.LicenseObjectName(account.ID, license.Filename)
		contentType := storage.DetectContentType(license.ContentType, license.Filename)
		obj, err := s.files.Upload(ctx, storage.LicenseBucket, name, contentType, license.Body)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", account.ID).Msg("license upload failed")
		} else {
			licenseURL = &obj.URL
		}
	}

	nurse := &models.Nurse{
		UserID:          account.ID,
		FullName:        fullName,
		Specialization:  specialization,
		ExperienceYears: form.ExperienceYears,
		LicenseURL:      licenseURL,
		Status:          models.NurseStatusPending,
	}
	if err := s.store.CreateNurse(ctx, nurse); err != nil {
		s.discardAccount(ctx, account.ID)
		return nil, errors.Wrap(err, "creating nurse application")
	}

	s.logger.Info().Str("user_id", account.ID).Bool("license", licenseURL != nil).Msg("nurse applied")
	session, err := s.newSession(profile, PathNurseApplicationPending)
	if err != nil {
		return nil, err
	}
	session.Message = NurseSignupMessage
	return session, nil
}

// discardAccount removes an account whose role row could not be stored so the
// email can be used to sign up again
func (s *AuthService) discardAccount(ctx context.Context, accountID string) {
	if err := s.store.DeleteAccount(context.WithoutCancel(ctx), accountID); err != nil {
		s.logger.Error().Err(err).Str("user_id", accountID).Msg("failed to remove incomplete account")
	}
}

// authenticate checks the password and loads the profile
func (s *AuthService) authenticate(ctx context.Context, email, password string) (*models.Profile, error) {
	account, err := s.store.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "finding account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.store.GetProfile(ctx, account.ID)
	if err != nil {
		return nil, errors.Wrap(err, "finding profile")
	}
	return profile, nil
}

// SignIn signs any user in and resolves the dashboard they land on
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	redirect, err := s.access.ResolveDashboard(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return s.newSession(profile, redirect)
}

// SignInAdmin signs in through the admin login. Other roles are refused without a token.
func (s *AuthService) SignInAdmin(ctx context.Context, email, password string) (*Session, error) {
	profile, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if profile.Role != models.RoleAdmin {
		s.logger.Warn().Str("user_id", profile.ID).Str("role", string(profile.Role)).Msg("non-admin used admin login")
		return nil, ErrAccessDenied
	}
	return s.newSession(profile, PathAdminDashboard)
}

// CreateAdmin provisions an administrator. Admins cannot sign up over the API.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*models.Profile, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	profile := &models.Profile{
		Role:      models.RoleAdmin,
		FirstName: models.StringPtr(strings.TrimSpace(firstName)),
		LastName:  models.StringPtr(strings.TrimSpace(lastName)),
	}
	if _, err := s.createAccount(ctx, email, password, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) newSession(profile *models.Profile, redirect string) (*Session, error) {
	token, expiresAt, err := s.IssueToken(profile)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        profile,
		Redirect:    redirect,
	}, nil
}

// IssueToken signs an HS256 access token for the profile
func (s *AuthService) IssueToken(profile *models.Profile) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TTL)
	claims := Claims{
		Email: profile.Email,
		Role:  profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}
	return token, expiresAt, nil
}

// ParseToken validates a token and returns its claims
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
