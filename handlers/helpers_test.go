package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/capactiyvirus/carebook-backend/config"
	"github.com/capactiyvirus/carebook-backend/handlers"
	"github.com/capactiyvirus/carebook-backend/models"
	"github.com/capactiyvirus/carebook-backend/routes"
	"github.com/capactiyvirus/carebook-backend/services"
	"github.com/capactiyvirus/carebook-backend/storage"
	"github.com/capactiyvirus/carebook-backend/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test_secret"

// fakeGateway keeps payment intents in memory
type fakeGateway struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*services.PaymentIntent
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, _ map[string]string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("pi_http_%d", g.seq)
	g.intents[id] = &services.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
		Status:       models.PaymentStatusPending,
	}
	copied := *g.intents[id]
	return &copied, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*services.PaymentIntent, error) {
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
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, intentID string) (string, error) {
	return "re_" + intentID, nil
}

func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = models.PaymentStatusSucceeded
	g.intents[id].Method = models.PaymentMethodCard
}

type testServer struct {
	router  chi.Router
	svc     handlers.Services
	store   *store.MemoryStore
	gateway *fakeGateway
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:          "test",
		CompanyName:          "Diamond Masters Care",
		StripePublishableKey: "pk_test_123",
		StripeWebhookSecret:  webhookSecret,
		PaymentCurrency:      "ngn",
		CorsAllowedOrigins:   []string{"http://localhost:5173"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	s := store.NewMemoryStore()
	files := storage.NewFileStoreFs(afero.NewMemMapFs(), "http://localhost:8080")
	gateway := &fakeGateway{intents: make(map[string]*services.PaymentIntent)}
	access := services.NewAccessService(s)
	catalog := services.NewCatalog(cfg.PaymentCurrency)
	email := services.NewEmailService(&services.LogBackend{Logger: logger}, services.EmailConfig{
		FromEmail:    "noreply@example.com",
		SupportEmail: "support@example.com",
		CompanyName:  cfg.CompanyName,
		FrontendURL:  "http://localhost:5173",
	}, logger)

	svc := handlers.Services{
		Auth: services.NewAuthService(s, files, access, services.AuthConfig{
			Secret: "http-test-secret",
			Issuer: "carebook-test",
			TTL:    time.Hour,
		}, logger),
		Access:     access,
		Dashboards: services.NewDashboardService(s, access),
		Bookings: services.NewBookingService(s, gateway, email, access, catalog, services.BookingConfig{
			PublishableKey: cfg.StripePublishableKey,
			Expiry:         24 * time.Hour,
		}, logger),
		Nurses:       services.NewNurseService(s, email, logger),
		Appointments: services.NewAppointmentService(s, access, logger),
		Content:      services.NewContentService(s, email, logger),
		Email:        email,
		Catalog:      catalog,
		Files:        files,
	}

	h := handlers.NewHandlers(cfg, svc, logger)
	return &testServer{
		router:  routes.SetupRoutes(h, cfg, logger),
		svc:     svc,
		store:   s,
		gateway: gateway,
	}
}

// do sends a JSON request, with a bearer token when token is not empty
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type sessionBody struct {
	AccessToken string          `json:"access_token"`
	Redirect    string          `json:"redirect"`
	Message     string          `json:"message"`
	User        *models.Profile `json:"user"`
}

type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func (ts *testServer) register(t *testing.T, email string) sessionBody {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "password123",
		"first_name": "Ada",
		"last_name":  "Obi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session sessionBody
	decode(t, w, &session)
	return session
}

func (ts *testServer) login(t *testing.T, path, email string) sessionBody {
	t.Helper()
	w := ts.do(t, http.MethodPost, path, "", map[string]string{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session sessionBody
	decode(t, w, &session)
	return session
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := ts.svc.Auth.CreateAdmin(context.Background(), "admin@example.com", "password123", "Site", "Admin")
	require.NoError(t, err)
	return ts.login(t, "/api/auth/admin/login", "admin@example.com").AccessToken
}
