package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-radar/internal/ai"
	"lead-radar/internal/auth"
	"lead-radar/internal/repository/sqlite"
	"lead-radar/internal/service"
)

const testSecret = "test-secret-with-enough-entropy"

type testServer struct {
	router *gin.Engine
	db     *sql.DB
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db, goose.NopLogger()))

	logger, _ := test.NewNullLogger()
	hasher, err := auth.NewPasswordHasher(auth.SchemeBcrypt)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: testSecret, TTL: time.Hour})
	require.NoError(t, err)

	users := sqlite.NewUserRepository(db)
	businesses := sqlite.NewBusinessRepository(db)
	leads := sqlite.NewLeadRepository(db)
	campaigns := sqlite.NewCampaignRepository(db)
	pages := sqlite.NewLandingPageRepository(db)
	insights := sqlite.NewInsightRepository(db)
	reports := sqlite.NewReportRepository(db)
	assistant := ai.NewAssistant(nil, logger, false)

	svc := Services{
		Users:        service.NewUserService(users, hasher, logger),
		Businesses:   service.NewBusinessService(businesses),
		Leads:        service.NewLeadService(businesses, leads),
		Campaigns:    service.NewCampaignService(businesses, campaigns),
		LandingPages: service.NewLandingPageService(businesses, pages, leads, "http://radar.test"),
		Insights:     service.NewInsightService(businesses, insights, assistant),
		Reports: service.NewReportService(service.ReportDeps{
			Businesses: businesses,
			Leads:      leads,
			Campaigns:  campaigns,
			Pages:      pages,
			Reports:    reports,
			Assistant:  assistant,
			Logger:     logger,
		}),
	}
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}

	router := gin.New()
	NewHandler(svc, tokens, logger, opts).RegisterRoutes(router)
	return &testServer{router: router, db: db, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    email,
		"password": "Secret123!",
		"name":     "Maria",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func (s *testServer) setupBusiness(t *testing.T, token string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/business", gin.H{"name": "Padaria Central", "niche": "padaria", "city": "Recife"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndRoot(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/api/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, apiVersion, decode[map[string]string](t, rec)["version"])
}

func TestRegisterMeAndTamperedToken(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.register(t, "maria@example.com")

	rec := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[UserResponse](t, rec)
	assert.Equal(t, "maria@example.com", me.Email)
	assert.Equal(t, "Maria", me.Name)
	assert.NotEmpty(t, me.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"` + uuid.NewString() + `","exp":4102444800}`))
	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, strings.Join(parts, "."))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", decode[map[string]string](t, rec)["error"])
}

func TestAuthMiddlewareRejections(t *testing.T) {
	s := newTestServer(t, Options{})

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing", header: "", want: "not authenticated"},
		{name: "wrong scheme", header: "Basic abc", want: "not authenticated"},
		{name: "garbage", header: "Bearer not-a-jwt", want: "invalid or expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.want, decode[map[string]string](t, rec)["error"])
		})
	}

	t.Run("unknown subject", func(t *testing.T) {
		token, err := s.tokens.Issue(uuid.NewString())
		require.NoError(t, err)
		rec := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "user not found", decode[map[string]string](t, rec)["error"])
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "another-secret"})
		require.NoError(t, err)
		token, err := other.Issue(uuid.NewString())
		require.NoError(t, err)
		rec := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoginDoesNotRevealAccounts(t *testing.T) {
	s := newTestServer(t, Options{})
	s.register(t, "ana@example.com")

	ok := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "Secret123!"}, "")
	require.Equal(t, http.StatusOK, ok.Code)
	assert.NotEmpty(t, decode[TokenResponse](t, ok).AccessToken)

	wrongPassword := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "nope-nope"}, "")
	unknownEmail := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "ghost@example.com", "password": "Secret123!"}, "")
	missing := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com"}, "")

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail, missing} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"incorrect email or password"}`, rec.Body.String())
	}
}

func TestRegisterDuplicateAndValidation(t *testing.T) {
	s := newTestServer(t, Options{})
	s.register(t, "dup@example.com")

	rec := s.do(t, http.MethodPost, "/api/auth/register", gin.H{"email": "dup@example.com", "password": "Another123!", "name": "Twin"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", decode[map[string]any](t, rec)["error"])

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, "dup@example.com").Scan(&n))
	assert.Equal(t, 1, n)

	rec = s.do(t, http.MethodPost, "/api/auth/register", gin.H{"email": "not-an-email", "password": "short"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, "invalid request", body.Error)
	assert.Equal(t, "must be a valid email address", body.Fields["email"])
	assert.Equal(t, "must be at least 8 characters", body.Fields["password"])
	assert.Equal(t, "is required", body.Fields["name"])

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
	assert.Equal(t, "invalid request body", decode[map[string]any](t, raw)["error"])
}

func TestBusinessAndLeadFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.register(t, "owner@example.com")

	rec := s.do(t, http.MethodGet, "/api/business", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/leads", gin.H{"name": "Carlos"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.setupBusiness(t, token)
	rec = s.do(t, http.MethodPost, "/api/business", gin.H{"name": "Again", "niche": "padaria"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/business", gin.H{"name": "Padaria Nova", "niche": "padaria", "state": "PE"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Padaria Nova", decode[BusinessResponse](t, rec).Name)

	rec = s.do(t, http.MethodPost, "/api/leads", gin.H{"name": "Carlos", "email": "carlos@example.com"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	lead := decode[LeadResponse](t, rec)
	assert.Equal(t, "new", string(lead.Status))
	assert.Equal(t, "manual", lead.Source)

	rec = s.do(t, http.MethodPut, "/api/leads/"+lead.ID+"/status?status=contacted", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/leads/"+lead.ID+"/status", gin.H{"status": "qualified"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/leads/"+lead.ID+"/status?status=bogus", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/leads", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	leads := decode[[]LeadResponse](t, rec)
	require.Len(t, leads, 1)
	assert.Equal(t, "qualified", string(leads[0].Status))

	other := s.register(t, "other@example.com")
	s.setupBusiness(t, other)
	rec = s.do(t, http.MethodDelete, "/api/leads/"+lead.ID, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/leads/"+lead.ID, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/leads/"+lead.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCampaignCRUD(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.register(t, "camp@example.com")
	s.setupBusiness(t, token)

	rec := s.do(t, http.MethodPost, "/api/campaigns", gin.H{"name": "Verão", "type": "instagram", "status": "unknown"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/campaigns", gin.H{"name": "Verão", "type": "instagram"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	campaign := decode[CampaignResponse](t, rec)
	assert.Equal(t, "draft", string(campaign.Status))

	rec = s.do(t, http.MethodPut, "/api/campaigns/"+campaign.ID, gin.H{"name": "Verão 2", "type": "instagram", "status": "active"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "active", string(decode[CampaignResponse](t, rec).Status))

	rec = s.do(t, http.MethodGet, "/api/campaigns", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]CampaignResponse](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/campaigns/"+campaign.ID, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/campaigns/"+campaign.ID, gin.H{"name": "x", "type": "y"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func createPage(t *testing.T, s *testServer, token string) LandingPageResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/landing-pages", gin.H{"title": "Promo", "headline": "Pão quentinho"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[LandingPageResponse](t, rec)
	assert.Equal(t, "http://radar.test/p/"+page.Slug, page.PublicURL)
	return page
}

func TestPublicLandingPageCounters(t *testing.T) {
	s := newTestServer(t, Options{RateRPS: 1000, RateBurst: 1000})
	token := s.register(t, "pages@example.com")
	s.setupBusiness(t, token)
	page := createPage(t, s, token)

	for range 2 {
		rec := s.do(t, http.MethodGet, "/api/p/"+page.Slug, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		public := decode[map[string]any](t, rec)
		assert.Equal(t, "Pão quentinho", public["headline"])
		assert.NotContains(t, public, "visits")
	}

	rec := s.do(t, http.MethodPost, "/api/p/"+page.Slug+"/lead", gin.H{"name": "Joana", "phone": "81999990000"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/p/"+page.Slug, nil)
			s.router.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	rec = s.do(t, http.MethodGet, "/api/landing-pages", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	pages := decode[[]LandingPageResponse](t, rec)
	require.Len(t, pages, 1)
	assert.EqualValues(t, 22, pages[0].Visits)
	assert.EqualValues(t, 1, pages[0].Conversions)

	rec = s.do(t, http.MethodGet, "/api/leads", nil, token)
	leads := decode[[]LeadResponse](t, rec)
	require.Len(t, leads, 1)
	assert.Equal(t, "landing_page:"+page.Slug, leads[0].Source)

	rec = s.do(t, http.MethodGet, "/api/p/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLandingPageQRCode(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.register(t, "qr@example.com")
	s.setupBusiness(t, token)
	page := createPage(t, s, token)

	rec := s.do(t, http.MethodGet, "/api/landing-pages/"+page.ID+"/qrcode?size=128", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(t, http.MethodGet, "/api/landing-pages/"+page.ID+"/qrcode?size=abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateRPS: 0.001, RateBurst: 2})

	for range 2 {
		rec := s.do(t, http.MethodGet, "/api/p/missing", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/api/p/missing", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestInsightsWithoutProvider(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.register(t, "ai@example.com")
	s.setupBusiness(t, token)

	rec := s.do(t, http.MethodPost, "/api/insights/market", gin.H{"niche": "padaria", "city": "Recife"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, ai.NotConfiguredText, body["insight"])
	assert.Equal(t, "trends", body["type"])

	rec = s.do(t, http.MethodPost, "/api/insights/market", gin.H{"niche": "padaria", "type": "gossip"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/insights/strategy", gin.H{"niche": "padaria"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "campaign", decode[map[string]string](t, rec)["type"])

	rec = s.do(t, http.MethodGet, "/api/insights", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]InsightResponse](t, rec), 1)
}

func TestReportsFlow(t *testing.T) {
	s := newTestServer(t, Options{})
	token := s.register(t, "reports@example.com")
	s.setupBusiness(t, token)

	rec := s.do(t, http.MethodGet, "/api/reports/dashboard", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conversion_rate":0`)

	rec = s.do(t, http.MethodPost, "/api/reports/generate", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[GeneratedReportResponse](t, rec)
	assert.Equal(t, "weekly", string(generated.Period))
	assert.Equal(t, ai.NotConfiguredText, generated.Report)
	assert.Equal(t, "pending", string(generated.ArchiveStatus))

	rec = s.do(t, http.MethodPost, "/api/reports/generate", gin.H{"period": "yearly"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/reports/history", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReportResponse](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/reports/"+generated.ID+"/download", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/reports/archives", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{CORSOrigins: []string{"https://app.radar.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://app.radar.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.radar.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
