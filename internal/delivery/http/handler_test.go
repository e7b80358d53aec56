package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stockwizard/internal/domain"
	"stockwizard/internal/middleware"
	"stockwizard/internal/service"
	"stockwizard/internal/usecase"
)

type testServer struct {
	e      *echo.Echo
	users  *memUsers
	market *stubMarket
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := &memUsers{users: make(map[uuid.UUID]*domain.UserProfile)}
	market := &stubMarket{}
	assets := &memAssets{}

	jwtManager := middleware.NewJWTManager("test-secret", time.Hour)
	authService := service.NewAuthService(users)
	profileService := service.NewProfileService(users)
	portfolioService := service.NewPortfolioService(assets, market)
	alertService := service.NewAlertService(&memAlerts{}, market, nil)

	sessions := usecase.NewSessionManager(users, market, market, time.Millisecond)
	sessions.Attach(authService)

	e := echo.New()
	SetupRoutes(e, &RouterConfig{
		JWT:              jwtManager,
		AuthHandler:      NewAuthHandler(authService, jwtManager, false),
		UserHandler:      NewUserHandler(authService, profileService),
		WatchlistHandler: NewWatchlistHandler(sessions, authService, portfolioService),
		StockHandler:     NewStockHandler(sessions, market, market),
		PortfolioHandler: NewPortfolioHandler(portfolioService, authService, sessions),
		AlertHandler:     NewAlertHandler(alertService),
	})

	return &testServer{e: e, users: users, market: market}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec, resp
}

// register signs up a user and returns its token
func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()

	rec, resp := s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"email":"`+email+`","password":"secret1","name":"ada lovelace"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	return data["token"].(string)
}

func dataMap(t *testing.T, resp Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %#v, want object", resp.Data)
	}
	return m
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com")

	rec, resp := s.do(t, http.MethodPost, "/api/auth/register", "",
		`{"email":"ADA@example.com","password":"secret1","name":"Ada"}`)
	if rec.Code != http.StatusBadRequest || resp.Message != "An account with this email already exists" {
		t.Errorf("duplicate register = %d %q", rec.Code, resp.Message)
	}

	rec, resp = s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"wrong!!"}`)
	if rec.Code != http.StatusUnauthorized || resp.Message != "Invalid credentials" {
		t.Errorf("bad login = %d %q", rec.Code, resp.Message)
	}

	rec, resp = s.do(t, http.MethodGet, "/api/user/me", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	if name := dataMap(t, resp)["displayName"]; name != "Ada Lovelace" {
		t.Errorf("displayName = %v", name)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/user/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated me = %d, want 401", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/auth/logout", token, "")
	if rec.Code != http.StatusOK {
		t.Errorf("logout = %d", rec.Code)
	}
}

func TestWatchlistEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "bob@example.com")

	rec, resp := s.do(t, http.MethodPost, "/api/watchlist", token, `{"symbol":"btc"}`)
	if rec.Code != http.StatusOK || resp.Message != "BTC added to watchlist" {
		t.Fatalf("add = %d %q", rec.Code, resp.Message)
	}

	rec, resp = s.do(t, http.MethodPost, "/api/watchlist", token, `{"symbol":"BTC"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate add = %d, want 409", rec.Code)
	}
	if resp.Message != "BTC is already in your watchlist" {
		t.Errorf("duplicate message = %q", resp.Message)
	}

	s.users.mu.Lock()
	s.users.failWrite = errStoreDown
	s.users.mu.Unlock()

	rec, _ = s.do(t, http.MethodPost, "/api/watchlist", token, `{"symbol":"AAPL"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("failed add = %d, want 502", rec.Code)
	}

	s.users.mu.Lock()
	s.users.failWrite = nil
	s.users.mu.Unlock()

	rec, resp = s.do(t, http.MethodGet, "/api/watchlist", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	data := dataMap(t, resp)
	if data["count"].(float64) != 1 {
		t.Errorf("count = %v, want rollback to 1", data["count"])
	}
	counts := data["counts"].(map[string]interface{})
	if counts["crypto"].(float64) != 1 {
		t.Errorf("counts = %v", counts)
	}

	rec, resp = s.do(t, http.MethodDelete, "/api/watchlist/nvda", token, "")
	if rec.Code != http.StatusOK || resp.Message != "NVDA is not in your watchlist" {
		t.Errorf("remove untracked = %d %q", rec.Code, resp.Message)
	}
}

func TestWatchlist_FetchFailureRendersNotice(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "carol@example.com")
	s.do(t, http.MethodPost, "/api/watchlist", token, `{"symbol":"AAPL"}`)

	s.market.mu.Lock()
	s.market.err = domain.ErrFetchFailed
	s.market.mu.Unlock()

	rec, resp := s.do(t, http.MethodGet, "/api/watchlist", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if notice := dataMap(t, resp)["error"]; notice == nil || notice == "" {
		t.Error("expected an error notice in the view")
	}
}

func TestStockAndViews(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "dan@example.com")

	rec, resp := s.do(t, http.MethodGet, "/api/stocks/aapl", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stock = %d", rec.Code)
	}
	data := dataMap(t, resp)
	if data["tracked"] != false || data["action"] != "add" || len(data["news"].([]interface{})) != 1 {
		t.Errorf("stock view = %v", data)
	}

	rec, resp = s.do(t, http.MethodPost, "/api/stocks/AAPL/watchlist", token, "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["tracked"] != true {
		t.Errorf("toggle = %d %v", rec.Code, resp.Data)
	}

	rec, resp = s.do(t, http.MethodGet, "/api/stocks/AAPL/history?range=1w", token, "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["trend"] != "up" {
		t.Errorf("history = %d %v", rec.Code, resp.Data)
	}

	rec, resp = s.do(t, http.MethodDelete, "/api/views/stock:aapl", token, "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["unmounted"] != true {
		t.Errorf("close view = %d %v", rec.Code, resp.Data)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/views/settings", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown view = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "erin@example.com")

	rec, resp := s.do(t, http.MethodGet, "/api/search?q=tsla", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search = %d", rec.Code)
	}
	matches := dataMap(t, resp)["matches"].([]interface{})
	if len(matches) != 1 || matches[0].(map[string]interface{})["action"] != "add" {
		t.Errorf("matches = %v", matches)
	}

	rec, resp = s.do(t, http.MethodPost, "/api/search/select", token, `{"symbol":"TSLA"}`)
	if rec.Code != http.StatusOK || dataMap(t, resp)["action"] != "added" {
		t.Errorf("select = %d %v", rec.Code, resp.Data)
	}

	rec, resp = s.do(t, http.MethodPost, "/api/search/select", token, `{"symbol":"TSLA"}`)
	if rec.Code != http.StatusOK || dataMap(t, resp)["action"] != "view" {
		t.Errorf("select tracked = %d %v", rec.Code, resp.Data)
	}
}

func TestPortfolioEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "fay@example.com")

	rec, resp := s.do(t, http.MethodGet, "/api/portfolio/export", token, "")
	if rec.Code != http.StatusBadRequest || resp.Message != "No assets to export" {
		t.Errorf("empty export = %d %q, want 400 No assets to export", rec.Code, resp.Message)
	}

	rec, resp = s.do(t, http.MethodPost, "/api/portfolio/assets", token,
		`{"name":"Apple, \"Inc\"","symbol":"aapl","quantity":2,"purchasePrice":100,"purchaseDate":"2024-01-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	if v := dataMap(t, resp)["value"]; v != 220.0 {
		t.Errorf("value = %v, want quantity * latest close", v)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/portfolio/assets", token, `{"name":"X","symbol":"X","quantity":0,"purchasePrice":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid asset = %d, want 400", rec.Code)
	}

	rec, resp = s.do(t, http.MethodGet, "/api/portfolio?sort=name-asc", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("portfolio = %d", rec.Code)
	}
	metrics := dataMap(t, resp)["metrics"].(map[string]interface{})
	if metrics["totalValue"] != 220.0 || metrics["riskLevel"] != domain.RiskHigh {
		t.Errorf("metrics = %v", metrics)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/portfolio?sort=size-up", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad sort = %d, want 400", rec.Code)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/portfolio/export", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "stockwizard-assets-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	want := service.CSVHeader + "\n" + `"Apple, ""Inc""",AAPL,2,100,220,20,1/15/2024`
	if rec.Body.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", rec.Body.String(), want)
	}
}

func TestAlertsAndPlans(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "gus@example.com")

	rec, _ := s.do(t, http.MethodPost, "/api/alerts", token, `{"symbol":"aapl","targetPrice":150,"direction":"above"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create alert = %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodPost, "/api/alerts", token, `{"symbol":"aapl","targetPrice":-1,"direction":"above"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid alert = %d, want 400", rec.Code)
	}

	rec, resp := s.do(t, http.MethodGet, "/api/alerts", token, "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["count"] != 1.0 {
		t.Errorf("alerts = %d %v", rec.Code, resp.Data)
	}

	rec, resp = s.do(t, http.MethodGet, "/api/plans?billing=annual", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("plans = %d", rec.Code)
	}
	plans := resp.Data.([]interface{})
	if pro := plans[1].(map[string]interface{}); pro["price"] != 99.99 {
		t.Errorf("pro plan = %v", pro)
	}
}
