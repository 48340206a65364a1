package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/tastyfind/internal/api/handlers"
	"github.com/cloo-solutions/tastyfind/internal/api/middleware"
	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/service"
	"github.com/cloo-solutions/tastyfind/internal/session"
	"github.com/cloo-solutions/tastyfind/internal/web"
)

type fakeTransport struct{}

func (fakeTransport) ListRestaurants(_ context.Context, l domain.Listing) ([]domain.Restaurant, error) {
	return []domain.Restaurant{{RestaurantID: l.Page, Name: "Listed"}}, nil
}

func (fakeTransport) QueryRestaurants(context.Context, domain.Query) ([]domain.Restaurant, error) {
	return []domain.Restaurant{}, nil
}

func (fakeTransport) GetByID(_ context.Context, id int) (domain.Restaurant, error) {
	return domain.Restaurant{RestaurantID: id, Name: "Found"}, nil
}

func (fakeTransport) Nearby(context.Context, domain.Nearby) ([]domain.Restaurant, error) {
	return []domain.Restaurant{}, nil
}

func (fakeTransport) SemanticSearch(context.Context, domain.Semantic) ([]domain.RankedRestaurant, error) {
	return []domain.RankedRestaurant{}, nil
}

func (fakeTransport) ImageSearch(context.Context, domain.Image) ([]domain.Restaurant, error) {
	return []domain.Restaurant{}, nil
}

func (fakeTransport) ListCountries(context.Context) ([]string, error) {
	return []string{"India"}, nil
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	sessions := session.NewRegistry(func() *service.Coordinator {
		return service.NewCoordinator(fakeTransport{})
	}, time.Hour, nil, reg)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	metrics, err := middleware.NewMetrics(reg)
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		SearchHandler:  handlers.NewSearchHandler(sessions, renderer),
		Metrics:        metrics,
		Gatherer:       reg,
		CORSOrigins:    []string{"http://localhost:5173"},
		MaxUploadBytes: 1 << 20,
	})
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("missing session cookie")
	return nil
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_IndexRendersFirstPage(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "All Restaurants")
	assert.Contains(t, body, "Listed")
	assert.NotNil(t, sessionCookie(t, w))
}

func TestRouter_FormPostRedirectsAndUpdatesSession(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, w)

	form := url.Values{"restaurant_id": {"42"}}
	req := httptest.NewRequest(http.MethodPost, "/search/basic", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data handlers.StateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ModeRestaurantID, resp.Data.Mode)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, 42, resp.Data.Results[0].RestaurantID)
}

func TestRouter_StateCORS(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_JSONSearch(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/search/basic", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", w.Header().Get("Access-Control-Allow-Headers"))

	// Browsers send the header list lowercased; rs/cors rejects other casings.
	req = httptest.NewRequest(http.MethodOptions, "/api/search/basic", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/search/basic", strings.NewReader(`{"restaurant_id": 7}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data handlers.StateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ModeRestaurantID, resp.Data.Mode)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, 7, resp.Data.Results[0].RestaurantID)
	assert.NotNil(t, sessionCookie(t, w))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tastyfind_http_requests_total")
	assert.Contains(t, string(body), `path="/health"`)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
