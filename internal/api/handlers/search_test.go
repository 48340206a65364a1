package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/logger"
	"github.com/cloo-solutions/tastyfind/internal/service"
	"github.com/cloo-solutions/tastyfind/internal/session"
	"github.com/cloo-solutions/tastyfind/internal/transport"
	"github.com/cloo-solutions/tastyfind/internal/web"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) ListRestaurants(ctx context.Context, l domain.Listing) ([]domain.Restaurant, error) {
	args := m.Called(ctx, l)
	return args.Get(0).([]domain.Restaurant), args.Error(1)
}

func (m *MockTransport) QueryRestaurants(ctx context.Context, q domain.Query) ([]domain.Restaurant, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.Restaurant), args.Error(1)
}

func (m *MockTransport) GetByID(ctx context.Context, id int) (domain.Restaurant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Restaurant), args.Error(1)
}

func (m *MockTransport) Nearby(ctx context.Context, n domain.Nearby) ([]domain.Restaurant, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]domain.Restaurant), args.Error(1)
}

func (m *MockTransport) SemanticSearch(ctx context.Context, s domain.Semantic) ([]domain.RankedRestaurant, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.RankedRestaurant), args.Error(1)
}

func (m *MockTransport) ImageSearch(ctx context.Context, img domain.Image) ([]domain.Restaurant, error) {
	args := m.Called(ctx, img)
	return args.Get(0).([]domain.Restaurant), args.Error(1)
}

func (m *MockTransport) ListCountries(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type recordingRenderer struct {
	pages []web.Page
}

func (r *recordingRenderer) Render(w io.Writer, p web.Page) error {
	r.pages = append(r.pages, p)
	_, err := io.WriteString(w, "ok")
	return err
}

func (r *recordingRenderer) last() web.Page {
	return r.pages[len(r.pages)-1]
}

type fixture struct {
	transport *MockTransport
	renderer  *recordingRenderer
	registry  *session.Registry
	handler   *SearchHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := new(MockTransport)
	reg := session.NewRegistry(func() *service.Coordinator {
		return service.NewCoordinator(tr)
	}, time.Hour, nil, prometheus.NewRegistry())
	rr := &recordingRenderer{}
	return &fixture{
		transport: tr,
		renderer:  rr,
		registry:  reg,
		handler:   NewSearchHandler(reg, rr, WithMaxUploadBytes(1<<20)),
	}
}

// startSession opens the page once and returns the session cookie.
func (f *fixture) startSession(t *testing.T) *http.Cookie {
	t.Helper()
	f.transport.On("ListRestaurants", mock.Anything, domain.Listing{Page: 1, Limit: 20}).
		Return([]domain.Restaurant{{RestaurantID: 1, Name: "First"}}, nil).Once()
	f.transport.On("ListCountries", mock.Anything).Return([]string{"India"}, nil).Once()

	w := httptest.NewRecorder()
	f.handler.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func (f *fixture) postForm(cookie *http.Cookie, path string, handler http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func (f *fixture) index(t *testing.T, cookie *http.Cookie) web.Page {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	f.handler.Index(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return f.renderer.last()
}

func assertRedirectHome(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestSearchHandler_Index_NewSessionBrowses(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	page := f.renderer.last()
	assert.Equal(t, "All Restaurants", page.Title)
	assert.Equal(t, []string{"India"}, page.Countries)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "First", page.Cards[0].Name)
	f.transport.AssertExpectations(t)
}

func TestSearchHandler_Index_ExistingSessionDoesNotRefetch(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	page := f.index(t, cookie)

	assert.Len(t, page.Cards, 1)
	f.transport.AssertNumberOfCalls(t, "ListRestaurants", 1)
	f.transport.AssertNumberOfCalls(t, "ListCountries", 1)
	assert.Equal(t, 1, f.registry.Len())
}

func TestSearchHandler_Index_TabParam(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	req := httptest.NewRequest(http.MethodGet, "/?tab=semantic", nil)
	req.AddCookie(cookie)
	f.handler.Index(httptest.NewRecorder(), req)

	assert.Equal(t, web.TabSemantic, f.renderer.last().Tab)
	assert.Equal(t, web.TabSemantic, f.index(t, cookie).Tab)
}

func TestSearchHandler_Basic_RestaurantID(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("GetByID", mock.Anything, 17).Return(domain.Restaurant{RestaurantID: 17, Name: "Seventeen"}, nil).Once()

	w := f.postForm(cookie, "/search/basic", f.handler.Basic, url.Values{"restaurant_id": {"17"}, "name": {"ignored"}})

	assertRedirectHome(t, w)
	page := f.index(t, cookie)
	assert.Equal(t, "Restaurant Results", page.Title)
	assert.Nil(t, page.Pager)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "Seventeen", page.Cards[0].Name)
}

func TestSearchHandler_Basic_QueryUsesPageSize(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("QueryRestaurants", mock.Anything, domain.Query{City: "Delhi", Limit: 20}).
		Return([]domain.Restaurant{}, nil).Once()

	w := f.postForm(cookie, "/search/basic", f.handler.Basic, url.Values{"city": {" Delhi "}})

	assertRedirectHome(t, w)
	assert.True(t, f.index(t, cookie).Empty)
	f.transport.AssertExpectations(t)
}

func TestSearchHandler_Basic_BackendFailureShowsBanner(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("GetByID", mock.Anything, 99).
		Return(domain.Restaurant{}, &transport.Error{Op: transport.OpGetByID, StatusCode: 404, Message: "Restaurant not found"}).Once()

	f.postForm(cookie, "/search/basic", f.handler.Basic, url.Values{"restaurant_id": {"99"}})

	page := f.index(t, cookie)
	assert.Equal(t, "Restaurant not found", page.Err)
	assert.Empty(t, page.Cards)
}

func TestSearchHandler_Location_ValidationSkipsBackend(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	w := f.postForm(cookie, "/search/location", f.handler.Location, url.Values{"lat": {"40.7"}})

	assertRedirectHome(t, w)
	page := f.index(t, cookie)
	assert.Equal(t, domain.ErrMissingCoordinates.Message, page.Err)
	assert.Equal(t, web.TabLocation, page.Tab)
	assert.Len(t, page.Cards, 1)
	f.transport.AssertNotCalled(t, "Nearby", mock.Anything, mock.Anything)

	assert.Empty(t, f.index(t, cookie).Err)
}

func TestSearchHandler_Location_DefaultRadius(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("Nearby", mock.Anything, domain.Nearby{Lat: 40.7128, Lng: -74.006, RadiusKm: 5, Limit: 20}).
		Return([]domain.Restaurant{{Name: "Near"}}, nil).Once()

	f.postForm(cookie, "/search/location", f.handler.Location, url.Values{"lat": {"40.7128"}, "lng": {"-74.006"}})

	page := f.index(t, cookie)
	assert.Equal(t, "Showing 1 result", page.Footer)
	f.transport.AssertExpectations(t)
}

func TestSearchHandler_Semantic(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("SemanticSearch", mock.Anything, domain.Semantic{Text: "romantic dinner", Limit: 20}).
		Return([]domain.RankedRestaurant{{Restaurant: domain.Restaurant{Name: "Candle"}, Similarity: 0.5}}, nil).Once()

	f.postForm(cookie, "/search/semantic", f.handler.Semantic, url.Values{"query": {"romantic dinner"}})

	page := f.index(t, cookie)
	assert.Equal(t, "Smart Search Results", page.Title)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, 50, page.Cards[0].Similarity)
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/search/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSearchHandler_Image(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("ImageSearch", mock.Anything, mock.MatchedBy(func(img domain.Image) bool {
		return string(img.Data) == "jpegdata" && img.Filename == "pizza.jpg" &&
			img.RadiusKm == 3 && img.Limit == domain.DefaultImageLimit && img.Lat == 40.7
	})).Return([]domain.Restaurant{{Name: "Pizzeria"}}, nil).Once()

	req := multipartRequest(t, map[string]string{"lat": "40.7", "lng": "-74"}, "pizza.jpg", []byte("jpegdata"))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	f.handler.Image(w, req)

	assertRedirectHome(t, w)
	page := f.index(t, cookie)
	assert.Equal(t, web.TabImage, page.Tab)
	require.Len(t, page.Cards, 1)
	f.transport.AssertExpectations(t)
}

func TestSearchHandler_Image_MissingFile(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	req := multipartRequest(t, map[string]string{"lat": "40.7", "lng": "-74"}, "", nil)
	req.AddCookie(cookie)
	f.handler.Image(httptest.NewRecorder(), req)

	assert.Equal(t, domain.ErrMissingImage.Message, f.index(t, cookie).Err)
	f.transport.AssertNotCalled(t, "ImageSearch", mock.Anything, mock.Anything)
}

func TestSearchHandler_Image_TooLarge(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	req := multipartRequest(t, map[string]string{"lat": "40.7", "lng": "-74"}, "big.jpg", bytes.Repeat([]byte("x"), 2<<20))
	req.AddCookie(cookie)
	f.handler.Image(httptest.NewRecorder(), req)

	assert.Equal(t, "image is too large", f.index(t, cookie).Err)
}

func TestSearchHandler_PageAndPageSize(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)
	f.transport.On("ListRestaurants", mock.Anything, domain.Listing{Page: 2, Limit: 20}).
		Return([]domain.Restaurant{{Name: "Second"}}, nil).Once()
	f.transport.On("ListRestaurants", mock.Anything, domain.Listing{Page: 1, Limit: 50}).
		Return([]domain.Restaurant{{Name: "Wide"}}, nil).Once()

	assertRedirectHome(t, f.postForm(cookie, "/page", f.handler.Page, url.Values{"page": {"2"}}))
	page := f.index(t, cookie)
	require.NotNil(t, page.Pager)
	assert.Equal(t, 2, page.Pager.Current)

	assertRedirectHome(t, f.postForm(cookie, "/page-size", f.handler.PageSize, url.Values{"size": {"50"}}))
	page = f.index(t, cookie)
	assert.Equal(t, 1, page.Pager.Current)
	assert.Equal(t, 50, page.PageSize)
	f.transport.AssertExpectations(t)
}

func TestSearchHandler_Page_Invalid(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	f.postForm(cookie, "/page", f.handler.Page, url.Values{"page": {"abc"}})
	assert.Equal(t, domain.ErrInvalidPage.Message, f.index(t, cookie).Err)

	f.postForm(cookie, "/page", f.handler.Page, url.Values{"page": {"0"}})
	assert.Equal(t, domain.ErrInvalidPage.Message, f.index(t, cookie).Err)

	f.postForm(cookie, "/page-size", f.handler.PageSize, url.Values{"size": {"-5"}})
	assert.Equal(t, domain.ErrInvalidPageSize.Message, f.index(t, cookie).Err)
	f.transport.AssertNumberOfCalls(t, "ListRestaurants", 1)
}

func TestSearchHandler_BrowseAndClear(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	assertRedirectHome(t, f.postForm(cookie, "/clear", f.handler.Clear, url.Values{}))
	page := f.index(t, cookie)
	assert.Empty(t, page.Cards)
	assert.False(t, page.HasSearch)

	f.transport.On("ListRestaurants", mock.Anything, domain.Listing{Page: 1, Limit: 20}).
		Return([]domain.Restaurant{{Name: "Again"}}, nil).Once()
	assertRedirectHome(t, f.postForm(cookie, "/browse", f.handler.Browse, url.Values{}))
	page = f.index(t, cookie)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "Again", page.Cards[0].Name)
}

func TestSearchHandler_State(t *testing.T) {
	f := newFixture(t)
	cookie := f.startSession(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	f.handler.State(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data StateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ModeBrowse, resp.Data.Mode)
	assert.True(t, resp.Data.Paginable)
	assert.False(t, resp.Data.Ranked)
	assert.Equal(t, 1, resp.Data.Page)
	assert.True(t, resp.Data.HasNext)
	assert.False(t, resp.Data.HasPrev)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "First", resp.Data.Results[0].Name)
}

func TestNewStateResponse_Ranked(t *testing.T) {
	st := service.State{
		Results:  domain.RankedResults([]domain.RankedRestaurant{{Similarity: 0.9}}),
		Page:     1,
		PageSize: 20,
		Mode:     domain.ModeSemantic,
	}

	resp := NewStateResponse(st)

	assert.True(t, resp.Ranked)
	assert.False(t, resp.Paginable)
	assert.Nil(t, resp.Results)
	assert.Len(t, resp.Scored, 1)
	assert.Nil(t, resp.Pages)
}

func TestSearchHandler_LogSearchErr_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := httptest.NewRequest(http.MethodPost, "/search/basic", http.NoBody)
	r = r.WithContext(logger.ContextWithLogger(r.Context(), zap.New(core)))
	sess := &session.Session{ID: "sess-log"}
	h := &SearchHandler{}

	h.logSearchErr(r, sess, &transport.Error{Op: transport.OpListRestaurants, StatusCode: 500, Message: "Failed to fetch restaurants"})
	h.logSearchErr(r, sess, &transport.Error{Op: transport.OpGetByID, StatusCode: 404, Message: "Restaurant not found"})
	h.logSearchErr(r, sess, nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusBadGateway), entries[0].ContextMap()["status"])
	assert.Equal(t, "sess-log", entries[0].ContextMap()["session_id"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
}
