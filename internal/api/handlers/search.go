package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/cloo-solutions/tastyfind/internal/api"
	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/logger"
	"github.com/cloo-solutions/tastyfind/internal/session"
	"github.com/cloo-solutions/tastyfind/internal/web"
)

const imageTooLarge = "image is too large"

// SessionStore resolves the caller's session.
type SessionStore interface {
	GetOrCreate(id string) (*session.Session, bool)
}

// PageRenderer renders the search page.
type PageRenderer interface {
	Render(w io.Writer, p web.Page) error
}

// SearchHandler serves the search page and its form posts.
type SearchHandler struct {
	sessions       SessionStore
	renderer       PageRenderer
	maxUploadBytes int64
	secureCookie   bool
}

// SearchHandlerOption configures the SearchHandler.
type SearchHandlerOption func(*SearchHandler)

// WithMaxUploadBytes caps the size of an image upload.
func WithMaxUploadBytes(n int64) SearchHandlerOption {
	return func(h *SearchHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithSecureCookie marks the session cookie as HTTPS only.
func WithSecureCookie(secure bool) SearchHandlerOption {
	return func(h *SearchHandler) {
		h.secureCookie = secure
	}
}

func NewSearchHandler(sessions SessionStore, renderer PageRenderer, opts ...SearchHandlerOption) *SearchHandler {
	h := &SearchHandler{
		sessions:       sessions,
		renderer:       renderer,
		maxUploadBytes: 10 << 20,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Index renders the page. A new session starts with the first page of the
// full listing.
func (h *SearchHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	sess, created := h.session(w, r)
	coord := sess.Coordinator

	if created {
		if err := coord.Browse(ctx, 1, coord.State().PageSize); err != nil {
			log.Debug("initial browse failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	if tab := r.URL.Query().Get("tab"); tab != "" {
		sess.SetTab(string(web.ParseTab(tab, web.TabBrowse)))
	}

	st := coord.State()
	if notice := sess.TakeNotice(); notice != "" {
		st.Err = notice
	}
	countries := sess.Countries(ctx, log)
	page := web.NewPage(st, countries, web.ParseTab(sess.Tab(), ""))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Render(w, page); err != nil {
		log.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// Basic handles the basic search tab: id lookup, text query or listing.
func (h *SearchHandler) Basic(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	if !h.parseForm(w, r, sess) {
		return
	}
	form := domain.BasicForm{
		RestaurantID: r.PostFormValue("restaurant_id"),
		Name:         r.PostFormValue("name"),
		City:         r.PostFormValue("city"),
		Cuisine:      r.PostFormValue("cuisine"),
		Country:      r.PostFormValue("country"),
		MinCost:      r.PostFormValue("min_cost"),
		MaxCost:      r.PostFormValue("max_cost"),
	}
	req, err := form.Request(sess.Coordinator.State().PageSize)
	h.submit(w, r, sess, web.TabBasic, req, err)
}

// Location handles the nearby search tab.
func (h *SearchHandler) Location(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	if !h.parseForm(w, r, sess) {
		return
	}
	form := domain.LocationForm{
		Latitude:  r.PostFormValue("lat"),
		Longitude: r.PostFormValue("lng"),
		Radius:    r.PostFormValue("radius"),
	}
	req, err := form.Request(sess.Coordinator.State().PageSize)
	h.submit(w, r, sess, web.TabLocation, req, err)
}

// Semantic handles the smart search tab.
func (h *SearchHandler) Semantic(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	if !h.parseForm(w, r, sess) {
		return
	}
	form := domain.SemanticForm{Query: r.PostFormValue("query")}
	req, err := form.Request(sess.Coordinator.State().PageSize)
	h.submit(w, r, sess, web.TabSemantic, req, err)
}

// Image handles the photo search tab.
func (h *SearchHandler) Image(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	sess.SetTab(string(web.TabImage))

	if r.ContentLength > h.maxUploadBytes {
		sess.SetNotice(imageTooLarge)
		redirectHome(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sess.SetNotice(imageTooLarge)
		} else {
			sess.SetNotice("invalid upload")
		}
		redirectHome(w, r)
		return
	}

	form := domain.ImageForm{
		Latitude:  r.FormValue("lat"),
		Longitude: r.FormValue("lng"),
		Radius:    r.FormValue("radius"),
	}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			sess.SetNotice("invalid upload")
			redirectHome(w, r)
			return
		}
		form.Data = data
		form.Filename = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		sess.SetNotice("invalid upload")
		redirectHome(w, r)
		return
	}

	req, err := form.Request(sess.Coordinator.State().PageSize)
	h.submit(w, r, sess, web.TabImage, req, err)
}

// Browse relists everything from page 1 with the session's page size.
func (h *SearchHandler) Browse(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	sess.SetTab(string(web.TabBrowse))
	coord := sess.Coordinator
	h.logSearchErr(r, sess, coord.Browse(r.Context(), 1, coord.State().PageSize))
	redirectHome(w, r)
}

// Page moves the current listing to another page.
func (h *SearchHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	if !h.parseForm(w, r, sess) {
		return
	}
	page, err := strconv.Atoi(r.PostFormValue("page"))
	if err != nil {
		sess.SetNotice(domain.ErrInvalidPage.Message)
		redirectHome(w, r)
		return
	}
	h.apply(w, r, sess, sess.Coordinator.SetPage(r.Context(), page))
}

// PageSize changes the page size of the current search.
func (h *SearchHandler) PageSize(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	if !h.parseForm(w, r, sess) {
		return
	}
	size, err := strconv.Atoi(r.PostFormValue("size"))
	if err != nil {
		sess.SetNotice(domain.ErrInvalidPageSize.Message)
		redirectHome(w, r)
		return
	}
	h.apply(w, r, sess, sess.Coordinator.SetPageSize(r.Context(), size))
}

// Clear drops the session's results.
func (h *SearchHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	sess.Coordinator.Clear()
	redirectHome(w, r)
}

func (h *SearchHandler) submit(w http.ResponseWriter, r *http.Request, sess *session.Session, tab web.Tab, req domain.Request, err error) {
	sess.SetTab(string(tab))
	if err != nil {
		sess.SetNotice(validationMessage(err))
		redirectHome(w, r)
		return
	}
	h.logSearchErr(r, sess, sess.Coordinator.Submit(r.Context(), req))
	redirectHome(w, r)
}

// apply records validation failures of page changes; backend failures are
// already in the state.
func (h *SearchHandler) apply(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if domain.IsValidation(err) {
		sess.SetNotice(validationMessage(err))
	} else {
		h.logSearchErr(r, sess, err)
	}
	redirectHome(w, r)
}

func (h *SearchHandler) logSearchErr(r *http.Request, sess *session.Session, err error) {
	if err == nil {
		return
	}
	status := api.ErrorToHTTP(err)
	log := logger.FromContext(r.Context())
	level := zap.DebugLevel
	if status >= http.StatusInternalServerError {
		level = zap.WarnLevel
	}
	log.Log(level, "search failed",
		zap.String("session_id", sess.ID),
		zap.Int("status", status),
		zap.Error(err),
	)
}

func (h *SearchHandler) parseForm(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := r.ParseForm(); err != nil {
		sess.SetNotice("invalid form submission")
		redirectHome(w, r)
		return false
	}
	return true
}

// session returns the caller's session, issuing a cookie for new ones.
func (h *SearchHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	var id string
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	}
	sess, created := h.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, created
}

func validationMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
