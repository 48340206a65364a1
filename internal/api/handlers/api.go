package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/tastyfind/internal/api"
	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/session"
	"github.com/cloo-solutions/tastyfind/internal/web"
)

// field accepts a JSON string or number and keeps its text, so API clients
// can send ids and coordinates either way and the form parsers validate them.
type field string

func (f *field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = field(n.String())
	return nil
}

// SearchRequest is the JSON body of POST /api/search/{tab}. Field names match
// the page's form fields.
type SearchRequest struct {
	RestaurantID field `json:"restaurant_id"`
	Name         field `json:"name"`
	City         field `json:"city"`
	Cuisine      field `json:"cuisine"`
	Country      field `json:"country"`
	MinCost      field `json:"min_cost"`
	MaxCost      field `json:"max_cost"`
	Lat          field `json:"lat"`
	Lng          field `json:"lng"`
	Radius       field `json:"radius"`
	Query        field `json:"query"`
}

func (s SearchRequest) request(tab web.Tab, pageSize int) (domain.Request, error) {
	switch tab {
	case web.TabBasic:
		return domain.BasicForm{
			RestaurantID: string(s.RestaurantID),
			Name:         string(s.Name),
			City:         string(s.City),
			Cuisine:      string(s.Cuisine),
			Country:      string(s.Country),
			MinCost:      string(s.MinCost),
			MaxCost:      string(s.MaxCost),
		}.Request(pageSize)
	case web.TabLocation:
		return domain.LocationForm{
			Latitude:  string(s.Lat),
			Longitude: string(s.Lng),
			Radius:    string(s.Radius),
		}.Request(pageSize)
	case web.TabSemantic:
		return domain.SemanticForm{Query: string(s.Query)}.Request(pageSize)
	}
	return nil, domain.NewDomainError(domain.ErrCodeNotFound, "unknown search tab")
}

// SearchJSON runs a search from a JSON body and answers with the new state.
// Photo searches need multipart and stay on the form endpoint.
func (h *SearchHandler) SearchJSON(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	tab := web.Tab(chi.URLParam(r, "tab"))

	var body SearchRequest
	if err := decodeJSON(r, &body); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, err := body.request(tab, sess.Coordinator.State().PageSize)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	sess.SetTab(string(tab))
	h.respondState(w, r, sess, sess.Coordinator.Submit(r.Context(), req))
}

type pageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// PageJSON moves the current listing to another page.
func (h *SearchHandler) PageJSON(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	var body pageRequest
	if err := decodeJSON(r, &body); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.respondState(w, r, sess, sess.Coordinator.SetPage(r.Context(), body.Page))
}

// PageSizeJSON changes the page size of the current search.
func (h *SearchHandler) PageSizeJSON(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	var body pageRequest
	if err := decodeJSON(r, &body); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.respondState(w, r, sess, sess.Coordinator.SetPageSize(r.Context(), body.Size))
}

func (h *SearchHandler) respondState(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if err != nil {
		h.logSearchErr(r, sess, err)
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, NewStateResponse(sess.Coordinator.State()))
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
