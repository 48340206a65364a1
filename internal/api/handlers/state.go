package handlers

import (
	"net/http"

	"github.com/cloo-solutions/tastyfind/internal/api"
	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/pagination"
	"github.com/cloo-solutions/tastyfind/internal/service"
)

// StateResponse is the JSON view of a session's search state.
type StateResponse struct {
	Mode      domain.Mode               `json:"mode"`
	Loading   bool                      `json:"loading"`
	Error     string                    `json:"error,omitempty"`
	Page      int                       `json:"page"`
	PageSize  int                       `json:"page_size"`
	Paginable bool                      `json:"paginable"`
	Ranked    bool                      `json:"ranked"`
	Results   []domain.Restaurant       `json:"results,omitempty"`
	Scored    []domain.RankedRestaurant `json:"ranked_results,omitempty"`
	Pages     []pagination.Item         `json:"pages,omitempty"`
	HasNext   bool                      `json:"has_next"`
	HasPrev   bool                      `json:"has_prev"`
}

// NewStateResponse converts a state snapshot.
func NewStateResponse(st service.State) StateResponse {
	resp := StateResponse{
		Mode:      st.Mode,
		Loading:   st.Loading,
		Error:     st.Err,
		Page:      st.Page,
		PageSize:  st.PageSize,
		Paginable: st.Paginable(),
		Ranked:    st.Ranked(),
	}
	if st.Ranked() {
		resp.Scored = st.Results.Ranked()
	} else {
		resp.Results = st.Results.Plain()
	}
	if st.Paginable() {
		p := pagination.Pager{Current: st.Page, PageSize: st.PageSize, Count: st.Results.Len()}
		resp.Pages = p.Items()
		resp.HasNext = p.HasNext()
		resp.HasPrev = p.HasPrev()
	}
	return resp
}

// State returns the caller's search state as JSON.
func (h *SearchHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(w, r)
	api.Success(w, http.StatusOK, NewStateResponse(sess.Coordinator.State()))
}
