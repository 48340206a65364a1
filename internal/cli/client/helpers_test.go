package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/tastyfind/internal/domain"
)

// fakeBackend serves the restaurant API from fixed data and records query strings.
type fakeBackend struct {
	*httptest.Server

	mu      sync.Mutex
	queries map[string][]string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{queries: make(map[string][]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /restaurants", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 3 {
			writeJSON(w, []domain.Restaurant{})
			return
		}
		writeJSON(w, []domain.Restaurant{{RestaurantID: page*100 + 1, Name: "Page " + strconv.Itoa(page), City: "Delhi"}})
	})
	mux.HandleFunc("GET /restaurants/search", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		writeJSON(w, []domain.Restaurant{{RestaurantID: 5, Name: "Searched"}})
	})
	mux.HandleFunc("GET /restaurants/nearby", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		writeJSON(w, []domain.Restaurant{{RestaurantID: 6, Name: "Nearby"}})
	})
	mux.HandleFunc("GET /restaurants/{id}", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		if r.PathValue("id") != "17" {
			http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, domain.Restaurant{RestaurantID: 17, Name: "Seventeen", AggregateRating: 4.5, RatingColor: "Dark Green"})
	})
	mux.HandleFunc("POST /semantic-search", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		writeJSON(w, []domain.RankedRestaurant{{Restaurant: domain.Restaurant{RestaurantID: 8, Name: "Romantic"}, Similarity: 0.91}})
	})
	mux.HandleFunc("POST /image-search-nearby", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, []domain.Restaurant{{RestaurantID: 9, Name: "Pizzeria"}})
	})
	mux.HandleFunc("GET /countries", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		writeJSON(w, []string{"India", "Brazil"})
	})

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) record(r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.queries[r.URL.Path] = append(fb.queries[r.URL.Path], r.URL.RawQuery)
}

func (fb *fakeBackend) calls(path string) []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.queries[path]...)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newRoot mirrors the tastyfind root command flags.
func newRoot(cmds ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "tastyfind", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().Bool("output", false, "Output as JSON")
	root.PersistentFlags().String("api-url", "", "Backend base URL")
	root.PersistentFlags().Duration("timeout", 0, "Request timeout")
	root.PersistentFlags().Bool("verbose", false, "Verbose logging")
	root.AddCommand(cmds...)
	return root
}

// execute runs args against a fresh root with an isolated global config.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	useConfigPath(t, filepath.Join(t.TempDir(), "config.json"))
	t.Setenv(envAPIURL, "")
	t.Setenv(envPageSize, "")
	t.Setenv(envTimeout, "")

	root := newRoot(ListCmd(), QueryCmd(), GetCmd(), NearbyCmd(), SemanticCmd(), CountriesCmd(), ImageCmd(), BrowseCmd(), InitCmd(), ConfigCmd())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewBufferString(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decodeRestaurants(t *testing.T, out string) []domain.Restaurant {
	t.Helper()
	var rs []domain.Restaurant
	require.NoError(t, json.Unmarshal([]byte(out), &rs))
	return rs
}
