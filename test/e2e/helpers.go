//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/testutil"
)

// E2ETestEnv holds a fake restaurant backend, a RustFS container and the
// built binaries.
type E2ETestEnv struct {
	T         *testing.T
	Ctx       context.Context
	RustFSC   *testutil.RustFSContainer
	Backend   *httptest.Server
	BinaryDir string
	ConfigDir string

	mu      sync.Mutex
	uploads []int
}

// SetupE2EEnv starts the fake backend and RustFS.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	env := &E2ETestEnv{
		T:         t,
		Ctx:       ctx,
		RustFSC:   testutil.NewRustFSContainer(ctx, t),
		ConfigDir: t.TempDir(),
	}
	env.Backend = httptest.NewServer(env.backendMux())
	return env
}

func (e *E2ETestEnv) Cleanup() {
	if e.Backend != nil {
		e.Backend.Close()
	}
	if e.RustFSC != nil {
		_ = e.RustFSC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

func (e *E2ETestEnv) backendMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /restaurants", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 2 {
			writeJSON(w, []domain.Restaurant{})
			return
		}
		writeJSON(w, []domain.Restaurant{{
			RestaurantID:    page*100 + 1,
			Name:            fmt.Sprintf("Listing %d", page),
			City:            "Delhi",
			Country:         "India",
			AggregateRating: 4.1,
			RatingColor:     "5BA829",
		}})
	})
	mux.HandleFunc("GET /restaurants/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "42" {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]string{"detail": "Restaurant not found"})
			return
		}
		writeJSON(w, domain.Restaurant{RestaurantID: 42, Name: "The Answer", City: "Goa"})
	})
	mux.HandleFunc("POST /semantic-search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []domain.RankedRestaurant{{
			Restaurant: domain.Restaurant{RestaurantID: 7, Name: "Candlelight"},
			Similarity: 0.82,
		}})
	})
	mux.HandleFunc("POST /image-search-nearby", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		e.mu.Lock()
		e.uploads = append(e.uploads, len(data))
		e.mu.Unlock()
		writeJSON(w, []domain.Restaurant{{RestaurantID: 9, Name: "Pizzeria Napoli"}})
	})
	mux.HandleFunc("GET /countries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []string{"India", "Brazil"})
	})
	return mux
}

// Uploads returns the sizes of photos the backend received.
func (e *E2ETestEnv) Uploads() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.uploads...)
}

func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "tastyfind-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	for _, name := range []string{"tastyfind", "tastyfindd"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		if out, err := cmd.CombinedOutput(); err != nil {
			e.T.Fatalf("failed to build %s: %v\n%s", name, err, out)
		}
	}
}

func (e *E2ETestEnv) environ() []string {
	return append(os.Environ(),
		"TASTYFIND_API_URL="+e.Backend.URL,
		"TASTYFIND_S3_ENDPOINT="+e.RustFSC.Endpoint(),
		"TASTYFIND_S3_ACCESS_KEY_ID="+testutil.RustFSAccessKey,
		"TASTYFIND_S3_SECRET_ACCESS_KEY="+testutil.RustFSSecretKey,
		"TASTYFIND_S3_REGION="+testutil.RustFSRegion,
		"XDG_CONFIG_HOME="+e.ConfigDir,
		"HOME="+e.ConfigDir,
	)
}

func (e *E2ETestEnv) RunTastyfind(args ...string) (string, error) {
	return e.RunTastyfindWithInput("", args...)
}

func (e *E2ETestEnv) RunTastyfindWithInput(input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "tastyfind"), args...)
	cmd.Dir = e.ConfigDir
	cmd.Stdin = bytes.NewReader([]byte(input))
	cmd.Env = e.environ()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Daemon is a running tastyfindd process and a browser-like client for it.
type Daemon struct {
	URL    string
	Client *http.Client
	cmd    *exec.Cmd
}

// StartDaemon runs tastyfindd serve and waits until /health answers.
func (e *E2ETestEnv) StartDaemon() *Daemon {
	port, err := getFreePort()
	if err != nil {
		e.T.Fatalf("failed to get free port: %v", err)
	}

	cmd := exec.Command(filepath.Join(e.BinaryDir, "tastyfindd"), "serve", "--port", strconv.Itoa(port))
	cmd.Dir = e.ConfigDir
	cmd.Env = append(e.environ(), "TASTYFIND_ENV=local")
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		e.T.Fatalf("failed to start tastyfindd: %v", err)
	}

	jar, _ := cookiejar.New(nil)
	d := &Daemon{
		URL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		Client: &http.Client{Timeout: 30 * time.Second, Jar: jar},
		cmd:    cmd,
	}
	e.T.Cleanup(d.Stop)

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := d.Client.Get(d.URL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return d
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("tastyfindd did not become healthy")
	return nil
}

func (d *Daemon) Stop() {
	if d.cmd == nil || d.cmd.Process == nil {
		return
	}
	_ = d.cmd.Process.Signal(os.Interrupt)
	done := make(chan struct{})
	go func() {
		_ = d.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = d.cmd.Process.Kill()
	}
	d.cmd = nil
}

// PostForm submits a form and follows the redirect back to the page.
func (d *Daemon) PostForm(path string, values url.Values) (string, error) {
	resp, err := d.Client.PostForm(d.URL+path, values)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	return string(body), nil
}

// StateResponse is the data envelope of GET /api/state.
type StateResponse struct {
	Data struct {
		Mode      string              `json:"mode"`
		Error     string              `json:"error"`
		Page      int                 `json:"page"`
		PageSize  int                 `json:"page_size"`
		Paginable bool                `json:"paginable"`
		Ranked    bool                `json:"ranked"`
		Results   []domain.Restaurant `json:"results"`
		HasNext   bool                `json:"has_next"`
		HasPrev   bool                `json:"has_prev"`
	} `json:"data"`
}

func (d *Daemon) State() (*StateResponse, error) {
	resp, err := d.Client.Get(d.URL + "/api/state")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var st StateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
