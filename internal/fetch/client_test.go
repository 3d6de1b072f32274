package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kx0101/subdiff/internal/matrix"
	"github.com/kx0101/subdiff/internal/models"
)

func newClient(t *testing.T, side models.Side, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()

	c, err := NewClient(side, srv.URL, 5*time.Second, opts...)
	require.NoError(t, err)
	return c
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sub":
			assert.Equal(t, "clash", r.URL.Query().Get("target"))
			assert.Equal(t, "s3cret", r.URL.Query().Get("token"))
			_, _ = w.Write([]byte("proxies: []\n"))
		case "/nodes":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("No valid proxies found"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(strings.Repeat("x", 500)))
		}
	}))
	defer server.Close()

	c := newClient(t, models.Candidate, server, WithToken("s3cret"))

	t.Run("ok", func(t *testing.T) {
		resp := c.Get(context.Background(), "/sub", url.Values{"target": {"clash"}})
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, "proxies: []\n", resp.Body)
		assert.Empty(t, resp.Err)
	})

	t.Run("accepted 400", func(t *testing.T) {
		resp := c.Get(context.Background(), "/nodes", nil)
		assert.Equal(t, 400, resp.Status)
		assert.Equal(t, "No valid proxies found", resp.Body)
	})

	t.Run("unaccepted status becomes status 0", func(t *testing.T) {
		resp := c.Get(context.Background(), "/boom", nil)
		assert.True(t, resp.FetchFailed())
		assert.Equal(t, 0, resp.Status)
		assert.Empty(t, resp.Body)
		assert.Equal(t, "GET /boom returned 500: "+strings.Repeat("x", 200), resp.Err)
	})
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := newClient(t, models.Reference, server)
	resp := c.Get(context.Background(), "/sub", nil)
	assert.True(t, resp.FetchFailed())
	assert.NotEmpty(t, resp.Err)
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newClient(t, models.Candidate, server, WithRateLimit(5))

	start := time.Now()
	for range 3 {
		c.Get(context.Background(), "/", nil)
	}
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(models.Candidate, "ftp://example.com", time.Second)
	assert.Error(t, err)
}

func TestPair_ReferenceFallback(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := r.URL.Query().Get("url")
		calls = append(calls, u)
		if !strings.HasPrefix(u, "http") {
			_, _ = w.Write([]byte("DOMAIN,a.com\n"))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	p := &Pair{
		Candidate: newClient(t, models.Candidate, server),
		Reference: newClient(t, models.Reference, server),
	}

	c := matrix.RulesetCase("http://mock")
	resp := p.Fetch(context.Background(), models.Reference, c)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, []string{"http://mock/test_rules.list", c.Params.Get("url")}, calls)

	calls = nil
	resp = p.Fetch(context.Background(), models.Candidate, c)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, []string{c.Params.Get("url")}, calls)
}

func TestPair_Prepare(t *testing.T) {
	var reloads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readconf" {
			reloads.Add(1)
		}
	}))
	defer server.Close()

	p := &Pair{
		Candidate: newClient(t, models.Candidate, server),
		Reference: newClient(t, models.Reference, server),
	}

	require.NoError(t, p.Prepare(context.Background(), matrix.Scenario{Name: "exclude"}))
	assert.Equal(t, int32(0), reloads.Load())

	p.Reload = true
	require.NoError(t, p.Prepare(context.Background(), matrix.Scenario{Name: "exclude"}))
	assert.Equal(t, int32(2), reloads.Load())
}

func TestPair_PrepareWritesOverlay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	p := &Pair{OverlayDir: dir}

	sc := matrix.Scenario{Name: "exclude", Pref: map[string]any{"common.exclude_remarks": []string{"HK"}}}
	require.NoError(t, p.Prepare(context.Background(), sc))

	data, err := os.ReadFile(filepath.Join(dir, "exclude.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "common:\n    exclude_remarks:\n        - HK\n", string(data))

	require.NoError(t, p.Prepare(context.Background(), matrix.Scenario{Name: "plain"}))
	_, err = os.Stat(filepath.Join(dir, "plain.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestPair_PrepareFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := &Pair{
		Candidate: newClient(t, models.Candidate, server),
		Reference: newClient(t, models.Reference, server),
		Reload:    true,
	}

	err := p.Prepare(context.Background(), matrix.Scenario{Name: "rename"})
	assert.ErrorContains(t, err, "reloading candidate")
}
