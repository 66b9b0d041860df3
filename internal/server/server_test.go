package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/logging"
	"github.com/backmassage/galleryscan/internal/manifest"
	"github.com/backmassage/galleryscan/internal/pipeline"
	"github.com/backmassage/galleryscan/internal/probe"
)

func TestHealthHandler_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)

	HealthHandler().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

// gallery is a checker over a fixed set of targets that counts probes.
type gallery struct {
	present map[string]bool
	probes  atomic.Int64
}

func newGallery(targets ...string) *gallery {
	g := &gallery{present: make(map[string]bool)}
	for _, t := range targets {
		g.present[t] = true
	}
	return g
}

func (g *gallery) Exists(_ context.Context, target string) bool {
	g.probes.Add(1)
	return g.present[target]
}

func newTestServer(t *testing.T, checker probe.Checker) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Base = "https://cdn.example.com/g"
	cfg.MaxIndex = 20
	cfg.BatchSize = 4
	return newServerFor(t, &cfg, checker)
}

func newServerFor(t *testing.T, cfg *config.Config, checker probe.Checker) *Server {
	t.Helper()
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(cfg)
	require.NoError(t, err)
	log.SetOutput(&bytes.Buffer{})
	return New(cfg, checker, log)
}

func TestDiscover_JSON(t *testing.T) {
	g := newGallery("https://cdn.example.com/g/1.jpg", "https://cdn.example.com/g/2.webp")
	srv := newTestServer(t, g)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var m manifest.Manifest
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	require.Len(t, m.Items, 2)
	assert.Equal(t, "https://cdn.example.com/g/2.webp", m.Items[1].Path)
	assert.Equal(t, pipeline.StopGap, m.Stop)
	assert.Equal(t, "https://cdn.example.com/g", m.Base)
}

func TestDiscover_QueryOverrides(t *testing.T) {
	g := newGallery("https://cdn.example.com/g/1.png", "https://cdn.example.com/g/3.png")
	srv := newTestServer(t, g)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?ext=.PNG&max=5&batch=1&format=text", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://cdn.example.com/g/1.png\n", rr.Body.String(), "sequential scan stops at the gap at 2")
	assert.EqualValues(t, 2, g.probes.Load())
}

func TestDiscover_BadQuery(t *testing.T) {
	srv := newTestServer(t, newGallery())
	for _, q := range []string{"max=-1", "max=abc", "max=999999999", "batch=0", "batch=x", "format=xml"} {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestDiscover_TraversalExtRejected(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "gallery")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "1.d"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "1.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("x"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Base = filepath.ToSlash(base)
	checker, err := probe.FromConfig(&cfg)
	require.NoError(t, err)
	srv := newServerFor(t, &cfg, checker)

	for _, q := range []string{
		"ext=d/../../secret.txt&max=5",
		"ext=" + url.QueryEscape("d/../../secret.txt") + "&max=5",
		"ext=jpg&ext=tar.gz&max=5",
	} {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.NotContains(t, rr.Body.String(), "secret.txt\n", q)
	}

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?ext=jpg&max=5&format=text", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, cfg.Base+"/1.jpg\n", rr.Body.String())
}

func TestDiscover_OversizedQueryRejected(t *testing.T) {
	g := newGallery("https://cdn.example.com/g/1.jpg")
	srv := newTestServer(t, g)

	var tooMany []string
	for i := 0; i <= config.MaxExtensions; i++ {
		tooMany = append(tooMany, "ext=x"+strconv.Itoa(i))
	}
	for _, q := range []string{
		"max=5&batch=9223372036854775807",
		"batch=" + strconv.Itoa(config.MaxBatchSize+1),
		strings.Join(tooMany, "&"),
	} {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
	assert.Zero(t, g.probes.Load(), "rejected requests never reach the backend")

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?batch="+strconv.Itoa(config.MaxBatchSize), nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDiscover_BadFormatRejectedBeforeScan(t *testing.T) {
	g := newGallery("https://cdn.example.com/g/1.jpg")
	srv := newTestServer(t, g)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?format=xml", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, g.probes.Load())
}

// peakGallery reports every target present after a short delay and records
// the highest number of concurrent calls.
type peakGallery struct {
	active atomic.Int64
	peak   atomic.Int64
}

func (p *peakGallery) Exists(_ context.Context, _ string) bool {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return true
}

func TestDiscover_DefaultInFlightLimit(t *testing.T) {
	p := &peakGallery{}
	srv := newTestServer(t, p)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("GET", "/api/discover?ext=jpg&ext=png&ext=webp&batch=20", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.LessOrEqual(t, p.peak.Load(), int64(config.DefaultServerInFlight))
	assert.Positive(t, p.peak.Load())
}

func TestDiscover_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newGallery())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("POST", "/api/discover", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET", rr.Header().Get("Allow"))
}

func TestDiscoverWS_StreamsBatchesThenDone(t *testing.T) {
	var targets []string
	for i := 1; i <= 6; i++ {
		targets = append(targets, "https://cdn.example.com/g/"+string(rune('0'+i))+".jpg")
	}
	ts := httptest.NewServer(newTestServer(t, newGallery(targets...)))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/discover/ws?batch=3"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var batches []pipeline.BatchReport
	var done *manifest.Manifest
	for done == nil {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "batch":
			require.NotNil(t, msg.Batch)
			batches = append(batches, *msg.Batch)
		case "done":
			done = msg.Manifest
			require.NotNil(t, done)
		default:
			t.Fatalf("unexpected message type %q", msg.Type)
		}
	}

	require.Len(t, batches, 3, "1-3, 4-6, then the empty 7-9")
	assert.Len(t, batches[0].Found, 3)
	assert.Empty(t, batches[2].Found)
	assert.Len(t, done.Items, 6)
	assert.Equal(t, pipeline.StopGap, done.Stop)
}

func TestDiscoverWS_BadQueryRejectedBeforeUpgrade(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, newGallery()))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/discover/ws?batch=0"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(&cfg)
	require.NoError(t, err)
	log.SetOutput(&bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ListenAndServe(ctx, "127.0.0.1:0", HealthHandler(), log) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestDiscover_RefreshPurgesCache(t *testing.T) {
	g := newGallery("https://cdn.example.com/g/1.jpg")
	cached, err := probe.NewCachedChecker(g, 64, 0)
	require.NoError(t, err)
	srv := newTestServer(t, cached)

	get := func(target string) {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest("GET", target, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	get("/api/discover?ext=jpg&batch=1")
	first := g.probes.Load()
	get("/api/discover?ext=jpg&batch=1")
	assert.Equal(t, first, g.probes.Load(), "second scan served from cache")

	g.present["https://cdn.example.com/g/2.jpg"] = true
	get("/api/discover?ext=jpg&batch=1&refresh=1")
	assert.Greater(t, g.probes.Load(), first, "refresh re-probes the backend")
}
