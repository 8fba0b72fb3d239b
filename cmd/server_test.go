package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/store"
)

const testCSV = "name,city\nAcme,\n,NYC\n"

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()

	env := &enrichEnv{
		Enricher: enrich.NewRowEnricher(&enrich.StubDiscoveryClient{}, &enrich.StubExtractionClient{}, 0),
		Creds:    enrich.Credentials{DiscoveryKey: "offline", ExtractionKey: "offline"},
	}
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	s := newServer(context.Background(), env, st, 0, 5)
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return s, ts
}

func postCSV(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/tables", "text/csv", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", nil)
	require.NoError(t, err)
	return resp
}

func decodeStatus(t *testing.T, resp *http.Response) enrich.Status {
	t.Helper()
	defer resp.Body.Close()
	var st enrich.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestServerHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerUpload(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postCSV(t, ts, testCSV)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Rows         int      `json:"rows"`
		Columns      []string `json:"columns"`
		EntityColumn string   `json:"entity_column"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Rows)
	assert.Equal(t, []string{"name", "city"}, body.Columns)
	assert.Equal(t, "name", body.EntityColumn)
}

func TestServerUploadBadCSV(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postCSV(t, ts, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerStartWithoutTable(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts, "/pipeline/start")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerRunToCompletion(t *testing.T) {
	_, ts := newTestServer(t)

	postCSV(t, ts, testCSV).Body.Close()
	resp := post(t, ts, "/pipeline/start")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/pipeline/status")
		if err != nil {
			return false
		}
		return decodeStatus(t, r).State == enrich.StateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	r, err := http.Get(ts.URL + "/pipeline/result")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
}

func TestServerResultBeforeCompletion(t *testing.T) {
	_, ts := newTestServer(t)

	postCSV(t, ts, testCSV).Body.Close()
	r, err := http.Get(ts.URL + "/pipeline/result")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusConflict, r.StatusCode)
}

func TestServerUploadWhileBusy(t *testing.T) {
	s, ts := newTestServer(t)

	// Slow discovery so the run stays in processing.
	s.env.Enricher = enrich.NewRowEnricher(
		&enrich.StubDiscoveryClient{Delay: 200 * time.Millisecond},
		&enrich.StubExtractionClient{}, 0)

	postCSV(t, ts, testCSV).Body.Close()
	post(t, ts, "/pipeline/start").Body.Close()

	resp := postCSV(t, ts, testCSV)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	post(t, ts, "/pipeline/stop").Body.Close()
}

func TestServerPauseAndStop(t *testing.T) {
	s, ts := newTestServer(t)
	s.env.Enricher = enrich.NewRowEnricher(
		&enrich.StubDiscoveryClient{Delay: 100 * time.Millisecond},
		&enrich.StubExtractionClient{}, 0)

	postCSV(t, ts, "name\nAcme\nGlobex\nInitech\n").Body.Close()
	post(t, ts, "/pipeline/start").Body.Close()

	resp := post(t, ts, "/pipeline/pause")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, enrich.StatePaused, decodeStatus(t, resp).State)

	resp = post(t, ts, "/pipeline/stop")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decodeStatus(t, resp)
	assert.Equal(t, enrich.StateIdle, st.State)
	assert.Zero(t, st.Cursor)
}

func TestServerPauseWhenIdle(t *testing.T) {
	_, ts := newTestServer(t)

	postCSV(t, ts, testCSV).Body.Close()
	resp := post(t, ts, "/pipeline/pause")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServerRunsHistory(t *testing.T) {
	s, ts := newTestServer(t)

	postCSV(t, ts, testCSV).Body.Close()
	post(t, ts, "/pipeline/start").Body.Close()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		p := s.pipeline
		s.mu.Unlock()
		return p.Status().State == enrich.StateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	// The watcher records history after the driver exits.
	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/runs")
		if err != nil {
			return false
		}
		defer r.Body.Close()
		var runs []json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&runs); err != nil {
			return false
		}
		return len(runs) == 1
	}, 5*time.Second, 10*time.Millisecond)
}
