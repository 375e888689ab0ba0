package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExporter struct {
	lookback time.Duration
	err      error
}

func (f *fakeExporter) Export(_ context.Context, w io.Writer, lookback time.Duration) (int, error) {
	f.lookback = lookback
	if f.err != nil {
		return 0, f.err
	}
	_, err := io.WriteString(w, "id;service_name\n1;Стрижка\n")
	return 1, err
}

var testNow = time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)

func newTestServer(exp Exporter) (*Server, *LinkSigner) {
	signer := NewLinkSigner("secret", time.Hour)
	s := NewServer(":0", exp, signer, 30*24*time.Hour, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s, signer
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(&fakeExporter{})
	rec := get(t, s.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestExport(t *testing.T) {
	exp := &fakeExporter{}
	s, signer := newTestServer(exp)
	token, err := signer.Issue(testNow.Add(-time.Minute))
	require.NoError(t, err)

	rec := get(t, s.Router(), "/export.csv?token="+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reservations_2026-01-12.csv")
	assert.Equal(t, "1", rec.Header().Get("X-Rows"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id;service_name"))
	assert.Equal(t, 30*24*time.Hour, exp.lookback)
}

func TestExport_Unauthorized(t *testing.T) {
	s, signer := newTestServer(&fakeExporter{})
	router := s.Router()

	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/export.csv").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/export.csv?token=garbage").Code)

	expired, err := signer.Issue(testNow.Add(-2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/export.csv?token="+expired).Code)

	foreign, err := NewLinkSigner("other", time.Hour).Issue(testNow)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/export.csv?token="+foreign).Code)
}

func TestExport_Failure(t *testing.T) {
	s, signer := newTestServer(&fakeExporter{err: errors.New("db down")})
	token, err := signer.Issue(testNow)
	require.NoError(t, err)

	rec := get(t, s.Router(), "/export.csv?token="+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", &fakeExporter{}, NewLinkSigner("secret", 0), time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
