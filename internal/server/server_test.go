// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/config"
)

type flagDrainer struct{ draining bool }

func (f *flagDrainer) SetShutdown(shutdown bool) { f.draining = shutdown }

func newTestServer(d Drainer) *Server {
	return New(Config{
		ServerConfig: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		HealthHandler: d,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestServer_RecoversPanics(t *testing.T) {
	s := newTestServer(nil)
	s.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("nil map write")
	})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestServer_ShutdownDrainsFirst(t *testing.T) {
	d := &flagDrainer{}
	s := newTestServer(d)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Shutdown(ctx, 0))
	assert.True(t, d.draining)
}

func TestServer_Address(t *testing.T) {
	s := newTestServer(nil)
	assert.Equal(t, "127.0.0.1:0", s.httpSrv.Addr)
}
