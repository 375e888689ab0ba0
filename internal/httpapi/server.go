// Package httpapi служебный HTTP-сервер админ-бота: проверка живости
// и выгрузка CSV по подписанной ссылке.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Exporter пишет CSV-выгрузку записей
type Exporter interface {
	Export(ctx context.Context, w io.Writer, lookback time.Duration) (int, error)
}

// Verifier проверяет токен ссылки
type Verifier interface {
	Verify(token string, now time.Time) error
}

// Server HTTP-сервер выгрузки
type Server struct {
	addr     string
	exporter Exporter
	verifier Verifier
	lookback time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewServer(addr string, exporter Exporter, verifier Verifier, lookback time.Duration, logger *zap.Logger) *Server {
	return &Server{
		addr:     addr,
		exporter: exporter,
		verifier: verifier,
		lookback: lookback,
		logger:   logger,
		now:      time.Now,
	}
}

// Router собирает маршруты сервера
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/export.csv", s.handleExport)
	return r
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if err := s.verifier.Verify(token, s.now()); err != nil {
		s.logger.Warn("Export link rejected", zap.Error(err))
		http.Error(w, "invalid or expired link", http.StatusUnauthorized)
		return
	}

	// Выгрузка собирается целиком, чтобы ошибка базы не оборвала уже начатый ответ
	var buf bytes.Buffer
	n, err := s.exporter.Export(r.Context(), &buf, s.lookback)
	if err != nil {
		s.logger.Error("Export failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := "reservations_" + s.now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("X-Rows", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("Failed to write export response", zap.Error(err))
	}
}

// Run слушает addr до отмены ctx и затем мягко останавливается
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
