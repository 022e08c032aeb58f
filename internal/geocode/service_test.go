package geocode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealradar/dealradar/internal/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: slog.LevelError})
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "dealradar-test/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		if q := r.URL.Query().Get("q"); q != "Brigade Road, Bengaluru" {
			t.Errorf("q = %q", q)
		}
		if limit := r.URL.Query().Get("limit"); limit != "1" {
			t.Errorf("limit = %q", limit)
		}
		w.Write([]byte(`[{"lat":"12.9718","lon":"77.6081","display_name":"Brigade Road, Bengaluru"}]`)) //nolint:errcheck
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "dealradar-test/1.0", newTestLogger())

	coord, err := svc.Resolve(context.Background(), "Brigade Road, Bengaluru")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if coord.Lat != 12.9718 || coord.Lng != 77.6081 {
		t.Errorf("coordinate = %+v", coord)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "dealradar-test/1.0", newTestLogger())

	_, err := svc.Resolve(context.Background(), "Atlantis")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrLocationNotFound", err)
	}
}

func TestResolveServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "dealradar-test/1.0", newTestLogger())

	_, err := svc.Resolve(context.Background(), "Brigade Road")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrUnavailable", err)
	}
}

func TestResolveUnreachable(t *testing.T) {
	svc := NewService("http://127.0.0.1:1", "dealradar-test/1.0", newTestLogger())

	_, err := svc.Resolve(context.Background(), "Brigade Road")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrUnavailable", err)
	}
}

func TestResolveMalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"east"}]`)) //nolint:errcheck
	}))
	defer srv.Close()

	svc := NewService(srv.URL, "dealradar-test/1.0", newTestLogger())

	_, err := svc.Resolve(context.Background(), "Brigade Road")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrUnavailable", err)
	}
}
