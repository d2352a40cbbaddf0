package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-liveness/pkg/session"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/liveness", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(session.Info{ID: "s1", Facing: "front"})
	})
	mux.HandleFunc("GET /api/liveness/s1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(session.Info{ID: "s1"})
	})
	mux.HandleFunc("DELETE /api/liveness/s1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(session.Info{ID: "s1"})
	})
	mux.HandleFunc("GET /api/liveness/s1/photo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF})
	})
	mux.HandleFunc("GET /api/liveness/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"session: not found"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL+"/", nil)
	ctx := context.Background()

	info, err := c.CreateSession(ctx, "front")
	if err != nil || info.ID != "s1" {
		t.Fatalf("CreateSession = %+v, %v", info, err)
	}
	if _, err := c.GetSession(ctx, "s1"); err != nil {
		t.Errorf("GetSession error: %v", err)
	}
	if _, err := c.CancelSession(ctx, "s1"); err != nil {
		t.Errorf("CancelSession error: %v", err)
	}

	data, err := c.Photo(ctx, "s1")
	if err != nil {
		t.Fatalf("Photo error: %v", err)
	}
	if len(data) != 3 || data[0] != 0xFF {
		t.Errorf("unexpected photo bytes: %v", data)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, nil)

	_, err := c.GetSession(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "session: not found" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}
