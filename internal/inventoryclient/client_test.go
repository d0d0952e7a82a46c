package inventoryclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/posflow/internal/domain"
)

func TestReserve(t *testing.T) {
	t.Run("posts the quantity", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/products/SKU-1/reserve" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body map[string]int
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["quantity"] != 3 {
				t.Errorf("expected quantity 3, got %d", body["quantity"])
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := New(server.URL, server.Client())
		if err := client.Reserve(context.Background(), "SKU-1", 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("conflict maps to insufficient stock", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		client := New(server.URL, server.Client())
		err := client.Reserve(context.Background(), "SKU-1", 3)
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Errorf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("not found is not an insufficient-stock error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := New(server.URL, server.Client())
		err := client.Reserve(context.Background(), "missing", 1)
		if err == nil || errors.Is(err, domain.ErrInsufficientStock) {
			t.Errorf("expected plain error, got %v", err)
		}
	})
}

func TestRelease(t *testing.T) {
	t.Run("posts to release", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/products/SKU-1/release" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := New(server.URL, server.Client())
		if err := client.Release(context.Background(), "SKU-1", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("propagates service errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := New(server.URL, server.Client())
		if err := client.Release(context.Background(), "SKU-1", 2); err == nil {
			t.Error("expected error for 500 response")
		}
	})
}
