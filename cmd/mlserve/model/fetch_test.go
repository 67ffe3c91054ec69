package model_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quaark/mlrun-remote-project/cmd/mlserve/model"
)

func TestFetch(t *testing.T) {
	t.Run("it downloads a model artifact with the run token", func(t *testing.T) {
		gotAuth := ""
		svr := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"coefficients": [1, 2, 3], "intercept": 0.5}`))
			},
		))
		defer svr.Close()

		ctx := context.Background()
		m, err := model.Fetch(ctx, svr.URL+"/api/artifacts/some-project/run-id-1/model.json", "fake-token")
		if err != nil {
			t.Fatalf("unexpected error: %s (%+v)", err.Error(), err)
		}

		if gotAuth != "Bearer fake-token" {
			t.Errorf(`Authorization header: got "%s", want "Bearer fake-token"`, gotAuth)
		}
		if m.Arity() != 3 {
			t.Errorf("arity: got %d, want 3", m.Arity())
		}
	})

	t.Run("it sends no Authorization header without a token", func(t *testing.T) {
		sentAuth := false
		svr := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				_, sentAuth = r.Header["Authorization"]
				w.Write([]byte(`{"coefficients": [1]}`))
			},
		))
		defer svr.Close()

		if _, err := model.Fetch(context.Background(), svr.URL, ""); err != nil {
			t.Fatalf("unexpected error: %s (%+v)", err.Error(), err)
		}
		if sentAuth {
			t.Error("Authorization header is sent for empty token")
		}
	})

	t.Run("it fails on non-200 response", func(t *testing.T) {
		svr := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		))
		defer svr.Close()

		if _, err := model.Fetch(context.Background(), svr.URL, "expired-token"); err == nil {
			t.Error("no error for status 401")
		}
	})

	t.Run("it fails on malformed artifact", func(t *testing.T) {
		svr := httptest.NewServer(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not a model`))
			},
		))
		defer svr.Close()

		if _, err := model.Fetch(context.Background(), svr.URL, "fake-token"); err == nil {
			t.Error("no error for malformed artifact")
		}
	})
}
