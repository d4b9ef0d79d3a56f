package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "cryptodesk/1.0" {
			t.Errorf("User-Agent = %q, want cryptodesk/1.0", got)
		}
		if got := r.Header.Get("X-Key"); got != "secret" {
			t.Errorf("X-Key = %q, want secret", got)
		}
		w.Write([]byte(`{"price":"1.5"}`))
	}))
	defer srv.Close()

	var out struct {
		Price string `json:"price"`
	}
	h := http.Header{}
	h.Set("X-Key", "secret")

	if err := New(time.Second).GetJSON(context.Background(), srv.URL, h, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Price != "1.5" {
		t.Errorf("Price = %q, want 1.5", out.Price)
	}
}

func TestClient_GetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out map[string]any
	err := New(time.Second).GetJSON(context.Background(), srv.URL, nil, &out)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("GetJSON() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
}

func TestClient_GetJSON_Failures(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		handler http.HandlerFunc
	}{
		{
			name:    "malformed body",
			timeout: time.Second,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
		},
		{
			name:    "timeout",
			timeout: 50 * time.Millisecond,
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(time.Second):
				case <-r.Context().Done():
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var out map[string]any
			if err := New(tt.timeout).GetJSON(context.Background(), srv.URL, nil, &out); err == nil {
				t.Error("GetJSON() expected an error")
			}
		})
	}
}
