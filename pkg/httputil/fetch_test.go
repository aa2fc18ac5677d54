package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

var fastRetry = Options{Delay: time.Millisecond}

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/omni.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Omni","version":"1"}`))
	})
	mux.HandleFunc("/omni", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Write([]byte("name: Omni\nversion: '1'\n"))
	})
	mux.HandleFunc("/omni.toml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("name = \"Omni\"\nversion = \"1\"\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		path       string
		wantFormat string
	}{
		{"/omni.json", "json"},
		{"/omni", "yaml"},
		{"/omni.toml", "toml"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := Fetch(context.Background(), srv.Client(), srv.URL+tt.path, fastRetry)
			if err != nil {
				t.Fatalf("Fetch() error: %v", err)
			}
			if doc.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", doc.Format, tt.wantFormat)
			}
			if !strings.Contains(string(doc.Data), "Omni") {
				t.Errorf("Data = %q, want schema body", doc.Data)
			}
			if doc.URL != srv.URL+tt.path {
				t.Errorf("URL = %q, want %q", doc.URL, srv.URL+tt.path)
			}
		})
	}
}

func TestFetchRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.Client(), srv.URL+"/x.json", fastRetry); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestFetchErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		name string
		url  string
		opts Options
		want errors.Code
	}{
		{"not found", srv.URL + "/missing", fastRetry, errors.ErrCodeNotFound},
		{"server down", srv.URL + "/down", fastRetry, errors.ErrCodeNetworkError},
		{"forbidden", srv.URL + "/forbidden", fastRetry, errors.ErrCodeNetworkError},
		{"too large", srv.URL + "/big", Options{MaxBytes: 16, Delay: time.Millisecond}, errors.ErrCodeInvalidInput},
		{"bad scheme", "ftp://example.com/x.json", fastRetry, errors.ErrCodeInvalidInput},
		{"no host", "http://", fastRetry, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fetch(context.Background(), srv.Client(), tt.url, tt.opts)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("code = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("404 fetched %d times, want 1", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		contentType, path, want string
	}{
		{"application/json", "/a", "json"},
		{"application/schema+json", "/a.yaml", "json"},
		{"application/x-yaml", "/a", "yaml"},
		{"application/toml", "/a.json", "toml"},
		{"text/plain", "/a.YML", "yaml"},
		{"", "/a.toml", "toml"},
		{"", "/a", "json"},
	}
	for _, tt := range tests {
		if got := detectFormat(tt.contentType, tt.path); got != tt.want {
			t.Errorf("detectFormat(%q, %q) = %q, want %q", tt.contentType, tt.path, got, tt.want)
		}
	}
}

func TestIsURL(t *testing.T) {
	for s, want := range map[string]bool{
		"https://x/y.json": true,
		"http://x":         true,
		"omni.json":        false,
		"./http.json":      false,
	} {
		if got := IsURL(s); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", s, got, want)
		}
	}
}
