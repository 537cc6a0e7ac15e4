package exercise

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantBody     string
		wantStatus   int
		wantRequests int32
	}{
		{
			name:         "success",
			statuses:     []int{http.StatusOK},
			wantBody:     `{"title":"ok"}`,
			wantRequests: 1,
		},
		{
			name:         "retries server errors",
			statuses:     []int{http.StatusBadGateway, http.StatusOK},
			wantBody:     `{"title":"ok"}`,
			wantRequests: 2,
		},
		{
			name:         "does not retry not found",
			statuses:     []int{http.StatusNotFound},
			wantStatus:   http.StatusNotFound,
			wantRequests: 1,
		},
		{
			name:         "gives up after the last attempt",
			statuses:     []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError},
			wantStatus:   http.StatusInternalServerError,
			wantRequests: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := requests.Add(1)
				assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
				status := tt.statuses[min(int(n), len(tt.statuses))-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"title":"ok"}`))
				}
			}))
			defer server.Close()

			fetcher := NewHTTPFetcher(5*time.Second, 3, []string{serverHost(t, server)})
			defer fetcher.Close()

			got, err := fetcher.Fetch(context.Background(), server.URL+"/data.json")
			assert.Equal(t, tt.wantRequests, requests.Load())
			if tt.wantStatus != 0 {
				var fetchErr *FetchError
				require.True(t, errors.As(err, &fetchErr))
				assert.Equal(t, tt.wantStatus, fetchErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantBody, string(got))
		})
	}
}

func serverHost(t *testing.T, server *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return u.Host
}

func TestHTTPFetcher_AllowedHosts(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte(`{"title":"ok"}`))
	}))
	defer server.Close()
	host := serverHost(t, server)

	tests := []struct {
		name         string
		allowedHosts []string
		location     string
		wantErr      bool
		wantRequests int32
	}{
		{
			name:         "listed host and port",
			allowedHosts: []string{host},
			location:     server.URL + "/data.json",
			wantRequests: 1,
		},
		{
			name:         "listed host matches any port",
			allowedHosts: []string{"127.0.0.1"},
			location:     server.URL + "/data.json",
			wantRequests: 1,
		},
		{
			name:         "host names are case insensitive",
			allowedHosts: []string{"EXAMPLE.org", "127.0.0.1"},
			location:     server.URL + "/data.json",
			wantRequests: 1,
		},
		{
			name:         "unlisted host",
			allowedHosts: []string{"example.org"},
			location:     server.URL + "/data.json",
			wantErr:      true,
		},
		{
			name:         "metadata endpoint",
			allowedHosts: []string{host},
			location:     "http://169.254.169.254/latest/meta-data/",
			wantErr:      true,
		},
		{
			name:         "file scheme",
			allowedHosts: []string{host},
			location:     "file:///etc/passwd",
			wantErr:      true,
		},
		{
			name:     "nothing allowed",
			location: server.URL + "/data.json",
			wantErr:  true,
		},
		{
			name:         "redirect to an unlisted host",
			allowedHosts: []string{host},
			location:     server.URL + "/redirect",
			wantErr:      true,
			wantRequests: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests.Store(0)
			fetcher := NewHTTPFetcher(5*time.Second, 3, tt.allowedHosts)
			defer fetcher.Close()

			got, err := fetcher.Fetch(context.Background(), tt.location)
			assert.Equal(t, tt.wantRequests, requests.Load())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrURLNotAllowed)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, `{"title":"ok"}`, string(got))
		})
	}
}

func TestFileFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"title":"json"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("title: yaml\nitems:\n  - id: a\n    text: A\n"), 0644))

	tests := []struct {
		name     string
		location string
		want     string
		wantErr  bool
	}{
		{name: "json file", location: "a.json", want: `{"title":"json"}`},
		{name: "yaml file is converted", location: "b.yml", want: `{"title":"yaml","items":[{"id":"a","text":"A"}]}`},
		{name: "absolute file url", location: "file://" + filepath.Join(dir, "a.json"), want: `{"title":"json"}`},
		{name: "missing file", location: "missing.json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFileFetcher(dir).Fetch(context.Background(), tt.location)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
