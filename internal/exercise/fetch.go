package exercise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"gopkg.in/yaml.v3"
	"resty.dev/v3"
)

//go:generate mockgen -source=fetch.go -destination=../mocks/exercise/mock_fetcher.go -package=mock_exercise

// Fetcher retrieves the raw JSON document behind a data URL.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher always revalidates and retries transient failures. It only
// talks to http(s) URLs on its allowed hosts, redirects included.
type HTTPFetcher struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
	allowedHosts     map[string]struct{}
}

// NewHTTPFetcher accepts allowedHosts as either "host" or "host:port"; a bare
// host matches any port.
func NewHTTPFetcher(timeout time.Duration, retryAttempts uint, allowedHosts []string) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Cache-Control", "no-cache")
	client.SetHeader("Pragma", "no-cache")
	client.SetHeader("Accept", "application/json")

	// retry-go treats zero attempts as unlimited.
	if retryAttempts == 0 {
		retryAttempts = 1
	}
	f := &HTTPFetcher{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
		allowedHosts:     make(map[string]struct{}, len(allowedHosts)),
	}
	for _, host := range allowedHosts {
		f.allowedHosts[strings.ToLower(host)] = struct{}{}
	}
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
			return f.checkURL(req.URL)
		}),
	)
	return f
}

func (f *HTTPFetcher) Close() error {
	return f.httpClient.Close()
}

// checkURL rejects anything but http(s) on an allowed host.
func (f *HTTPFetcher) checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrURLNotAllowed, u.Scheme)
	}
	if _, ok := f.allowedHosts[strings.ToLower(u.Host)]; ok {
		return nil
	}
	if _, ok := f.allowedHosts[strings.ToLower(u.Hostname())]; ok {
		return nil
	}
	return fmt.Errorf("%w: host %q", ErrURLNotAllowed, u.Host)
}

func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrURLNotAllowed, err)
	}
	if err := f.checkURL(u); err != nil {
		return nil, err
	}

	var body []byte
	var lastErr error
	err = retry.Do(
		func() error {
			data, err := f.fetch(ctx, location)
			if err != nil {
				lastErr = err
				if !isRetryableFetchError(err) {
					return retry.Unrecoverable(err)
				}
				slog.Default().Debug("retrying exercise fetch", "data", location, "error", err)
				return err
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.maxRetryAttempts),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("retry.Do() > %w", err)
	}
	return body, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, location string) ([]byte, error) {
	response, err := f.httpClient.R().
		SetContext(ctx).
		Get(location)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get > %w", err)
	}
	if !response.IsSuccess() {
		return nil, &FetchError{URL: location, StatusCode: response.StatusCode()}
	}
	return response.Bytes(), nil
}

// isRetryableFetchError retries server errors and transport failures, never other statuses
// or blocked redirects.
func isRetryableFetchError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrURLNotAllowed) {
		return false
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode >= http.StatusInternalServerError || fetchErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// FileFetcher reads documents from disk. YAML files are converted to JSON.
type FileFetcher struct {
	root string
}

// NewFileFetcher resolves relative locations against root; an empty root means the working directory.
func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{root: root}
}

func (f *FileFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	path := strings.TrimPrefix(location, "file://")
	if f.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal() > %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal() > %w", err)
		}
		return converted, nil
	default:
		return data, nil
	}
}
