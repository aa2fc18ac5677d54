package httputil

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

const (
	// DefaultMaxBytes bounds a fetched document.
	DefaultMaxBytes = 4 << 20

	// DefaultAttempts is the number of tries for transient failures.
	DefaultAttempts = 3

	// DefaultDelay is the wait before the first retry.
	DefaultDelay = 500 * time.Millisecond

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 30 * time.Second
)

// Options tunes [Fetch]. Zero values select the defaults above.
type Options struct {
	MaxBytes int64
	Attempts int
	Delay    time.Duration
}

// Document is a fetched schema.
type Document struct {
	Data   []byte
	Format string // "json", "yaml" or "toml"
	URL    string
}

// IsURL reports whether s looks like an http(s) URL rather than a path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads the schema at rawURL. A nil client selects one with
// DefaultTimeout.
func Fetch(ctx context.Context, client *http.Client, rawURL string, opts Options) (Document, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return Document{}, err
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Document{}, errors.New(errors.ErrCodeInvalidInput, "invalid URL %q", rawURL)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	var doc Document
	err = Retry(ctx, opts.Attempts, opts.Delay, func() error {
		var ferr error
		doc, ferr = fetchOnce(ctx, client, u, opts.MaxBytes)
		return ferr
	})
	if err != nil {
		var re *RetryableError
		if errors.As(err, &re) {
			err = re.Err
		}
		if errors.GetCode(err) != "" {
			return Document{}, err
		}
		if ctx.Err() != nil {
			return Document{}, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", rawURL)
		}
		return Document{}, errors.Wrap(errors.ErrCodeNetworkError, err, "fetch %s", rawURL)
	}
	return doc, nil
}

func fetchOnce(ctx context.Context, client *http.Client, u *url.URL, maxBytes int64) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Document{}, err
	}
	req.Header.Set("Accept", "application/json, application/yaml, application/toml, text/plain")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Document{}, err
		}
		return Document{}, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Document{}, &RetryableError{Err: fmt.Errorf("%s: %s", u, resp.Status)}
	case resp.StatusCode == http.StatusNotFound:
		return Document{}, errors.New(errors.ErrCodeNotFound, "%s: %s", u, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return Document{}, errors.New(errors.ErrCodeNetworkError, "%s: %s", u, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return Document{}, &RetryableError{Err: err}
	}
	if int64(len(data)) > maxBytes {
		return Document{}, errors.New(errors.ErrCodeInvalidInput, "%s: document exceeds %d bytes", u, maxBytes)
	}

	return Document{
		Data:   data,
		Format: detectFormat(resp.Header.Get("Content-Type"), u.Path),
		URL:    u.String(),
	}, nil
}

// detectFormat prefers the media type and falls back to the path extension,
// then JSON.
func detectFormat(contentType, urlPath string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.Contains(mt, "yaml"):
			return "yaml"
		case strings.Contains(mt, "toml"):
			return "toml"
		case strings.HasSuffix(mt, "json"):
			return "json"
		}
	}
	switch strings.ToLower(path.Ext(urlPath)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return "json"
}
