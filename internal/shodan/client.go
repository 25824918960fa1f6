// Package shodan implements the host lookup of the Shodan REST API.
package shodan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CZERTAINLY/kevhost/internal/model"
)

const hostPath = "shodan/host/"

// maximum size of an error body read from the service
const maxErrorBody = 64 << 10

type Client struct {
	apiKey  string
	baseURL *url.URL
	client  *http.Client
}

type Option func(*Client)

// WithBaseURL points the client to another API root, e.g. a test server.
func WithBaseURL(u *url.URL) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// NewClient returns a client authenticated by apiKey. An empty key is
// rejected here, so a missing credential never reaches the network.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, &model.ConfigError{Key: model.KeyShodanAPIKey, Message: "is required"}
	}
	base, err := url.Parse(model.DefaultShodanURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: base,
		client:  &http.Client{Timeout: model.DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Host returns the host record of ip. Every failure is a *model.LookupError.
func (c *Client) Host(ctx context.Context, ip string) (model.HostRecord, error) {
	fail := func(kind model.LookupKind, status int, msg string, err error) (model.HostRecord, error) {
		return model.HostRecord{}, &model.LookupError{
			Target:     ip,
			Kind:       kind,
			StatusCode: status,
			Message:    msg,
			Err:        err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.hostURL(ip), nil)
	if err != nil {
		return fail(model.LookupInvalid, 0, "", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.DebugContext(ctx, "shodan host lookup", "ip", ip, "host", c.baseURL.Host)
	resp, err := c.client.Do(req)
	if err != nil {
		return fail(model.LookupTransient, 0, "", redact(err, c.apiKey))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fail(kindOf(resp.StatusCode), resp.StatusCode, errorMessage(resp), nil)
	}

	var host model.HostRecord
	if err := json.NewDecoder(resp.Body).Decode(&host); err != nil {
		return fail(model.LookupInvalid, resp.StatusCode, "", fmt.Errorf("decoding json response failed: %w", err))
	}
	if host.IP == "" {
		host.IP = ip
	}
	return host, nil
}

func (c *Client) hostURL(ip string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + hostPath + url.PathEscape(ip)
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

func kindOf(status int) model.LookupKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.LookupAuth
	case status == http.StatusNotFound:
		return model.LookupNotFound
	case status == http.StatusTooManyRequests:
		return model.LookupRateLimited
	case status >= 500:
		return model.LookupTransient
	default:
		return model.LookupUnknown
	}
}

// errorMessage extracts {"error": "..."} from the body, or returns the raw
// body for non JSON responses.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return resp.Status
	}
	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if contentType == "application/json" {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// redact removes the api key from url errors, which quote the request URL.
func redact(err error, key string) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{
		Op:  ue.Op,
		URL: strings.ReplaceAll(ue.URL, url.QueryEscape(key), "REDACTED"),
		Err: ue.Err,
	}
}
