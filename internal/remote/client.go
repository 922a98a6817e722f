// Package remote implements the remote-migration transport: a two-step
// content-addressed upload handshake with the control-plane API, followed by
// status polling until the ingest job completes.
// Implements: prd004-schema-migrations (R7 remote apply);
//
//	docs/ARCHITECTURE § Control Plane.
package remote

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calljmp/cli/pkg/types"
)

// Client talks to the control-plane database endpoints.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval changes the status polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New returns a client for the given API base URL, authenticating with the
// project token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// migrateResponse is the payload of both steps of the migrate handshake.
type migrateResponse struct {
	Completed bool   `json:"completed"`
	UploadURL string `json:"uploadUrl,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Bookmark  string `json:"bookmark,omitempty"`
}

// statusResponse is the payload of the migration status endpoint.
type statusResponse struct {
	Completed bool   `json:"completed"`
	Bookmark  string `json:"bookmark,omitempty"`
}

// Migrate submits the SQL text to the remote database. The content is
// addressed by its MD5 ETag: when the server already holds it the handshake
// completes immediately; otherwise the body is uploaded to the returned URL,
// the upload is confirmed, and the ingest job is polled to completion.
// Local state is never touched.
func (c *Client) Migrate(sqlText string) error {
	etag := ETag(sqlText)

	var first migrateResponse
	if err := c.doJSON(http.MethodPost, "/database/migrate",
		map[string]string{"etag": etag}, &first); err != nil {
		return err
	}
	if first.Completed {
		return nil
	}
	if first.UploadURL == "" {
		return fmt.Errorf("%w: migrate handshake returned neither completion nor upload URL",
			types.ErrRemoteTransport)
	}

	if err := c.upload(first.UploadURL, sqlText, etag); err != nil {
		return err
	}

	var second migrateResponse
	if err := c.doJSON(http.MethodPut, "/database/migrate",
		map[string]string{"etag": etag, "filename": first.Filename}, &second); err != nil {
		return err
	}
	if second.Completed {
		return nil
	}
	return c.pollStatus(second.Bookmark)
}

// upload PUTs the SQL body to the presigned URL and verifies the response
// ETag against the submitted one.
func (c *Client) upload(uploadURL, sqlText, etag string) error {
	req, err := http.NewRequest(http.MethodPut, uploadURL, strings.NewReader(sqlText))
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.ContentLength = int64(len(sqlText))
	req.Header.Set("Content-Type", "application/sql")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: upload: %v", types.ErrRemoteTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: upload returned %s", types.ErrRemoteTransport, resp.Status)
	}
	got := strings.Trim(resp.Header.Get("ETag"), `"`)
	if !strings.EqualFold(got, etag) {
		return fmt.Errorf("%w: upload ETag %q does not match %q", types.ErrRemoteTransport, got, etag)
	}
	return nil
}

// pollStatus polls the ingest job until the server reports completion.
func (c *Client) pollStatus(bookmark string) error {
	for {
		var status statusResponse
		if err := c.doJSON(http.MethodPost, "/database/migration/status",
			map[string]string{"bookmark": bookmark}, &status); err != nil {
			return err
		}
		if status.Completed {
			return nil
		}
		if status.Bookmark != "" {
			bookmark = status.Bookmark
		}
		time.Sleep(c.pollInterval)
	}
}

// doJSON performs one authenticated JSON request against the API.
func (c *Client) doJSON(method, path string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", method, path, err)
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", types.ErrRemoteTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %s", types.ErrRemoteTransport, method, path, resp.Status)
	}
	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// ETag is the content address of a migration body: lowercase hex MD5 of the
// SQL text.
func ETag(sqlText string) string {
	sum := md5.Sum([]byte(sqlText))
	return hex.EncodeToString(sum[:])
}
