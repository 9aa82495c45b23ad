package lotw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "Nextlog/1.0.0"

// Credentials is a decrypted LoTW login pair.
type Credentials struct {
	Username string
	Password string
}

// Transport is what the sync jobs need from the remote service. The
// real implementation is Client; tests substitute a double.
type Transport interface {
	Upload(ctx context.Context, callsign, signedPayload string) (string, error)
	Download(ctx context.Context, creds Credentials, since, before string) (string, error)
}

// Client talks to the LoTW HTTP endpoints.
type Client struct {
	httpClient *http.Client
	uploadURL  string
	reportURL  string
	loginURL   string
}

func NewClient(uploadURL, reportURL, loginURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		uploadURL:  uploadURL,
		reportURL:  reportURL,
		loginURL:   loginURL,
	}
}

// Upload posts a signed payload. The response body is returned
// verbatim for the upload log.
func (c *Client) Upload(ctx context.Context, callsign, signedPayload string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(signedPayload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", callsign+".tq8"))
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}

// Download fetches the confirmation report for the given credentials.
// The optional since/before bounds are YYYY-MM-DD strings. A body that
// reads as a login rejection is surfaced as an error, not as report
// text.
func (c *Client) Download(ctx context.Context, creds Credentials, since, before string) (string, error) {
	params := url.Values{}
	params.Set("login", creds.Username)
	params.Set("password", creds.Password)
	params.Set("qso_query", "1")
	if since != "" {
		params.Set("qso_qsl_since", since)
	}
	if before != "" {
		params.Set("qso_qsl_before", before)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.reportURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}

	text := string(body)
	if strings.Contains(text, "Invalid login") || strings.Contains(text, "Login failed") {
		return "", fmt.Errorf("invalid LoTW credentials")
	}

	return text, nil
}

// ValidateCredentials checks a login pair against the LoTW login form.
func (c *Client) ValidateCredentials(ctx context.Context, username, password string) (bool, error) {
	form := url.Values{}
	form.Set("login", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// A rejected login bounces back to the login page.
	return resp.StatusCode == http.StatusOK && !strings.Contains(resp.Request.URL.Path, "login"), nil
}
