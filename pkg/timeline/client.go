package timeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"xdl/pkg/errors"
	"xdl/pkg/logger"
)

// Client talks to the extraction backend over its JSON surface and fetches
// media bytes from the CDN URLs the backend hands out.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a backend client. baseURL may be empty to use the
// default gateway address.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "xdl/1.0",
		},
		baseURL: baseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetAuthToken attaches the x.com session token. The backend forwards it as
// the auth_token cookie, which unlocks protected and age-gated accounts.
func (c *Client) SetAuthToken(token string) {
	if token != "" {
		c.headers["X-Auth-Token"] = token
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	return c.doRequest(req)
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		// Create a preview of the body for debugging
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeAuth, resp.StatusCode, "authentication required")
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeServerError, resp.StatusCode, "server error")
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return errors.New(errors.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
		}
		return nil
	}
}

// ResolveUser looks up a username before any timeline enumeration happens
func (c *Client) ResolveUser(ctx context.Context, username string) (*UserInfo, error) {
	url := UserURL(c.baseURL, username)

	c.logger.DebugWithFields("resolving user", map[string]interface{}{
		"username": username,
		"url":      url,
	})

	var info UserInfo
	if err := c.GetJSON(ctx, url, &info); err != nil {
		c.logger.ErrorWithFields("failed to resolve user", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return nil, err
	}

	if info.Withheld {
		return nil, errors.New(errors.ErrorTypeNotFound, http.StatusNotFound,
			"account %s is withheld and its posts cannot be fetched", username)
	}

	return &info, nil
}

// TimelinePage fetches one cursor-delimited page of a user's timeline.
// An empty cursor requests the newest page.
func (c *Client) TimelinePage(ctx context.Context, username string, kind Kind, cursor string) (*Page, error) {
	url := TimelineURL(c.baseURL, username, kind, cursor)

	c.logger.DebugWithFields("fetching timeline page", map[string]interface{}{
		"username": username,
		"kind":     string(kind),
		"cursor":   cursor,
	})

	var page Page
	if err := c.GetJSON(ctx, url, &page); err != nil {
		c.logger.ErrorWithFields("failed to fetch timeline page", map[string]interface{}{
			"username": username,
			"cursor":   cursor,
			"error":    err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("fetched timeline page", map[string]interface{}{
		"username": username,
		"posts":    len(page.Posts),
		"has_more": page.HasMore,
	})

	return &page, nil
}

// ContentLength issues a HEAD request for a media URL and returns the
// reported size. Returns -1 when the server doesn't say.
func (c *Client) ContentLength(ctx context.Context, mediaURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", mediaURL, nil)
	if err != nil {
		return -1, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return -1, err
	}

	return resp.ContentLength, nil
}

// Download fetches the bytes of a media file
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	c.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": mediaURL,
	})

	resp, err := c.Get(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read media data", map[string]interface{}{
			"url":   mediaURL,
			"error": err.Error(),
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "failed to download media: %v", err)
	}

	c.logger.DebugWithFields("downloaded media", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}

// BaseURL returns the gateway address the client is pointed at
func (c *Client) BaseURL() string {
	return c.baseURL
}
