package voyager

import (
	"fmt"
	"io"
	"net/http"
	"time"

	errs "linkfeed/pkg/errors"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/ratelimit"
)

// Client is an authenticated HTTP client for the provider's internal API
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	cookies     map[string]string
	baseURL     string
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewClient creates a new API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"accept":                    AcceptNormalizedJSON,
			"accept-language":           "en-US,en;q=0.8",
			"cache-control":             "no-cache",
			"pragma":                    "no-cache",
			"user-agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"x-li-lang":                 "en_US",
			"x-restli-protocol-version": "2.0.0",
		},
		cookies: make(map[string]string),
		baseURL: BaseURL,
		logger:  log,
	}
}

// SetBaseURL overrides the API base URL, used by tests
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SetRateLimiter throttles all outgoing requests through the given limiter.
// A nil limiter disables throttling.
func (c *Client) SetRateLimiter(l ratelimit.Limiter) {
	c.rateLimiter = l
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetCookie sets a session cookie sent with every request
func (c *Client) SetCookie(name, value string) {
	c.cookies[name] = value
}

// SetSession wires the session cookies and CSRF token onto the client.
// The CSRF token is the JSESSIONID cookie value with quotes stripped.
func (c *Client) SetSession(cookies map[string]string) {
	for name, value := range cookies {
		c.cookies[name] = value
	}
	if jsession, ok := cookies["JSESSIONID"]; ok {
		c.headers["csrf-token"] = jsession
	}
}

// doRequest performs an HTTP request with the configured headers and cookies
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.rateLimiter != nil && !c.rateLimiter.Allow() {
		c.rateLimiter.Wait()
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
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
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// doRequestWithRetry performs an HTTP request with retry logic
func (c *Client) doRequestWithRetry(req *http.Request, maxRetries int) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WarnWithFields("retrying HTTP request", map[string]interface{}{
				"method":  req.Method,
				"url":     req.URL.String(),
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
			time.Sleep(time.Second * time.Duration(attempt))
		}

		resp, err := c.doRequest(req)
		if err != nil {
			lastErr = err

			var apiErr *errs.Error
			if e, ok := err.(*errs.Error); ok {
				apiErr = e
			}
			if apiErr != nil && apiErr.Type == errs.ErrorTypeNetwork {
				continue
			}
			return nil, err
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &errs.Error{
				Type:    errs.ErrorTypeServerError,
				Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	c.logger.ErrorWithFields("max retries exceeded", map[string]interface{}{
		"method":      req.Method,
		"url":         req.URL.String(),
		"max_retries": maxRetries,
		"last_error":  lastErr.Error(),
	})

	return nil, lastErr
}

// Get performs a GET request to the specified URL
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	return c.doRequest(req)
}

// GetBody performs a GET request and returns the raw response body
func (c *Client) GetBody(url string) ([]byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return body, nil
}

// checkResponseStatus maps HTTP response statuses onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// FetchActivityPage fetches one page of a profile's share feed and decodes it
func (c *Client) FetchActivityPage(profileURN string, count, start int, paginationToken string) (*Page, error) {
	url := c.baseURL + activityRequestURI(profileURN, count, start, paginationToken)

	c.logger.DebugWithFields("fetching activity page", map[string]interface{}{
		"profile_urn": profileURN,
		"count":       count,
		"start":       start,
		"has_token":   paginationToken != "",
	})

	body, err := c.GetBody(url)
	if err != nil {
		c.logger.ErrorWithFields("failed to fetch activity page", map[string]interface{}{
			"profile_urn": profileURN,
			"start":       start,
			"error":       err.Error(),
		})
		return nil, err
	}

	page, err := ParsePage(body)
	if err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse activity response", map[string]interface{}{
			"profile_urn":  profileURN,
			"start":        start,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, err
	}

	c.logger.DebugWithFields("fetched activity page", map[string]interface{}{
		"profile_urn": profileURN,
		"start":       start,
		"elements":    len(page.Elements()),
		"included":    len(page.Included),
	})

	return page, nil
}

// FetchProfilePage fetches the public HTML page of a profile. The caller
// extracts the profile URN from the returned document.
func (c *Client) FetchProfilePage(username string) ([]byte, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/in/%s/", c.baseURL, username), nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	// Profile pages are plain HTML, not the normalized API format
	req.Header.Set("accept", "text/html,application/xhtml+xml")

	resp, err := c.doRequestWithRetry(req, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read profile page: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return body, nil
}

// DownloadMedia downloads a media asset with retry logic
func (c *Client) DownloadMedia(mediaURL string, maxRetries int) ([]byte, error) {
	c.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": mediaURL,
	})

	req, err := http.NewRequest("GET", mediaURL, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("referer", BaseURL+"/")

	resp, err := c.doRequestWithRetry(req, maxRetries)
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
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download media: %v", err),
		}
	}

	c.logger.DebugWithFields("downloaded media", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}
