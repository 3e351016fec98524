// Package xkcd retrieves comic metadata and image assets from the remote site.
//
// The structured JSON endpoint is the source of truth. Scraping the comic's
// HTML page is a documented degradation mode that only runs when the
// structured endpoint fails for protocol or parse reasons, never on a clean
// not-found response.
package xkcd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "xkcdcrawl/pkg/errors"
	"xkcdcrawl/pkg/logger"
)

// DefaultUserAgent identifies the crawler when no user agent is configured
const DefaultUserAgent = "xkcdcrawl/1.0 (educational)"

// Client talks to the comic site
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new comic site client
func NewClient(baseURL string, timeout time.Duration, userAgent string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json, text/html;q=0.9, image/*;q=0.8",
		},
		baseURL: baseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
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
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Cause:   err,
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

// get issues a GET request and classifies non-2xx responses
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to build request: %v", err),
			Cause:   err,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: fmt.Sprintf("%s not found", url),
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: fmt.Sprintf("server returned %s", resp.Status),
			Code:    resp.StatusCode,
		}
	default:
		resp.Body.Close()
		errType := errs.ErrorTypeUnknown
		if errs.IsRetryableStatusCode(resp.StatusCode) {
			// 429 and friends behave like transient server pressure
			errType = errs.ErrorTypeServerError
		}
		return nil, &errs.Error{
			Type:    errType,
			Message: fmt.Sprintf("unexpected status %s", resp.Status),
			Code:    resp.StatusCode,
		}
	}
}

// getJSON fetches a URL and decodes the JSON body into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to decode response from %s: %v", url, err),
			Cause:   err,
		}
	}
	return nil
}

// Comic retrieves the record for a single comic number.
//
// A not-found response is definitive and returned as-is. Any other failure of
// the structured endpoint triggers the markup fallback; if the fallback cannot
// produce a record either, the structured endpoint's error is returned so the
// caller classifies the failure against the primary strategy.
func (c *Client) Comic(ctx context.Context, num int) (*ComicRecord, error) {
	var info ComicInfo
	err := c.getJSON(ctx, ComicInfoURL(c.baseURL, num), &info)
	if err == nil {
		if info.Img == "" {
			err = &errs.Error{
				Type:    errs.ErrorTypeParsing,
				Message: fmt.Sprintf("comic %d document has no image URL", num),
			}
		} else {
			title := info.SafeTitle
			if title == "" {
				title = info.Title
			}
			return NewComicRecord(info.Num, title, info.Alt, info.Img), nil
		}
	}

	if errs.IsNotFound(err) {
		return nil, err
	}

	c.logger.WarnWithFields("structured endpoint failed, trying page fallback", map[string]interface{}{
		"comic": num,
		"error": err.Error(),
	})

	record, fallbackErr := c.comicFromPage(ctx, num)
	if fallbackErr != nil {
		c.logger.WarnWithFields("page fallback failed", map[string]interface{}{
			"comic": num,
			"error": fallbackErr.Error(),
		})
		return nil, err
	}
	return record, nil
}

// Latest discovers the current maximum comic number
func (c *Client) Latest(ctx context.Context) (int, error) {
	var info ComicInfo
	if err := c.getJSON(ctx, LatestInfoURL(c.baseURL), &info); err != nil {
		return 0, err
	}
	if info.Num < 1 {
		return 0, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("latest document carries invalid number %d", info.Num),
		}
	}
	return info.Num, nil
}

// Image downloads the image bytes at the given URL. Only the structured
// endpoint decides that a comic never existed; a dead image link is a
// failure for that comic, not a missing identifier.
func (c *Client) Image(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := c.get(ctx, imageURL)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("image %s is gone", imageURL),
				Code:    http.StatusNotFound,
				Cause:   err,
			}
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read image body from %s: %v", imageURL, err),
			Cause:   err,
		}
	}
	return data, nil
}
