package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// DefaultUserAgent identifies the archiver to the wiki, per the
	// Wikimedia User-Agent policy.
	DefaultUserAgent = "wikivault/1.0 (https://github.com/wikivault/wikivault)"

	// burstGuardRate caps short-term bursts independently of the interval
	// limiter.
	burstGuardRate = 5.0
)

// Client handles communication with a MediaWiki Action API endpoint.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	limiter   *Limiter
	bucket    *rate.Limiter
	userAgent string
}

// NewClient creates a client for the given api.php endpoint. The limiter is
// shared with every component issuing remote calls through this client.
func NewClient(endpoint string, limiter *Limiter) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse endpoint: unsupported scheme %q", u.Scheme)
	}

	return &Client{
		endpoint:  u,
		http:      &http.Client{Timeout: DefaultTimeout},
		limiter:   limiter,
		bucket:    rate.NewLimiter(rate.Limit(burstGuardRate), 1),
		userAgent: DefaultUserAgent,
	}, nil
}

// SetUserAgent overrides the User-Agent header.
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// Limiter returns the shared rate limiter.
func (c *Client) Limiter() *Limiter {
	return c.limiter
}

// Do issues one GET request against the API with the given parameters,
// retrying transient failures with exponential backoff. Protocol errors are
// never retried.
func (c *Client) Do(ctx context.Context, params url.Values) (*Response, error) {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	merged.Set("format", "json")
	merged.Set("formatversion", "2")

	reqURL := *c.endpoint
	reqURL.RawQuery = merged.Encode()

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.limiter.Backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		if err := c.bucket.Wait(ctx); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, retry, err := c.doOnce(ctx, reqURL.String())
		if err == nil {
			return resp, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", MaxRetries, lastErr)
}

// doOnce performs a single HTTP exchange. The second return value reports
// whether the error is retryable.
func (c *Client) doOnce(ctx context.Context, reqURL string) (*Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		// Network-level failure: transient.
		return nil, true, fmt.Errorf("http: %w", err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, true, &RateLimitError{RetryAfter: retryAfter(httpResp)}
	case httpResp.StatusCode >= 500:
		return nil, true, &APIError{StatusCode: httpResp.StatusCode, URL: reqURL}
	case httpResp.StatusCode != http.StatusOK:
		return nil, false, &APIError{StatusCode: httpResp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	resp, err := newResponse(body)
	if err != nil {
		// Unparseable JSON is a protocol error, not retried.
		return nil, false, err
	}

	if apiErr := resp.apiError(); apiErr != nil {
		apiErr.URL = reqURL
		// The API's own rate limit signal is retried like a 429.
		return nil, apiErr.Code == "ratelimited" || apiErr.Code == "maxlag", apiErr
	}

	return resp, false, nil
}

// retryAfter parses the Retry-After header, in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

// Response is one parsed API response body.
type Response struct {
	body map[string]json.RawMessage
}

// newResponse parses a response body. A top level that is not a JSON object
// is a protocol error.
func newResponse(data []byte) (*Response, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &Response{body: body}, nil
}

// apiError decodes the response's error member, if present.
func (r *Response) apiError() *APIError {
	raw, ok := r.body["error"]
	if !ok {
		return nil
	}
	var e struct {
		Code string `json:"code"`
		Info string `json:"info"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return &APIError{Code: "unknown", Info: string(raw)}
	}
	return &APIError{Code: e.Code, Info: e.Info}
}

// Continuation returns the response's continuation token as flat key-value
// parameters, with ok reporting whether a token is present. A token that is
// not a flat mapping of scalars fails with ErrBadContinuation.
func (r *Response) Continuation() (map[string]string, bool, error) {
	raw, ok := r.body["continue"]
	if !ok {
		return nil, false, nil
	}

	var token map[string]any
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrBadContinuation, raw)
	}

	out := make(map[string]string, len(token))
	for k, v := range token {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return nil, false, fmt.Errorf("%w: non-scalar value for %q", ErrBadContinuation, k)
		}
	}
	return out, true, nil
}

// Items resolves a dotted path (e.g. "query", "recentchanges") to the item
// collection it names. A path that cannot be resolved fails with
// ErrResultPath; a resolvable path holding an empty list is not an error.
func (r *Response) Items(path ...string) ([]json.RawMessage, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrResultPath)
	}

	node := r.body
	for i, key := range path {
		raw, ok := node[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrResultPath, pathString(path[:i+1]))
		}

		if i == len(path)-1 {
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("%w: %q is not a list", ErrResultPath, pathString(path))
			}
			return items, nil
		}

		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil {
			return nil, fmt.Errorf("%w: %q is not an object", ErrResultPath, pathString(path[:i+1]))
		}
		node = next
	}

	return nil, fmt.Errorf("%w: %q", ErrResultPath, pathString(path))
}

func pathString(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}
