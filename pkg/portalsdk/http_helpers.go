package portalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest sends body (JSON-encoded when non-nil) and returns the raw
// response. Transport failures come back as *NetworkError.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

// decodeJSON decodes a 2xx response into target (which may be nil) or
// returns the typed error for any other status.
func decodeJSON(op string, resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(op, resp.StatusCode, bodyBytes)
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// parseErrorResponse turns an error body into *APIError. Bodies that are
// not JSON are used verbatim when short.
func parseErrorResponse(op string, status int, body []byte) error {
	apiErr := NewAPIError(op, status, "")

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.Error
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
		return apiErr
	}

	if text := strings.TrimSpace(string(body)); len(text) > 0 && len(text) <= 200 {
		apiErr.Message = text
	}
	return apiErr
}

func (c *Client) call(ctx context.Context, op, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(op, resp, target)
}
