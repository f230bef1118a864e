// Package api is the CLI's HTTP client for the Tombers API.
package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/tombers/tombers/cmd/cli/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sessionCookie = "tombers_session"

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Error is a non-2xx API answer.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s %v", e.Status, e.Message, e.Fields)
}

// Call sends payload (if any) as JSON and decodes the answer into out (if
// any). The stored session token is sent as a Bearer token when present.
func Call(method, path string, payload, out interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, err := config.LoadToken(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &Error{Status: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
		var decoded struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(raw, &decoded) == nil && decoded.Error != "" {
			apiErr.Message = decoded.Error
			apiErr.Fields = decoded.Fields
		}
		return resp, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// SessionToken returns the session cookie value the server set on resp.
func SessionToken(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c.Value
		}
	}
	return ""
}
