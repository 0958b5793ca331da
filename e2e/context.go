// Package e2e drives a running signet instance over HTTP with godog.
//
// The suite needs a live server and a bearer token for the sending user:
//
//	SIGNET_E2E_BASE_URL  (default http://localhost:8080)
//	SIGNET_E2E_TOKEN     (a token the server's signing key accepts)
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries shared state across steps of one scenario: the last
// response and named values saved by earlier steps (envelope IDs, access
// codes, recipient IDs).
type TestContext struct {
	baseURL string
	token   string
	client  *http.Client

	lastStatus int
	lastBody   map[string]any

	vars map[string]string
}

func NewTestContext() *TestContext {
	baseURL := os.Getenv("SIGNET_E2E_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   os.Getenv("SIGNET_E2E_TOKEN"),
		client:  &http.Client{Timeout: 10 * time.Second},
		vars:    make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.vars = make(map[string]string)
}

func (tc *TestContext) do(method, path string, body io.Reader, contentType string, authed bool) error {
	req, err := http.NewRequest(method, tc.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed && tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			tc.lastBody = parsed
		}
	}
	return nil
}

func (tc *TestContext) sendJSON(method, path string, body any, authed bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	return tc.do(method, path, reader, "application/json", authed)
}

// POST sends an authenticated JSON request.
func (tc *TestContext) POST(path string, body any) error {
	return tc.sendJSON(http.MethodPost, path, body, true)
}

// POSTAnonymous sends a JSON request without credentials.
func (tc *TestContext) POSTAnonymous(path string, body any) error {
	return tc.sendJSON(http.MethodPost, path, body, false)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, "", true)
}

func (tc *TestContext) PATCH(path string, body any) error {
	return tc.sendJSON(http.MethodPatch, path, body, true)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil, "", true)
}

// UploadFile posts multipart content to the document endpoint.
func (tc *TestContext) UploadFile(path, name, filename, content string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		if err := mw.WriteField("name", name); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, &buf, mw.FormDataContentType(), true)
}

// LastStatus returns the status code of the most recent response.
func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// GetResponseField resolves a dotted path into the last JSON response, with
// numeric segments indexing arrays ("recipients.0.id").
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in the last response")
	}
	var cur any = tc.lastBody
	for _, seg := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]any:
			val, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", field)
			}
			cur = val
		case []any:
			var idx int
			if _, err := fmt.Sscanf(seg, "%d", &idx); err != nil {
				return nil, fmt.Errorf("field %q: %q is not an array index", field, seg)
			}
			if idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("field %q: index %d out of range", field, idx)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("field %q: cannot descend into %T", field, cur)
		}
	}
	return cur, nil
}

// SetVar saves a named value for later steps.
func (tc *TestContext) SetVar(name, value string) { tc.vars[name] = value }

// Var returns a previously saved value.
func (tc *TestContext) Var(name string) (string, error) {
	val, ok := tc.vars[name]
	if !ok {
		return "", fmt.Errorf("no saved value named %q", name)
	}
	return val, nil
}
