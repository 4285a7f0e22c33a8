package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

// HTTPClient implements JournalClient against the journal HTTP API. It keeps
// the anti-forgery cookie in a jar and fetches a token before the first
// protected call.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	csrfToken string
}

// NewHTTPClient creates a client for baseURL (e.g. "http://localhost:3000").
func NewHTTPClient(baseURL string) *HTTPClient {
	jar, _ := cookiejar.New(nil) // only fails on a bad PublicSuffixList
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			// The form routes answer with 303 /users; treat that as the result.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Entries ---

func (c *HTTPClient) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	var entries []*model.Entry
	if err := c.doJSON(ctx, http.MethodGet, "/api/blog", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) CreateEntry(ctx context.Context, req *CreateEntryRequest) (*model.Entry, error) {
	var entry model.Entry
	if err := c.doJSON(ctx, http.MethodPost, "/api/blog", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, id string, patch *model.EntryPatch) (*model.Entry, error) {
	var entry model.Entry
	if err := c.doJSON(ctx, http.MethodPut, "/api/blog/"+url.PathEscape(id), patch, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id string) (*model.Entry, error) {
	var entry model.Entry
	if err := c.doJSON(ctx, http.MethodDelete, "/api/blog/"+url.PathEscape(id), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// --- Users ---

func (c *HTTPClient) ListUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser posts the signup form as multipart/form-data.
func (c *HTTPClient) CreateUser(ctx context.Context, req *CreateUserRequest) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("fname", req.FirstName)
	_ = mw.WriteField("lname", req.LastName)
	_ = mw.WriteField("_csrf", token)
	if req.Avatar != nil {
		fw, err := mw.CreateFormFile("avatar", req.AvatarName)
		if err != nil {
			return fmt.Errorf("creating avatar part: %w", err)
		}
		if _, err := io.Copy(fw, req.Avatar); err != nil {
			return fmt.Errorf("reading avatar: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("encoding form: %w", err)
	}

	return c.doForm(ctx, "/users/create", &buf, mw.FormDataContentType())
}

func (c *HTTPClient) ToggleFavorite(ctx context.Context, id string) error {
	return c.doForm(ctx, "/users/favorite/"+url.PathEscape(id), nil, "")
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	return c.doForm(ctx, "/users/delete/"+url.PathEscape(id), nil, "")
}

// --- Signup ---

func (c *HTTPClient) Signup(ctx context.Context, email, name string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	body := map[string]string{"email": email, "name": name}
	if err := c.doJSON(ctx, http.MethodPost, "/api/journal-signup", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// token returns the cached anti-forgery token, fetching one if needed.
func (c *HTTPClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}

	var resp struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := c.do(ctx, http.MethodGet, "/csrf-token", nil, "", "", &resp); err != nil {
		return "", fmt.Errorf("fetching csrf token: %w", err)
	}
	c.csrfToken = resp.CSRFToken
	return c.csrfToken, nil
}

func (c *HTTPClient) forgetToken() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

// doJSON performs a JSON request. Mutating methods carry the anti-forgery
// token; an expired token is refreshed once.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}
	if method == http.MethodGet {
		return c.do(ctx, method, path, nil, "", "", result)
	}

	for attempt := 0; ; attempt++ {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		var r io.Reader
		if data != nil {
			r = bytes.NewReader(data)
		}
		err = c.do(ctx, method, path, r, "application/json", token, result)

		var apiErr *APIError
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
			c.forgetToken()
			continue
		}
		return err
	}
}

// doForm posts a form body (nil for none) to one of the redirecting form
// routes.
func (c *HTTPClient) doForm(ctx context.Context, path string, body io.Reader, contentType string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, token, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType, token string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil && resp.StatusCode != http.StatusSeeOther && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
