package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/narratlas/narratlas/internal/client/session"
	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/logging"
)

// HTTPGateway talks to the story API over HTTP with bearer-token auth.
type HTTPGateway struct {
	baseURL string
	session session.Provider
	client  *http.Client
	log     logging.Logger
}

var _ StoryGateway = (*HTTPGateway)(nil)

// NewHTTPGateway returns a gateway rooted at baseURL (e.g.
// "https://api.example.com/v1"). client may carry a caching transport; nil
// falls back to a plain client with a sane timeout.
func NewHTTPGateway(baseURL string, sess session.Provider, client *http.Client, log logging.Logger) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{baseURL: baseURL, session: sess, client: client, log: log}
}

// envelope is the common part of every API response body.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type remoteStoryDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photoUrl"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	CreatedAt   string   `json:"createdAt"`
}

func (d remoteStoryDTO) toModel() RemoteStory {
	created, _ := time.Parse(time.RFC3339Nano, d.CreatedAt)
	return RemoteStory{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		PhotoURL:    d.PhotoURL,
		Lat:         d.Lat,
		Lon:         d.Lon,
		CreatedAt:   created,
	}
}

func (g *HTTPGateway) do(req *http.Request, authorized bool) (*http.Response, []byte, error) {
	if authorized {
		token := g.session.Token()
		if token == "" {
			return nil, nil, common.ErrUnauthorized
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, payload any, authorized bool) (*http.Response, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, authorized)
}

// Ping probes the unauthenticated health endpoint.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/ping", nil)
	if err != nil {
		return err
	}
	resp, _, err := g.do(req, false)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (g *HTTPGateway) Register(ctx context.Context, name, email, password string) error {
	payload := map[string]string{"name": name, "email": email, "password": password}
	resp, body, err := g.postJSON(ctx, "/register", payload, false)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("register failed: %s", apiMessage(body, resp.StatusCode))
	}
	return nil
}

func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{"email": email, "password": password}
	resp, body, err := g.postJSON(ctx, "/login", payload, false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("login failed: %s", apiMessage(body, resp.StatusCode))
	}

	var parsed struct {
		envelope
		LoginResult struct {
			UserID string `json:"userId"`
			Name   string `json:"name"`
			Token  string `json:"token"`
		} `json:"loginResult"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed login response: %w", err)
	}
	return &LoginResult{
		Token:  parsed.LoginResult.Token,
		UserID: parsed.LoginResult.UserID,
		Name:   parsed.LoginResult.Name,
	}, nil
}

func (g *HTTPGateway) GetStories(ctx context.Context, page, size int, withLocation bool) ([]RemoteStory, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		params.Set("size", strconv.Itoa(size))
	}
	if withLocation {
		params.Set("location", "1")
	} else {
		params.Set("location", "0")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/stories?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, body, err := g.do(req, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list stories failed: %s", apiMessage(body, resp.StatusCode))
	}

	var parsed struct {
		envelope
		ListStory []remoteStoryDTO `json:"listStory"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed stories response: %w", err)
	}

	result := make([]RemoteStory, 0, len(parsed.ListStory))
	for _, dto := range parsed.ListStory {
		result = append(result, dto.toModel())
	}
	return result, nil
}

func (g *HTTPGateway) GetStoryByID(ctx context.Context, id string) (*RemoteStory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/stories/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, body, err := g.do(req, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, common.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get story failed: %s", apiMessage(body, resp.StatusCode))
	}

	var parsed struct {
		envelope
		Story remoteStoryDTO `json:"story"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed story response: %w", err)
	}
	story := parsed.Story.toModel()
	return &story, nil
}

// CreateStory submits a story as multipart form data. The photo part is
// omitted when no payload is present; lat/lon are appended only as a pair.
// A missing session token short-circuits locally with a 401-equivalent
// result — the request is never sent.
func (g *HTTPGateway) CreateStory(ctx context.Context, r CreateStoryRequest) (*CreateStoryResult, error) {
	token := g.session.Token()
	if token == "" {
		return &CreateStoryResult{OK: false, Status: http.StatusUnauthorized, Message: "not logged in"}, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("description", r.Description); err != nil {
		return nil, err
	}
	if len(r.Photo) > 0 {
		name := r.PhotoName
		if name == "" {
			name = "photo"
		}
		part, err := w.CreateFormFile("photo", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(r.Photo); err != nil {
			return nil, err
		}
	} else {
		g.log.Warn(ctx, "create story without photo payload; sending without photo part")
	}
	if r.Lat != nil && r.Lon != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*r.Lat, 'f', -1, 64)); err != nil {
			return nil, err
		}
		if err := w.WriteField("lon", strconv.FormatFloat(*r.Lon, 'f', -1, 64)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/stories", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		envelope
		ID       string   `json:"id"`
		StoryID  string   `json:"storyId"`
		PhotoURL string   `json:"photoUrl"`
		Lat      *float64 `json:"lat"`
		Lon      *float64 `json:"lon"`
	}
	// A malformed success body is a failure; a malformed error body still
	// carries the status code.
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("malformed create response: %w", err)
	}

	result := &CreateStoryResult{
		OK:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:  resp.StatusCode,
		Message: parsed.Message,
	}
	if result.OK {
		id := parsed.ID
		if id == "" {
			id = parsed.StoryID
		}
		result.Data = &StoryData{
			ID:       id,
			PhotoURL: parsed.PhotoURL,
			Lat:      parsed.Lat,
			Lon:      parsed.Lon,
		}
	}
	return result, nil
}

func (g *HTTPGateway) SubscribePush(ctx context.Context, sub PushSubscription) error {
	payload := map[string]any{
		"endpoint": sub.Endpoint,
		"keys":     map[string]string{"p256dh": sub.P256dh, "auth": sub.Auth},
	}
	resp, body, err := g.postJSON(ctx, "/notifications/subscribe", payload, true)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("subscribe failed: %s", apiMessage(body, resp.StatusCode))
	}
	return nil
}

func (g *HTTPGateway) UnsubscribePush(ctx context.Context, endpoint string) error {
	b, err := json.Marshal(map[string]string{"endpoint": endpoint})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+"/notifications/subscribe", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, body, err := g.do(req, true)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unsubscribe failed: %s", apiMessage(body, resp.StatusCode))
	}
	return nil
}

// apiMessage extracts the server's message from an error body, falling back
// to the status code.
func apiMessage(body []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fmt.Sprintf("status %d", status)
}
