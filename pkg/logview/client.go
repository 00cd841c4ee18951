package logview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vaultkeep/audit-service/pkg/secure"
)

// Service fetches audit pages and executes purges. The view state depends on
// this interface so tests can stub the transport entirely.
type Service interface {
	FetchPage(ctx context.Context, category Category, req PageRequest) (*PageResponse, error)
	Purge(ctx context.Context, req PurgeRequest) (*PurgeResult, error)
}

// ErrServer is returned when the service answered with its error shape.
var ErrServer = errors.New("server rejected request")

// Client is the HTTP implementation of Service. Purge payloads travel sealed
// with the session transport key in both directions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  uuid.UUID
	sessionKey []byte
}

// NewClient creates a client for the given audit service base URL.
func NewClient(baseURL string, sessionID uuid.UUID, sessionKey []byte) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessionID:  sessionID,
		sessionKey: sessionKey,
	}
}

type serverError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type sealedEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type sealedResponse struct {
	Error bool   `json:"error"`
	Data  string `json:"data"`
}

// FetchPage requests one page of the given category.
func (c *Client) FetchPage(ctx context.Context, category Category, req PageRequest) (*PageResponse, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(req.Offset))
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.SortColumn != "" {
		q.Set("sort", req.SortColumn)
		q.Set("dir", req.SortOrder)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Scope != "" && req.Scope != ScopeAll {
		q.Set("scope", req.Scope)
	}

	endpoint := fmt.Sprintf("%s/api/v1/logs/%s?%s", c.baseURL, category, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeServerError(resp)
	}

	var page PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode page response: %w", err)
	}
	return &page, nil
}

// Purge submits a sealed purge request and opens the sealed result.
func (c *Client) Purge(ctx context.Context, req PurgeRequest) (*PurgeResult, error) {
	sealed, err := secure.Seal(c.sessionKey, req)
	if err != nil {
		return nil, fmt.Errorf("seal purge request: %w", err)
	}

	body, err := json.Marshal(sealedEnvelope{Type: "purge_logs", Data: sealed})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/api/v1/logs/purge"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Session-ID", c.sessionID.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeServerError(resp)
	}

	var envelope sealedResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode purge response: %w", err)
	}

	var result PurgeResult
	if err := secure.Open(c.sessionKey, envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("open purge response: %w", err)
	}
	return &result, nil
}

func decodeServerError(resp *http.Response) error {
	var se serverError
	if err := json.NewDecoder(resp.Body).Decode(&se); err == nil && se.Message != "" {
		return fmt.Errorf("%w: %s (status %d)", ErrServer, se.Message, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
}
