package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/datatrellis/catalog-engine/pkg/apperrors"
	"github.com/datatrellis/catalog-engine/pkg/logging"
	"github.com/datatrellis/catalog-engine/pkg/retry"
)

// HTTPClientConfig configures the HTTP catalog client.
type HTTPClientConfig struct {
	BaseURL       string
	Token         string // bearer token, empty disables the Authorization header
	CallTimeout   time.Duration
	HealthTimeout time.Duration
	Retry         *retry.Config
}

// DefaultHTTPClientConfig returns sensible defaults for catalog calls.
func DefaultHTTPClientConfig(baseURL, token string) HTTPClientConfig {
	return HTTPClientConfig{
		BaseURL:       baseURL,
		Token:         token,
		CallTimeout:   15 * time.Second,
		HealthTimeout: 5 * time.Second,
		Retry:         retry.DefaultConfig(),
	}
}

// httpClient talks to the remote catalog over its JSON REST API.
type httpClient struct {
	cfg    HTTPClientConfig
	http   *http.Client
	logger *zap.Logger
}

// NewHTTPClient creates a catalog client against the given endpoint.
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	return &httpClient{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.CallTimeout,
		},
		logger: logger.Named("catalog-client"),
	}
}

var _ Client = (*httpClient)(nil)

// doJSON performs one catalog request with retry on transient failures.
// 404 is returned as apperrors.ErrNotFound so lookups can translate it to
// nil; every other non-2xx response becomes *apperrors.RemoteError.
func (c *httpClient) doJSON(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	return retry.Do(ctx, c.cfg.Retry, func() error {
		return c.doJSONOnce(ctx, op, method, path, query, body, out)
	})
}

func (c *httpClient) doJSONOnce(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	reqURL := c.cfg.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperrors.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apperrors.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    logging.TruncateString(string(msg), logging.MaxValueLogLength),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// getEntity runs a lookup and translates 404 to (nil, nil).
func (c *httpClient) getEntity(ctx context.Context, op, path string, query url.Values) (*Entity, error) {
	var e Entity
	err := c.doJSON(ctx, op, http.MethodGet, path, query, nil, &e)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *httpClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/v1/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("catalog health check failed",
			zap.String("url", logging.SanitizeURL(c.cfg.BaseURL)),
			zap.String("error", logging.SanitizeError(err)))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *httpClient) GetDatabaseService(ctx context.Context, name string) (*Entity, error) {
	return c.getEntity(ctx, "getDatabaseService",
		"/api/v1/services/databaseServices/name/"+url.PathEscape(name), nil)
}

func (c *httpClient) CreateDatabaseService(ctx context.Context, name, serviceType, description string) (*Entity, error) {
	body := map[string]string{
		"name":        name,
		"serviceType": serviceType,
	}
	if description != "" {
		body["description"] = description
	}
	var e Entity
	if err := c.doJSON(ctx, "createDatabaseService", http.MethodPost, "/api/v1/services/databaseServices", nil, body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *httpClient) GetDatabase(ctx context.Context, fqn string) (*Entity, error) {
	return c.getEntity(ctx, "getDatabase",
		"/api/v1/databases/name/"+url.PathEscape(fqn), nil)
}

func (c *httpClient) CreateDatabase(ctx context.Context, name, serviceFQN, description string) (*Entity, error) {
	body := map[string]string{
		"name":    name,
		"service": serviceFQN,
	}
	if description != "" {
		body["description"] = description
	}
	var e Entity
	if err := c.doJSON(ctx, "createDatabase", http.MethodPost, "/api/v1/databases", nil, body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *httpClient) GetTable(ctx context.Context, fqn string, includeColumns bool) (*Table, error) {
	query := url.Values{}
	if includeColumns {
		query.Set("fields", "columns,tags,customProperties")
	}
	var t Table
	err := c.doJSON(ctx, "getTable", http.MethodGet,
		"/api/v1/tables/name/"+url.PathEscape(fqn), query, nil, &t)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *httpClient) CreateTable(ctx context.Context, req CreateTableRequest) (*Table, error) {
	var t Table
	if err := c.doJSON(ctx, "createTable", http.MethodPost, "/api/v1/tables", nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *httpClient) UpdateTable(ctx context.Context, fqn string, update TableUpdate) (*Table, error) {
	var t Table
	err := c.doJSON(ctx, "updateTable", http.MethodPut,
		"/api/v1/tables/name/"+url.PathEscape(fqn), nil, update, &t)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, &apperrors.RemoteError{Op: "updateTable", StatusCode: http.StatusNotFound, Message: fqn}
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *httpClient) AddLineage(ctx context.Context, from, to EntityRef, description string) error {
	body := map[string]any{
		"edge": map[string]any{
			"fromEntity":  from,
			"toEntity":    to,
			"description": description,
		},
	}
	return c.doJSON(ctx, "addLineage", http.MethodPut, "/api/v1/lineage", nil, body, nil)
}

func (c *httpClient) GetLineage(ctx context.Context, entityType, fqn string, upstreamDepth, downstreamDepth int) (*LineageResponse, error) {
	query := url.Values{}
	query.Set("upstreamDepth", strconv.Itoa(upstreamDepth))
	query.Set("downstreamDepth", strconv.Itoa(downstreamDepth))

	var resp LineageResponse
	err := c.doJSON(ctx, "getLineage", http.MethodGet,
		"/api/v1/lineage/"+url.PathEscape(entityType)+"/name/"+url.PathEscape(fqn), query, nil, &resp)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &LineageResponse{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
