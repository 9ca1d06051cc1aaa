// Package client is a Go SDK for the health-package-engine HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// Client calls a health-package-engine deployment
type Client struct {
	http *resty.Client
}

// Option configures the client
type Option func(*resty.Client)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(timeout)
	}
}

// WithRetries sets how many times transport failures are retried
func WithRetries(count int) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count)
	}
}

// WithClientInfo sets the x-client-info header sent with every request
func WithClientInfo(info string) Option {
	return func(c *resty.Client) {
		c.SetHeader("X-Client-Info", info)
	}
}

// NewClient creates a new client. token, when set, is sent as a bearer token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if token != "" {
		rc.SetAuthToken(token)
	}

	for _, opt := range opts {
		opt(rc)
	}

	return &Client{http: rc}
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Evaluate submits a questionnaire and returns the risk summary and packages.
// questionnaire may be any value that encodes to a JSON object.
func (c *Client) Evaluate(ctx context.Context, questionnaire any) (*models.Assessment, error) {
	data, err := json.Marshal(questionnaire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questionnaire: %w", err)
	}

	var result models.Assessment
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.EvaluateRequest{QuestionnaireData: data}).
		SetResult(&result).
		SetError(&models.ErrorResponse{}).
		Post("/api/v1/health-packages")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetAssessment fetches a stored assessment by id
func (c *Client) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	var result models.Assessment
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&result).
		SetError(&models.ErrorResponse{}).
		Get("/api/v1/assessments/{id}")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListCatalog returns the catalog tests in definition order
func (c *Client) ListCatalog(ctx context.Context) (*models.CatalogListing, error) {
	var result models.CatalogListing
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&models.ErrorResponse{}).
		Get("/api/v1/catalog")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/health")
	return checkResponse(resp, err)
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}

	message := resp.String()
	if e, ok := resp.Error().(*models.ErrorResponse); ok && e.Error != "" {
		message = e.Error
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: message}
}
