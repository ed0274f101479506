package grid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/drplan/auth"
	"github.com/kilianp07/drplan/connectors"
	"github.com/kilianp07/drplan/core/model"
)

const (
	currentPath  = "/current"
	forecastPath = "/forecast"
)

// APIClient pulls grid conditions from an HTTP API. When an auth client is
// set every request carries its bearer token.
type APIClient struct {
	baseURL       string
	http          *http.Client
	auth          *auth.ClientCred
	forecastHours int
}

func NewAPIClient(baseURL string, authClient *auth.ClientCred, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: timeout},
		auth:          authClient,
		forecastHours: 24,
	}
}

func (c *APIClient) Name() string { return "api" }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) connectors.Option {
	return func(gc connectors.GridConnector) error {
		if c, ok := gc.(*APIClient); ok {
			c.http = hc
			return nil
		}
		return fmt.Errorf(connectors.ErrIncompatibleOption, "WithHTTPClient", gc.Name())
	}
}

// WithForecastHours sets the forecast horizon requested from the API.
func WithForecastHours(hours int) connectors.Option {
	return func(gc connectors.GridConnector) error {
		c, ok := gc.(*APIClient)
		if !ok {
			return fmt.Errorf(connectors.ErrIncompatibleOption, "WithForecastHours", gc.Name())
		}
		if hours < 1 || hours > 168 {
			return fmt.Errorf("forecast hours %d out of range [1,168]", hours)
		}
		c.forecastHours = hours
		return nil
	}
}

// Load fetches the current conditions and the forecast.
func (c *APIClient) Load(ctx context.Context) (model.GridData, error) {
	raw, err := c.get(ctx, currentPath, nil)
	if err != nil {
		return model.GridData{}, err
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return model.GridData{}, err
	}
	q := url.Values{"hours": []string{strconv.Itoa(c.forecastHours)}}
	raw, err = c.get(ctx, forecastPath, q)
	if err != nil {
		return model.GridData{}, err
	}
	forecast, err := decodeForecast(raw)
	if err != nil {
		return model.GridData{}, err
	}
	return model.GridData{Snapshot: snapshot, Forecast: forecast}, nil
}

func (c *APIClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		if err := c.auth.SetAuthHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	return body, nil
}
