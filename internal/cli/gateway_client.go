package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/canonica-labs/querygate/internal/errors"
	"github.com/canonica-labs/querygate/pkg/api"
	"github.com/canonica-labs/querygate/pkg/models"
)

// ErrGatewayUnavailable is returned when the gateway cannot be reached.
var ErrGatewayUnavailable = stderrors.New("gateway unavailable")

// GatewayClient is the HTTP client for a running querygate gateway.
type GatewayClient struct {
	endpoint   string
	apiKey     string
	header     string
	httpClient *http.Client
}

// NewGatewayClient creates a new gateway client. An empty header means X-API-Key.
func NewGatewayClient(endpoint, apiKey, header string) *GatewayClient {
	if header == "" {
		header = api.HeaderAPIKey
	}
	return &GatewayClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		header:   header,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the configured gateway endpoint.
func (c *GatewayClient) Endpoint() string {
	return c.endpoint
}

// FetchRequest selects what Fetch downloads.
type FetchRequest struct {
	// Key is the catalog key. Empty lets the gateway pick its default.
	Key string

	// Table switches to the table export endpoint. Key is ignored.
	Table string

	CSV bool

	// Limit is sent verbatim: a number or "all". Empty uses the gateway default.
	Limit  string
	Offset int
	From   string
	To     string
}

func (r FetchRequest) path() string {
	v := url.Values{}
	if r.Limit != "" {
		v.Set(api.ParamLimit, r.Limit)
	}
	if r.Offset > 0 {
		v.Set(api.ParamOffset, strconv.Itoa(r.Offset))
	}

	var p string
	switch {
	case r.Table != "":
		p = api.TablePath(url.PathEscape(r.Table))
	case r.CSV:
		p = api.EndpointQueryCSV
	default:
		p = api.EndpointQuery
	}
	if r.Table == "" {
		if r.Key != "" {
			v.Set(api.ParamQuery, r.Key)
		}
		if r.From != "" {
			v.Set(api.ParamFrom, r.From)
		}
		if r.To != "" {
			v.Set(api.ParamTo, r.To)
		}
	}

	if q := v.Encode(); q != "" {
		p += "?" + q
	}
	return p
}

// Fetch downloads a query result and copies the body to w unchanged.
func (c *GatewayClient) Fetch(ctx context.Context, req FetchRequest, w io.Writer) (int64, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, req.path(), true)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.parseErrorResponse(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read response: %w", err)
	}
	return n, nil
}

// CheckHealth verifies gateway connectivity.
func (c *GatewayClient) CheckHealth(ctx context.Context) (bool, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, api.EndpointHealth, false)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// DBPing asks the gateway to probe its database.
func (c *GatewayClient) DBPing(ctx context.Context) (*models.DBPingResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, api.EndpointDBPing, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result models.DBPingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// doRequest performs an HTTP request to the gateway.
func (c *GatewayClient) doRequest(ctx context.Context, method, path string, authenticated bool) (*http.Response, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: no gateway endpoint configured", ErrGatewayUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if authenticated && c.apiKey != "" {
		req.Header.Set(c.header, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, c.endpoint, err)
	}
	return resp, nil
}

// parseErrorResponse turns a gateway error body into a GatewayError of the matching kind.
func (c *GatewayClient) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	kind := errors.KindInternal
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = errors.KindBadRequest
	case http.StatusUnauthorized:
		kind = errors.KindUnauthorized
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &errors.GatewayError{
			Kind:    kind,
			Message: fmt.Sprintf("gateway error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	return &errors.GatewayError{Kind: kind, Message: errResp.Error}
}
