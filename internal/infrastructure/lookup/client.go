package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nutriscan/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// lookupPath is the remote product-lookup endpoint, relative to the base URL.
const lookupPath = "/v1/products/lookup"

// defaultTimeout bounds the whole remote call. There is no separate
// operation-level timeout above this one; a timeout surfaces as a network
// error.
const defaultTimeout = 30 * time.Second

// Config holds the remote lookup service settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client calls the remote AI product-lookup service.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// lookupPayload is the wire request shape.
type lookupPayload struct {
	ProductName       string                    `json:"productName"`
	Brand             string                    `json:"brand,omitempty"`
	Barcode           string                    `json:"barcode,omitempty"`
	MaxResults        int                       `json:"maxResults"`
	RefinementContext *domain.RefinementContext `json:"refinementContext,omitempty"`
}

// NewClient creates a remote lookup client. The client enforces its own
// outbound request budget on top of the per-user limits upstream.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "NutriScan/1.0").
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    httpClient,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 5),
		logger:  logger,
	}
}

// Lookup posts the product query and decodes the LookupResult payload.
//
// Error mapping: 429 becomes a 60-second rate-limit error, any other non-2xx
// becomes ServerError, an undecodable body becomes ErrInvalidResponse, and a
// transport failure becomes ErrNetwork.
func (c *Client) Lookup(ctx context.Context, req *domain.LookupRequest) (*domain.LookupResult, error) {
	if c.apiKey == "" {
		return nil, domain.ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	payload := &lookupPayload{
		ProductName:       req.ProductName,
		Brand:             req.Brand,
		Barcode:           req.Barcode,
		MaxResults:        req.MaxResults,
		RefinementContext: req.Refinement,
	}

	c.logger.Debug("calling remote lookup",
		zap.String("product", req.ProductName),
		zap.String("brand", req.Brand),
		zap.Int("maxResults", req.MaxResults))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetBody(payload).
		Post(lookupPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, &domain.WindowExceededError{Wait: 60 * time.Second}
	}
	if !resp.IsSuccess() {
		return nil, &domain.ServerError{StatusCode: resp.StatusCode()}
	}

	var result domain.LookupResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	return &result, nil
}
