package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/biter777/countries"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/pkg/config"
)

const (
	lookupCacheSize = 512
	lookupCacheTTL  = time.Hour
)

// Result is a resolved location.
type Result struct {
	Country     string
	CountryCode string
	DisplayName string
	Longitude   float64
	Latitude    float64
}

// Client resolves free-text locations against a Nominatim-compatible search API.
type Client struct {
	endpoint  string
	userAgent string
	attempts  uint
	http      *http.Client
	cache     *expirable.LRU[string, Result]
	logger    *zap.Logger
}

// NewClient builds a geocoder from configuration.
func NewClient(cfg config.GeocoderConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		endpoint:  cfg.URL,
		userAgent: cfg.UserAgent,
		attempts:  uint(retries) + 1,
		http:      &http.Client{Timeout: timeout},
		cache:     expirable.NewLRU[string, Result](lookupCacheSize, nil, lookupCacheTTL),
		logger:    logger,
	}
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup returns the best match for text, or nil when nothing matched.
// Transport errors and 5xx responses are retried.
func (c *Client) Lookup(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if c.endpoint == "" {
		return nil, fmt.Errorf("geocoder endpoint not configured")
	}
	cacheKey := strings.ToLower(text)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return &cached, nil
	}

	var hits []searchHit
	err := retry.Do(
		func() error {
			var err error
			hits, err = c.search(ctx, text)
			return err
		},
		retry.Attempts(c.attempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			_, permanent := err.(permanentError)
			return !permanent
		}),
	)
	if err != nil {
		c.logger.Warn("geocode lookup failed", zap.String("query", text), zap.Error(err))
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	hit := hits[0]
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude: %w", err)
	}
	country := CountryFromAddress(hit.DisplayName)
	result := Result{
		Country:     country,
		CountryCode: CountryCode(country),
		DisplayName: hit.DisplayName,
		Longitude:   lon,
		Latitude:    lat,
	}
	c.cache.Add(cacheKey, result)
	return &result, nil
}

func (c *Client) search(ctx context.Context, text string) ([]searchHit, error) {
	query := url.Values{}
	query.Set("q", text)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, permanentError{err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, permanentError{fmt.Errorf("geocoder status %d", resp.StatusCode)}
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, permanentError{fmt.Errorf("decode geocoder response: %w", err)}
	}
	return hits, nil
}

// CountryFromAddress takes the last comma separated component of a display address.
func CountryFromAddress(address string) string {
	parts := strings.Split(address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// CountryCode maps a country name or ISO code to ISO 3166-1 alpha-2, or "" when unknown.
func CountryCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if c := countries.ByName(name); c != countries.Unknown {
		return c.Alpha2()
	}
	return ""
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }
