package mls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/listing-api/internal/resilient"
)

const (
	DefaultBaseURL  = "https://query.ampre.ca/odata"
	defaultLimit    = 50
	mediaBatchSize  = 20 // keeps the $filter under upstream URL length limits
	mediaPageSize   = 1000
	maxPayloadBytes = 8 << 20
	searchOrderBy   = "ModificationTimestamp desc"
)

var ErrNotConfigured = errors.New("MLS API token is not configured")

type Config struct {
	Token   string
	BaseURL string
	Retry   resilient.Config
	Logger  *slog.Logger
}

// Client talks to the MLS OData API. A Client without a token is a valid,
// switched-off client: every call returns an empty result without touching
// the network.
type Client struct {
	token   string
	baseURL string
	fetcher *resilient.Fetcher
	log     *slog.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		token:   strings.TrimSpace(cfg.Token),
		baseURL: base,
		fetcher: resilient.New(cfg.Retry),
		log:     logger.With("component", "mls.Client"),
	}
}

func (c *Client) Configured() bool { return c != nil && c.token != "" }

// Search runs one page of a listing search. Failures come back as
// Success=false with an explanatory Error, never as a Go error.
func (c *Client) Search(ctx context.Context, criteria SearchCriteria) SearchResult {
	if !c.Configured() {
		return SearchResult{Success: false, Listings: []ResoListing{}, Total: 0, Error: ErrNotConfigured.Error()}
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := criteria.Offset
	if offset < 0 {
		offset = 0
	}
	q := url.Values{}
	if filter := BuildFilter(criteria); filter != "" {
		q.Set("$filter", filter)
	}
	q.Set("$top", strconv.Itoa(limit))
	q.Set("$skip", strconv.Itoa(offset))
	q.Set("$orderby", searchOrderBy)
	q.Set("$count", "true")
	u := fmt.Sprintf("%s/Property?%s", c.baseURL, q.Encode())

	var payload struct {
		Value []ResoListing `json:"value"`
		Count int           `json:"@odata.count"`
	}
	if err := c.getJSON(ctx, u, &payload); err != nil {
		c.log.Warn("search failed", "error", err, "filter", q.Get("$filter"))
		return SearchResult{Success: false, Listings: []ResoListing{}, Total: 0, Error: err.Error()}
	}
	if payload.Value == nil {
		payload.Value = []ResoListing{}
	}
	c.log.Debug("search complete", "returned", len(payload.Value), "total", payload.Count)
	return SearchResult{Success: true, Listings: payload.Value, Total: payload.Count}
}

// FetchMedia loads media for the given listing keys in sequential batches and
// merges them by listing key. A failed batch is logged and skipped; whatever
// earlier batches returned is kept.
func (c *Client) FetchMedia(ctx context.Context, keys []string) map[string][]MediaRecord {
	out := make(map[string][]MediaRecord, len(keys))
	if !c.Configured() {
		return out
	}
	keys = uniqueNonEmpty(keys)
	for start := 0; start < len(keys); start += mediaBatchSize {
		end := min(start+mediaBatchSize, len(keys))
		batch := keys[start:end]

		q := url.Values{}
		q.Set("$filter", eqAny("ResourceRecordKey", batch))
		q.Set("$top", strconv.Itoa(mediaPageSize))
		u := fmt.Sprintf("%s/Media?%s", c.baseURL, q.Encode())

		var payload struct {
			Value []MediaRecord `json:"value"`
		}
		if err := c.getJSON(ctx, u, &payload); err != nil {
			c.log.Warn("media batch failed", "error", err, "batch_start", start, "batch_size", len(batch))
			continue
		}
		for _, m := range payload.Value {
			if m.ResourceRecordKey == "" {
				continue
			}
			out[m.ResourceRecordKey] = append(out[m.ResourceRecordKey], m)
		}
	}
	return out
}

// GetListing fetches one listing by key. Any failure, including 404, yields
// nil: detail views treat a missing listing as not found.
func (c *Client) GetListing(ctx context.Context, key string) *ResoListing {
	key = strings.TrimSpace(key)
	if !c.Configured() || key == "" {
		return nil
	}
	u := fmt.Sprintf("%s/Property(%s)", c.baseURL, url.PathEscape(quote(key)))
	var rec ResoListing
	if err := c.getJSON(ctx, u, &rec); err != nil {
		c.log.Info("listing lookup failed", "listing_key", key, "error", err)
		return nil
	}
	if rec.ListingKey == "" {
		return nil
	}
	return &rec
}

func (c *Client) getJSON(ctx context.Context, u string, dst any) error {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Authorization", "Bearer "+c.token)

	resp, err := c.fetcher.Get(ctx, u, h)
	if err != nil {
		return fmt.Errorf("MLS request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("MLS API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	b, err := ioReadAllLimit(resp.Body, maxPayloadBytes)
	if err != nil {
		return fmt.Errorf("read MLS response: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode MLS response: %w", err)
	}
	return nil
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}

func uniqueNonEmpty(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
