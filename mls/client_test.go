package mls

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listing-api/internal/resilient"
)

func testRetry() resilient.Config {
	return resilient.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		Jitter:     func() float64 { return 0 },
	}
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{Token: "secret", BaseURL: srv.URL, Retry: testRetry()}), srv
}

func TestSearchWithoutTokenMakesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Retry: testRetry()})
	res := c.Search(context.Background(), SearchCriteria{})

	assert.False(t, res.Success)
	assert.Empty(t, res.Listings)
	assert.NotNil(t, res.Listings)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, ErrNotConfigured.Error(), res.Error)
	assert.Nil(t, c.GetListing(context.Background(), "K1"))
	assert.Empty(t, c.FetchMedia(context.Background(), []string{"K1"}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSearchComposesODataRequest(t *testing.T) {
	var got *http.Request
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"@odata.count": 321, "value": [
			{"ListingKey": "A1", "ListPrice": 650000},
			{"ListingKey": "A2", "ListPrice": 2900}
		]}`))
	}))

	res := c.Search(context.Background(), SearchCriteria{City: "Toronto", MinBeds: 2, Limit: 2, Offset: 4})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, 321, res.Total)
	require.Len(t, res.Listings, 2)
	assert.Equal(t, "A1", res.Listings[0].ListingKey)

	require.NotNil(t, got)
	assert.Equal(t, "/Property", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "startswith(City,'Toronto') and BedroomsTotal ge 2 and StandardStatus eq 'Active'", q.Get("$filter"))
	assert.Equal(t, "2", q.Get("$top"))
	assert.Equal(t, "4", q.Get("$skip"))
	assert.Equal(t, "ModificationTimestamp desc", q.Get("$orderby"))
	assert.Equal(t, "true", q.Get("$count"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
}

func TestSearchDefaultsPagination(t *testing.T) {
	var q map[string][]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		_, _ = w.Write([]byte(`{"value": []}`))
	}))

	res := c.Search(context.Background(), SearchCriteria{})
	require.True(t, res.Success)
	assert.NotNil(t, res.Listings)
	assert.Equal(t, []string{"50"}, q["$top"])
	assert.Equal(t, []string{"0"}, q["$skip"])
}

func TestSearchReportsUpstreamStatus(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	res := c.Search(context.Background(), SearchCriteria{})

	assert.False(t, res.Success)
	assert.Empty(t, res.Listings)
	assert.Equal(t, 0, res.Total)
	assert.Contains(t, res.Error, "503")
	assert.Contains(t, res.Error, "Service Unavailable")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchDoesNotRetryUnauthorized(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	res := c.Search(context.Background(), SearchCriteria{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))

	res := c.Search(context.Background(), SearchCriteria{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "decode")
}

func TestGetListing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Property('X1')" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"ListingKey": "X1", "ListingId": "W100", "ListPrice": 1200000}`))
	}))

	rec := c.GetListing(context.Background(), "X1")
	require.NotNil(t, rec)
	assert.Equal(t, "W100", rec.ListingId)

	assert.Nil(t, c.GetListing(context.Background(), "missing"))
	assert.Nil(t, c.GetListing(context.Background(), ""))
}

func TestGetListingNotFoundIsNil(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))

	assert.Nil(t, c.GetListing(context.Background(), "X1"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetListingServerErrorIsNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	assert.Nil(t, c.GetListing(context.Background(), "X1"))
}

func TestFetchMediaBatchesAndMerges(t *testing.T) {
	var filters []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("$filter")
		filters = append(filters, filter)
		if len(filters) == 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// echo one media record per key found in the filter
		var value []MediaRecord
		for _, part := range strings.Split(strings.Trim(filter, "()"), " or ") {
			key := strings.TrimSuffix(strings.TrimPrefix(part, "ResourceRecordKey eq '"), "'")
			value = append(value, MediaRecord{ResourceRecordKey: key, MediaURL: "https://cdn.example.com/" + key + "/p.jpg"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
	}))

	keys := make([]string, 0, 45)
	for i := 0; i < 45; i++ {
		keys = append(keys, fmt.Sprintf("K%02d", i))
	}
	keys = append(keys, "K00", "")

	media := c.FetchMedia(context.Background(), keys)

	require.Len(t, filters, 3)
	assert.Equal(t, 20, strings.Count(filters[0], "ResourceRecordKey eq"))
	assert.Equal(t, 20, strings.Count(filters[1], "ResourceRecordKey eq"))
	assert.Equal(t, 5, strings.Count(filters[2], "ResourceRecordKey eq"))

	// second batch failed; first and third survive
	assert.Len(t, media, 25)
	assert.Contains(t, media, "K00")
	assert.NotContains(t, media, "K20")
	assert.Contains(t, media, "K44")
	assert.Len(t, media["K00"], 1)
}
