package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/listing-api/internal/env"
	"github.com/yourorg/listing-api/internal/logger"
	"github.com/yourorg/listing-api/mls"
)

// ListingSource is the slice of mls.Client the handlers use.
type ListingSource interface {
	Configured() bool
	Search(ctx context.Context, criteria mls.SearchCriteria) mls.SearchResult
	FetchMedia(ctx context.Context, keys []string) map[string][]mls.MediaRecord
	GetListing(ctx context.Context, key string) *mls.ResoListing
}

type SearchDeps struct {
	Listings ListingSource
}

func RegisterSearch(r chi.Router, d SearchDeps) {
	// POST: JSON body
	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		var body mls.SearchCriteria
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		handleSearchRequest(w, req, d, body)
	})

	// GET: query params
	r.Get("/search", func(w http.ResponseWriter, req *http.Request) {
		handleSearchRequest(w, req, d, criteriaFromQuery(req.URL.Query()))
	})
}

func handleSearchRequest(w http.ResponseWriter, req *http.Request, d SearchDeps, body mls.SearchCriteria) {
	log := logger.FromContext(req.Context())
	if d.Listings == nil || !d.Listings.Configured() {
		render.Status(req, http.StatusServiceUnavailable)
		render.JSON(w, req, mls.PropertyPage{Success: false, Listings: []mls.Property{}, Error: mls.ErrNotConfigured.Error()})
		return
	}

	res := d.Listings.Search(req.Context(), body)
	if !res.Success {
		log.Warn("search failed", "error", res.Error)
		render.Status(req, http.StatusBadGateway)
		render.JSON(w, req, res.Normalize(nil))
		return
	}

	media := d.Listings.FetchMedia(req.Context(), keysWithoutMedia(res.Listings))
	page := res.Normalize(media)
	log.Info("served search", "count", len(page.Listings), "total", page.Total)
	render.JSON(w, req, page)
}

func keysWithoutMedia(listings []mls.ResoListing) []string {
	keys := make([]string, 0, len(listings))
	for _, l := range listings {
		if len(l.Media) == 0 && l.ListingKey != "" {
			keys = append(keys, l.ListingKey)
		}
	}
	return keys
}

func criteriaFromQuery(q url.Values) mls.SearchCriteria {
	c := mls.SearchCriteria{
		ListingType:   q.Get("listingType"),
		PropertyClass: q.Get("propertyClass"),
		Keywords:      q.Get("keywords"),
		Status:        q.Get("status"),
	}
	c.Cities = multi(q, "city")
	c.PropertyTypes = multi(q, "propertyType")
	c.MinPrice = queryFloat(q, "minPrice")
	c.MaxPrice = queryFloat(q, "maxPrice")
	c.MinBeds = queryInt(q, "beds")
	c.MinBaths = queryInt(q, "baths")
	c.MinSqft = queryInt(q, "minSqft")
	c.MaxSqft = queryInt(q, "maxSqft")
	c.MinLotSize = queryFloat(q, "minLotSize")
	c.MaxLotSize = queryFloat(q, "maxLotSize")
	c.MaxDaysOnMarket = queryInt(q, "maxDaysOnMarket")
	c.Limit = queryInt(q, "limit")
	c.Offset = queryInt(q, "offset")
	return c
}

// multi accepts repeated params and comma lists: ?city=A&city=B or ?city=A,B
func multi(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		out = append(out, env.SplitList(v)...)
	}
	return out
}

func queryInt(q url.Values, key string) int {
	if v := q.Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}

func queryFloat(q url.Values, key string) float64 {
	if v := q.Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

func writeError(w http.ResponseWriter, req *http.Request, status int, code, detail string) {
	render.Status(req, status)
	body := map[string]any{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	render.JSON(w, req, body)
}
